package config_test

import (
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/apexsim/config"
)

func TestConfig(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Config Suite")
}

var _ = Describe("Config", func() {
	It("returns sane defaults", func() {
		c := config.DefaultConfig()
		Expect(c.CycleBudget).To(BeNumerically(">", 0))
		Expect(c.BTBCapacity).To(Equal(4))
		Expect(c.Validate()).To(Succeed())
	})

	It("round-trips through save and load", func() {
		dir := GinkgoT().TempDir()
		path := filepath.Join(dir, "config.json")

		c := config.DefaultConfig()
		c.DebugTrace = true
		c.CycleBudget = 42

		Expect(c.SaveConfig(path)).To(Succeed())

		loaded, err := config.LoadConfig(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded.DebugTrace).To(BeTrue())
		Expect(loaded.CycleBudget).To(Equal(uint64(42)))
	})

	It("rejects a BTB capacity other than 4", func() {
		c := config.DefaultConfig()
		c.BTBCapacity = 8
		Expect(c.Validate()).To(HaveOccurred())
	})

	It("fails to load a missing file", func() {
		_, err := config.LoadConfig("/nonexistent/path/config.json")
		Expect(err).To(HaveOccurred())
	})

	It("clones independently of the original", func() {
		c := config.DefaultConfig()
		clone := c.Clone()
		clone.CycleBudget = 999
		Expect(c.CycleBudget).NotTo(Equal(clone.CycleBudget))
	})
})
