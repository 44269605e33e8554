// Command apexsim runs the APEX 5-stage pipeline simulator over an
// assembly program, in either free-running or single-step mode.
//
// Usage:
//
//	apexsim [-config path] <program_file> [simulate <n>]
//
// With no simulate argument the run defaults to interactive single-step:
// the simulator prints the architectural state dump after every cycle and
// waits for a keypress ("q" to quit) before advancing, mirroring the
// reference's single-step mode. With "simulate <n>" it runs up to n cycles
// non-interactively and prints the final dump once. The -config flag
// points at a JSON configuration file (see package config): cycle_budget
// sets the default cycle cap when no "simulate <n>" is given (and bounds
// single-step mode too), and debug_trace forces single-step dumping even
// when "simulate <n>" is given.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/sarchlab/apexsim/config"
	"github.com/sarchlab/apexsim/core"
	"github.com/sarchlab/apexsim/loader"
)

var configPath = flag.String("config", "", "Path to simulation configuration JSON file")

func main() {
	flag.Parse()
	fmt.Fprintln(os.Stderr, "APEX CPU Pipeline Simulator")

	args := flag.Args()
	if len(args) < 1 || len(args) > 3 {
		usage()
		os.Exit(1)
	}

	cfg := config.DefaultConfig()
	if *configPath != "" {
		loaded, err := config.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "apexsim: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "apexsim: invalid configuration: %v\n", err)
		os.Exit(1)
	}

	programPath := args[0]
	cycleLimit := cfg.CycleBudget
	explicitLimit := false

	switch len(args) {
	case 3:
		if args[1] != "simulate" {
			usage()
			os.Exit(1)
		}
		n, err := strconv.ParseUint(args[2], 10, 64)
		if err != nil || n == 0 {
			fmt.Fprintln(os.Stderr, "apexsim: invalid number of cycles, expected a positive integer")
			os.Exit(1)
		}
		cycleLimit = n
		explicitLimit = true
	case 2:
		usage()
		os.Exit(1)
	}

	program, err := loader.Load(programPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "apexsim: %v\n", err)
		os.Exit(1)
	}

	c := core.NewCore(program)

	switch {
	case explicitLimit && !cfg.DebugTrace:
		runCycles(c, cycleLimit)
	default:
		runSingleStep(c, cycleLimit)
	}

	fmt.Print(c.Dump())
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [-config path] <program_file> [simulate <n>]\n", os.Args[0])
	flag.PrintDefaults()
}

func runCycles(c *core.Core, n uint64) {
	c.RunCycles(n)
	stats := c.Stats()
	fmt.Printf("APEX_CPU: Simulation Complete, cycles = %d instructions = %d\n", stats.Cycles, stats.Instructions)
}

func runSingleStep(c *core.Core, cycleLimit uint64) {
	reader := bufio.NewReader(os.Stdin)

	for i := uint64(0); !c.Halted() && (cycleLimit == 0 || i < cycleLimit); i++ {
		c.Tick()
		fmt.Print(c.Dump())
		fmt.Println("Press Enter to advance the clock, or q + Enter to quit:")

		line, err := reader.ReadString('\n')
		if err != nil {
			break
		}
		if line == "q\n" || line == "Q\n" {
			break
		}
	}

	stats := c.Stats()
	fmt.Printf("APEX_CPU: Simulation Stopped, cycles = %d instructions = %d\n", stats.Cycles, stats.Instructions)
}
