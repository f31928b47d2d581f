// Command hdlflat-sim runs a pre-elaborated program to completion,
// illustrative and external to the core per spec §6: it loads a JSON
// ir.Context, an optional initial data dump, drives the engine, and
// writes the final memory state back out.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/sarchlab/akita/v4/monitoring"
	"github.com/sarchlab/akita/v4/sim"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/hdlflat/config"
	"github.com/sarchlab/hdlflat/datadump"
	"github.com/sarchlab/hdlflat/flatten"
	"github.com/sarchlab/hdlflat/ir"
	"github.com/sarchlab/hdlflat/report"
	"github.com/sarchlab/hdlflat/simulator"
)

func main() {
	programPath := flag.String("program", "", "path to a pre-elaborated JSON ir.Context")
	initPath := flag.String("init", "", "optional path to an initial JSON data dump")
	outPath := flag.String("out", "", "path to write the final data dump (stdout if empty)")
	configPath := flag.String("config", "", "optional path to a YAML SimulatorConfig")
	maxCycles := flag.Uint64("max-cycles", 0, "host-side cycle bound, 0 for unbounded")
	dumpRegisters := flag.Bool("dump-registers", true, "include registers in the final dump")
	flag.Parse()

	if *programPath == "" {
		fmt.Fprintln(os.Stderr, "hdlflat-sim: -program is required")
		atexit.Exit(1)
		return
	}

	cfg := config.MakeBuilder().
		WithMaxCycles(*maxCycles).
		WithDumpRegisters(*dumpRegisters).
		Build()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "hdlflat-sim: loading config:", err)
			atexit.Exit(1)
			return
		}
		cfg = loaded
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	simulator.Logger = logger

	ctx, err := loadContext(*programPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "hdlflat-sim: loading program:", err)
		atexit.Exit(1)
		return
	}

	var initial datadump.DataDump
	if *initPath != "" {
		initial, err = datadump.Load(*initPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "hdlflat-sim: loading init dump:", err)
			atexit.Exit(1)
			return
		}
	}

	env, err := flatten.NewEnvironment(ctx, initial.ToPrimitiveMap())
	if err != nil {
		fmt.Fprintln(os.Stderr, "hdlflat-sim: building environment:", err)
		atexit.Exit(1)
		return
	}

	engine := sim.NewSerialEngine()
	monitor := monitoring.NewMonitor()
	monitor.RegisterEngine(engine)

	sr := simulator.MakeBuilder().
		WithEngine(engine).
		WithFreq(1 * sim.GHz).
		WithEnvironment(env).
		WithMaxCycles(cfg.MaxCycles).
		WithMonitor(monitor).
		Build("Simulator")

	if err := sr.Run(engine); err != nil {
		fmt.Fprintln(os.Stderr, "hdlflat-sim: run failed:", err)
		printFailure(env, err)
		atexit.Exit(1)
		return
	}
	if err := sr.Err(); err != nil {
		printFailure(env, err)
		atexit.Exit(1)
		return
	}

	dump := sr.DumpMemories(cfg.DumpRegisters)
	if *outPath != "" {
		if err := datadump.Save(*outPath, dump); err != nil {
			fmt.Fprintln(os.Stderr, "hdlflat-sim: saving dump:", err)
			atexit.Exit(1)
			return
		}
	} else {
		raw, _ := json.MarshalIndent(dump, "", "  ")
		fmt.Println(string(raw))
	}

	fmt.Fprintf(os.Stderr, "hdlflat-sim: completed in %d cycles\n", sr.Cycle())
	atexit.Exit(0)
}

func loadContext(path string) (*ir.Context, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	ctx := &ir.Context{}
	if err := json.Unmarshal(raw, ctx); err != nil {
		return nil, err
	}
	return ctx, nil
}

func printFailure(env *flatten.Environment, err error) {
	if conflict, ok := err.(*flatten.ErrConflictingAssignments); ok {
		fmt.Fprintln(os.Stderr, report.ConflictTable(env, conflict))
		return
	}
	fmt.Fprintln(os.Stderr, report.ErrorKindName(err)+":", err)
}
