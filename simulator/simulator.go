// Package simulator wraps the flatten engine as an akita TickingComponent,
// grounded on core/builder.go's component-construction pattern and
// api/driver.go's Tick signature — one Tick is one flatten.Step.
package simulator

import (
	"log/slog"

	"github.com/sarchlab/akita/v4/monitoring"
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/hdlflat/datadump"
	"github.com/sarchlab/hdlflat/flatten"
	"github.com/sarchlab/hdlflat/ir"
	"github.com/sarchlab/hdlflat/report"
)

// HookPosCycleStart marks the beginning of one Tick's flatten.Step call.
var HookPosCycleStart = &sim.HookPos{Name: "Cycle Start"}

// HookPosRootDone marks the cycle in which the root component's done port
// first goes high — the only "debugger" surface spec §10's non-goal asks
// for, an event hosts can observe via a hook instead of a UI.
var HookPosRootDone = &sim.HookPos{Name: "Root Done"}

// Logger is package-level so hosts can redirect or silence engine
// diagnostics, grounded on core/emu.go's slog.Info("Flow", ...) calls.
var Logger = slog.Default()

// Simulator drives a flatten.Environment one cycle per Tick, logging each
// completed step at Debug, root completion at Info, the cycle bound at
// Warn and an engine error at Error.
type Simulator struct {
	*sim.TickingComponent

	env       *flatten.Environment
	done      bool
	err       error
	cycle     uint64
	maxCycles uint64
}

// Builder assembles a Simulator the way core/builder.go assembles a
// TickingComponent: chained value-receiver WithX methods, then Build.
type Builder struct {
	engine    sim.Engine
	freq      sim.Freq
	env       *flatten.Environment
	maxCycles uint64
	monitor   *monitoring.Monitor
}

// MakeBuilder returns a Builder with a 1 GHz default frequency, matching
// core/builder.go's MakeBuilder default.
func MakeBuilder() Builder {
	return Builder{freq: 1 * sim.GHz}
}

func (b Builder) WithEngine(e sim.Engine) Builder {
	b.engine = e
	return b
}

func (b Builder) WithFreq(f sim.Freq) Builder {
	b.freq = f
	return b
}

func (b Builder) WithEnvironment(env *flatten.Environment) Builder {
	b.env = env
	return b
}

// WithMaxCycles sets a host-side cycle bound (0 means unbounded), since
// the core's convergence loop and clocked step never time out on their
// own per spec §5.
func (b Builder) WithMaxCycles(n uint64) Builder {
	b.maxCycles = n
	return b
}

// WithMonitor registers the built Simulator with monitor, the concrete,
// already-hookable "debugger" the engine's no-UI non-goal declines to
// build a UI for — external tooling inspects the monitor's HTTP endpoint
// instead.
func (b Builder) WithMonitor(monitor *monitoring.Monitor) Builder {
	b.monitor = monitor
	return b
}

// Build constructs the Simulator and registers it as a TickingComponent on
// the builder's engine.
func (b Builder) Build(name string) *Simulator {
	s := &Simulator{env: b.env, maxCycles: b.maxCycles}
	s.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, s)
	if b.monitor != nil {
		b.monitor.RegisterComponent(s)
	}
	return s
}

// Tick advances the environment by one clock cycle. madeProgress is false
// once the root component's done port has gone high or the engine has
// hit a fatal error — either way, the host engine should stop scheduling
// further ticks for this component.
func (s *Simulator) Tick(now sim.VTimeInSec) (madeProgress bool) {
	if s.done || s.err != nil {
		return false
	}

	if s.maxCycles != 0 && s.cycle >= s.maxCycles {
		Logger.Warn("max cycle bound reached", "cycle", s.cycle)
		s.done = true
		return false
	}
	s.cycle++

	s.InvokeHook(sim.HookCtx{Domain: s, Pos: HookPosCycleStart, Item: now})

	if err := s.env.Step(); err != nil {
		s.err = err
		Logger.Error("engine halted", "cycle", now, "error", err)
		return false
	}

	rootDone, ok := s.env.Ports.Get(s.env.GetRootDone()).AsBool()
	if ok && rootDone {
		s.done = true
		s.InvokeHook(sim.HookCtx{Domain: s, Pos: HookPosRootDone, Item: now})
		Logger.Info("root done", "cycle", now)
		return false
	}

	Logger.Debug("step complete", "cycle", now)
	return true
}

// Err reports the fatal error that stopped the simulation, if any.
func (s *Simulator) Err() error {
	return s.err
}

// Done reports whether the root component's done port has gone high.
func (s *Simulator) Done() bool {
	return s.done
}

// Cycle reports how many clock cycles have elapsed.
func (s *Simulator) Cycle() uint64 {
	return s.cycle
}

// Environment exposes the wrapped engine for callers that need direct
// access, e.g. to seed initial state before the first Tick.
func (s *Simulator) Environment() *flatten.Environment {
	return s.env
}

// Run drives engine to completion, relying on the TickingComponent's own
// Tick to stop self-rescheduling once it returns false (root done, or a
// fatal error), so hooks and the host's own scheduling still apply —
// matching the driver.Run() call every sample's main() makes.
func (s *Simulator) Run(engine sim.Engine) error {
	if err := engine.Run(); err != nil {
		return err
	}
	return s.err
}

// DumpMemories walks the dense cell map for every primitive cell with
// serializable state (registers and memories), optionally skipping
// registers when dumpRegisters is false — registers dump as D1(1) per
// spec §6, so a single-register dump is the same shape as a memory's.
func (s *Simulator) DumpMemories(dumpRegisters bool) datadump.DataDump {
	dump := make(datadump.DataDump)
	for i := 0; i < s.env.Cells.Len(); i++ {
		idx := ir.GlobalCellIdx(i)
		cell := s.env.Cells.Get(idx)
		if cell.IsComponent() {
			continue
		}
		prim := cell.AsPrimitive()
		if !prim.HasSerializableState() {
			continue
		}
		state := prim.Dump()
		if state == nil {
			continue
		}
		if !dumpRegisters && len(state.Dims) == 1 && state.Dims[0] == 1 {
			continue
		}
		dump[cellName(s.env, idx)] = datadump.FromState(state)
	}
	return dump
}

// LoadInitialState seeds every primitive cell with serializable state from
// a previously-saved DataDump, matching by the same dotted name report.go
// and DumpMemories use.
func LoadInitialState(env *flatten.Environment, dump datadump.DataDump) error {
	m := dump.ToPrimitiveMap()
	for i := 0; i < env.Cells.Len(); i++ {
		idx := ir.GlobalCellIdx(i)
		cell := env.Cells.Get(idx)
		if cell.IsComponent() {
			continue
		}
		prim := cell.AsPrimitive()
		if !prim.HasSerializableState() {
			continue
		}
		state, ok := m[cellName(env, idx)]
		if !ok {
			continue
		}
		if err := prim.LoadState(state); err != nil {
			return err
		}
	}
	return nil
}

// cellName resolves a global cell index's dotted instance name, delegating
// to report.ComponentPath, which already walks the enclosing-component
// chain since the engine stores no name back-pointers alongside the dense
// cell map.
func cellName(env *flatten.Environment, target ir.GlobalCellIdx) string {
	return report.ComponentPath(env, target)
}
