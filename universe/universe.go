// Package universe ties the simulator together: one random generator,
// the kernels holding compiled macros, the quantum systems, and the
// interpreters that compile program text. Everything a request can
// touch hangs off a Universe handle.
package universe

import (
	"bytes"
	"fmt"

	"github.com/tliron/commonlog"

	"github.com/chazu/sabot/kernel"
	"github.com/chazu/sabot/language"
	"github.com/chazu/sabot/randnum"
	"github.com/chazu/sabot/registry"
	"github.com/chazu/sabot/state"
)

// Config selects the universe's tunables.
type Config struct {
	// Seed fixes the random generator's seed. Nil draws a seed from
	// the operating system.
	Seed *uint64

	// MacroRecursionLimit bounds macro expansion depth. Zero selects
	// the default.
	MacroRecursionLimit int
}

// Universe owns all simulator state for one process.
type Universe struct {
	random         *randnum.Generator
	kernels        *registry.Store[*kernel.Kernel]
	systems        *registry.Store[*state.System]
	interpreters   *registry.LabelStore[*language.Interpreter]
	recursionLimit int
	log            commonlog.Logger
}

// New builds a universe from config.
func New(config Config) (*Universe, error) {
	var random *randnum.Generator
	if config.Seed != nil {
		random = randnum.NewSeeded(*config.Seed)
	} else {
		var err error
		random, err = randnum.New()
		if err != nil {
			return nil, err
		}
	}

	u := &Universe{
		random:         random,
		kernels:        registry.NewStore[*kernel.Kernel](),
		systems:        registry.NewStore[*state.System](),
		interpreters:   registry.NewLabelStore[*language.Interpreter](),
		recursionLimit: config.MacroRecursionLimit,
		log:            commonlog.GetLogger("sabot.universe"),
	}
	u.log.Infof("universe ready, seed=%d", random.Seed())
	return u, nil
}

// Random returns the universe's random generator.
func (u *Universe) Random() *randnum.Generator {
	return u.random
}

// environment builds the collaborator set handed to state types.
func (u *Universe) environment() state.Environment {
	return state.Environment{
		Macros:              u,
		Random:              u.random,
		MacroRecursionLimit: u.recursionLimit,
	}
}

// ---------------------------------------------------------------------------
// Compilation
// ---------------------------------------------------------------------------

// Interpreter returns the interpreter for a dialect, creating it on
// first use. Interpreters live for the universe's lifetime.
func (u *Universe) Interpreter(dialect string) (*language.Interpreter, error) {
	return u.interpreters.GetOrInsert(dialect, func() (*language.Interpreter, error) {
		return language.NewInterpreter(dialect)
	})
}

// CompileProgram parses program text written in the named dialect.
func (u *Universe) CompileProgram(dialect string, data []byte, lineDelimiter byte) (*language.Program, error) {
	ip, err := u.Interpreter(dialect)
	if err != nil {
		return nil, err
	}
	return ip.ParseProgram(data, lineDelimiter)
}

// CompileMacro compiles program text and stores it in a kernel,
// returning the new macro's id.
func (u *Universe) CompileMacro(kernelID uint64, dialect string, data []byte, lineDelimiter byte) (uint64, error) {
	prog, err := u.CompileProgram(dialect, data, lineDelimiter)
	if err != nil {
		return 0, err
	}

	var macroID uint64
	err = u.kernels.Edit(kernelID, func(k *kernel.Kernel) error {
		macroID = k.InsertMacro(prog)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("kernel %d: %w", kernelID, err)
	}
	return macroID, nil
}

// Macro resolves a compiled macro. It satisfies the macro source
// contract state types execute against.
func (u *Universe) Macro(kernelID, macroID uint64) (*language.Program, error) {
	k, err := u.kernels.Get(kernelID)
	if err != nil {
		return nil, fmt.Errorf("kernel %d: %w", kernelID, err)
	}
	prog, err := k.Macro(macroID)
	if err != nil {
		return nil, fmt.Errorf("kernel %d macro %d: %w", kernelID, macroID, err)
	}
	return prog, nil
}

// ---------------------------------------------------------------------------
// Kernels
// ---------------------------------------------------------------------------

// CreateKernel adds an empty kernel and returns its id.
func (u *Universe) CreateKernel() uint64 {
	id := u.kernels.Insert(kernel.New())
	u.log.Debugf("kernel %d created", id)
	return id
}

// DeleteKernel removes a kernel. It reports whether the kernel
// existed.
func (u *Universe) DeleteKernel(kernelID uint64) bool {
	ok := u.kernels.Erase(kernelID)
	u.log.Debugf("kernel %d deleted=%t", kernelID, ok)
	return ok
}

// ---------------------------------------------------------------------------
// Systems and states
// ---------------------------------------------------------------------------

// CreateSystem adds a system with a fresh instance of the named state
// type and returns its id.
func (u *Universe) CreateSystem(stateType string) (uint64, error) {
	sys, err := state.NewSystem(stateType, u.environment())
	if err != nil {
		return 0, err
	}
	id := u.systems.Insert(sys)
	u.log.Debugf("system %d created, type=%s", id, stateType)
	return id, nil
}

// DeleteSystem removes a system and every state it owns. It reports
// whether the system existed.
func (u *Universe) DeleteSystem(systemID uint64) bool {
	ok := u.systems.Erase(systemID)
	u.log.Debugf("system %d deleted=%t", systemID, ok)
	return ok
}

// CreateState compiles program text and runs it on an empty state in
// the system, returning the new state's id.
func (u *Universe) CreateState(systemID uint64, dialect string, data []byte, lineDelimiter byte) (uint64, error) {
	sys, err := u.systems.Get(systemID)
	if err != nil {
		return 0, fmt.Errorf("system %d: %w", systemID, err)
	}
	prog, err := u.CompileProgram(dialect, data, lineDelimiter)
	if err != nil {
		return 0, err
	}
	return sys.Type().ProgramInsertState(prog)
}

// ModifyState compiles program text and runs it against an existing
// state, discarding measurements.
func (u *Universe) ModifyState(systemID, stateID uint64, dialect string, data []byte, lineDelimiter byte) error {
	sys, err := u.systems.Get(systemID)
	if err != nil {
		return fmt.Errorf("system %d: %w", systemID, err)
	}
	prog, err := u.CompileProgram(dialect, data, lineDelimiter)
	if err != nil {
		return err
	}
	return sys.Type().ProgramModifyState(stateID, prog)
}

// MeasureState compiles program text and runs it against an existing
// state, appending measurement outcomes to buffer.
func (u *Universe) MeasureState(systemID, stateID uint64, dialect string, data []byte, lineDelimiter byte, buffer *bytes.Buffer) error {
	sys, err := u.systems.Get(systemID)
	if err != nil {
		return fmt.Errorf("system %d: %w", systemID, err)
	}
	prog, err := u.CompileProgram(dialect, data, lineDelimiter)
	if err != nil {
		return err
	}
	return sys.Type().ProgramMeasureState(stateID, prog, buffer)
}

// DeleteState removes a state from a system. It reports whether the
// state existed.
func (u *Universe) DeleteState(systemID, stateID uint64) (bool, error) {
	sys, err := u.systems.Get(systemID)
	if err != nil {
		return false, fmt.Errorf("system %d: %w", systemID, err)
	}
	return sys.Type().DeleteState(stateID), nil
}

// ComputeResult compiles program text and runs it against a
// throwaway state, appending measurement outcomes to buffer.
func (u *Universe) ComputeResult(systemID uint64, dialect string, data []byte, lineDelimiter byte, buffer *bytes.Buffer) error {
	sys, err := u.systems.Get(systemID)
	if err != nil {
		return fmt.Errorf("system %d: %w", systemID, err)
	}
	prog, err := u.CompileProgram(dialect, data, lineDelimiter)
	if err != nil {
		return err
	}
	return sys.Type().ProgramComputeResult(prog, buffer)
}
