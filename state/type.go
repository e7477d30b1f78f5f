package state

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	"github.com/chazu/sabot/language"
)

// ErrUnknownType is returned when no state type is registered under
// the requested name.
var ErrUnknownType = errors.New("type not found by name")

// Type is the surface every state representation exposes. A Type owns
// its own state container; callers address states by id.
type Type interface {
	// Name returns the registered type name.
	Name() string

	// StateCount returns the number of live states.
	StateCount() uint64

	// ProgramInsertState builds a new state by running prog on an
	// empty state and returns the new state's id.
	ProgramInsertState(prog *language.Program) (uint64, error)

	// ProgramModifyState runs prog against an existing state,
	// discarding measurements.
	ProgramModifyState(stateID uint64, prog *language.Program) error

	// ProgramMeasureState runs prog against an existing state,
	// appending measurement outcomes to buffer.
	ProgramMeasureState(stateID uint64, prog *language.Program, buffer *bytes.Buffer) error

	// ProgramComputeResult runs prog against a throwaway state,
	// appending measurement outcomes to buffer.
	ProgramComputeResult(prog *language.Program, buffer *bytes.Buffer) error

	// DeleteState removes a state. It reports whether the state
	// existed.
	DeleteState(stateID uint64) bool
}

// Environment carries the collaborators a state type needs to execute
// programs.
type Environment struct {
	Macros              MacroSource
	Random              RandomSource
	MacroRecursionLimit int
}

var (
	typesMu sync.RWMutex
	types   = make(map[string]func(env Environment) Type)
)

// RegisterType makes a state-type constructor available under name.
// It panics on duplicates; registration happens from init functions.
func RegisterType(name string, factory func(env Environment) Type) {
	typesMu.Lock()
	defer typesMu.Unlock()
	if _, dup := types[name]; dup {
		panic(fmt.Sprintf("state: type %q registered twice", name))
	}
	types[name] = factory
}

// InstantiateType builds a fresh state type by registered name.
func InstantiateType(name string, env Environment) (Type, error) {
	typesMu.RLock()
	factory, ok := types[name]
	typesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("state type %q: %w", name, ErrUnknownType)
	}
	return factory(env), nil
}
