package state

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/chazu/sabot/language"
	"github.com/chazu/sabot/machine"
)

var (
	// ErrQubitRange is returned when an instruction addresses a qubit
	// the state does not have.
	ErrQubitRange = errors.New("array bounds exceeded")

	// ErrRecursionLimit is returned when macro expansion nests deeper
	// than the configured limit.
	ErrRecursionLimit = errors.New("macro recursion limit exceeded")
)

// DefaultMacroRecursionLimit bounds macro expansion depth when the
// caller does not configure one.
const DefaultMacroRecursionLimit = 256

// MacroSource resolves macro instructions to compiled programs.
type MacroSource interface {
	Macro(kernelID, macroID uint64) (*language.Program, error)
}

// RandomSource supplies the fair coin flips random measurement
// outcomes need.
type RandomSource interface {
	UniformInt(low, high uint64) (uint64, error)
}

// Executor runs programs against tableaus. Measurement outcomes are
// appended to the caller's buffer as '0' and '1' bytes.
type Executor struct {
	macros   MacroSource
	random   RandomSource
	maxDepth int
}

// NewExecutor builds an executor. A maxDepth of zero selects
// DefaultMacroRecursionLimit.
func NewExecutor(macros MacroSource, random RandomSource, maxDepth int) *Executor {
	if maxDepth <= 0 {
		maxDepth = DefaultMacroRecursionLimit
	}
	return &Executor{macros: macros, random: random, maxDepth: maxDepth}
}

// Run executes prog against t. buffer may be nil when the caller
// discards measurements.
func (e *Executor) Run(t *Tableau, prog *language.Program, buffer *bytes.Buffer) error {
	return e.run(t, prog, buffer, 0)
}

func (e *Executor) run(t *Tableau, prog *language.Program, buffer *bytes.Buffer, depth int) error {
	if depth > e.maxDepth {
		return ErrRecursionLimit
	}

	for i := 0; i < prog.Len(); i++ {
		in := prog.Instruction(i)

		switch in.Bytecode {
		case machine.Macro:
			p, err := e.macros.Macro(in.Operands[0], in.Operands[1])
			if err != nil {
				return fmt.Errorf("macro %d/%d: %w", in.Operands[0], in.Operands[1], err)
			}
			if err := e.run(t, p, buffer, depth+1); err != nil {
				return err
			}

		case machine.Initialize:
			if err := t.Init(in.Operands[0]); err != nil {
				return err
			}

		case machine.Identity:
			if err := checkQubit(t, in.Operands[0]); err != nil {
				return err
			}

		case machine.Hadamard:
			if err := checkQubit(t, in.Operands[0]); err != nil {
				return err
			}
			t.Hadamard(in.Operands[0])

		case machine.Phase:
			if err := checkQubit(t, in.Operands[0]); err != nil {
				return err
			}
			t.Phase(in.Operands[0])

		case machine.Measure:
			if err := checkQubit(t, in.Operands[0]); err != nil {
				return err
			}
			outcome, err := t.Measure(in.Operands[0], e.random)
			if err != nil {
				return err
			}
			if buffer != nil {
				buffer.WriteByte('0' + outcome)
			}

		case machine.CNOT:
			if err := checkQubit(t, in.Operands[0]); err != nil {
				return err
			}
			if err := checkQubit(t, in.Operands[1]); err != nil {
				return err
			}
			t.CNOT(in.Operands[0], in.Operands[1])

		case machine.PauliX:
			if err := checkQubit(t, in.Operands[0]); err != nil {
				return err
			}
			t.PauliX(in.Operands[0])

		case machine.PauliY:
			if err := checkQubit(t, in.Operands[0]); err != nil {
				return err
			}
			t.PauliY(in.Operands[0])

		case machine.PauliZ:
			if err := checkQubit(t, in.Operands[0]); err != nil {
				return err
			}
			t.PauliZ(in.Operands[0])
		}
	}
	return nil
}

func checkQubit(t *Tableau, qubit uint64) error {
	if qubit >= t.n {
		return fmt.Errorf("qubit %d of %d: %w", qubit, t.n, ErrQubitRange)
	}
	return nil
}
