// Package language turns program text into executable instruction
// sequences. A dialect maps mnemonics onto machine operations; the
// interpreter parses text against one dialect into an immutable
// program.
package language

import (
	"errors"
	"fmt"
	"sync"

	"github.com/chazu/sabot/machine"
)

var (
	// ErrUnknownDialect is returned when no dialect is registered
	// under the requested name.
	ErrUnknownDialect = errors.New("type not found by name")

	// ErrUnknownMnemonic is returned when program text names an
	// operation the dialect does not define.
	ErrUnknownMnemonic = errors.New("bad values")

	// ErrBadOperand is returned when an operand is missing or is not
	// an unsigned decimal integer.
	ErrBadOperand = errors.New("bad values")
)

// InstructionDef binds one mnemonic to a machine operation.
type InstructionDef struct {
	Mnemonic     string
	OperandCount int
	Bytecode     machine.Operation
}

// Dialect describes a concrete program syntax: its mnemonic table and
// the delimiters separating mnemonics from operands and operands from
// each other.
type Dialect struct {
	name             string
	opcodeDelimiter  byte
	operandDelimiter byte
	defs             []InstructionDef
}

// Name returns the dialect's registered name.
func (d *Dialect) Name() string { return d.name }

// OpcodeDelimiter returns the byte separating a mnemonic from its
// operand list.
func (d *Dialect) OpcodeDelimiter() byte { return d.opcodeDelimiter }

// OperandDelimiter returns the byte separating operands.
func (d *Dialect) OperandDelimiter() byte { return d.operandDelimiter }

// Find looks up a mnemonic and returns its definition. The table is
// small so a linear scan beats anything fancier.
func (d *Dialect) Find(mnemonic []byte) (InstructionDef, bool) {
	for _, def := range d.defs {
		if def.Mnemonic == string(mnemonic) {
			return def, true
		}
	}
	return InstructionDef{}, false
}

// ---------------------------------------------------------------------------
// Dialect registry
// ---------------------------------------------------------------------------

var (
	dialectsMu sync.RWMutex
	dialects   = make(map[string]func() *Dialect)
)

// RegisterDialect makes a dialect constructor available under name.
// It panics if the name is already taken; registration happens from
// init functions where a duplicate is a programming error.
func RegisterDialect(name string, factory func() *Dialect) {
	dialectsMu.Lock()
	defer dialectsMu.Unlock()
	if _, dup := dialects[name]; dup {
		panic(fmt.Sprintf("language: dialect %q registered twice", name))
	}
	dialects[name] = factory
}

// Instantiate builds a fresh dialect by registered name.
func Instantiate(name string) (*Dialect, error) {
	dialectsMu.RLock()
	factory, ok := dialects[name]
	dialectsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("dialect %q: %w", name, ErrUnknownDialect)
	}
	return factory(), nil
}
