package language

import (
	"strings"

	"github.com/chazu/sabot/machine"
)

// Program is an immutable sequence of machine instructions produced by
// an interpreter. A program is safe for concurrent use once built.
type Program struct {
	instructions []machine.Instruction
}

// NewProgram wraps an instruction slice. The slice must not be
// modified after the call.
func NewProgram(instructions []machine.Instruction) *Program {
	return &Program{instructions: instructions}
}

// Len returns the number of instructions.
func (p *Program) Len() int { return len(p.instructions) }

// Instruction returns the instruction at index i.
func (p *Program) Instruction(i int) machine.Instruction {
	return p.instructions[i]
}

func (p *Program) String() string {
	var b strings.Builder
	for i, in := range p.instructions {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(in.String())
	}
	return b.String()
}
