package language

import (
	"fmt"
	"strconv"

	"github.com/chazu/sabot/machine"
)

// Interpreter parses program text written in one dialect. An
// interpreter holds no mutable state and is safe for concurrent use.
type Interpreter struct {
	dialect *Dialect
}

// NewInterpreter builds an interpreter for the named dialect.
func NewInterpreter(dialectName string) (*Interpreter, error) {
	d, err := Instantiate(dialectName)
	if err != nil {
		return nil, err
	}
	return &Interpreter{dialect: d}, nil
}

// Dialect returns the interpreter's dialect.
func (ip *Interpreter) Dialect() *Dialect { return ip.dialect }

// ParseProgram translates text into a program. Lines are separated by
// lineDelimiter. Whitespace before the first mnemonic is skipped;
// blank lines are not supported and fail the parse.
func (ip *Interpreter) ParseProgram(text []byte, lineDelimiter byte) (*Program, error) {
	text = text[skipBlank(text, 0):]

	var instructions []machine.Instruction

	line := 0
	for pos := 0; pos < len(text); {
		line++

		// isolate the current line
		end := pos
		for end < len(text) && text[end] != lineDelimiter {
			end++
		}

		in, err := ip.parseLine(text[pos:end])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		instructions = append(instructions, in)

		pos = end + 1
	}

	return NewProgram(instructions), nil
}

// parseLine decodes a single line.
func (ip *Interpreter) parseLine(line []byte) (machine.Instruction, error) {
	pos := 0

	// mnemonic runs to the opcode delimiter or end of line
	start := pos
	for pos < len(line) && line[pos] != ip.dialect.opcodeDelimiter {
		pos++
	}
	def, ok := ip.dialect.Find(line[start:pos])
	if !ok {
		return machine.Instruction{}, fmt.Errorf("mnemonic %q: %w", line[start:pos], ErrUnknownMnemonic)
	}

	in := machine.Instruction{Bytecode: def.Bytecode}
	for k := 0; k < def.OperandCount; k++ {
		if pos == len(line) {
			return machine.Instruction{}, fmt.Errorf("operand %d: %w", k, ErrBadOperand)
		}
		pos++ // consume the delimiter

		start = pos
		for pos < len(line) && line[pos] != ip.dialect.operandDelimiter {
			pos++
		}
		value, err := strconv.ParseUint(string(line[start:pos]), 10, 64)
		if err != nil {
			return machine.Instruction{}, fmt.Errorf("operand %d %q: %w", k, line[start:pos], ErrBadOperand)
		}
		in.Operands[k] = value
	}

	if pos != len(line) {
		return machine.Instruction{}, fmt.Errorf("trailing input %q: %w", line[pos:], ErrBadOperand)
	}

	return in, nil
}

func skipBlank(line []byte, pos int) int {
	for pos < len(line) && (line[pos] == ' ' || line[pos] == '\t') {
		pos++
	}
	return pos
}
