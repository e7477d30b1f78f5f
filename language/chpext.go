package language

import "github.com/chazu/sabot/machine"

// ChpextName is the registered name of the extended CHP dialect.
const ChpextName = "chpext"

func init() {
	RegisterDialect(ChpextName, newChpext)
}

// newChpext builds the extended CHP dialect: single-letter gate
// mnemonics separated from comma-delimited operands by a space.
func newChpext() *Dialect {
	return &Dialect{
		name:             ChpextName,
		opcodeDelimiter:  ' ',
		operandDelimiter: ',',
		defs: []InstructionDef{
			{Mnemonic: "macro", OperandCount: 2, Bytecode: machine.Macro},
			{Mnemonic: "init", OperandCount: 1, Bytecode: machine.Initialize},
			{Mnemonic: "i", OperandCount: 1, Bytecode: machine.Identity},
			{Mnemonic: "h", OperandCount: 1, Bytecode: machine.Hadamard},
			{Mnemonic: "p", OperandCount: 1, Bytecode: machine.Phase},
			{Mnemonic: "m", OperandCount: 1, Bytecode: machine.Measure},
			{Mnemonic: "c", OperandCount: 2, Bytecode: machine.CNOT},
			{Mnemonic: "x", OperandCount: 1, Bytecode: machine.PauliX},
			{Mnemonic: "y", OperandCount: 1, Bytecode: machine.PauliY},
			{Mnemonic: "z", OperandCount: 1, Bytecode: machine.PauliZ},
		},
	}
}
