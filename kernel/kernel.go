// Package kernel holds compiled macros. A kernel is an append-only
// macro registry; macros keep their ids for the kernel's lifetime.
package kernel

import (
	"github.com/chazu/sabot/language"
	"github.com/chazu/sabot/registry"
)

// Kernel is a concurrent collection of compiled programs addressable
// by macro id.
type Kernel struct {
	macros *registry.Store[*language.Program]
}

// New builds an empty kernel.
func New() *Kernel {
	return &Kernel{macros: registry.NewStore[*language.Program]()}
}

// InsertMacro stores a compiled program and returns its macro id.
func (k *Kernel) InsertMacro(prog *language.Program) uint64 {
	return k.macros.Insert(prog)
}

// Macro returns the program stored under macroID.
func (k *Kernel) Macro(macroID uint64) (*language.Program, error) {
	return k.macros.Get(macroID)
}

// Len returns the number of stored macros.
func (k *Kernel) Len() int {
	return k.macros.Len()
}
