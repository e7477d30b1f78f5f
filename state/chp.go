package state

import (
	"bytes"

	"github.com/chazu/sabot/language"
	"github.com/chazu/sabot/registry"
)

// CHPName is the registered name of the CHP tableau state type.
const CHPName = "chp_state"

func init() {
	RegisterType(CHPName, NewCHP)
}

// CHP is the stabilizer state type. It keeps its tableaus in a
// concurrent store so programs against distinct states run in
// parallel.
type CHP struct {
	states *registry.Store[*Tableau]
	exec   *Executor
}

// NewCHP builds a CHP state type bound to env.
func NewCHP(env Environment) Type {
	return &CHP{
		states: registry.NewStore[*Tableau](),
		exec:   NewExecutor(env.Macros, env.Random, env.MacroRecursionLimit),
	}
}

// Name implements Type.
func (c *CHP) Name() string { return CHPName }

// StateCount implements Type.
func (c *CHP) StateCount() uint64 {
	return uint64(c.states.Len())
}

// ProgramInsertState implements Type.
func (c *CHP) ProgramInsertState(prog *language.Program) (uint64, error) {
	t := &Tableau{}
	if err := c.exec.Run(t, prog, nil); err != nil {
		return 0, err
	}
	return c.states.Insert(t), nil
}

// ProgramModifyState implements Type.
func (c *CHP) ProgramModifyState(stateID uint64, prog *language.Program) error {
	return c.states.Edit(stateID, func(t *Tableau) error {
		return c.exec.Run(t, prog, nil)
	})
}

// ProgramMeasureState implements Type.
func (c *CHP) ProgramMeasureState(stateID uint64, prog *language.Program, buffer *bytes.Buffer) error {
	return c.states.Edit(stateID, func(t *Tableau) error {
		return c.exec.Run(t, prog, buffer)
	})
}

// ProgramComputeResult implements Type.
func (c *CHP) ProgramComputeResult(prog *language.Program, buffer *bytes.Buffer) error {
	t := &Tableau{}
	return c.exec.Run(t, prog, buffer)
}

// DeleteState implements Type.
func (c *CHP) DeleteState(stateID uint64) bool {
	return c.states.Erase(stateID)
}
