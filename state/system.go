package state

// System is a discrete quantum system: one state type instance and
// the states it owns.
type System struct {
	stateType Type
}

// NewSystem builds a system around a fresh instance of the named
// state type.
func NewSystem(typeName string, env Environment) (*System, error) {
	st, err := InstantiateType(typeName, env)
	if err != nil {
		return nil, err
	}
	return &System{stateType: st}, nil
}

// Type returns the system's state type.
func (s *System) Type() Type { return s.stateType }
