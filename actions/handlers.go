package actions

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/chazu/sabot/net"
	"github.com/chazu/sabot/universe"
)

// ErrWeightCount is returned when a weighted draw asks for more
// weights than the request supplies.
var ErrWeightCount = errors.New("bad values")

// Dispatcher binds the action table to a universe. It satisfies the
// server's dispatch contract.
type Dispatcher struct {
	table    *Table
	universe *universe.Universe
}

// NewDispatcher builds a dispatcher exposing every simulator method.
func NewDispatcher(u *universe.Universe) (*Dispatcher, error) {
	d := &Dispatcher{table: NewTable(), universe: u}

	for _, action := range []struct {
		method         string
		parameterCount int
		handler        Handler
	}{
		{"get_uniform_integer", 3, d.getUniformInteger},
		{"get_uniform_real", 3, d.getUniformReal},
		{"get_weighted_integer", 3, d.getWeightedInteger},
		{"create_kernel", 0, d.createKernel},
		{"delete_kernel", 1, d.deleteKernel},
		{"compile_macro", 4, d.compileMacro},
		{"create_system", 1, d.createSystem},
		{"delete_system", 1, d.deleteSystem},
		{"create_state", 4, d.createState},
		{"delete_state", 2, d.deleteState},
		{"modify_state", 5, d.modifyState},
		{"measure_state", 5, d.measureState},
		{"compute_result", 4, d.computeResult},
	} {
		if err := d.table.Register(action.method, action.parameterCount, action.handler); err != nil {
			return nil, fmt.Errorf("%s: %w", action.method, err)
		}
	}
	return d, nil
}

// Dispatch runs the request against the table.
func (d *Dispatcher) Dispatch(req *net.Request) *net.Response {
	return d.table.Dispatch(req)
}

// ---------------------------------------------------------------------------
// Random numbers
// ---------------------------------------------------------------------------

func (d *Dispatcher) getUniformInteger(req *net.Request) (*net.Response, error) {
	count, err := req.Uint(0)
	if err != nil {
		return nil, err
	}
	low, err := req.Uint(1)
	if err != nil {
		return nil, err
	}
	high, err := req.Uint(2)
	if err != nil {
		return nil, err
	}

	random := d.universe.Random()
	values := make([]uint64, count)
	for i := range values {
		if values[i], err = random.UniformInt(low, high); err != nil {
			return nil, err
		}
	}
	return net.UintSliceResponse(values), nil
}

func (d *Dispatcher) getUniformReal(req *net.Request) (*net.Response, error) {
	count, err := req.Uint(0)
	if err != nil {
		return nil, err
	}
	low, err := req.Float(1)
	if err != nil {
		return nil, err
	}
	high, err := req.Float(2)
	if err != nil {
		return nil, err
	}

	random := d.universe.Random()
	values := make([]float64, count)
	for i := range values {
		if values[i], err = random.UniformReal(low, high); err != nil {
			return nil, err
		}
	}
	return net.FloatSliceResponse(values), nil
}

func (d *Dispatcher) getWeightedInteger(req *net.Request) (*net.Response, error) {
	count, err := req.Uint(0)
	if err != nil {
		return nil, err
	}
	size, err := req.Uint(1)
	if err != nil {
		return nil, err
	}
	weights, err := req.FloatSlice(2)
	if err != nil {
		return nil, err
	}
	if size > uint64(len(weights)) {
		return nil, fmt.Errorf("weight count %d of %d: %w", size, len(weights), ErrWeightCount)
	}

	random := d.universe.Random()
	values := make([]uint64, count)
	for i := range values {
		if values[i], err = random.WeightedInt(weights[:size]); err != nil {
			return nil, err
		}
	}
	return net.UintSliceResponse(values), nil
}

// ---------------------------------------------------------------------------
// Kernels and macros
// ---------------------------------------------------------------------------

func (d *Dispatcher) createKernel(*net.Request) (*net.Response, error) {
	return net.UintResponse(d.universe.CreateKernel()), nil
}

func (d *Dispatcher) deleteKernel(req *net.Request) (*net.Response, error) {
	kernelID, err := req.Uint(0)
	if err != nil {
		return nil, err
	}
	return net.BoolResponse(d.universe.DeleteKernel(kernelID)), nil
}

func (d *Dispatcher) compileMacro(req *net.Request) (*net.Response, error) {
	kernelID, err := req.Uint(0)
	if err != nil {
		return nil, err
	}
	dialect, text, delimiter, err := programArguments(req, 1)
	if err != nil {
		return nil, err
	}
	macroID, err := d.universe.CompileMacro(kernelID, dialect, text, delimiter)
	if err != nil {
		return nil, err
	}
	return net.UintResponse(macroID), nil
}

// ---------------------------------------------------------------------------
// Systems and states
// ---------------------------------------------------------------------------

func (d *Dispatcher) createSystem(req *net.Request) (*net.Response, error) {
	stateType, err := req.StringBytes(0)
	if err != nil {
		return nil, err
	}
	systemID, err := d.universe.CreateSystem(string(stateType))
	if err != nil {
		return nil, err
	}
	return net.UintResponse(systemID), nil
}

func (d *Dispatcher) deleteSystem(req *net.Request) (*net.Response, error) {
	systemID, err := req.Uint(0)
	if err != nil {
		return nil, err
	}
	return net.BoolResponse(d.universe.DeleteSystem(systemID)), nil
}

func (d *Dispatcher) createState(req *net.Request) (*net.Response, error) {
	systemID, err := req.Uint(0)
	if err != nil {
		return nil, err
	}
	dialect, text, delimiter, err := programArguments(req, 1)
	if err != nil {
		return nil, err
	}
	stateID, err := d.universe.CreateState(systemID, dialect, text, delimiter)
	if err != nil {
		return nil, err
	}
	return net.UintResponse(stateID), nil
}

func (d *Dispatcher) deleteState(req *net.Request) (*net.Response, error) {
	systemID, err := req.Uint(0)
	if err != nil {
		return nil, err
	}
	stateID, err := req.Uint(1)
	if err != nil {
		return nil, err
	}
	existed, err := d.universe.DeleteState(systemID, stateID)
	if err != nil {
		return nil, err
	}
	return net.BoolResponse(existed), nil
}

func (d *Dispatcher) modifyState(req *net.Request) (*net.Response, error) {
	systemID, err := req.Uint(0)
	if err != nil {
		return nil, err
	}
	stateID, err := req.Uint(1)
	if err != nil {
		return nil, err
	}
	dialect, text, delimiter, err := programArguments(req, 2)
	if err != nil {
		return nil, err
	}
	if err := d.universe.ModifyState(systemID, stateID, dialect, text, delimiter); err != nil {
		return nil, err
	}
	return net.BoolResponse(true), nil
}

func (d *Dispatcher) measureState(req *net.Request) (*net.Response, error) {
	systemID, err := req.Uint(0)
	if err != nil {
		return nil, err
	}
	stateID, err := req.Uint(1)
	if err != nil {
		return nil, err
	}
	dialect, text, delimiter, err := programArguments(req, 2)
	if err != nil {
		return nil, err
	}
	var buffer bytes.Buffer
	if err := d.universe.MeasureState(systemID, stateID, dialect, text, delimiter, &buffer); err != nil {
		return nil, err
	}
	return net.StringResponse(buffer.String()), nil
}

func (d *Dispatcher) computeResult(req *net.Request) (*net.Response, error) {
	systemID, err := req.Uint(0)
	if err != nil {
		return nil, err
	}
	dialect, text, delimiter, err := programArguments(req, 1)
	if err != nil {
		return nil, err
	}
	var buffer bytes.Buffer
	if err := d.universe.ComputeResult(systemID, dialect, text, delimiter, &buffer); err != nil {
		return nil, err
	}
	return net.StringResponse(buffer.String()), nil
}

// programArguments reads the common dialect, program text, and line
// delimiter triple starting at idx.
func programArguments(req *net.Request, idx int) (string, []byte, byte, error) {
	dialect, err := req.StringBytes(idx)
	if err != nil {
		return "", nil, 0, err
	}
	text, err := req.StringBytes(idx + 1)
	if err != nil {
		return "", nil, 0, err
	}
	delimiter, err := req.Delimiter(idx + 2)
	if err != nil {
		return "", nil, 0, err
	}
	return string(dialect), text, delimiter, nil
}
