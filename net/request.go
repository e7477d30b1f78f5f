// Package net carries the JSON wire protocol and the ZeroMQ server.
// Requests are JSON objects naming a method and a parameter list;
// responses are JSON objects with a result and an optional error flag.
package net

import (
	"errors"
	"fmt"

	"github.com/valyala/fastjson"
)

const (
	requestMethodField    = "method"
	requestParameterField = "parameters"

	// maxMethodSize and maxParameterCount bound the packed attribute
	// byte: five bits of method length, three bits of parameter count.
	maxMethodSize     = 31
	maxParameterCount = 7
)

var (
	// ErrBadValues is returned for malformed JSON or a parameter of
	// the wrong type.
	ErrBadValues = errors.New("bad values")

	// ErrMissingField is returned when the method or parameters field
	// is absent.
	ErrMissingField = errors.New("type not found by name")

	// ErrParameterCount is returned when a handler asks for a
	// parameter index the request does not have.
	ErrParameterCount = errors.New("bad parameter count")
)

// Request is a parsed client request. Its byte slices alias the
// parser's buffer and stay valid only until the parser is reused.
type Request struct {
	method []byte
	params []*fastjson.Value
}

// ParseRequest decodes a request from data using the caller's parser.
func ParseRequest(parser *fastjson.Parser, data []byte) (*Request, error) {
	v, err := parser.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBadValues, err)
	}

	methodValue := v.Get(requestMethodField)
	if methodValue == nil {
		return nil, fmt.Errorf("%s: %w", requestMethodField, ErrMissingField)
	}
	method, err := methodValue.StringBytes()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", requestMethodField, ErrBadValues)
	}

	paramsValue := v.Get(requestParameterField)
	if paramsValue == nil {
		return nil, fmt.Errorf("%s: %w", requestParameterField, ErrMissingField)
	}
	params, err := paramsValue.Array()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", requestParameterField, ErrBadValues)
	}

	if len(method) == 0 || len(method) > maxMethodSize {
		return nil, fmt.Errorf("method length %d: %w", len(method), ErrBadValues)
	}
	if len(params) > maxParameterCount {
		return nil, fmt.Errorf("parameter count %d: %w", len(params), ErrBadValues)
	}

	return &Request{method: method, params: params}, nil
}

// Method returns the method name.
func (r *Request) Method() []byte { return r.method }

// ParameterCount returns the number of parameters.
func (r *Request) ParameterCount() int { return len(r.params) }

// Attr packs the method length and parameter count into one byte for
// dispatch-table matching.
func (r *Request) Attr() uint8 {
	return uint8(len(r.method)) | uint8(len(r.params))<<5
}

func (r *Request) parameter(idx int) (*fastjson.Value, error) {
	if idx >= len(r.params) {
		return nil, fmt.Errorf("parameter %d of %d: %w", idx, len(r.params), ErrParameterCount)
	}
	return r.params[idx], nil
}

// Uint returns an unsigned integer parameter.
func (r *Request) Uint(idx int) (uint64, error) {
	p, err := r.parameter(idx)
	if err != nil {
		return 0, err
	}
	v, err := p.Uint64()
	if err != nil {
		return 0, fmt.Errorf("parameter %d: %w", idx, ErrBadValues)
	}
	return v, nil
}

// Float returns a floating-point parameter.
func (r *Request) Float(idx int) (float64, error) {
	p, err := r.parameter(idx)
	if err != nil {
		return 0, err
	}
	v, err := p.Float64()
	if err != nil {
		return 0, fmt.Errorf("parameter %d: %w", idx, ErrBadValues)
	}
	return v, nil
}

// StringBytes returns a string parameter as bytes aliasing the parse
// buffer.
func (r *Request) StringBytes(idx int) ([]byte, error) {
	p, err := r.parameter(idx)
	if err != nil {
		return nil, err
	}
	v, err := p.StringBytes()
	if err != nil {
		return nil, fmt.Errorf("parameter %d: %w", idx, ErrBadValues)
	}
	return v, nil
}

// FloatSlice returns an array-of-numbers parameter.
func (r *Request) FloatSlice(idx int) ([]float64, error) {
	p, err := r.parameter(idx)
	if err != nil {
		return nil, err
	}
	values, err := p.Array()
	if err != nil {
		return nil, fmt.Errorf("parameter %d: %w", idx, ErrBadValues)
	}
	result := make([]float64, len(values))
	for i, v := range values {
		f, err := v.Float64()
		if err != nil {
			return nil, fmt.Errorf("parameter %d[%d]: %w", idx, i, ErrBadValues)
		}
		result[i] = f
	}
	return result, nil
}

// Delimiter returns a parameter carrying a single byte as a number.
func (r *Request) Delimiter(idx int) (byte, error) {
	v, err := r.Uint(idx)
	if err != nil {
		return 0, err
	}
	if v > 0xFF {
		return 0, fmt.Errorf("parameter %d: %w", idx, ErrBadValues)
	}
	return byte(v), nil
}
