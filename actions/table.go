// Package actions maps request method names to handlers. The table is
// fixed-size; lookup compares a packed attribute byte before touching
// the method name, so a wrong parameter count never reaches a handler.
package actions

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/chazu/sabot/net"
)

const (
	// maxActions bounds the number of registered methods.
	maxActions = 16

	// maxMethodLength bounds a registered method name.
	maxMethodLength = 30

	maxParameterCount = 7
)

var (
	// ErrTableFull is returned when the action table has no free slot
	// or a method name exceeds the slot width.
	ErrTableFull = errors.New("array bounds exceeded")

	// ErrEmptyMethod is returned for a zero-length method name.
	ErrEmptyMethod = errors.New("zero length")

	// ErrNoAction is returned when no registered action matches the
	// request's method and parameter count.
	ErrNoAction = errors.New("type not found by name")
)

// Handler runs one request. A returned error becomes an error
// response carrying the error's message.
type Handler func(req *net.Request) (*net.Response, error)

// Table is the dispatch table. A slot's attribute byte packs the
// method length in the low five bits and the parameter count in the
// high three; a zero attribute marks the end of the registered range.
type Table struct {
	methods  [maxActions][maxMethodLength]byte
	attrs    [maxActions]uint8
	handlers [maxActions]Handler
}

// NewTable builds an empty table.
func NewTable() *Table {
	return &Table{}
}

// Register adds a handler under a method name with a fixed parameter
// count. Registration order fixes slot order.
func (t *Table) Register(method string, parameterCount int, handler Handler) error {
	if len(method) == 0 {
		return fmt.Errorf("method: %w", ErrEmptyMethod)
	}
	if len(method) > maxMethodLength {
		return fmt.Errorf("method length %d: %w", len(method), ErrTableFull)
	}
	if parameterCount > maxParameterCount {
		return fmt.Errorf("parameter count %d: %w", parameterCount, ErrTableFull)
	}

	for id := 0; id < maxActions; id++ {
		if t.attrs[id] != 0 {
			continue
		}
		copy(t.methods[id][:], method)
		t.attrs[id] = uint8(len(method)) | uint8(parameterCount)<<5
		t.handlers[id] = handler
		return nil
	}
	return fmt.Errorf("action table: %w", ErrTableFull)
}

// Dispatch finds the action matching the request and runs it. Eight
// attribute bytes are scanned per word; the first zero byte ends the
// search.
func (t *Table) Dispatch(req *net.Request) *net.Response {
	attr := req.Attr()
	method := req.Method()

	for base := 0; base < maxActions; base += 8 {
		word := binary.LittleEndian.Uint64(t.attrs[base : base+8])
		for j := 0; j < 8; j++ {
			shifted := word >> (j * 8)
			if shifted == 0 {
				return net.ErrorResponse(ErrNoAction.Error())
			}
			if uint8(shifted) != attr {
				continue
			}
			id := base + j
			if !bytes.Equal(method, t.methods[id][:len(method)]) {
				continue
			}
			resp, err := t.handlers[id](req)
			if err != nil {
				return net.ErrorResponse(err.Error())
			}
			return resp
		}
	}
	return net.ErrorResponse(ErrNoAction.Error())
}
