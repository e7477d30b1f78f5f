package net

import (
	"strconv"

	"github.com/valyala/fastjson"
)

const (
	responseErrorField  = "error"
	responseResultField = "result"
)

// Response is a serialized reply ready to send back to the client.
type Response struct {
	json []byte
}

// JSON returns the serialized response body.
func (r *Response) JSON() []byte { return r.json }

func build(isError bool, result func(arena *fastjson.Arena) *fastjson.Value) *Response {
	var arena fastjson.Arena
	obj := arena.NewObject()
	if isError {
		obj.Set(responseErrorField, arena.NewTrue())
	}
	obj.Set(responseResultField, result(&arena))
	return &Response{json: obj.MarshalTo(nil)}
}

// UintResponse wraps an unsigned integer result.
func UintResponse(value uint64) *Response {
	return build(false, func(arena *fastjson.Arena) *fastjson.Value {
		return arena.NewNumberString(strconv.FormatUint(value, 10))
	})
}

// BoolResponse wraps a boolean result.
func BoolResponse(value bool) *Response {
	return build(false, func(arena *fastjson.Arena) *fastjson.Value {
		if value {
			return arena.NewTrue()
		}
		return arena.NewFalse()
	})
}

// StringResponse wraps a string result.
func StringResponse(value string) *Response {
	return build(false, func(arena *fastjson.Arena) *fastjson.Value {
		return arena.NewString(value)
	})
}

// UintSliceResponse wraps an array of unsigned integers.
func UintSliceResponse(values []uint64) *Response {
	return build(false, func(arena *fastjson.Arena) *fastjson.Value {
		array := arena.NewArray()
		for i, v := range values {
			array.SetArrayItem(i, arena.NewNumberString(strconv.FormatUint(v, 10)))
		}
		return array
	})
}

// FloatSliceResponse wraps an array of floating-point numbers.
func FloatSliceResponse(values []float64) *Response {
	return build(false, func(arena *fastjson.Arena) *fastjson.Value {
		array := arena.NewArray()
		for i, v := range values {
			array.SetArrayItem(i, arena.NewNumberFloat64(v))
		}
		return array
	})
}

// ErrorResponse wraps an error message. The error flag precedes the
// result member on the wire.
func ErrorResponse(message string) *Response {
	return build(true, func(arena *fastjson.Arena) *fastjson.Value {
		return arena.NewString(message)
	})
}
