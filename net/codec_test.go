package net

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fastjson"
)

func parse(t *testing.T, text string) *Request {
	t.Helper()
	var parser fastjson.Parser
	req, err := ParseRequest(&parser, []byte(text))
	require.NoError(t, err)
	return req
}

func TestParseRequest(t *testing.T) {
	req := parse(t, `{"method":"create_state","parameters":[1,"chpext","init 2",10]}`)
	assert.Equal(t, []byte("create_state"), req.Method())
	assert.Equal(t, 4, req.ParameterCount())

	id, err := req.Uint(0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)

	dialect, err := req.StringBytes(1)
	require.NoError(t, err)
	assert.Equal(t, []byte("chpext"), dialect)

	text, err := req.StringBytes(2)
	require.NoError(t, err)
	assert.Equal(t, []byte("init 2"), text)

	delim, err := req.Delimiter(3)
	require.NoError(t, err)
	assert.Equal(t, byte('\n'), delim)
}

func TestParseRequestErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
		want error
	}{
		{"malformed json", `{"method":`, ErrBadValues},
		{"missing method", `{"parameters":[]}`, ErrMissingField},
		{"missing parameters", `{"method":"create_kernel"}`, ErrMissingField},
		{"method not a string", `{"method":7,"parameters":[]}`, ErrBadValues},
		{"parameters not an array", `{"method":"x","parameters":3}`, ErrBadValues},
		{"empty method", `{"method":"","parameters":[]}`, ErrBadValues},
		{"method too long", `{"method":"abcdefghijklmnopqrstuvwxyzabcdef","parameters":[]}`, ErrBadValues},
		{"too many parameters", `{"method":"x","parameters":[1,2,3,4,5,6,7,8]}`, ErrBadValues},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var parser fastjson.Parser
			_, err := ParseRequest(&parser, []byte(tt.text))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParameterTypeMismatch(t *testing.T) {
	req := parse(t, `{"method":"x","parameters":["text",-3,1.5,[1,"a"]]}`)

	_, err := req.Uint(0)
	assert.ErrorIs(t, err, ErrBadValues)
	_, err = req.Uint(1)
	assert.ErrorIs(t, err, ErrBadValues)
	_, err = req.StringBytes(2)
	assert.ErrorIs(t, err, ErrBadValues)
	_, err = req.FloatSlice(3)
	assert.ErrorIs(t, err, ErrBadValues)
	_, err = req.Delimiter(2)
	assert.ErrorIs(t, err, ErrBadValues)

	_, err = req.Uint(4)
	assert.ErrorIs(t, err, ErrParameterCount)
}

func TestFloatSlice(t *testing.T) {
	req := parse(t, `{"method":"x","parameters":[[0.25,1,2.5]]}`)
	values, err := req.FloatSlice(0)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.25, 1, 2.5}, values)
}

func TestDelimiterRange(t *testing.T) {
	req := parse(t, `{"method":"x","parameters":[256]}`)
	_, err := req.Delimiter(0)
	assert.ErrorIs(t, err, ErrBadValues)
}

func TestAttr(t *testing.T) {
	req := parse(t, `{"method":"compile_macro","parameters":[1,"chpext","x 0",10]}`)
	assert.Equal(t, uint8(13)|uint8(4)<<5, req.Attr())

	empty := parse(t, `{"method":"create_kernel","parameters":[]}`)
	assert.Equal(t, uint8(13), empty.Attr())
}

func TestResponses(t *testing.T) {
	tests := []struct {
		name string
		resp *Response
		want string
	}{
		{"uint", UintResponse(5), `{"result":5}`},
		{"bool true", BoolResponse(true), `{"result":true}`},
		{"bool false", BoolResponse(false), `{"result":false}`},
		{"string", StringResponse("0110"), `{"result":"0110"}`},
		{"uint slice", UintSliceResponse([]uint64{3, 1, 4}), `{"result":[3,1,4]}`},
		{"empty uint slice", UintSliceResponse(nil), `{"result":[]}`},
		{"float slice", FloatSliceResponse([]float64{0.5, 2}), `{"result":[0.5,2]}`},
		{"error", ErrorResponse("missing null terminator"), `{"error":true,"result":"missing null terminator"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(tt.resp.JSON()))
		})
	}
}
