package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, s string) value {
	t.Helper()
	c := &cursor{b: []byte(s)}
	v, err := c.parseValue()
	require.NoError(t, err)
	assert.True(t, c.eof(), "expected cursor to consume the whole input")
	return v
}

func TestParseValueObject(t *testing.T) {
	v := parse(t, `{"a":1;"b":[2;3]}`)
	require.Equal(t, kindObject, v.kind)

	a, ok := v.get("a")
	require.True(t, ok)
	assert.Equal(t, 1.0, a.num)

	b, ok := v.get("b")
	require.True(t, ok)
	require.Equal(t, kindArray, b.kind)
	assert.Len(t, b.arr, 2)
}

func TestParseValueEmptyObjectAndArray(t *testing.T) {
	v := parse(t, `{}`)
	assert.Empty(t, v.obj)

	v2 := parse(t, `[]`)
	assert.Empty(t, v2.arr)
}

func TestParseValueString(t *testing.T) {
	v := parse(t, `"hello"`)
	assert.Equal(t, "hello", v.str)
}

func TestParseValueNegativeAndScientificNumbers(t *testing.T) {
	v := parse(t, `-1.5e3`)
	assert.Equal(t, -1500.0, v.num)
}

func TestParseValueRejectsUnbalancedBraces(t *testing.T) {
	c := &cursor{b: []byte(`{"a":1`)}
	_, err := c.parseValue()
	require.Error(t, err)
	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, MalformedSyntax, perr.Kind)
}

func TestParseValueRejectsMissingSeparator(t *testing.T) {
	c := &cursor{b: []byte(`["a" "b"]`)}
	_, err := c.parseValue()
	require.Error(t, err)
}

func TestHasAndGet(t *testing.T) {
	v := parse(t, `{"x":1}`)
	assert.True(t, v.has("x"))
	assert.False(t, v.has("y"))
}
