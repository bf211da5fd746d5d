package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFields_SetKeepsFirstPosition(t *testing.T) {
	var f Fields
	f.Set("b", 1)
	f.Set("a", 2)
	f.Set("b", 3)

	assert.Equal(t, []string{"b", "a"}, f.Keys())
	v, ok := f.Get("b")
	require.True(t, ok)
	assert.Equal(t, 3, v)
	assert.Equal(t, 2, f.Len())
}

func TestFields_ZeroValue(t *testing.T) {
	var f Fields
	assert.Equal(t, 0, f.Len())
	assert.False(t, f.Has("x"))
	assert.Equal(t, "", f.GetString("x"))

	data, err := json.Marshal(f)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(data))
}

func TestFields_KeysIsCopy(t *testing.T) {
	f := NewFields("a", 1)
	keys := f.Keys()
	keys[0] = "mutated"
	assert.Equal(t, []string{"a"}, f.Keys())
}

func TestFields_Clone(t *testing.T) {
	f := NewFields("a", "1", "b", "2")
	c := f.Clone()
	c.Set("c", "3")
	c.Set("a", "changed")

	assert.Equal(t, []string{"a", "b"}, f.Keys())
	assert.Equal(t, "1", f.GetString("a"))
	assert.Equal(t, []string{"a", "b", "c"}, c.Keys())
}

func TestNewFields_Panics(t *testing.T) {
	assert.Panics(t, func() { NewFields("a") })
	assert.Panics(t, func() { NewFields(1, "a") })
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"nil", nil, ""},
		{"string", "abc", "abc"},
		{"int", 42, "42"},
		{"float", 1.5, "1.5"},
		{"bool", true, "true"},
		{"json number", json.Number("12.50"), "12.50"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatValue(tt.value))
		})
	}
}

func TestFields_JSONPreservesOrder(t *testing.T) {
	input := `{"zeta":"z","alpha":1,"mid":null,"nested":{"k":true},"price":12.50}`

	var f Fields
	require.NoError(t, json.Unmarshal([]byte(input), &f))
	assert.Equal(t, []string{"zeta", "alpha", "mid", "nested", "price"}, f.Keys())

	v, _ := f.Get("alpha")
	assert.Equal(t, json.Number("1"), v)
	assert.Equal(t, "12.50", f.GetString("price"))

	out, err := json.Marshal(f)
	require.NoError(t, err)
	assert.Equal(t, `{"zeta":"z","alpha":1,"mid":null,"nested":{"k":true},"price":12.50}`, string(out))
}

func TestFields_UnmarshalErrors(t *testing.T) {
	var f Fields
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &f))
	assert.Error(t, json.Unmarshal([]byte(`{"a":`), &f))
}

func TestFields_UnmarshalNull(t *testing.T) {
	f := NewFields("a", 1)
	require.NoError(t, f.UnmarshalJSON([]byte(`null`)))
	assert.Equal(t, 0, f.Len())
}
