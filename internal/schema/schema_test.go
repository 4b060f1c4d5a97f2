package schema

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func axisSchema(t *testing.T) *Object {
	t.Helper()
	location := cty.StringVal("bottom")
	o, err := NewObject("axis",
		Field{Name: "bounds", Type: cty.List(cty.Number)},
		Field{Name: "location", Type: cty.String, Default: &location},
		Field{Name: "label", Type: cty.String, Optional: true},
	)
	require.NoError(t, err)
	return o
}

func TestConform_AppliesDefaultsAndConverts(t *testing.T) {
	o := axisSchema(t)

	in := cty.ObjectVal(map[string]cty.Value{
		"bounds": cty.TupleVal([]cty.Value{cty.NumberIntVal(0), cty.NumberIntVal(10)}),
	})
	out, err := o.Conform(in)
	require.NoError(t, err)

	assert.True(t, out.Type().Equals(o.Type()))
	assert.Equal(t, "bottom", out.GetAttr("location").AsString())
	assert.True(t, out.GetAttr("label").IsNull())
	assert.Equal(t, 2, out.GetAttr("bounds").LengthInt())
}

func TestConform_Violations(t *testing.T) {
	o := axisSchema(t)

	testCases := []struct {
		name    string
		in      cty.Value
		message string
	}{
		{
			name:    "missing required attribute",
			in:      cty.EmptyObjectVal,
			message: `missing required attribute "bounds"`,
		},
		{
			name: "unsupported attribute",
			in: cty.ObjectVal(map[string]cty.Value{
				"bounds": cty.ListVal([]cty.Value{cty.NumberIntVal(1)}),
				"colour": cty.StringVal("red"),
			}),
			message: `unsupported attribute "colour"`,
		},
		{
			name: "wrong attribute type",
			in: cty.ObjectVal(map[string]cty.Value{
				"bounds": cty.StringVal("wide"),
			}),
			message: `attribute "bounds"`,
		},
		{
			name:    "not an object",
			in:      cty.StringVal("nope"),
			message: "state must be an object",
		},
		{
			name: "unknown value",
			in: cty.ObjectVal(map[string]cty.Value{
				"bounds": cty.UnknownVal(cty.List(cty.Number)),
			}),
			message: "unknown values",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := o.Conform(tc.in)
			require.ErrorIs(t, err, ErrViolation)
			assert.Contains(t, err.Error(), tc.message)
			assert.Contains(t, err.Error(), "axis")
		})
	}
}

func TestConform_NullIsEmptyObject(t *testing.T) {
	o, err := NewObject("root")
	require.NoError(t, err)

	out, err := o.Conform(cty.NullVal(cty.DynamicPseudoType))
	require.NoError(t, err)
	assert.True(t, out.RawEquals(cty.EmptyObjectVal))
}

func TestNewObject_RejectsBadFields(t *testing.T) {
	_, err := NewObject("x", Field{Name: "a", Type: cty.String}, Field{Name: "a", Type: cty.String})
	require.ErrorContains(t, err, "duplicate")

	bad := cty.StringVal("not a number")
	_, err = NewObject("x", Field{Name: "n", Type: cty.Number, Default: &bad})
	require.ErrorContains(t, err, "default")
}

func TestNative_RoundTrip(t *testing.T) {
	in := map[string]any{
		"bounds": []any{0.0, 10.0},
		"label":  "volts",
		"shown":  true,
		"nested": map[string]any{"n": uint64(3)},
		"none":   nil,
	}
	v, err := FromNative(in)
	require.NoError(t, err)

	out := ToNative(v)
	assert.Equal(t, map[string]any{
		"bounds": []any{0.0, 10.0},
		"label":  "volts",
		"shown":  true,
		"nested": map[string]any{"n": 3.0},
		"none":   nil,
	}, out)
	assert.Equal(t, []string{"bounds", "label", "nested", "none", "shown"}, Keys(v))
}

func TestFromNative_Rejects(t *testing.T) {
	_, err := FromNative(map[any]any{1: "x"})
	require.Error(t, err)

	_, err = FromNative(struct{}{})
	require.Error(t, err)

	_, err = FromNative(map[string]any{"x": []any{1, math.NaN()}})
	require.ErrorContains(t, err, "NaN")

	_, err = FromNative(float32(math.NaN()))
	require.ErrorContains(t, err, "NaN")

	v, err := FromNative(math.Inf(1))
	require.NoError(t, err)
	assert.Equal(t, cty.Number, v.Type())
}
