package schema

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"sort"

	"github.com/zclconf/go-cty/cty"
)

var errNaN = errors.New("NaN is not a number value")

// FromNative converts a plain Go value, as produced by JSON, YAML or CBOR
// decoders into an `any`, into a cty value. Sequences become tuples and
// mappings become objects; Conform later narrows them to the declared types.
func FromNative(v any) (cty.Value, error) {
	switch tv := v.(type) {
	case nil:
		return cty.NullVal(cty.DynamicPseudoType), nil
	case cty.Value:
		return tv, nil
	case bool:
		return cty.BoolVal(tv), nil
	case string:
		return cty.StringVal(tv), nil
	case int:
		return cty.NumberIntVal(int64(tv)), nil
	case int8:
		return cty.NumberIntVal(int64(tv)), nil
	case int16:
		return cty.NumberIntVal(int64(tv)), nil
	case int32:
		return cty.NumberIntVal(int64(tv)), nil
	case int64:
		return cty.NumberIntVal(tv), nil
	case uint:
		return cty.NumberUIntVal(uint64(tv)), nil
	case uint8:
		return cty.NumberUIntVal(uint64(tv)), nil
	case uint16:
		return cty.NumberUIntVal(uint64(tv)), nil
	case uint32:
		return cty.NumberUIntVal(uint64(tv)), nil
	case uint64:
		return cty.NumberUIntVal(tv), nil
	case float32:
		return FromNative(float64(tv))
	case float64:
		if math.IsNaN(tv) {
			return cty.NilVal, errNaN
		}
		return cty.NumberFloatVal(tv), nil
	case *big.Float:
		return cty.NumberVal(tv), nil
	case []any:
		if len(tv) == 0 {
			return cty.EmptyTupleVal, nil
		}
		elems := make([]cty.Value, len(tv))
		for i, e := range tv {
			ev, err := FromNative(e)
			if err != nil {
				return cty.NilVal, fmt.Errorf("[%d]: %w", i, err)
			}
			elems[i] = ev
		}
		return cty.TupleVal(elems), nil
	case []float64:
		elems := make([]any, len(tv))
		for i, f := range tv {
			elems[i] = f
		}
		return FromNative(elems)
	case map[string]any:
		if len(tv) == 0 {
			return cty.EmptyObjectVal, nil
		}
		attrs := make(map[string]cty.Value, len(tv))
		for k, e := range tv {
			ev, err := FromNative(e)
			if err != nil {
				return cty.NilVal, fmt.Errorf(".%s: %w", k, err)
			}
			attrs[k] = ev
		}
		return cty.ObjectVal(attrs), nil
	case map[any]any:
		m := make(map[string]any, len(tv))
		for k, e := range tv {
			ks, ok := k.(string)
			if !ok {
				return cty.NilVal, fmt.Errorf("mapping key %v is %T, want string", k, k)
			}
			m[ks] = e
		}
		return FromNative(m)
	default:
		return cty.NilVal, fmt.Errorf("unsupported value of type %T", v)
	}
}

// ToNative converts a cty value into plain Go values. Numbers become float64,
// collections become []any or map[string]any. Null and unknown values become
// nil.
func ToNative(v cty.Value) any {
	if v == cty.NilVal || v.IsNull() || !v.IsKnown() {
		return nil
	}
	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString()
	case ty == cty.Bool:
		return v.True()
	case ty == cty.Number:
		f, _ := v.AsBigFloat().Float64()
		return f
	case ty.IsListType() || ty.IsSetType() || ty.IsTupleType():
		out := make([]any, 0, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			_, e := it.Element()
			out = append(out, ToNative(e))
		}
		return out
	case ty.IsMapType() || ty.IsObjectType():
		out := make(map[string]any)
		for it := v.ElementIterator(); it.Next(); {
			k, e := it.Element()
			out[k.AsString()] = ToNative(e)
		}
		return out
	default:
		return nil
	}
}

// Keys returns the attribute names of an object or map value in sorted
// order.
func Keys(v cty.Value) []string {
	if v == cty.NilVal || v.IsNull() || !v.IsKnown() {
		return nil
	}
	ty := v.Type()
	if !ty.IsObjectType() && !ty.IsMapType() {
		return nil
	}
	var keys []string
	for it := v.ElementIterator(); it.Next(); {
		k, _ := it.Element()
		keys = append(keys, k.AsString())
	}
	sort.Strings(keys)
	return keys
}
