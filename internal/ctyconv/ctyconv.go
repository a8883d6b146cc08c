// Package ctyconv turns cty values into plain Go values for logging and for
// transports that expect JSON-like data.
package ctyconv

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Decode converts args to shape and then into target, which must be a
// pointer to a struct with `cty` field tags. Optional attributes must be
// pointer fields. A nil or null args value is treated as an empty object.
func Decode(args cty.Value, shape cty.Type, target any) error {
	if args == cty.NilVal || args.IsNull() {
		args = cty.EmptyObjectVal
	}
	converted, err := convert.Convert(args, shape)
	if err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	if err := gocty.FromCtyValue(converted, target); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// ToGo converts a cty.Value to a Go value made of string, float64, bool,
// map[string]any and []any. Null and unknown values become nil.
func ToGo(val cty.Value) (any, error) {
	if !val.IsKnown() || val.IsNull() {
		return nil, nil
	}
	ty := val.Type()
	if ty.IsPrimitiveType() {
		switch ty {
		case cty.String:
			return val.AsString(), nil
		case cty.Number:
			f, _ := val.AsBigFloat().Float64()
			return f, nil
		case cty.Bool:
			return val.True(), nil
		default:
			return nil, fmt.Errorf("unsupported primitive type: %s", ty.FriendlyName())
		}
	}
	if ty.IsObjectType() || ty.IsMapType() {
		out := make(map[string]any)
		for it := val.ElementIterator(); it.Next(); {
			k, v := it.Element()
			converted, err := ToGo(v)
			if err != nil {
				return nil, err
			}
			out[k.AsString()] = converted
		}
		return out, nil
	}
	if ty.IsTupleType() || ty.IsListType() || ty.IsSetType() {
		out := []any{}
		for it := val.ElementIterator(); it.Next(); {
			_, v := it.Element()
			converted, err := ToGo(v)
			if err != nil {
				return nil, err
			}
			out = append(out, converted)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported cty.Type for conversion: %s", ty.FriendlyName())
}

// ForLogs converts a value to its loggable representation. A cty.Value is
// converted with ToGo; other values pass through.
func ForLogs(v any) any {
	if ctyVal, ok := v.(cty.Value); ok {
		if ctyVal == cty.NilVal {
			return nil
		}
		converted, err := ToGo(ctyVal)
		if err != nil {
			return fmt.Sprintf("[unloggable cty.Value: %v]", err)
		}
		return converted
	}
	return v
}
