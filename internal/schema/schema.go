package schema

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// ErrViolation is returned when a state value does not conform to a schema.
var ErrViolation = errors.New("schema violation")

// Field describes a single state attribute.
type Field struct {
	Name     string
	Type     cty.Type
	Default  *cty.Value
	Optional bool
}

// Object is the schema for the state of one node type.
type Object struct {
	typeName string
	fields   map[string]Field
	names    []string
}

// NewObject builds the schema for the given node type from its fields.
func NewObject(typeName string, fields ...Field) (*Object, error) {
	o := &Object{typeName: typeName, fields: make(map[string]Field, len(fields))}
	for _, f := range fields {
		if f.Name == "" {
			return nil, fmt.Errorf("%s: state field with empty name", typeName)
		}
		if _, dup := o.fields[f.Name]; dup {
			return nil, fmt.Errorf("%s: duplicate state field %q", typeName, f.Name)
		}
		if f.Type == cty.NilType {
			f.Type = cty.DynamicPseudoType
		}
		if f.Default != nil {
			def, err := convert.Convert(*f.Default, f.Type)
			if err != nil {
				return nil, fmt.Errorf("%s: default for %q: %w", typeName, f.Name, err)
			}
			f.Default = &def
		}
		o.fields[f.Name] = f
		o.names = append(o.names, f.Name)
	}
	sort.Strings(o.names)
	return o, nil
}

// TypeName returns the node type this schema belongs to.
func (o *Object) TypeName() string { return o.typeName }

// Fields returns the schema's fields ordered by name.
func (o *Object) Fields() []Field {
	out := make([]Field, 0, len(o.names))
	for _, name := range o.names {
		out = append(out, o.fields[name])
	}
	return out
}

// Type returns the cty object type described by the schema.
func (o *Object) Type() cty.Type {
	attrs := make(map[string]cty.Type, len(o.fields))
	for name, f := range o.fields {
		attrs[name] = f.Type
	}
	return cty.Object(attrs)
}

// Conform validates v against the schema and returns the converted value. A
// null v is treated as an empty object, so a type whose fields all have
// defaults accepts an empty update.
func (o *Object) Conform(v cty.Value) (cty.Value, error) {
	if v == cty.NilVal || v.IsNull() {
		v = cty.EmptyObjectVal
	}
	if !v.IsWhollyKnown() {
		return cty.NilVal, o.violation([]string{"state contains unknown values"})
	}
	ty := v.Type()
	if !ty.IsObjectType() && !ty.IsMapType() {
		return cty.NilVal, o.violation([]string{fmt.Sprintf("state must be an object, got %s", ty.FriendlyName())})
	}

	given := make(map[string]cty.Value)
	for it := v.ElementIterator(); it.Next(); {
		k, val := it.Element()
		given[k.AsString()] = val
	}

	var problems []string
	for name := range given {
		if _, ok := o.fields[name]; !ok {
			problems = append(problems, fmt.Sprintf("unsupported attribute %q", name))
		}
	}

	out := make(map[string]cty.Value, len(o.fields))
	for _, name := range o.names {
		f := o.fields[name]
		val, present := given[name]
		switch {
		case present && !val.IsNull():
			conv, err := convert.Convert(val, f.Type)
			if err != nil {
				problems = append(problems, fmt.Sprintf("attribute %q: %s", name, err))
				continue
			}
			out[name] = conv
		case f.Default != nil:
			out[name] = *f.Default
		case f.Optional:
			out[name] = cty.NullVal(f.Type)
		default:
			problems = append(problems, fmt.Sprintf("missing required attribute %q", name))
		}
	}

	if len(problems) > 0 {
		sort.Strings(problems)
		return cty.NilVal, o.violation(problems)
	}
	if len(out) == 0 {
		return cty.EmptyObjectVal, nil
	}
	return cty.ObjectVal(out), nil
}

func (o *Object) violation(problems []string) error {
	return fmt.Errorf("%w: %s: %s", ErrViolation, o.typeName, strings.Join(problems, "; "))
}
