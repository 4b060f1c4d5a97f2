package hcl

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/ext/typeexpr"
	"github.com/vk/aether/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

var errAnyInCollection = errors.New("collection types cannot contain type 'any'")

// stateType converts the `type` attribute of a state block into a cty.Type.
// A missing attribute decodes to a static null expression and means `any`.
// Object and tuple constraints are accepted; collections must be of a
// concrete element type so conformed values keep a stable shape.
func stateType(ctx context.Context, expr hcl.Expression) (cty.Type, error) {
	if expr == nil {
		return cty.DynamicPseudoType, nil
	}
	if v, diags := expr.Value(nil); !diags.HasErrors() && v.IsNull() {
		return cty.DynamicPseudoType, nil
	}

	ty, diags := typeexpr.TypeConstraint(expr)
	if diags.HasErrors() {
		return cty.DynamicPseudoType, diags
	}
	if err := checkCollections(ty); err != nil {
		return cty.DynamicPseudoType, err
	}
	ctxlog.FromContext(ctx).Debug("Parsed state type.", "type", typeexpr.TypeString(ty))
	return ty, nil
}

func checkCollections(ty cty.Type) error {
	switch {
	case ty.IsCollectionType():
		if ty.ElementType() == cty.DynamicPseudoType {
			return errAnyInCollection
		}
		return checkCollections(ty.ElementType())
	case ty.IsObjectType():
		for name, at := range ty.AttributeTypes() {
			if err := checkCollections(at); err != nil {
				return fmt.Errorf("attribute %q: %w", name, err)
			}
		}
	case ty.IsTupleType():
		for i, et := range ty.TupleElementTypes() {
			if err := checkCollections(et); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
		}
	}
	return nil
}
