package registry

import (
	"context"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"

	"github.com/vk/aether/internal/ctxlog"
	"github.com/vk/aether/internal/node"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

var ctyValueType = reflect.TypeFor[cty.Value]()

// ValidateRegistry performs a strict parity check between manifests and Go code.
// It checks the presence of state attributes, the compatibility of their
// types, and that every referenced behavior and child type exists.
func (r *Registry) ValidateRegistry(ctx context.Context) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	for _, nodeType := range slices.Sorted(maps.Keys(r.DefinitionRegistry)) {
		def := r.DefinitionRegistry[nodeType]

		for _, child := range def.Children {
			if child == node.AnyChild {
				continue
			}
			if _, ok := r.DefinitionRegistry[child]; !ok {
				errs = append(errs, fmt.Sprintf("node '%s': child type '%s' is not defined", nodeType, child))
			}
		}

		if def.Behavior == "" {
			continue
		}
		handler, ok := r.BehaviorRegistry[def.Behavior]
		if !ok {
			errs = append(errs, fmt.Sprintf("node '%s': behavior '%s' is not registered", nodeType, def.Behavior))
			continue
		}

		if handler.StateType == nil {
			if len(def.State) > 0 {
				errs = append(errs, fmt.Sprintf("node '%s': manifest declares state, but Go behavior has no state struct", nodeType))
			}
			continue
		}

		goFields := make(map[string]reflect.StructField)
		stateType := handler.StateType
		for i := 0; i < stateType.NumField(); i++ {
			field := stateType.Field(i)
			if !field.IsExported() {
				continue
			}
			tagName := strings.Split(field.Tag.Get("cty"), ",")[0]
			if tagName != "" && tagName != "-" {
				goFields[tagName] = field
			}
		}

		// Check for presence mismatches
		for _, name := range slices.Sorted(maps.Keys(goFields)) {
			if _, ok := def.State[name]; !ok {
				errs = append(errs, fmt.Sprintf("node '%s': Go struct has field for state '%s' which is not declared in manifest", nodeType, name))
			}
		}
		for _, name := range slices.Sorted(maps.Keys(def.State)) {
			if _, ok := goFields[name]; !ok {
				errs = append(errs, fmt.Sprintf("node '%s': manifest declares state '%s' which is not found in Go struct", nodeType, name))
			}
		}

		// Check for type mismatches
		for _, name := range slices.Sorted(maps.Keys(def.State)) {
			sd := def.State[name]
			goField, ok := goFields[name]
			if !ok {
				continue
			}

			fieldType := goField.Type
			nullable := fieldType.Kind() == reflect.Pointer || fieldType == ctyValueType
			if sd.Optional && sd.Default == nil && !nullable {
				errs = append(errs, fmt.Sprintf("node '%s', state '%s': optional without default, so Go field '%s' must be a pointer or cty.Value", nodeType, name, goField.Name))
			}

			if sd.Type.Equals(cty.DynamicPseudoType) {
				logger.Warn("Manifest for node has state with 'type = any', which disables static type checking. Consider using a specific type like 'string', 'number', or 'bool'.", "node", nodeType, "state", name)
				continue
			}
			if fieldType == ctyValueType {
				continue
			}
			if fieldType.Kind() == reflect.Pointer {
				fieldType = fieldType.Elem()
			}

			goFieldType, err := gocty.ImpliedType(reflect.Zero(fieldType).Interface())
			if err != nil {
				errs = append(errs, fmt.Sprintf("node '%s', state '%s': could not imply cty type from Go field type %s: %v", nodeType, name, goField.Type, err))
				continue
			}
			if !sd.Type.Equals(goFieldType) {
				errs = append(errs, fmt.Sprintf("node '%s', state '%s': type mismatch. Manifest requires '%s' but Go struct field '%s' provides compatible type '%s'",
					nodeType, name, sd.Type.FriendlyName(), goField.Name, goFieldType.FriendlyName()))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}
