// pkg/registry/validate.go
package registry

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Validator checks activity payloads against the registry's JSON schemas.
// It satisfies the workflow engine's InputValidator interface. Activities
// without a registered schema pass unchecked.
type Validator struct {
	registry *ActivityRegistry
	compiled map[string]*gojsonschema.Schema
}

// NewValidator compiles every input schema in the registry up front so a bad
// schema fails at startup, not mid-workflow.
func NewValidator(reg *ActivityRegistry) (*Validator, error) {
	compiled := make(map[string]*gojsonschema.Schema)
	for _, activity := range reg.Activities {
		if len(activity.InputSchema) == 0 {
			continue
		}
		schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(activity.InputSchema))
		if err != nil {
			return nil, fmt.Errorf("compile input schema for %q: %w", activity.ID, err)
		}
		compiled[activity.ID] = schema
	}
	return &Validator{registry: reg, compiled: compiled}, nil
}

func (v *Validator) ValidateInput(activity string, payload []byte) error {
	schema, ok := v.compiled[activity]
	if !ok {
		return nil
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return fmt.Errorf("validate %s input: %w", activity, err)
	}
	if result.Valid() {
		return nil
	}

	var details []string
	for _, desc := range result.Errors() {
		details = append(details, desc.String())
	}
	return fmt.Errorf("%s input schema violation: %s", activity, strings.Join(details, "; "))
}
