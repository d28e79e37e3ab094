package audience

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const groupsSchemaName = "audience.groups.json"

var groupsSchema = map[string]any{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type":    "array",
	"items": map[string]any{
		"type":     "object",
		"required": []string{"conditions"},
		"properties": map[string]any{
			"id": map[string]any{"type": "string"},
			"conditions": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items":    map[string]any{"$ref": "#/$defs/condition"},
			},
		},
	},
	"$defs": map[string]any{
		"condition": map[string]any{
			"type":     "object",
			"required": []string{"type", "operator", "n", "when"},
			"properties": map[string]any{
				"id":            map[string]any{"type": "string"},
				"type":          map[string]any{"enum": []string{string(Performed), string(DidNot)}},
				"event":         map[string]any{"type": "string"},
				"operator":      map[string]any{"enum": []string{string(OpEq), string(OpGte), string(OpGt), string(OpLte), string(OpLt)}},
				"n":             map[string]any{"type": "string"},
				"when":          map[string]any{"enum": []string{string(WhenDuringLast), string(WhenAfter), string(WhenBefore), string(WhenBetween)}},
				"days":          map[string]any{"type": "string"},
				"include_today": map[string]any{"type": "boolean"},
				"is_auto_added": map[string]any{"const": false},
			},
		},
	},
}

// PayloadValidator checks raw JSON condition payloads before they are decoded
// into builder values.
type PayloadValidator interface {
	ValidateGroups(raw []byte) ([]ConditionGroup, error)
	ValidateGroup(raw []byte) (ConditionGroup, error)
	ValidateCondition(raw []byte) (Condition, error)
}

// JSONSchemaValidator validates group payloads against the condition schema.
type JSONSchemaValidator struct {
	once     sync.Once
	compiled *jsonschema.Schema
	err      error
}

// NewJSONSchemaValidator builds a validator backed by jsonschema v5.
func NewJSONSchemaValidator() *JSONSchemaValidator {
	return &JSONSchemaValidator{}
}

// ValidateGroups validates raw against the schema and decodes it.
func (v *JSONSchemaValidator) ValidateGroups(raw []byte) ([]ConditionGroup, error) {
	schema, err := v.schema()
	if err != nil {
		return nil, err
	}
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCondition, err)
	}
	if err := schema.Validate(payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCondition, err)
	}
	var groups []ConditionGroup
	if err := json.Unmarshal(raw, &groups); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCondition, err)
	}
	return groups, nil
}

// ValidateGroup validates a single group payload.
func (v *JSONSchemaValidator) ValidateGroup(raw []byte) (ConditionGroup, error) {
	wrapped := []byte("[" + string(bytes.TrimSpace(raw)) + "]")
	groups, err := v.ValidateGroups(wrapped)
	if err != nil {
		return ConditionGroup{}, err
	}
	if len(groups) != 1 {
		return ConditionGroup{}, fmt.Errorf("%w: expected a single group", ErrInvalidCondition)
	}
	return groups[0], nil
}

// ValidateCondition validates a single condition payload.
func (v *JSONSchemaValidator) ValidateCondition(raw []byte) (Condition, error) {
	wrapped := []byte(`[{"conditions":[` + string(bytes.TrimSpace(raw)) + `]}]`)
	groups, err := v.ValidateGroups(wrapped)
	if err != nil {
		return Condition{}, err
	}
	if len(groups) != 1 || len(groups[0].Conditions) != 1 {
		return Condition{}, fmt.Errorf("%w: expected a single condition", ErrInvalidCondition)
	}
	return groups[0].Conditions[0], nil
}

func (v *JSONSchemaValidator) schema() (*jsonschema.Schema, error) {
	v.once.Do(func() {
		data, err := json.Marshal(groupsSchema)
		if err != nil {
			v.err = fmt.Errorf("audience: marshal groups schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(groupsSchemaName, bytes.NewReader(data)); err != nil {
			v.err = fmt.Errorf("audience: load groups schema: %w", err)
			return
		}
		v.compiled, v.err = compiler.Compile(groupsSchemaName)
		if v.err != nil {
			v.err = fmt.Errorf("audience: compile groups schema: %w", v.err)
		}
	})
	return v.compiled, v.err
}
