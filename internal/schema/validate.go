package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// Compile checks that a resolved pattern schema is a valid JSON schema.
func Compile(document map[string]any) (*jsonschema.Schema, error) {
	encoded, err := json.Marshal(document)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaInvalid, err)
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("schema.json", bytes.NewReader(encoded)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaInvalid, err)
	}
	compiled, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaInvalid, err)
	}
	return compiled, nil
}

// ValidateDocument validates rendered component data against document.
func ValidateDocument(pattern string, document map[string]any, data any) error {
	compiled, err := Compile(document)
	if err != nil {
		return err
	}
	normalized, err := normalizeJSON(data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaValidation, err)
	}
	if err := compiled.Validate(normalized); err != nil {
		validationErr := &ValidationError{Pattern: pattern, Cause: err}
		if typed, ok := err.(*jsonschema.ValidationError); ok {
			validationErr.Issues = collectValidationIssues(typed)
		} else {
			validationErr.Issues = []ValidationIssue{{Message: err.Error()}}
		}
		return validationErr
	}
	return nil
}

// normalizeJSON round trips data so numbers and nested values carry the
// types the validator expects.
func normalizeJSON(data any) (any, error) {
	encoded, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var out any
	decoder := json.NewDecoder(bytes.NewReader(encoded))
	decoder.UseNumber()
	if err := decoder.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func collectValidationIssues(err *jsonschema.ValidationError) []ValidationIssue {
	if err == nil {
		return nil
	}
	issues := []ValidationIssue{}
	var walk func(*jsonschema.ValidationError)
	walk = func(node *jsonschema.ValidationError) {
		if node == nil {
			return
		}
		if len(node.Causes) == 0 {
			issues = append(issues, ValidationIssue{
				Location: strings.TrimSpace(node.InstanceLocation),
				Message:  strings.TrimSpace(node.Message),
			})
			return
		}
		for _, cause := range node.Causes {
			walk(cause)
		}
	}
	walk(err)
	return issues
}
