package schema

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrSchemaNotFound      = errors.New("schema: pattern not registered")
	ErrSchemaInactive      = errors.New("schema: pattern inactive")
	ErrSchemaInvalid       = errors.New("schema: invalid schema")
	ErrSchemaValidation    = errors.New("schema: validation failed")
	ErrRefDepthExceeded    = errors.New("schema: $ref depth exceeded")
	ErrRefPointerNotFound  = errors.New("schema: $ref pointer not found")
	ErrUnknownStatus       = errors.New("schema: unknown pattern status")
	ErrPatternNameRequired = errors.New("schema: pattern name required")
)

// ValidationIssue captures a single validation failure.
type ValidationIssue struct {
	Location string
	Message  string
}

// ValidationError lists the issues found when checking rendered data
// against a pattern schema.
type ValidationError struct {
	Pattern string
	Issues  []ValidationIssue
	Cause   error
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		if e.Cause != nil {
			return e.Cause.Error()
		}
		return ErrSchemaValidation.Error()
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		location := strings.TrimSpace(issue.Location)
		if location == "" {
			location = "#"
		} else if !strings.HasPrefix(location, "#") {
			location = "#" + location
		}
		if issue.Message == "" {
			parts = append(parts, location)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", location, issue.Message))
	}
	return e.Pattern + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrSchemaValidation
}

// Issues extracts validation issues from an error returned by Validate.
func Issues(err error) []ValidationIssue {
	if err == nil {
		return nil
	}
	var validationErr *ValidationError
	if errors.As(err, &validationErr) && validationErr != nil {
		return validationErr.Issues
	}
	return []ValidationIssue{{Message: err.Error()}}
}
