package serrors

import (
	"fmt"
)

// BaseError is a coded error shared across module boundaries. The code is a
// stable machine-readable identifier (for example "SCHEDULING_NOT_FOUND");
// the message is a human-readable default.
type BaseError struct {
	Code         string
	Message      string
	TemplateData map[string]string
}

func NewError(code, message string) *BaseError {
	return &BaseError{
		Code:    code,
		Message: message,
	}
}

func (e *BaseError) Error() string {
	return e.Message
}

func (e *BaseError) WithTemplateData(data map[string]string) *BaseError {
	clone := *e
	clone.TemplateData = data
	return &clone
}

// FieldError describes a single invalid field by path, with the failed
// validation rule attached.
type FieldError struct {
	Field  string
	Rule   string
	Detail string
}

func (e *FieldError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Detail)
	}
	return fmt.Sprintf("%s: failed %q validation", e.Field, e.Rule)
}

// ValidationErrors maps a field path to its first validation failure.
type ValidationErrors map[string]*FieldError

func (v ValidationErrors) Error() string {
	for field, err := range v {
		return fmt.Sprintf("validation failed on %s: %s", field, err.Error())
	}
	return "validation failed"
}

// Messages flattens the error map into plain strings keyed by field path,
// the shape API layers and form renderers consume.
func (v ValidationErrors) Messages() map[string]string {
	out := make(map[string]string, len(v))
	for field, err := range v {
		out[field] = err.Error()
	}
	return out
}
