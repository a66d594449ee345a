package serrors

import (
	"github.com/go-playground/validator/v10"
)

// ProcessValidatorErrors converts go-playground validator failures into a
// field-keyed ValidationErrors map. Only the first failure per field is kept.
func ProcessValidatorErrors(errs validator.ValidationErrors) ValidationErrors {
	out := make(ValidationErrors, len(errs))
	for _, fe := range errs {
		field := fe.Field()
		if _, seen := out[field]; seen {
			continue
		}
		out[field] = &FieldError{
			Field: field,
			Rule:  fe.Tag(),
		}
	}
	return out
}
