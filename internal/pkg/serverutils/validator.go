package serverutils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidationError carries per-field messages back to the error handler.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s %s", field, msg))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func ValidateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := &ValidationError{Fields: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			out.Fields[fe.Field()] = "is required"
		case "oneof":
			out.Fields[fe.Field()] = "must be one of " + fe.Param()
		case "url":
			out.Fields[fe.Field()] = "must be a valid url"
		case "max":
			out.Fields[fe.Field()] = "must be at most " + fe.Param()
		case "min":
			out.Fields[fe.Field()] = "must be at least " + fe.Param()
		default:
			out.Fields[fe.Field()] = "is invalid"
		}
	}
	return out
}
