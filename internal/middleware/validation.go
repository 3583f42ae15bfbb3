package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"storefront/internal/domain"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// maxBodyBytes caps request bodies read by DecodeAndValidate
const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	return v
}

// ValidateRequest validates a decoded request against its validation tags
func ValidateRequest(v interface{}) error {
	if err := validate.Struct(v); err != nil {
		if violations := FormatValidationErrors(err); len(violations) > 0 {
			return &domain.Error{
				Kind:       domain.KindValidation,
				Code:       domain.ErrInvalidRequest.Code,
				Message:    "validation failed",
				Violations: violations,
			}
		}
		return domain.WithMessage(domain.ErrInvalidRequest, err.Error())
	}
	return nil
}

// DecodeAndValidate decodes a JSON request body and validates it. Both
// malformed JSON and failed validation are reported as ErrInvalidRequest.
func DecodeAndValidate(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return domain.WithMessage(domain.ErrInvalidRequest, "malformed JSON body")
	}
	return ValidateRequest(v)
}

// FormatValidationErrors converts validator errors to field violations
func FormatValidationErrors(err error) []domain.Violation {
	var violations []domain.Violation

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			violations = append(violations, domain.Violation{
				Field:   e.Field(),
				Message: getErrorMessage(e),
			})
		}
	}

	return violations
}

func getErrorMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required", "notblank":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		return "Value is too short"
	case "max":
		return "Value is too long"
	case "oneof":
		return "Value must be one of " + e.Param()
	case "gte":
		return "Value must be greater than or equal to " + e.Param()
	case "lte":
		return "Value must be less than or equal to " + e.Param()
	case "gt":
		return "Value must be greater than " + e.Param()
	case "lt":
		return "Value must be less than " + e.Param()
	default:
		return "Invalid value"
	}
}
