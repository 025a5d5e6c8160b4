package utils

import (
	"errors"
	"fmt"
	"strings"

	"pos-backend/internal/apperror"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func ValidateStruct(s any) error {
	return validate.Struct(s)
}

// BindJSON parses the body into dst and runs its validate tags. Both kinds of
// failure come back as a Validation error.
func BindJSON(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return apperror.Wrap(apperror.KindValidation, "invalid request body", err)
	}
	if err := ValidateStruct(dst); err != nil {
		fields := GetValidationErrors(err)
		if len(fields) == 0 {
			return apperror.Wrap(apperror.KindValidation, "invalid request body", err)
		}
		msgs := make([]string, 0, len(fields))
		for _, f := range fields {
			msgs = append(msgs, f.Message)
		}
		return apperror.Validation(strings.Join(msgs, "; "))
	}
	return nil
}

func GetValidationErrors(err error) []FieldError {
	var out []FieldError
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, e := range verrs {
			out = append(out, FieldError{
				Field:   strings.ToLower(e.Field()),
				Tag:     e.Tag(),
				Message: validationMessage(e),
			})
		}
	}
	return out
}

func validationMessage(e validator.FieldError) string {
	field := strings.ToLower(e.Field())
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, e.Param())
	case "gte":
		return fmt.Sprintf("%s must be %s or more", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, e.Param())
	case "dive":
		return fmt.Sprintf("%s has an invalid element", field)
	}
	return fmt.Sprintf("%s is invalid", field)
}
