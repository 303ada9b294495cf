package handlers

import (
	"strings"
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const (
	nameMinLength = 2
	nameMaxLength = 50
)

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// RegisterValidators installs the contact-form rules on gin's shared
// validator engine. messageMinLength is configurable, so the rule is bound
// here at startup instead of in a struct tag.
func RegisterValidators(messageMinLength int) error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}

	if err := v.RegisterValidation("personname", validPersonName); err != nil {
		return err
	}
	if err := v.RegisterValidation("nodoubledot", noDoubleDot); err != nil {
		return err
	}
	return v.RegisterValidation("contactmessage", func(fl validator.FieldLevel) bool {
		return len(strings.TrimSpace(fl.Field().String())) >= messageMinLength
	})
}

// validPersonName accepts trimmed values of 2-50 characters containing at
// least one Unicode letter. All-digit and all-punctuation values fail the
// letter requirement.
func validPersonName(fl validator.FieldLevel) bool {
	name := strings.TrimSpace(fl.Field().String())

	length := len([]rune(name))
	if length < nameMinLength || length > nameMaxLength {
		return false
	}

	for _, r := range name {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// noDoubleDot rejects email addresses containing consecutive dots, which
// the address-shape check alone does not catch.
func noDoubleDot(fl validator.FieldLevel) bool {
	return !strings.Contains(fl.Field().String(), "..")
}

// ParseValidationErrors converts validator errors to user-friendly format
func ParseValidationErrors(err error) []ValidationError {
	var errors []ValidationError

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fieldError := range validationErrors {
			errors = append(errors, ValidationError{
				Field:   fieldError.Field(),
				Message: getErrorMessage(fieldError),
			})
		}
	}

	return errors
}

func getErrorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return "Invalid email format"
	case "nodoubledot":
		return "Invalid email format"
	case "personname":
		return fe.Field() + " must be 2-50 characters and contain at least one letter"
	case "contactmessage":
		return "Message is too short"
	case "min":
		return fe.Field() + " must be at least " + fe.Param() + " characters"
	case "max":
		return fe.Field() + " must not exceed " + fe.Param() + " characters"
	default:
		return fe.Field() + " is invalid"
	}
}
