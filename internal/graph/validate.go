package graph

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var errInvalidInput = errors.New("invalid input")

// validateArgs checks the validate tags of args and returns a BAD_USER_INPUT
// error listing every failed field.
func validateArgs(args any, invalidArgs map[string]any) error {
	err := validate.Struct(args)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	details := make([]ValidationError, 0, len(verrs))
	messages := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		field = strings.ToLower(field[:1]) + field[1:]

		var message string
		switch fe.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", field)
		case "min":
			message = fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		case "gte", "lte":
			message = fmt.Sprintf("%s is out of range", field)
		default:
			message = fmt.Sprintf("%s is invalid", field)
		}
		details = append(details, ValidationError{Field: field, Message: message})
		messages = append(messages, message)
	}

	gqlErr := userInputError(errInvalidInput, invalidArgs)
	gqlErr.Message = strings.Join(messages, "; ")
	gqlErr.Details = details
	return gqlErr
}
