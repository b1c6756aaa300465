package graph

import (
	"errors"

	"libraryapi/internal/auth"
	"libraryapi/internal/platform/crypto"
	"libraryapi/internal/store"
)

const (
	codeUnauthenticated = "UNAUTHENTICATED"
	codeBadUserInput    = "BAD_USER_INPUT"
)

// Error is a resolver error carrying a machine readable code in the
// GraphQL error extensions.
type Error struct {
	Message     string
	Code        string
	InvalidArgs map[string]any
	Details     []ValidationError
	cause       error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

func (e *Error) Extensions() map[string]interface{} {
	ext := map[string]interface{}{"code": e.Code}
	if e.InvalidArgs != nil {
		ext["invalidArgs"] = e.InvalidArgs
	}
	if len(e.Details) > 0 {
		ext["details"] = e.Details
	}
	return ext
}

func authenticationError(cause error) *Error {
	return &Error{Message: cause.Error(), Code: codeUnauthenticated, cause: cause}
}

func userInputError(cause error, invalidArgs map[string]any) *Error {
	return &Error{Message: cause.Error(), Code: codeBadUserInput, InvalidArgs: invalidArgs, cause: cause}
}

var passwordErrors = []error{
	crypto.ErrPasswordTooShort,
	crypto.ErrPasswordTooLong,
	crypto.ErrPasswordNoUpper,
	crypto.ErrPasswordNoLower,
	crypto.ErrPasswordNoNumber,
	crypto.ErrPasswordNoSpecialChar,
}

// toGraphQLError classifies err. Errors the caller can fix become
// BAD_USER_INPUT, missing authentication becomes UNAUTHENTICATED and
// everything else is returned unchanged.
func toGraphQLError(err error, invalidArgs map[string]any) error {
	if err == nil {
		return nil
	}

	var gqlErr *Error
	if errors.As(err, &gqlErr) {
		return gqlErr
	}

	switch {
	case errors.Is(err, auth.ErrNotAuthenticated), errors.Is(err, auth.ErrInvalidToken):
		return authenticationError(err)
	case errors.Is(err, auth.ErrInvalidCredentials):
		return userInputError(err, nil)
	case errors.Is(err, auth.ErrUsernameTaken), errors.Is(err, store.ErrConflict):
		return userInputError(err, invalidArgs)
	}
	for _, target := range passwordErrors {
		if errors.Is(err, target) {
			return userInputError(err, invalidArgs)
		}
	}
	return err
}
