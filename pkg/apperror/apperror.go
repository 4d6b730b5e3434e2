package apperror

import (
	"errors"
	"fmt"
)

// Error codes returned by the workflows.
const (
	CodeValidation      = "VALIDATION_FAILED"
	CodeNotFound        = "NOT_FOUND"
	CodeForbidden       = "FORBIDDEN"
	CodeSelfFollow      = "SELF_FOLLOW"
	CodeDuplicateFollow = "DUPLICATE_FOLLOW"
	CodeNotFollowing    = "NOT_FOLLOWING"
	CodeAlreadyReviewed = "ALREADY_REVIEWED"
	CodeConflict        = "CONFLICT"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeInternal        = "INTERNAL_ERROR"
)

// Sentinels for errors.Is checks against a code.
var (
	ErrValidation      = &DomainError{Code: CodeValidation}
	ErrNotFound        = &DomainError{Code: CodeNotFound}
	ErrForbidden       = &DomainError{Code: CodeForbidden}
	ErrSelfFollow      = &DomainError{Code: CodeSelfFollow}
	ErrDuplicateFollow = &DomainError{Code: CodeDuplicateFollow}
	ErrNotFollowing    = &DomainError{Code: CodeNotFollowing}
	ErrAlreadyReviewed = &DomainError{Code: CodeAlreadyReviewed}
	ErrConflict        = &DomainError{Code: CodeConflict}
	ErrUnauthorized    = &DomainError{Code: CodeUnauthorized}
	ErrInternal        = &DomainError{Code: CodeInternal}
)

// DomainError standardizes application errors.
type DomainError struct {
	Code    string
	Message string
	Details map[string]string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Message == "" {
		return e.Code
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches any DomainError carrying the same code.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

func NewValidationError(message string, details map[string]string) error {
	return &DomainError{Code: CodeValidation, Message: message, Details: details}
}

func NewNotFound(message string) error {
	return &DomainError{Code: CodeNotFound, Message: message}
}

func NewForbidden(message string) error {
	return &DomainError{Code: CodeForbidden, Message: message}
}

func NewSelfFollow() error {
	return &DomainError{Code: CodeSelfFollow, Message: "Sorry, you can't follow yourself."}
}

func NewDuplicateFollow(username string) error {
	return &DomainError{Code: CodeDuplicateFollow, Message: fmt.Sprintf("You are already following this user (%s).", username)}
}

func NewNotFollowing() error {
	return &DomainError{Code: CodeNotFollowing, Message: "You can't unfollow a user you don't follow."}
}

func NewAlreadyReviewed() error {
	return &DomainError{Code: CodeAlreadyReviewed, Message: "You have already reviewed this ticket."}
}

func NewConflict(message string) error {
	return &DomainError{Code: CodeConflict, Message: message}
}

func NewUnauthorized(message string) error {
	return &DomainError{Code: CodeUnauthorized, Message: message}
}

func NewInternalError(err error) error {
	return &DomainError{Code: CodeInternal, Message: "internal server error", Err: err}
}

// As extracts the DomainError from err, or nil when err is not one.
func As(err error) *DomainError {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// UserMessage returns the text that is safe to show to the user.
func UserMessage(err error) string {
	if de := As(err); de != nil && de.Code != CodeInternal && de.Message != "" {
		return de.Message
	}
	return "Something went wrong, please try again."
}
