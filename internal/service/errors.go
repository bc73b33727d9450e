// Package service holds the business rules of the portal: credential and
// session handling, and the visibility-scoped task operations shared by
// homework and assignments.
package service

import (
	"errors"
	"fmt"

	"github.com/iliyamo/student-task-portal/internal/repository"
)

var (
	// ErrInvalidCredentials is returned for an unknown username or a wrong
	// password.  The two cases are not distinguished.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrCurrentPasswordIncorrect is the change-password flavour of
	// ErrInvalidCredentials.
	ErrCurrentPasswordIncorrect = fmt.Errorf("current password is incorrect: %w", ErrInvalidCredentials)

	// ErrTokenInvalid means the token failed signature or format checks.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrSessionInvalid means the token was well-signed but has expired,
	// was revoked, or its session row has expired.
	ErrSessionInvalid = errors.New("invalid or expired session")

	ErrInvalidAssignee = errors.New("invalid student id for assignment")
	ErrNoProfileFields = errors.New("no valid fields to update")
	ErrAdminOnly       = errors.New("administrator role required")
)

// Repository sentinels re-exported so handlers only import this package.
var (
	ErrUserNotFound    = repository.ErrUserNotFound
	ErrUsernameExists  = repository.ErrUsernameExists
	ErrStudentIDExists = repository.ErrStudentIDExists
	ErrTaskNotFound    = repository.ErrTaskNotFound
)
