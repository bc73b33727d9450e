// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow higher layers such as
// services and handlers to distinguish between failure scenarios without
// inspecting driver errors.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

var (
	// ErrUserNotFound is returned when no user row matches the lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrUsernameExists is returned when an insert hits the username index.
	ErrUsernameExists = errors.New("username already exists")
	// ErrStudentIDExists is returned when an insert hits the student_id index.
	ErrStudentIDExists = errors.New("student id already exists")
	// ErrSessionNotFound covers both a missing and an expired session row.
	ErrSessionNotFound = errors.New("session not found or expired")
	// ErrTaskNotFound is returned when a task does not exist or is not
	// visible to the caller.
	ErrTaskNotFound = errors.New("task not found")
)

const mysqlDuplicateEntry = 1062

// duplicateKey reports whether err is a unique-index violation and, if so,
// the message text naming the index.
func duplicateKey(err error) (string, bool) {
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
		return me.Message, true
	}
	if err != nil && strings.Contains(err.Error(), "1062") {
		return err.Error(), true
	}
	return "", false
}
