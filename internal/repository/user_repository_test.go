package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/student-task-portal/internal/model"
)

var userCols = []string{"id", "name", "username", "password_hash", "role", "student_id", "department",
	"division", "semester", "emergency_contact_name", "emergency_contact_relationship",
	"emergency_contact_phone", "avatar_url", "created_at", "updated_at"}

func TestUserRepoGetByUsername(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE username=? LIMIT 1")).
		WithArgs("jane").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(
			7, "Jane Doe", "jane", "$2a$12$hash", "student", "STU-1", "Science", "A", "1st",
			nil, nil, nil, "https://placehold.co/x", now, now))

	u, err := NewUserRepo(db).GetByUsername(context.Background(), "jane")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), u.ID)
	assert.Equal(t, model.RoleStudent, u.Role)
	assert.Equal(t, "STU-1", *u.StudentID)
	assert.Nil(t, u.EmergencyContactName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepoGetByIDMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id=?")).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows(userCols))

	_, err = NewUserRepo(db).GetByID(context.Background(), 3)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepoCreateDuplicate(t *testing.T) {
	cases := []struct {
		msg  string
		want error
	}{
		{"Duplicate entry 'jane' for key 'users.username'", ErrUsernameExists},
		{"Duplicate entry 'STU-1' for key 'users.student_id'", ErrStudentIDExists},
	}
	for _, tc := range cases {
		t.Run(tc.msg, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
				WillReturnError(&mysql.MySQLError{Number: 1062, Message: tc.msg})

			err = NewUserRepo(db).Create(context.Background(), &model.User{Username: "jane", Role: model.RoleStudent})
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestUserRepoIsStudent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	q := regexp.QuoteMeta("SELECT 1 FROM users WHERE id=? AND role=? LIMIT 1")
	mock.ExpectQuery(q).WithArgs(uint64(7), "student").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectQuery(q).WithArgs(uint64(1), "student").
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	repo := NewUserRepo(db)
	ok, err := repo.IsStudent(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.IsStudent(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUserRepoUpdateProfile(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewUserRepo(db)

	changed, err := repo.UpdateProfile(context.Background(), 7, model.ProfileUpdate{})
	require.NoError(t, err)
	assert.False(t, changed)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET name = ?, emergency_contact_phone = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?")).
		WithArgs("Jane Roe", "+15551234", uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	changed, err = repo.UpdateProfile(context.Background(), 7, model.ProfileUpdate{
		Name: "Jane Roe", EmergencyContactPhone: "+15551234",
	})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.NoError(t, mock.ExpectationsWereMet())
}
