package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/student-task-portal/internal/model"
)

var taskCols = []string{"id", "subject", "title", "description", "due_date", "status",
	"created_by", "assigned_to", "name", "username", "created_at", "updated_at"}

func TestTaskRepoListVisibleToFiltersInQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	due := time.Date(2030, 2, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(taskCols).
		AddRow(1, "Math", "Global", "For everyone", due, "Pending", 1, nil, nil, nil, now, now).
		AddRow(2, "Math", "Mine", "For student 7", due, "Pending", 1, 7, "Jane Doe", "jane", now, now)

	mock.ExpectQuery(regexp.QuoteMeta("FROM homework t LEFT JOIN users u ON t.assigned_to = u.id WHERE (t.assigned_to = ? OR t.assigned_to IS NULL) ORDER BY t.due_date ASC, t.created_at DESC")).
		WithArgs(uint64(7)).
		WillReturnRows(rows)

	repo := NewTaskRepo(db, model.KindHomework)
	got, err := repo.ListVisibleTo(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.True(t, got[0].IsGlobal())
	assert.Nil(t, got[0].AssignedToName)
	require.NotNil(t, got[1].AssignedTo)
	assert.Equal(t, uint64(7), *got[1].AssignedTo)
	assert.Equal(t, "jane", *got[1].AssignedToUsername)
	assert.Equal(t, "2030-02-01", got[1].DueDate.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepoListAllUsesKindTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM assignments t LEFT JOIN users u")).
		WillReturnRows(sqlmock.NewRows(taskCols))

	got, err := NewTaskRepo(db, model.KindAssignment).ListAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepoGetVisibleToNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE t.id = ? AND (t.assigned_to = ? OR t.assigned_to IS NULL)")).
		WithArgs(uint64(5), uint64(9)).
		WillReturnRows(sqlmock.NewRows(taskCols))

	_, err = NewTaskRepo(db, model.KindHomework).GetVisibleTo(context.Background(), 5, 9)
	assert.ErrorIs(t, err, ErrTaskNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepoCreateSetsID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	due, err := model.ParseDate("2099-12-31")
	require.NoError(t, err)
	task := &model.Task{Subject: "Physics", Title: "Lab", Description: "Write up", DueDate: due,
		Status: model.StatusPending, CreatedBy: 1}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO homework (subject, title, description, due_date, status, created_by, assigned_to)")).
		WithArgs("Physics", "Lab", "Write up", "2099-12-31", "Pending", uint64(1), nil).
		WillReturnResult(sqlmock.NewResult(42, 1))

	require.NoError(t, NewTaskRepo(db, model.KindHomework).Create(context.Background(), task))
	assert.Equal(t, uint64(42), task.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepoUpdateAndDeleteMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewTaskRepo(db, model.KindAssignment)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE assignments SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err = repo.Update(context.Background(), &model.Task{ID: 99, Status: model.StatusCompleted})
	assert.ErrorIs(t, err, ErrTaskNotFound)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM assignments WHERE id = ?")).
		WithArgs(uint64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Delete(context.Background(), 99), ErrTaskNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}
