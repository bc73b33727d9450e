package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/student-task-portal/internal/model"
)

// TaskRepo serves one task table.  Homework and assignments share the
// schema, so a single implementation is bound to a model.TaskKind.
//
// Visibility for students is part of every read query:
//
//	assigned_to = <student id> OR assigned_to IS NULL
//
// and is never applied after rows have been loaded.
type TaskRepo struct {
	db   *sql.DB
	kind model.TaskKind
}

// NewTaskRepo binds a repository to the table of kind.
func NewTaskRepo(db *sql.DB, kind model.TaskKind) *TaskRepo {
	return &TaskRepo{db: db, kind: kind}
}

// Kind returns the task kind this repository serves.
func (r *TaskRepo) Kind() model.TaskKind { return r.kind }

const taskOrder = " ORDER BY t.due_date ASC, t.created_at DESC"

func (r *TaskRepo) selectBase() string {
	return fmt.Sprintf(`SELECT t.id, t.subject, t.title, t.description, t.due_date, t.status,
		t.created_by, t.assigned_to, u.name, u.username, t.created_at, t.updated_at
		FROM %s t LEFT JOIN users u ON t.assigned_to = u.id`, r.kind.Table())
}

func scanTask(row rowScanner) (*model.Task, error) {
	var (
		t        model.Task
		status   string
		assignee sql.NullInt64
		name     sql.NullString
		username sql.NullString
	)
	err := row.Scan(&t.ID, &t.Subject, &t.Title, &t.Description, &t.DueDate.Time, &status,
		&t.CreatedBy, &assignee, &name, &username, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.Status = model.TaskStatus(status)
	if assignee.Valid {
		id := uint64(assignee.Int64)
		t.AssignedTo = &id
	}
	t.AssignedToName = nullable(name)
	t.AssignedToUsername = nullable(username)
	return &t, nil
}

func (r *TaskRepo) list(ctx context.Context, q string, args ...any) ([]*model.Task, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*model.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListAll returns every task, soonest due first and newest first within
// a day.
func (r *TaskRepo) ListAll(ctx context.Context) ([]*model.Task, error) {
	return r.list(ctx, r.selectBase()+taskOrder)
}

// ListVisibleTo returns the tasks assigned to studentID plus global ones,
// in the same order as ListAll.
func (r *TaskRepo) ListVisibleTo(ctx context.Context, studentID uint64) ([]*model.Task, error) {
	return r.list(ctx, r.selectBase()+" WHERE (t.assigned_to = ? OR t.assigned_to IS NULL)"+taskOrder, studentID)
}

// GetByID fetches a task regardless of assignee.
func (r *TaskRepo) GetByID(ctx context.Context, id uint64) (*model.Task, error) {
	t, err := scanTask(r.db.QueryRowContext(ctx, r.selectBase()+" WHERE t.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTaskNotFound
	}
	return t, err
}

// GetVisibleTo fetches a task only if studentID may see it.  A task that
// exists but belongs to another student yields ErrTaskNotFound.
func (r *TaskRepo) GetVisibleTo(ctx context.Context, id, studentID uint64) (*model.Task, error) {
	t, err := scanTask(r.db.QueryRowContext(ctx,
		r.selectBase()+" WHERE t.id = ? AND (t.assigned_to = ? OR t.assigned_to IS NULL)", id, studentID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTaskNotFound
	}
	return t, err
}

// Create inserts t and sets its ID.
func (r *TaskRepo) Create(ctx context.Context, t *model.Task) error {
	q := fmt.Sprintf(`INSERT INTO %s (subject, title, description, due_date, status, created_by, assigned_to)
		VALUES (?,?,?,?,?,?,?)`, r.kind.Table())
	res, err := r.db.ExecContext(ctx, q,
		t.Subject, t.Title, t.Description, t.DueDate.String(), string(t.Status), t.CreatedBy, t.AssignedTo)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// Update overwrites every mutable column of t and refreshes updated_at.
func (r *TaskRepo) Update(ctx context.Context, t *model.Task) error {
	q := fmt.Sprintf(`UPDATE %s SET subject = ?, title = ?, description = ?, due_date = ?, status = ?,
		assigned_to = ?, updated_at = UTC_TIMESTAMP(3) WHERE id = ?`, r.kind.Table())
	res, err := r.db.ExecContext(ctx, q,
		t.Subject, t.Title, t.Description, t.DueDate.String(), string(t.Status), t.AssignedTo, t.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// Delete hard-deletes a task.
func (r *TaskRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = ?", r.kind.Table()), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTaskNotFound
	}
	return nil
}
