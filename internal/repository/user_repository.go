package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/student-task-portal/internal/model"
)

const userColumns = `id, name, username, password_hash, role, student_id, department, division, semester,
	emergency_contact_name, emergency_contact_relationship, emergency_contact_phone, avatar_url,
	created_at, updated_at`

// UserRepo provides access to the users table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	var (
		u    model.User
		role string
		opt  [8]sql.NullString
	)
	err := row.Scan(&u.ID, &u.Name, &u.Username, &u.PasswordHash, &role,
		&opt[0], &opt[1], &opt[2], &opt[3], &opt[4], &opt[5], &opt[6], &opt[7],
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	u.Role = model.Role(role)
	u.StudentID = nullable(opt[0])
	u.Department = nullable(opt[1])
	u.Division = nullable(opt[2])
	u.Semester = nullable(opt[3])
	u.EmergencyContactName = nullable(opt[4])
	u.EmergencyContactRelationship = nullable(opt[5])
	u.EmergencyContactPhone = nullable(opt[6])
	u.AvatarURL = nullable(opt[7])
	return &u, nil
}

func nullable(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// Create inserts a user with an already hashed password and sets u.ID.
// A unique-index violation maps to ErrUsernameExists or ErrStudentIDExists.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (name, username, password_hash, role, student_id, department, division, semester, avatar_url)
		 VALUES (?,?,?,?,?,?,?,?,?)`,
		u.Name, u.Username, u.PasswordHash, string(u.Role), u.StudentID, u.Department, u.Division, u.Semester, u.AvatarURL)
	if err != nil {
		if msg, ok := duplicateKey(err); ok {
			if strings.Contains(msg, "student_id") {
				return ErrStudentIDExists
			}
			return ErrUsernameExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	return nil
}

// GetByUsername fetches a user by exact username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username=? LIMIT 1", username))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// UsernameExists reports whether any account already uses username.
func (r *UserRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, "SELECT 1 FROM users WHERE username=? LIMIT 1", username)
}

// StudentIDExists reports whether any account already uses studentID.
func (r *UserRepo) StudentIDExists(ctx context.Context, studentID string) (bool, error) {
	return r.exists(ctx, "SELECT 1 FROM users WHERE student_id=? LIMIT 1", studentID)
}

// IsStudent reports whether id names an existing user with the student
// role.  Task assignment accepts only such users.
func (r *UserRepo) IsStudent(ctx context.Context, id uint64) (bool, error) {
	return r.exists(ctx, "SELECT 1 FROM users WHERE id=? AND role=? LIMIT 1", id, string(model.RoleStudent))
}

func (r *UserRepo) exists(ctx context.Context, q string, args ...any) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx, q, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// UpdateProfile writes the non-empty fields of p and refreshes updated_at.
// It returns false when p carries nothing to write.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, p model.ProfileUpdate) (bool, error) {
	var (
		sets []string
		args []any
	)
	add := func(col, val string) {
		if val != "" {
			sets = append(sets, col+" = ?")
			args = append(args, val)
		}
	}
	add("name", p.Name)
	add("department", p.Department)
	add("division", p.Division)
	add("semester", p.Semester)
	add("emergency_contact_name", p.EmergencyContactName)
	add("emergency_contact_relationship", p.EmergencyContactRelationship)
	add("emergency_contact_phone", p.EmergencyContactPhone)
	if len(sets) == 0 {
		return false, nil
	}
	sets = append(sets, "updated_at = UTC_TIMESTAMP()")
	args = append(args, id)

	res, err := r.DB.ExecContext(ctx, "UPDATE users SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return false, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return false, ErrUserNotFound
	}
	return true, nil
}

// UpdatePassword stores a new bcrypt hash.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, hash string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?", hash, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}
