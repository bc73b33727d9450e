package service

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/student-task-portal/internal/model"
	"github.com/iliyamo/student-task-portal/internal/queue"
	"github.com/iliyamo/student-task-portal/internal/repository"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type memUsers struct {
	mu   sync.Mutex
	next uint64
	rows map[uint64]*model.User
}

func newMemUsers() *memUsers { return &memUsers{rows: map[uint64]*model.User{}} }

func (m *memUsers) Create(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.Username == u.Username {
			return repository.ErrUsernameExists
		}
		if u.StudentID != nil && r.StudentID != nil && *r.StudentID == *u.StudentID {
			return repository.ErrStudentIDExists
		}
	}
	m.next++
	u.ID = m.next
	cp := *u
	m.rows[u.ID] = &cp
	return nil
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.Username == username {
			cp := *r
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *memUsers) GetByID(_ context.Context, id uint64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memUsers) UsernameExists(ctx context.Context, username string) (bool, error) {
	_, err := m.GetByUsername(ctx, username)
	return err == nil, nil
}

func (m *memUsers) StudentIDExists(_ context.Context, studentID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.StudentID != nil && *r.StudentID == studentID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memUsers) IsStudent(ctx context.Context, id uint64) (bool, error) {
	u, err := m.GetByID(ctx, id)
	if errors.Is(err, repository.ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return u.Role == model.RoleStudent, nil
}

func (m *memUsers) UpdateProfile(_ context.Context, id uint64, p model.ProfileUpdate) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[id]
	if !ok {
		return false, repository.ErrUserNotFound
	}
	changed := false
	set := func(dst **string, v string) {
		if v != "" {
			*dst = &v
			changed = true
		}
	}
	if p.Name != "" {
		u.Name = p.Name
		changed = true
	}
	set(&u.Department, p.Department)
	set(&u.Division, p.Division)
	set(&u.Semester, p.Semester)
	set(&u.EmergencyContactName, p.EmergencyContactName)
	set(&u.EmergencyContactRelationship, p.EmergencyContactRelationship)
	set(&u.EmergencyContactPhone, p.EmergencyContactPhone)
	return changed, nil
}

func (m *memUsers) UpdatePassword(_ context.Context, id uint64, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.PasswordHash = hash
	return nil
}

type memSessions struct {
	mu   sync.Mutex
	rows map[string]model.Session
}

func newMemSessions() *memSessions { return &memSessions{rows: map[string]model.Session{}} }

func (m *memSessions) Create(_ context.Context, userID uint64, hash string, exp time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[hash] = model.Session{UserID: userID, TokenHash: hash, ExpiresAt: exp}
	return nil
}

func (m *memSessions) FindActive(_ context.Context, hash string, now time.Time) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[hash]
	if !ok || !s.ExpiresAt.After(now) {
		return nil, repository.ErrSessionNotFound
	}
	return &s, nil
}

func (m *memSessions) DeleteByHash(_ context.Context, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, hash)
	return nil
}

func (m *memSessions) DeleteAllForUser(_ context.Context, userID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for h, s := range m.rows {
		if s.UserID == userID {
			delete(m.rows, h)
		}
	}
	return nil
}

func (m *memSessions) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

// memTasks mirrors the SQL ordering and visibility predicate of TaskRepo.
type memTasks struct {
	mu   sync.Mutex
	next uint64
	rows map[uint64]*model.Task
}

func newMemTasks() *memTasks { return &memTasks{rows: map[uint64]*model.Task{}} }

func (m *memTasks) sorted(keep func(*model.Task) bool) []*model.Task {
	out := make([]*model.Task, 0)
	for _, t := range m.rows {
		if keep(t) {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate.Time) {
			return out[i].DueDate.Before(out[j].DueDate.Time)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func visible(t *model.Task, studentID uint64) bool {
	return t.AssignedTo == nil || *t.AssignedTo == studentID
}

func (m *memTasks) ListAll(context.Context) ([]*model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(func(*model.Task) bool { return true }), nil
}

func (m *memTasks) ListVisibleTo(_ context.Context, studentID uint64) ([]*model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(func(t *model.Task) bool { return visible(t, studentID) }), nil
}

func (m *memTasks) GetByID(_ context.Context, id uint64) (*model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrTaskNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memTasks) GetVisibleTo(ctx context.Context, id, studentID uint64) (*model.Task, error) {
	t, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !visible(t, studentID) {
		return nil, repository.ErrTaskNotFound
	}
	return t, nil
}

func (m *memTasks) Create(_ context.Context, t *model.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	t.ID = m.next
	cp := *t
	m.rows[t.ID] = &cp
	return nil
}

func (m *memTasks) Update(_ context.Context, t *model.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[t.ID]; !ok {
		return repository.ErrTaskNotFound
	}
	cp := *t
	cp.UpdatedAt = time.Now()
	m.rows[t.ID] = &cp
	return nil
}

func (m *memTasks) Delete(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return repository.ErrTaskNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memTasks) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.TaskEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.TaskEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}
