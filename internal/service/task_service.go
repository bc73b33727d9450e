package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/student-task-portal/internal/metrics"
	"github.com/iliyamo/student-task-portal/internal/model"
	"github.com/iliyamo/student-task-portal/internal/queue"
	"github.com/iliyamo/student-task-portal/internal/repository"
)

// TaskStore is one task table.  Student visibility is applied by the
// store's queries.
type TaskStore interface {
	ListAll(ctx context.Context) ([]*model.Task, error)
	ListVisibleTo(ctx context.Context, studentID uint64) ([]*model.Task, error)
	GetByID(ctx context.Context, id uint64) (*model.Task, error)
	GetVisibleTo(ctx context.Context, id, studentID uint64) (*model.Task, error)
	Create(ctx context.Context, t *model.Task) error
	Update(ctx context.Context, t *model.Task) error
	Delete(ctx context.Context, id uint64) error
}

// AssigneeChecker answers whether a user id may receive tasks.
type AssigneeChecker interface {
	IsStudent(ctx context.Context, id uint64) (bool, error)
}

// EventPublisher hands task events to the broker.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.TaskEvent) error
}

// TaskInput carries the writable task fields.  On update, zero values
// (empty strings, a zero date, a nil assignee) leave the stored value in
// place.
type TaskInput struct {
	Subject     string
	Title       string
	Description string
	DueDate     model.Date
	Status      model.TaskStatus
	AssignedTo  *uint64
}

// TaskService implements the task operations for one kind.
type TaskService struct {
	kind      model.TaskKind
	store     TaskStore
	assignees AssigneeChecker
	events    EventPublisher
	log       *logrus.Logger
	now       func() time.Time
}

// NewTaskService wires a service for kind.  A nil events publisher
// disables events.
func NewTaskService(kind model.TaskKind, store TaskStore, assignees AssigneeChecker, events EventPublisher, log *logrus.Logger) *TaskService {
	if events == nil {
		events = queue.Nop{}
	}
	return &TaskService{
		kind:      kind,
		store:     store,
		assignees: assignees,
		events:    events,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Kind returns the task kind served.
func (s *TaskService) Kind() model.TaskKind { return s.kind }

// List returns every task for admins, and own plus global tasks for
// everyone else.
func (s *TaskService) List(ctx context.Context, caller model.Identity) ([]*model.Task, error) {
	if caller.IsAdmin() {
		return s.store.ListAll(ctx)
	}
	return s.store.ListVisibleTo(ctx, caller.ID)
}

// Get returns one task.  A task hidden from the caller is reported as
// ErrTaskNotFound.
func (s *TaskService) Get(ctx context.Context, caller model.Identity, id uint64) (*model.Task, error) {
	if caller.IsAdmin() {
		return s.store.GetByID(ctx, id)
	}
	return s.store.GetVisibleTo(ctx, id, caller.ID)
}

// Create inserts a task authored by caller.  A non-nil assignee must be
// an existing student or nothing is written.
func (s *TaskService) Create(ctx context.Context, caller model.Identity, in TaskInput) (*model.Task, error) {
	if !caller.IsAdmin() {
		return nil, ErrAdminOnly
	}
	if in.AssignedTo != nil {
		if err := s.checkAssignee(ctx, *in.AssignedTo); err != nil {
			return nil, err
		}
	}
	status := in.Status
	if status == "" {
		status = model.StatusPending
	}
	t := &model.Task{
		Subject:     strings.TrimSpace(in.Subject),
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		DueDate:     in.DueDate,
		Status:      status,
		CreatedBy:   caller.ID,
		AssignedTo:  in.AssignedTo,
	}
	if err := s.store.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create %s: %w", s.kind, err)
	}
	created, err := s.store.GetByID(ctx, t.ID)
	if err != nil {
		return nil, fmt.Errorf("reload %s: %w", s.kind, err)
	}
	s.mutated(ctx, queue.TaskCreated, caller, created)
	return created, nil
}

// Update merges in over the stored task.  The row is looked up before the
// role is checked, so a missing id is ErrTaskNotFound for every caller.
func (s *TaskService) Update(ctx context.Context, caller model.Identity, id uint64, in TaskInput) (*model.Task, error) {
	current, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() {
		return nil, ErrAdminOnly
	}

	next := *current
	if v := strings.TrimSpace(in.Subject); v != "" {
		next.Subject = v
	}
	if v := strings.TrimSpace(in.Title); v != "" {
		next.Title = v
	}
	if v := strings.TrimSpace(in.Description); v != "" {
		next.Description = v
	}
	if !in.DueDate.IsZero() {
		next.DueDate = in.DueDate
	}
	if in.Status != "" {
		next.Status = in.Status
	}
	if in.AssignedTo != nil && !sameAssignee(current.AssignedTo, in.AssignedTo) {
		if err := s.checkAssignee(ctx, *in.AssignedTo); err != nil {
			return nil, err
		}
		next.AssignedTo = in.AssignedTo
	}

	if err := s.store.Update(ctx, &next); err != nil {
		return nil, err
	}
	updated, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload %s: %w", s.kind, err)
	}
	s.mutated(ctx, queue.TaskUpdated, caller, updated)
	return updated, nil
}

// Delete removes a task permanently.
func (s *TaskService) Delete(ctx context.Context, caller model.Identity, id uint64) error {
	if !caller.IsAdmin() {
		return ErrAdminOnly
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.mutated(ctx, queue.TaskDeleted, caller, &model.Task{ID: id})
	return nil
}

func (s *TaskService) checkAssignee(ctx context.Context, id uint64) error {
	ok, err := s.assignees.IsStudent(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrInvalidAssignee
		}
		return fmt.Errorf("check assignee: %w", err)
	}
	if !ok {
		return ErrInvalidAssignee
	}
	return nil
}

func sameAssignee(a, b *uint64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// mutated records the write and publishes its event.  Publishing is best
// effort: a broker failure is logged and the request still succeeds.
func (s *TaskService) mutated(ctx context.Context, event string, caller model.Identity, t *model.Task) {
	op := strings.TrimPrefix(event, "task.")
	metrics.TaskMutations.WithLabelValues(string(s.kind), op).Inc()

	ev := queue.TaskEvent{
		Event:      event,
		Kind:       string(s.kind),
		TaskID:     t.ID,
		ActorID:    caller.ID,
		AssignedTo: t.AssignedTo,
		Title:      t.Title,
		Status:     string(t.Status),
		OccurredAt: s.now(),
	}
	if !t.DueDate.IsZero() {
		ev.DueDate = t.DueDate.String()
	}

	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := s.events.Publish(pctx, ev); err != nil {
		metrics.EventsPublished.WithLabelValues("error").Inc()
		s.log.WithError(err).WithFields(logrus.Fields{"event": event, "kind": s.kind, "task_id": t.ID}).
			Warn("task event not published")
		return
	}
	metrics.EventsPublished.WithLabelValues("ok").Inc()
}
