package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/student-task-portal/internal/middleware"
	"github.com/iliyamo/student-task-portal/internal/model"
	"github.com/iliyamo/student-task-portal/internal/service"
)

// Tasks is the task service of one kind.
type Tasks interface {
	Kind() model.TaskKind
	List(ctx context.Context, caller model.Identity) ([]*model.Task, error)
	Get(ctx context.Context, caller model.Identity, id uint64) (*model.Task, error)
	Create(ctx context.Context, caller model.Identity, in service.TaskInput) (*model.Task, error)
	Update(ctx context.Context, caller model.Identity, id uint64, in service.TaskInput) (*model.Task, error)
	Delete(ctx context.Context, caller model.Identity, id uint64) error
}

// TaskHandler serves /homework or /assignments depending on the kind of
// its service.  Response keys and messages follow the kind.
type TaskHandler struct {
	Tasks Tasks
}

func NewTaskHandler(t Tasks) *TaskHandler { return &TaskHandler{Tasks: t} }

// UpdateDeniedMessage is the 403 text for a non-admin update of kind.
func UpdateDeniedMessage(kind model.TaskKind) string {
	return "Only administrators can update " + kind.Plural()
}

// ----- DTOs -----

type createTaskReq struct {
	Subject     string `json:"subject" validate:"required,min=2,max=50"`
	Title       string `json:"title" validate:"required,min=5,max=200"`
	Description string `json:"description" validate:"required,min=10,max=1000"`
	DueDate     string `json:"due_date" validate:"required,isodate,notpast"`
	Status      string `json:"status" validate:"omitempty,oneof=Pending Completed Overdue"`
	AssignedTo  *int64 `json:"assigned_to" validate:"omitempty,min=1"`
}

// updateTaskReq has no required fields and no past-date rule; empty
// values keep what is stored.
type updateTaskReq struct {
	Subject     string `json:"subject" validate:"omitempty,min=2,max=50"`
	Title       string `json:"title" validate:"omitempty,min=5,max=200"`
	Description string `json:"description" validate:"omitempty,min=10,max=1000"`
	DueDate     string `json:"due_date" validate:"omitempty,isodate"`
	Status      string `json:"status" validate:"omitempty,oneof=Pending Completed Overdue"`
	AssignedTo  *int64 `json:"assigned_to" validate:"omitempty,min=1"`
}

var taskMessages = map[string]string{
	"subject.required":     "Subject is required",
	"subject.len":          "Subject must be between 2 and 50 characters",
	"title.required":       "Title is required",
	"title.len":            "Title must be between 5 and 200 characters",
	"description.required": "Description is required",
	"description.len":      "Description must be between 10 and 1000 characters",
	"due_date.required":    "Due date is required",
	"due_date.isodate":     "Please provide a valid date in YYYY-MM-DD format",
	"due_date.notpast":     "Due date cannot be in the past",
	"assigned_to":          "Assigned to must be a valid user ID",
	"status":               "Status must be one of: Pending, Completed, Overdue",
}

func (createTaskReq) Messages() map[string]string { return taskMessages }
func (updateTaskReq) Messages() map[string]string { return taskMessages }

func toInput(subject, title, description, due, status string, assignedTo *int64) (service.TaskInput, error) {
	in := service.TaskInput{
		Subject:     subject,
		Title:       title,
		Description: description,
		Status:      model.TaskStatus(status),
	}
	if due != "" {
		d, err := model.ParseDate(due)
		if err != nil {
			return in, err
		}
		in.DueDate = d
	}
	if assignedTo != nil {
		id := uint64(*assignedTo)
		in.AssignedTo = &id
	}
	return in, nil
}

// ----- handlers -----

func (h *TaskHandler) caller(c echo.Context) (model.Identity, error) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return model.Identity{}, echo.NewHTTPError(http.StatusUnauthorized, "Access token required")
	}
	return *id, nil
}

func parseID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid id")
	}
	return id, nil
}

// taskError maps service errors onto responses for kind.
func (h *TaskHandler) taskError(c echo.Context, err error) error {
	kind := h.Tasks.Kind()
	switch {
	case errors.Is(err, service.ErrTaskNotFound):
		return jsonError(c, http.StatusNotFound, kind.Label()+" not found")
	case errors.Is(err, service.ErrInvalidAssignee):
		return jsonError(c, http.StatusBadRequest, "Invalid student ID for assignment")
	case errors.Is(err, service.ErrAdminOnly):
		return jsonError(c, http.StatusForbidden, "Insufficient permissions")
	}
	return err
}

// List returns the tasks visible to the caller.
func (h *TaskHandler) List(c echo.Context) error {
	caller, err := h.caller(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	tasks, err := h.Tasks.List(ctx, caller)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{h.Tasks.Kind().Plural(): tasks})
}

// Get returns one task, or 404 when it is missing or hidden.
func (h *TaskHandler) Get(c echo.Context) error {
	caller, err := h.caller(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	t, err := h.Tasks.Get(ctx, caller, id)
	if err != nil {
		return h.taskError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{h.Tasks.Kind().Singular(): t})
}

// Create adds a task.  Admin only.
func (h *TaskHandler) Create(c echo.Context) error {
	caller, err := h.caller(c)
	if err != nil {
		return err
	}
	var req createTaskReq
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	in, err := toInput(req.Subject, req.Title, req.Description, req.DueDate, req.Status, req.AssignedTo)
	if err != nil {
		return errBadBody
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	t, err := h.Tasks.Create(ctx, caller, in)
	if err != nil {
		return h.taskError(c, err)
	}
	kind := h.Tasks.Kind()
	return c.JSON(http.StatusCreated, echo.Map{
		"message":       kind.Label() + " created successfully",
		kind.Singular(): t,
	})
}

// Update merges the non-empty fields of the body into the task.
func (h *TaskHandler) Update(c echo.Context) error {
	caller, err := h.caller(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req updateTaskReq
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	in, err := toInput(req.Subject, req.Title, req.Description, req.DueDate, req.Status, req.AssignedTo)
	if err != nil {
		return errBadBody
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	kind := h.Tasks.Kind()
	t, err := h.Tasks.Update(ctx, caller, id, in)
	if errors.Is(err, service.ErrAdminOnly) {
		return jsonError(c, http.StatusForbidden, UpdateDeniedMessage(kind))
	}
	if err != nil {
		return h.taskError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message":       kind.Label() + " updated successfully",
		kind.Singular(): t,
	})
}

// Delete removes a task.  Admin only.
func (h *TaskHandler) Delete(c echo.Context) error {
	caller, err := h.caller(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.Tasks.Delete(ctx, caller, id); err != nil {
		return h.taskError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": h.Tasks.Kind().Label() + " deleted successfully"})
}
