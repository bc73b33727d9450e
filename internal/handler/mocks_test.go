package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"

	"github.com/iliyamo/student-task-portal/internal/middleware"
	"github.com/iliyamo/student-task-portal/internal/model"
	"github.com/iliyamo/student-task-portal/internal/service"
	"github.com/iliyamo/student-task-portal/internal/validation"
)

type mockAccounts struct{ mock.Mock }

func (m *mockAccounts) Authenticate(ctx context.Context, username, password string) (*service.LoginResult, error) {
	args := m.Called(ctx, username, password)
	res, _ := args.Get(0).(*service.LoginResult)
	return res, args.Error(1)
}

func (m *mockAccounts) Logout(ctx context.Context, raw string) error {
	return m.Called(ctx, raw).Error(0)
}

func (m *mockAccounts) ChangePassword(ctx context.Context, userID uint64, current, next string) error {
	return m.Called(ctx, userID, current, next).Error(0)
}

func (m *mockAccounts) RegisterStudent(ctx context.Context, in service.StudentRegistration) (*model.User, error) {
	args := m.Called(ctx, in)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *mockAccounts) RegisterAdmin(ctx context.Context, in service.AdminRegistration) (*model.User, error) {
	args := m.Called(ctx, in)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *mockAccounts) Profile(ctx context.Context, userID uint64) (*model.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *mockAccounts) UpdateProfile(ctx context.Context, userID uint64, p model.ProfileUpdate) (*model.User, error) {
	args := m.Called(ctx, userID, p)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

type mockTasks struct {
	mock.Mock
	kind model.TaskKind
}

func (m *mockTasks) Kind() model.TaskKind { return m.kind }

func (m *mockTasks) List(ctx context.Context, caller model.Identity) ([]*model.Task, error) {
	args := m.Called(ctx, caller)
	ts, _ := args.Get(0).([]*model.Task)
	return ts, args.Error(1)
}

func (m *mockTasks) Get(ctx context.Context, caller model.Identity, id uint64) (*model.Task, error) {
	args := m.Called(ctx, caller, id)
	t, _ := args.Get(0).(*model.Task)
	return t, args.Error(1)
}

func (m *mockTasks) Create(ctx context.Context, caller model.Identity, in service.TaskInput) (*model.Task, error) {
	args := m.Called(ctx, caller, in)
	t, _ := args.Get(0).(*model.Task)
	return t, args.Error(1)
}

func (m *mockTasks) Update(ctx context.Context, caller model.Identity, id uint64, in service.TaskInput) (*model.Task, error) {
	args := m.Called(ctx, caller, id, in)
	t, _ := args.Get(0).(*model.Task)
	return t, args.Error(1)
}

func (m *mockTasks) Delete(ctx context.Context, caller model.Identity, id uint64) error {
	return m.Called(ctx, caller, id).Error(0)
}

var (
	adminID   = model.Identity{ID: 1, Username: "admin", Role: model.RoleAdmin, Name: "Admin"}
	studentID = model.Identity{ID: 7, Username: "jane", Role: model.RoleStudent, Name: "Jane"}
)

// newEcho builds an Echo wired like the server: validator and error
// handler installed.
func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = validation.New()
	log := logrus.New()
	log.SetOutput(io.Discard)
	e.HTTPErrorHandler = NewHTTPErrorHandler(log, true)
	return e
}

// as injects an identity the way TokenAuth would.
func as(id *model.Identity) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if id != nil {
				middleware.SetIdentity(c, id, "tok-"+id.Username)
			}
			return next(c)
		}
	}
}

func do(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}
