package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/student-task-portal/internal/middleware"
	"github.com/iliyamo/student-task-portal/internal/model"
	"github.com/iliyamo/student-task-portal/internal/service"
)

// Accounts is what the auth endpoints need from the auth service.
type Accounts interface {
	Authenticate(ctx context.Context, username, password string) (*service.LoginResult, error)
	Logout(ctx context.Context, raw string) error
	ChangePassword(ctx context.Context, userID uint64, current, next string) error
	RegisterStudent(ctx context.Context, in service.StudentRegistration) (*model.User, error)
	RegisterAdmin(ctx context.Context, in service.AdminRegistration) (*model.User, error)
	Profile(ctx context.Context, userID uint64) (*model.User, error)
	UpdateProfile(ctx context.Context, userID uint64, p model.ProfileUpdate) (*model.User, error)
}

// AuthHandler serves /auth.
type AuthHandler struct {
	Accounts Accounts
}

func NewAuthHandler(a Accounts) *AuthHandler { return &AuthHandler{Accounts: a} }

// ----- DTOs -----

type loginReq struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=6"`
}

func (loginReq) Messages() map[string]string {
	return map[string]string{
		"username.required": "Username is required",
		"username.len":      "Username must be between 3 and 50 characters",
		"password.required": "Password is required",
		"password.len":      "Password must be at least 6 characters long",
	}
}

type profileReq struct {
	Name                         string `json:"name" validate:"omitempty,min=2,max=100,personname"`
	Department                   string `json:"department" validate:"omitempty,min=2,max=100"`
	Division                     string `json:"division" validate:"omitempty,min=1,max=10"`
	Semester                     string `json:"semester" validate:"omitempty,min=1,max=10"`
	EmergencyContactName         string `json:"emergency_contact_name" validate:"omitempty,min=2,max=100,personname"`
	EmergencyContactRelationship string `json:"emergency_contact_relationship" validate:"omitempty,min=2,max=50"`
	EmergencyContactPhone        string `json:"emergency_contact_phone" validate:"omitempty,phone"`
}

func (profileReq) Messages() map[string]string {
	return map[string]string{
		"name.len":                          "Name must be between 2 and 100 characters",
		"name.personname":                   "Name can only contain letters and spaces",
		"department":                        "Department must be between 2 and 100 characters",
		"division":                          "Division must be between 1 and 10 characters",
		"semester":                          "Semester must be between 1 and 10 characters",
		"emergency_contact_name.len":        "Emergency contact name must be between 2 and 100 characters",
		"emergency_contact_name.personname": "Emergency contact name can only contain letters and spaces",
		"emergency_contact_relationship":    "Emergency contact relationship must be between 2 and 50 characters",
		"emergency_contact_phone":           "Please enter a valid phone number (e.g., +1234567890 or 1234567890)",
	}
}

type changePasswordReq struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,strongpassword"`
}

func (changePasswordReq) Messages() map[string]string {
	return map[string]string{
		"currentPassword":            "Current password is required",
		"newPassword.required":       "New password must be at least 6 characters long",
		"newPassword.len":            "New password must be at least 6 characters long",
		"newPassword.strongpassword": "New password must contain at least one uppercase letter, one lowercase letter, and one number",
	}
}

// credentialMessages are shared by both registration forms.
var credentialMessages = map[string]string{
	"name.required":           "Name is required",
	"name.len":                "Name must be between 2 and 100 characters",
	"name.personname":         "Name can only contain letters and spaces",
	"username.required":       "Username is required",
	"username.len":            "Username must be between 3 and 50 characters",
	"username.username":       "Username can only contain letters, numbers, and underscores",
	"password.required":       "Password is required",
	"password.len":            "Password must be at least 6 characters long",
	"password.strongpassword": "Password must contain at least one uppercase letter, one lowercase letter, and one number",
	"department":              "Department must be between 2 and 100 characters",
	"division":                "Division must be between 1 and 10 characters",
}

type registerStudentReq struct {
	Name            string `json:"name" validate:"required,min=2,max=100,personname"`
	Username        string `json:"username" validate:"required,min=3,max=50,username"`
	Password        string `json:"password" validate:"required,min=6,strongpassword"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
	StudentID       string `json:"student_id" validate:"omitempty,min=5,max=20"`
	Department      string `json:"department" validate:"omitempty,min=2,max=100"`
	Division        string `json:"division" validate:"omitempty,min=1,max=10"`
	Semester        string `json:"semester" validate:"omitempty,min=1,max=10"`
}

func (registerStudentReq) Messages() map[string]string {
	m := map[string]string{
		"name.required":            "Full name is required",
		"confirmPassword.required": "Please confirm your password",
		"confirmPassword.eqfield":  "Passwords do not match",
		"student_id":               "Student ID must be between 5 and 20 characters",
		"semester":                 "Semester must be between 1 and 10 characters",
	}
	for k, v := range credentialMessages {
		if _, ok := m[k]; !ok {
			m[k] = v
		}
	}
	return m
}

type registerAdminReq struct {
	Name       string `json:"name" validate:"required,min=2,max=100,personname"`
	Username   string `json:"username" validate:"required,min=3,max=50,username"`
	Password   string `json:"password" validate:"required,min=6,strongpassword"`
	Department string `json:"department" validate:"omitempty,min=2,max=100"`
	Division   string `json:"division" validate:"omitempty,min=1,max=10"`
}

func (registerAdminReq) Messages() map[string]string { return credentialMessages }

// ----- handlers -----

func requestCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}

// Login: verify credentials and open a session.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	res, err := h.Accounts.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return jsonError(c, http.StatusUnauthorized, "Invalid credentials")
		}
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Login successful",
		"user":    res.User,
		"token":   res.Token,
	})
}

// Logout deletes the caller's session.  It succeeds even when the session
// is already gone.
func (h *AuthHandler) Logout(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.Accounts.Logout(ctx, middleware.TokenFrom(c)); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Logout successful"})
}

// Profile returns the caller's stored user record.
func (h *AuthHandler) Profile(c echo.Context) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return jsonError(c, http.StatusUnauthorized, "Access token required")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	u, err := h.Accounts.Profile(ctx, id.ID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return jsonError(c, http.StatusNotFound, "User not found")
		}
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"user": u})
}

// UpdateProfile writes the non-empty profile fields of the body.
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return jsonError(c, http.StatusUnauthorized, "Access token required")
	}
	var req profileReq
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	u, err := h.Accounts.UpdateProfile(ctx, id.ID, model.ProfileUpdate{
		Name:                         req.Name,
		Department:                   req.Department,
		Division:                     req.Division,
		Semester:                     req.Semester,
		EmergencyContactName:         req.EmergencyContactName,
		EmergencyContactRelationship: req.EmergencyContactRelationship,
		EmergencyContactPhone:        req.EmergencyContactPhone,
	})
	switch {
	case errors.Is(err, service.ErrNoProfileFields):
		return jsonError(c, http.StatusBadRequest, "No valid fields to update")
	case errors.Is(err, service.ErrUserNotFound):
		return jsonError(c, http.StatusNotFound, "User not found")
	case err != nil:
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Profile updated successfully", "user": u})
}

// ChangePassword rotates the password and ends every session of the user.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return jsonError(c, http.StatusUnauthorized, "Access token required")
	}
	var req changePasswordReq
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	err := h.Accounts.ChangePassword(ctx, id.ID, req.CurrentPassword, req.NewPassword)
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return jsonError(c, http.StatusBadRequest, "Current password is incorrect")
	case errors.Is(err, service.ErrUserNotFound):
		return jsonError(c, http.StatusNotFound, "User not found")
	case err != nil:
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Password changed successfully. Please login again."})
}

// RegisterStudent is the public self-registration endpoint.
func (h *AuthHandler) RegisterStudent(c echo.Context) error {
	var req registerStudentReq
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	u, err := h.Accounts.RegisterStudent(ctx, service.StudentRegistration{
		Name:       req.Name,
		Username:   req.Username,
		Password:   req.Password,
		StudentID:  req.StudentID,
		Department: req.Department,
		Division:   req.Division,
		Semester:   req.Semester,
	})
	if err != nil {
		return registrationError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Student registered successfully",
		"user": echo.Map{
			"id":         u.ID,
			"name":       u.Name,
			"username":   u.Username,
			"role":       u.Role,
			"student_id": u.StudentID,
		},
	})
}

// RegisterAdmin creates another administrator.  Admin only.
func (h *AuthHandler) RegisterAdmin(c echo.Context) error {
	var req registerAdminReq
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	u, err := h.Accounts.RegisterAdmin(ctx, service.AdminRegistration{
		Name:       req.Name,
		Username:   req.Username,
		Password:   req.Password,
		Department: req.Department,
		Division:   req.Division,
	})
	if err != nil {
		return registrationError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Admin registered successfully",
		"user": echo.Map{
			"id":       u.ID,
			"name":     u.Name,
			"username": u.Username,
			"role":     u.Role,
		},
	})
}

func registrationError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrUsernameExists):
		return jsonError(c, http.StatusBadRequest, "Username already exists")
	case errors.Is(err, service.ErrStudentIDExists):
		return jsonError(c, http.StatusBadRequest, "Student ID already exists")
	}
	return err
}
