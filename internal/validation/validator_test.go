package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Name            string `json:"name" validate:"required,min=2,max=100,personname"`
	Username        string `json:"username" validate:"required,min=3,max=50,username"`
	Password        string `json:"password" validate:"required,min=6,strongpassword"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
	Phone           string `json:"phone" validate:"omitempty,phone"`
}

func (signup) Messages() map[string]string {
	return map[string]string{
		"name.personname":         "Name can only contain letters and spaces",
		"username.len":            "Username must be between 3 and 50 characters",
		"password.strongpassword": "Password must contain at least one uppercase letter, one lowercase letter, and one number",
		"confirmPassword.eqfield": "Passwords do not match",
	}
}

type dated struct {
	DueDate    string `json:"due_date" validate:"required,isodate,notpast"`
	Status     string `json:"status" validate:"omitempty,oneof=Pending Completed Overdue"`
	AssignedTo *int64 `json:"assigned_to" validate:"omitempty,min=1"`
}

func TestValidateCollectsEveryField(t *testing.T) {
	v := New()
	err := v.Validate(&signup{
		Name:            "R2 D2",
		Username:        "ab",
		Password:        "lowercase1",
		ConfirmPassword: "different",
		Phone:           "0123",
	})
	require.Error(t, err)

	verrs, ok := err.(Errors)
	require.True(t, ok)
	require.Len(t, verrs, 5)

	assert.Equal(t, FieldError{Msg: "Name can only contain letters and spaces", Param: "name", Location: "body", Value: "R2 D2"}, verrs[0])
	assert.Equal(t, "username", verrs[1].Param)
	assert.Equal(t, "Username must be between 3 and 50 characters", verrs[1].Msg)
	assert.Equal(t, "password", verrs[2].Param)
	assert.Contains(t, verrs[2].Msg, "uppercase")
	assert.Equal(t, "Passwords do not match", verrs[3].Msg)
	assert.Equal(t, "phone", verrs[4].Param)
	assert.Equal(t, "Invalid value", verrs[4].Msg)
}

func TestValidatePasses(t *testing.T) {
	v := New()
	assert.NoError(t, v.Validate(&signup{
		Name: "Jane Doe", Username: "jane_doe", Password: "Secret123", ConfirmPassword: "Secret123", Phone: "+15551234567",
	}))
}

func TestDateRules(t *testing.T) {
	v := New()
	v.now = func() time.Time { return time.Date(2030, 6, 15, 23, 59, 0, 0, time.UTC) }

	assert.NoError(t, v.Validate(&dated{DueDate: "2030-06-15"}), "today is allowed")
	assert.NoError(t, v.Validate(&dated{DueDate: "2030-06-16T08:00:00Z"}))

	err := v.Validate(&dated{DueDate: "2030-06-14"})
	require.Error(t, err)
	assert.Equal(t, "Date cannot be in the past", err.(Errors)[0].Msg)

	err = v.Validate(&dated{DueDate: "next tuesday"})
	require.Error(t, err)
	assert.Equal(t, "Please provide a valid date in YYYY-MM-DD format", err.(Errors)[0].Msg)
}

func TestStatusAndAssignee(t *testing.T) {
	v := New()
	zero, five := int64(0), int64(5)

	assert.NoError(t, v.Validate(&dated{DueDate: "2999-01-01", Status: "Completed", AssignedTo: &five}))

	err := v.Validate(&dated{DueDate: "2999-01-01", Status: "Done", AssignedTo: &zero})
	require.Error(t, err)
	verrs := err.(Errors)
	require.Len(t, verrs, 2)
	assert.Equal(t, "status must be one of: Pending, Completed, Overdue", verrs[0].Msg)
	assert.Equal(t, "assigned_to", verrs[1].Param)
}
