// Package validation runs declarative request rules through
// go-playground/validator and reports every failing field at once.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/iliyamo/student-task-portal/internal/model"
)

var (
	personNameRe = regexp.MustCompile(`^[a-zA-Z\s]+$`)
	usernameRe   = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	phoneRe      = regexp.MustCompile(`^[\+]?[1-9][\d]{0,15}$`)
)

// FieldError is one entry of the details array in a 400 response.
type FieldError struct {
	Msg      string `json:"msg"`
	Param    string `json:"param"`
	Location string `json:"location"`
	Value    any    `json:"value,omitempty"`
}

// Errors collects every failing field of one request.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Param+": "+fe.Msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Messenger is implemented by request types that supply their own
// messages.  Keys are "field.rule" (min and max both map to "len") or a
// bare "field" used for any rule of that field.
type Messenger interface {
	Messages() map[string]string
}

// Validator adapts validator.Validate to echo.Validator.
type Validator struct {
	v   *validator.Validate
	now func() time.Time
}

// New builds a Validator with the portal's custom rules registered.
func New() *Validator {
	cv := &Validator{
		v:   validator.New(validator.WithRequiredStructEnabled()),
		now: func() time.Time { return time.Now().UTC() },
	}
	cv.v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	mustRegister(cv.v, "personname", matches(personNameRe))
	mustRegister(cv.v, "username", matches(usernameRe))
	mustRegister(cv.v, "phone", matches(phoneRe))
	mustRegister(cv.v, "strongpassword", strongPassword)
	mustRegister(cv.v, "isodate", func(fl validator.FieldLevel) bool {
		_, err := model.ParseDate(fl.Field().String())
		return err == nil
	})
	mustRegister(cv.v, "notpast", func(fl validator.FieldLevel) bool {
		d, err := model.ParseDate(fl.Field().String())
		if err != nil {
			return true // isodate reports it
		}
		return !d.Before(cv.now())
	})
	return cv
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s: %v", tag, err))
	}
}

func matches(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

// strongPassword requires a lowercase letter, an uppercase letter and a digit.
func strongPassword(fl validator.FieldLevel) bool {
	var lower, upper, digit bool
	for _, r := range fl.Field().String() {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return lower && upper && digit
}

// Validate runs the struct rules of i.  Failures come back as Errors in
// field order.
func (cv *Validator) Validate(i any) error {
	err := cv.v.Struct(i)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	var msgs map[string]string
	if m, ok := i.(Messenger); ok {
		msgs = m.Messages()
	}
	out := make(Errors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{
			Msg:      message(msgs, fe),
			Param:    fe.Field(),
			Location: "body",
			Value:    fe.Value(),
		})
	}
	return out
}

func ruleKey(tag string) string {
	switch tag {
	case "min", "max", "len":
		return "len"
	}
	return tag
}

func message(msgs map[string]string, fe validator.FieldError) string {
	if m, ok := msgs[fe.Field()+"."+ruleKey(fe.Tag())]; ok {
		return m
	}
	if m, ok := msgs[fe.Field()]; ok {
		return m
	}
	return defaultMessage(fe)
}

func defaultMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters long", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "eqfield":
		return fmt.Sprintf("%s must match %s", fe.Field(), fe.Param())
	case "isodate":
		return "Please provide a valid date in YYYY-MM-DD format"
	case "notpast":
		return "Date cannot be in the past"
	}
	return "Invalid value"
}
