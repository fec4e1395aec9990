// Package validation holds the declarative rule set applied to signup and
// login input. Rules are expressed as validator/v10 struct tags and
// evaluated into a structured Result naming the first violated rule.
// String lengths are counted in characters, not bytes.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Field names as they appear in forms, query flags and results.
const (
	FieldName     = "name"
	FieldEmail    = "email"
	FieldPassword = "password"
)

// SignupFields is the rule set for account creation.
type SignupFields struct {
	Name     string `json:"name" validate:"required,max=20"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=20"`
}

// loginEmail is the rule set for the login path, which checks only the email.
type loginEmail struct {
	Email string `json:"email" validate:"required,email"`
}

// Result is the outcome of evaluating a rule set.
type Result struct {
	OK    bool
	Field string // first field that failed, empty when OK
	Rule  string // rule that failed on Field, e.g. "required", "email", "max"
	Param string // rule parameter, e.g. "20"
}

// Err returns nil for a passing result and an *Error otherwise.
func (r Result) Err() error {
	if r.OK {
		return nil
	}
	return &Error{Field: r.Field, Rule: r.Rule, Param: r.Param}
}

// Error describes a failed rule. It is meant for server-side logs.
type Error struct {
	Field string
	Rule  string
	Param string
}

func (e *Error) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("validation failed: %s violates %s=%s", e.Field, e.Rule, e.Param)
	}
	return fmt.Sprintf("validation failed: %s violates %s", e.Field, e.Rule)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})
	return v
}

// ValidateSignup evaluates the signup rule set.
func ValidateSignup(fields SignupFields) Result {
	return evaluate(fields)
}

// ValidateEmail evaluates the login rule set: email syntax only.
func ValidateEmail(email string) Result {
	return evaluate(loginEmail{Email: email})
}

// MissingFields is the presence pre-check run before the signup rule set.
// It reports every absent field, in form order.
func MissingFields(name, email, password string) []string {
	var missing []string
	if name == "" {
		missing = append(missing, FieldName)
	}
	if email == "" {
		missing = append(missing, FieldEmail)
	}
	if password == "" {
		missing = append(missing, FieldPassword)
	}
	return missing
}

func evaluate(v any) Result {
	err := validate.Struct(v)
	if err == nil {
		return Result{OK: true}
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		first := verrs[0]
		return Result{Field: first.Field(), Rule: first.Tag(), Param: first.Param()}
	}
	return Result{Rule: err.Error()}
}
