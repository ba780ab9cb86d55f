// Package validation wraps go-playground/validator with JSON field names
// and the login pattern rule.
package validation

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// LoginPattern is the set of characters allowed in a login.
var LoginPattern = regexp.MustCompile(`^[_.@A-Za-z0-9-]*$`)

type FieldError struct {
	ObjectName string `json:"objectName"`
	Field      string `json:"field"`
	Message    string `json:"message"`
}

// ValidationError carries one entry per failing field.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, fmt.Sprintf("field '%s': %s", f.Field, f.Message))
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation("login", func(fl validator.FieldLevel) bool {
		return LoginPattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("register login rule: %v", err))
	}

	return &Validator{validate: v}
}

var defaultValidator = New()

// Default returns the process-wide validator.
func Default() *Validator {
	return defaultValidator
}

// Struct validates i and returns *ValidationError on rule failures.
func (v *Validator) Struct(i interface{}) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	objectName := reflect.Indirect(reflect.ValueOf(i)).Type().Name()
	fields := make([]FieldError, 0, len(validationErrors))
	for _, fe := range validationErrors {
		fields = append(fields, FieldError{
			ObjectName: objectName,
			Field:      fe.Field(),
			Message:    message(fe),
		})
	}
	return &ValidationError{Fields: fields}
}

// IsEmail reports whether s is a syntactically valid email address.
func (v *Validator) IsEmail(s string) bool {
	return v.validate.Var(s, "required,email") == nil
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "NotNull"
	case "email":
		return "Email"
	case "min", "max", "len":
		return "Size"
	case "login":
		return "Pattern"
	default:
		return fe.Tag()
	}
}
