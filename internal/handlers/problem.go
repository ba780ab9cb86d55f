package handlers

import (
	"errors"
	"net/url"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/skcgolf/skc-api/internal/dto"
	"github.com/skcgolf/skc-api/internal/logging"
	"github.com/skcgolf/skc-api/internal/validation"
)

const (
	AppName = "skcApp"

	HeaderAlert  = "X-" + AppName + "-alert"
	HeaderError  = "X-" + AppName + "-error"
	HeaderParams = "X-" + AppName + "-params"
)

// AlertError is a 400 carrying an entity name and error key for the client.
type AlertError struct {
	Title      string
	EntityName string
	ErrorKey   string
	Type       string
}

func (e *AlertError) Error() string { return e.Title }

func BadRequestAlert(title, entityName, errorKey string) *AlertError {
	return &AlertError{Title: title, EntityName: entityName, ErrorKey: errorKey, Type: dto.ProblemDefaultType}
}

// ProblemError is an error rendered verbatim as a problem document.
type ProblemError struct {
	dto.Problem
}

func (e *ProblemError) Error() string { return e.Title }

func newProblem(status int, problemType, title string) *ProblemError {
	return &ProblemError{dto.Problem{
		Type:    problemType,
		Title:   title,
		Status:  status,
		Message: "error.http." + strconv.Itoa(status),
	}}
}

// ErrorHandler renders every error returned by a handler as a problem
// document. Details of 5xx errors are logged, not returned.
func ErrorHandler(c *fiber.Ctx, err error) error {
	p := toProblem(err)
	p.Path = c.Path()

	if p.Status >= fiber.StatusInternalServerError {
		logging.For("web").Error("unhandled server error",
			"method", c.Method(),
			"path", c.Path(),
			"request_id", c.Locals("requestid"),
			"error", err.Error(),
		)
	}
	if p.ErrorKey != "" {
		c.Set(HeaderError, p.Message)
		c.Set(HeaderParams, p.EntityName)
	}
	return c.Status(p.Status).JSON(p, "application/problem+json")
}

func toProblem(err error) dto.Problem {
	var (
		problem *ProblemError
		alert   *AlertError
		verr    *validation.ValidationError
		ferr    *fiber.Error
	)
	switch {
	case errors.As(err, &problem):
		return problem.Problem
	case errors.As(err, &alert):
		return dto.Problem{
			Type:       alert.Type,
			Title:      alert.Title,
			Status:     fiber.StatusBadRequest,
			Message:    "error." + alert.ErrorKey,
			Params:     alert.EntityName,
			EntityName: alert.EntityName,
			ErrorKey:   alert.ErrorKey,
		}
	case errors.As(err, &verr):
		return dto.Problem{
			Type:        dto.ProblemConstraintViolation,
			Title:       "Method argument not valid",
			Status:      fiber.StatusBadRequest,
			Message:     "error.validation",
			FieldErrors: verr.Fields,
		}
	case errors.As(err, &ferr):
		p := newProblem(ferr.Code, dto.ProblemDefaultType, ferr.Message).Problem
		if ferr.Code >= fiber.StatusInternalServerError {
			p.Title = "Internal Server Error"
		}
		return p
	default:
		return newProblem(fiber.StatusInternalServerError, dto.ProblemDefaultType, "Internal Server Error").Problem
	}
}

// Bind parses the JSON body into out and validates it.
func Bind(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	return validation.Default().Struct(out)
}

func setAlert(c *fiber.Ctx, message, param string) {
	c.Set(HeaderAlert, message)
	c.Set(HeaderParams, url.QueryEscape(param))
}

func EntityAlert(c *fiber.Ctx, entityName, action, param string) {
	setAlert(c, AppName+"."+entityName+"."+action, param)
}
