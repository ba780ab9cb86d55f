package dto

import "github.com/skcgolf/skc-api/internal/validation"

const ProblemBaseURL = "https://skc.golf/problem"

const (
	ProblemDefaultType         = "about:blank"
	ProblemConstraintViolation = ProblemBaseURL + "/constraint-violation"
	ProblemInvalidPassword     = ProblemBaseURL + "/invalid-password"
	ProblemEmailAlreadyUsed    = ProblemBaseURL + "/email-already-used"
	ProblemLoginAlreadyUsed    = ProblemBaseURL + "/login-already-used"
	ProblemEmailNotFound       = ProblemBaseURL + "/email-not-found"
)

// Problem is the error body returned by every endpoint.
type Problem struct {
	Type        string                  `json:"type"`
	Title       string                  `json:"title"`
	Status      int                     `json:"status"`
	Detail      string                  `json:"detail,omitempty"`
	Path        string                  `json:"path,omitempty"`
	Message     string                  `json:"message"`
	Params      string                  `json:"params,omitempty"`
	EntityName  string                  `json:"entityName,omitempty"`
	ErrorKey    string                  `json:"errorKey,omitempty"`
	FieldErrors []validation.FieldError `json:"fieldErrors,omitempty"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
}
