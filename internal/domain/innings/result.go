package innings

import (
	"errors"

	"github.com/okian/wicket/internal/domain/model"
)

// Result statuses reported to callers of lifecycle operations.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Result is the structured outcome of start, end and append.
type Result struct {
	Status    string `json:"status"`
	Reason    string `json:"reason,omitempty"`
	Code      string `json:"code,omitempty"`
	Duplicate bool   `json:"duplicate,omitempty"`
}

// OK reports whether the operation was applied.
func (r Result) OK() bool { return r.Status == ResultOK }

// ResultOf converts an operation error into a Result. A nil error is ok.
func ResultOf(err error) Result {
	if err == nil {
		return Result{Status: ResultOK}
	}
	return Result{Status: ResultError, Reason: err.Error(), Code: Code(err)}
}

// Code classifies err into a stable machine-readable reason code.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrInningsNotActive):
		return "innings_not_active"
	case errors.Is(err, model.ErrValidation):
		return "validation_error"
	default:
		return "internal_error"
	}
}
