package tool

import (
	"errors"
	"fmt"

	"github.com/matiasleandrokruk/netsuite-mcp/internal/backend"
	"github.com/matiasleandrokruk/netsuite-mcp/internal/domain/schema"
	"github.com/matiasleandrokruk/netsuite-mcp/pkg/auth"
)

// Kind classifies a failed invocation for the caller.
type Kind string

const (
	KindInvalidParams Kind = "INVALID_PARAMS"
	KindAuth          Kind = "AUTH"
	KindNotFound      Kind = "NOT_FOUND"
	KindInternal      Kind = "INTERNAL_ERROR"
)

// Error is the caller-visible failure record. It never carries internal
// error chains.
type Error struct {
	Kind    Kind           `json:"kind"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

var (
	ErrToolNotRegistered   = errors.New("tool not registered")
	ErrToolAlreadyDeclared = errors.New("tool already declared")
	ErrUnknownRecordType   = errors.New("invalid record type")
	ErrInvalidStatement    = errors.New("invalid query")
	ErrMalformedResponse   = errors.New("malformed backend response")
)

// ToError classifies err into an *Error. An *Error anywhere in the chain is
// returned as-is so dependency failures keep their kind.
func ToError(err error) *Error {
	if err == nil {
		return nil
	}

	var te *Error
	if errors.As(err, &te) {
		return te
	}

	var verr *schema.ValidationError
	switch {
	case errors.As(err, &verr):
		return &Error{
			Kind:    KindInvalidParams,
			Message: verr.Error(),
			Details: map[string]any{"field": verr.Field, "constraint": verr.Constraint},
		}
	case errors.Is(err, ErrInvalidStatement), errors.Is(err, ErrUnknownRecordType):
		return &Error{Kind: KindInvalidParams, Message: err.Error()}
	case errors.Is(err, auth.ErrMissingCredential):
		return &Error{Kind: KindAuth, Message: auth.ErrMissingCredential.Error()}
	case errors.Is(err, auth.ErrUnauthorized):
		return &Error{Kind: KindAuth, Message: auth.ErrUnauthorized.Error()}
	case errors.Is(err, ErrToolNotRegistered):
		return &Error{Kind: KindNotFound, Message: err.Error()}
	case errors.Is(err, backend.ErrNotFound):
		return &Error{Kind: KindNotFound, Message: "no data found"}
	case errors.Is(err, backend.ErrTimeout):
		return &Error{Kind: KindInternal, Message: "backend call timed out"}
	default:
		return &Error{Kind: KindInternal, Message: "backend call failed"}
	}
}
