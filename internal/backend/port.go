// Package backend defines the data-source port the dispatcher calls and the
// fixture-backed adapter that stands in for the live record service.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
)

// ServicePrefix is the fixed path prefix of every REST endpoint. Fixture keys
// are stored without it.
const ServicePrefix = "/services/rest/"

// Verb is the backend call style of an operation.
type Verb string

const (
	VerbRead   Verb = "read"
	VerbCreate Verb = "create"
	VerbUpdate Verb = "update"
)

var (
	// ErrNotFound is the controlled "no data" outcome of a read.
	ErrNotFound = errors.New("backend: no data for endpoint")
	// ErrTimeout is returned when a call exceeds the port-boundary deadline.
	ErrTimeout = errors.New("backend: call timed out")
	// ErrLiveUnavailable is returned when live mode is requested but no live adapter is built in.
	ErrLiveUnavailable = errors.New("backend: live adapter not available in this build")
)

// Port is the capability the dispatcher needs from a record service.
// Implementations must be safe for concurrent use.
type Port interface {
	Get(ctx context.Context, endpoint string) (json.RawMessage, error)
	Create(ctx context.Context, endpoint string, payload any) (json.RawMessage, error)
	Update(ctx context.Context, endpoint string, payload any) (json.RawMessage, error)
}

// EndpointKey strips the service prefix from an endpoint path.
func EndpointKey(endpoint string) string {
	return strings.TrimPrefix(endpoint, ServicePrefix)
}

// Call dispatches to the Port method matching verb.
func Call(ctx context.Context, p Port, verb Verb, endpoint string, payload any) (json.RawMessage, error) {
	switch verb {
	case VerbRead:
		return p.Get(ctx, endpoint)
	case VerbCreate:
		return p.Create(ctx, endpoint, payload)
	case VerbUpdate:
		return p.Update(ctx, endpoint, payload)
	default:
		return nil, errors.New("backend: unknown verb " + string(verb))
	}
}
