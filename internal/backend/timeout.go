package backend

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// DefaultTimeout bounds a backend call when no explicit timeout is configured.
const DefaultTimeout = 30 * time.Second

// timeoutPort imposes a deadline on every call of the wrapped Port. The call
// runs in its own goroutine so an adapter that ignores ctx is still abandoned.
type timeoutPort struct {
	next    Port
	timeout time.Duration
}

// WithTimeout wraps p so that every call returns ErrTimeout after d.
func WithTimeout(p Port, d time.Duration) Port {
	if d <= 0 {
		d = DefaultTimeout
	}
	return &timeoutPort{next: p, timeout: d}
}

func (t *timeoutPort) Get(ctx context.Context, endpoint string) (json.RawMessage, error) {
	return t.run(ctx, func(ctx context.Context) (json.RawMessage, error) {
		return t.next.Get(ctx, endpoint)
	})
}

func (t *timeoutPort) Create(ctx context.Context, endpoint string, payload any) (json.RawMessage, error) {
	return t.run(ctx, func(ctx context.Context) (json.RawMessage, error) {
		return t.next.Create(ctx, endpoint, payload)
	})
}

func (t *timeoutPort) Update(ctx context.Context, endpoint string, payload any) (json.RawMessage, error) {
	return t.run(ctx, func(ctx context.Context) (json.RawMessage, error) {
		return t.next.Update(ctx, endpoint, payload)
	})
}

type callResult struct {
	data json.RawMessage
	err  error
}

func (t *timeoutPort) run(ctx context.Context, op func(context.Context) (json.RawMessage, error)) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	done := make(chan callResult, 1)
	go func() {
		data, err := op(ctx)
		done <- callResult{data: data, err: err}
	}()

	select {
	case res := <-done:
		if errors.Is(res.err, context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return res.data, res.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, ctx.Err()
	}
}
