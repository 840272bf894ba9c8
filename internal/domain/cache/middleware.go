package cache

import (
	"context"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// Loader produces the value for a cache miss.
type Loader func(ctx context.Context) ([]byte, error)

// Lookup reports the outcome of a cached call.
type Lookup struct {
	Key string
	Hit bool
}

// Memoizer wraps a Cache with miss de-duplication: concurrent misses on the
// same key share one Loader call.
type Memoizer struct {
	cache  Cache
	group  singleflight.Group
	logger logrus.FieldLogger
}

// NewMemoizer returns a Memoizer over c. A nil logger discards store failures.
func NewMemoizer(c Cache, logger logrus.FieldLogger) *Memoizer {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Memoizer{cache: c, logger: logger}
}

// Do returns the cached value for op+params, or runs load and stores a
// successful result for ttl. Errors are returned but never stored.
//
// A shared load runs detached from the cancellation of whichever caller
// started it; each caller stops waiting when its own ctx is done.
func (m *Memoizer) Do(ctx context.Context, op string, params map[string]any, ttl time.Duration, load Loader) ([]byte, Lookup, error) {
	key, err := Key(op, params)
	if err != nil {
		out, loadErr := load(ctx)
		return out, Lookup{}, loadErr
	}

	if cached, ok := m.cache.Get(ctx, key); ok {
		return cached, Lookup{Key: key, Hit: true}, nil
	}

	flightCtx := context.WithoutCancel(ctx)
	ch := m.group.DoChan(key, func() (any, error) {
		// A flight that finished between our Get and DoChan already stored it.
		if cached, ok := m.cache.Get(flightCtx, key); ok {
			return cached, nil
		}
		out, loadErr := load(flightCtx)
		if loadErr != nil {
			return nil, loadErr
		}
		if setErr := m.cache.Set(flightCtx, key, out, ttl); setErr != nil {
			m.logger.WithError(setErr).WithFields(logrus.Fields{
				"operation": op,
				"cache_key": key,
			}).Warn("cache store failed")
		}
		return out, nil
	})

	select {
	case <-ctx.Done():
		return nil, Lookup{Key: key}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, Lookup{Key: key}, res.Err
		}
		return res.Val.([]byte), Lookup{Key: key}, nil
	}
}

// Cache returns the underlying store.
func (m *Memoizer) Cache() Cache { return m.cache }
