package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/matiasleandrokruk/netsuite-mcp/internal/backend"
	"github.com/matiasleandrokruk/netsuite-mcp/internal/domain/cache"
	"github.com/matiasleandrokruk/netsuite-mcp/internal/domain/schema"
	"github.com/matiasleandrokruk/netsuite-mcp/pkg/auth"
)

// Call carries one invocation through the middleware chain.
type Call struct {
	ID       string
	ParentID string
	Name     string
	Args     map[string]any
	APIKey   string

	Descriptor *Descriptor
	Params     schema.Bundle
	CacheHit   bool
}

// Handler runs a call. Middleware wraps a Handler with one pipeline step.
type Handler func(ctx context.Context, call *Call) (json.RawMessage, error)

type Middleware func(next Handler) Handler

// Chain applies mws so that mws[0] runs first.
func Chain(h Handler, mws ...Middleware) Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// Observer receives invocation and cache outcomes, typically for metrics.
type Observer interface {
	InvocationDone(op, outcome string, elapsed time.Duration)
	CacheLookup(op string, hit bool)
}

type nopObserver struct{}

func (nopObserver) InvocationDone(string, string, time.Duration) {}
func (nopObserver) CacheLookup(string, bool)                     {}

// Config holds the process-scoped state a Dispatcher is built from.
type Config struct {
	Registry *Registry
	Guard    *auth.Guard
	Port     backend.Port
	// Cache defaults to a MemoryCache of cache.DefaultMaxEntries.
	Cache    cache.Cache
	Logger   logrus.FieldLogger
	Observer Observer
}

// Dispatcher runs operations through authorize, lookup, validate, precheck,
// cache and invoke, in that order. It is safe for concurrent use.
type Dispatcher struct {
	registry *Registry
	guard    *auth.Guard
	port     backend.Port
	memo     *cache.Memoizer
	logger   logrus.FieldLogger
	observer Observer
	handler  Handler
}

func NewDispatcher(cfg Config) (*Dispatcher, error) {
	if cfg.Registry == nil || cfg.Guard == nil || cfg.Port == nil {
		return nil, errors.New("tool: dispatcher needs a registry, a guard and a backend port")
	}
	if cfg.Cache == nil {
		c, err := cache.NewMemoryCache(cache.DefaultMaxEntries)
		if err != nil {
			return nil, err
		}
		cfg.Cache = c
	}
	if cfg.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		cfg.Logger = l
	}
	if cfg.Observer == nil {
		cfg.Observer = nopObserver{}
	}

	d := &Dispatcher{
		registry: cfg.Registry,
		guard:    cfg.Guard,
		port:     cfg.Port,
		memo:     cache.NewMemoizer(cfg.Cache, cfg.Logger),
		logger:   cfg.Logger,
		observer: cfg.Observer,
	}
	d.handler = Chain(d.invoke,
		d.observe,
		d.authorize,
		d.lookup,
		d.validate,
		d.precheck,
		d.cached,
	)
	return d, nil
}

// Registry returns the descriptor registry.
func (d *Dispatcher) Registry() *Registry { return d.registry }

type parentKey struct{}

// Invoke runs the named operation. Failures are always *Error.
func (d *Dispatcher) Invoke(ctx context.Context, name string, args map[string]any) (json.RawMessage, error) {
	if args == nil {
		args = map[string]any{}
	}
	call := &Call{Name: name, Args: args}
	if v, ok := args[ArgAPIKey]; ok && v != nil {
		if s, isString := v.(string); isString {
			call.APIKey = s
		} else {
			call.APIKey = fmt.Sprint(v)
		}
	}
	if parent, ok := ctx.Value(parentKey{}).(string); ok {
		call.ParentID = parent
	}

	out, err := d.handler(ctx, call)
	if err != nil {
		return nil, ToError(err)
	}
	return out, nil
}

func (d *Dispatcher) observe(next Handler) Handler {
	return func(ctx context.Context, call *Call) (json.RawMessage, error) {
		id, err := uuid.NewV7()
		if err != nil {
			id = uuid.New()
		}
		call.ID = id.String()
		ctx = context.WithValue(ctx, parentKey{}, call.ID)

		start := time.Now()
		out, err := next(ctx, call)
		elapsed := time.Since(start)

		fields := logrus.Fields{
			"operation":     call.Name,
			"invocation_id": call.ID,
			"duration_ms":   elapsed.Milliseconds(),
		}
		if call.ParentID != "" {
			fields["parent_invocation_id"] = call.ParentID
		}
		if call.Descriptor != nil && call.Descriptor.Cacheable {
			fields["cache_hit"] = call.CacheHit
		}

		outcome := "ok"
		if err != nil {
			te := ToError(err)
			outcome = string(te.Kind)
			fields["outcome"] = outcome
			entry := d.logger.WithFields(fields).WithField("error_message", te.Message)
			if te.Kind == KindInternal {
				entry.WithError(err).Error("invocation failed")
			} else {
				entry.Warn("invocation rejected")
			}
		} else {
			fields["outcome"] = outcome
			d.logger.WithFields(fields).Info("invocation completed")
		}

		op := call.Name
		if call.Descriptor == nil {
			op = "unknown"
		}
		d.observer.InvocationDone(op, outcome, elapsed)
		return out, err
	}
}

func (d *Dispatcher) authorize(next Handler) Handler {
	return func(ctx context.Context, call *Call) (json.RawMessage, error) {
		if err := d.guard.Authorize(ctx, call.APIKey); err != nil {
			return nil, err
		}
		return next(ctx, call)
	}
}

func (d *Dispatcher) lookup(next Handler) Handler {
	return func(ctx context.Context, call *Call) (json.RawMessage, error) {
		desc, err := d.registry.Get(call.Name)
		if err != nil {
			return nil, err
		}
		call.Descriptor = desc
		return next(ctx, call)
	}
}

func (d *Dispatcher) validate(next Handler) Handler {
	return func(ctx context.Context, call *Call) (json.RawMessage, error) {
		params, err := schema.Validate(call.Descriptor.Fields, call.Args)
		if err != nil {
			return nil, err
		}
		call.Params = params
		return next(ctx, call)
	}
}

func (d *Dispatcher) precheck(next Handler) Handler {
	return func(ctx context.Context, call *Call) (json.RawMessage, error) {
		if pc := call.Descriptor.Precheck; pc != nil {
			if err := pc(ctx, d, call.Args, call.Params); err != nil {
				return nil, err
			}
		}
		return next(ctx, call)
	}
}

func (d *Dispatcher) cached(next Handler) Handler {
	return func(ctx context.Context, call *Call) (json.RawMessage, error) {
		desc := call.Descriptor
		if !desc.Cacheable {
			return next(ctx, call)
		}

		out, lookup, err := d.memo.Do(ctx, desc.Name, call.Params, desc.TTL, func(ctx context.Context) ([]byte, error) {
			return next(ctx, call)
		})
		call.CacheHit = lookup.Hit
		d.observer.CacheLookup(desc.Name, lookup.Hit)
		if err != nil {
			return nil, err
		}
		return out, nil
	}
}

// invoke is the terminal step: render, call the backend, reshape.
func (d *Dispatcher) invoke(ctx context.Context, call *Call) (json.RawMessage, error) {
	desc := call.Descriptor

	endpoint, err := desc.RenderEndpoint(call.Params)
	if err != nil {
		return nil, err
	}

	var payload any
	if desc.Payload != nil {
		payload = desc.Payload(call.Params)
	}

	raw, err := backend.Call(ctx, d.port, desc.Verb, endpoint, payload)
	if err != nil {
		return nil, err
	}

	if desc.Reshape != nil {
		return desc.Reshape(raw)
	}
	return raw, nil
}
