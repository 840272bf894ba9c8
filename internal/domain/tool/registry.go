package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/matiasleandrokruk/netsuite-mcp/internal/backend"
	"github.com/matiasleandrokruk/netsuite-mcp/internal/domain/schema"
)

// Invoker runs a named operation through the full pipeline. Prechecks use it
// to call their dependencies.
type Invoker interface {
	Invoke(ctx context.Context, name string, args map[string]any) (json.RawMessage, error)
}

// Descriptor is the immutable definition of one operation.
type Descriptor struct {
	Name        string
	Description string
	Fields      []schema.Field

	Verb backend.Verb
	// Endpoint is a path template; {field} segments are filled from the bundle.
	Endpoint string
	// Payload maps validated params onto the backend body. Nil for reads.
	Payload func(p schema.Bundle) any
	// Precheck runs after validation and before the cache.
	Precheck func(ctx context.Context, inv Invoker, args map[string]any, p schema.Bundle) error
	// Reshape post-processes a successful backend result.
	Reshape func(raw json.RawMessage) (json.RawMessage, error)

	Cacheable bool
	TTL       time.Duration
}

// InputSchema renders the descriptor's fields as JSON Schema, advertising the
// optional api_key argument every operation accepts.
func (d *Descriptor) InputSchema() json.RawMessage {
	return schema.JSONSchema(d.Fields, map[string]any{
		ArgAPIKey: map[string]any{
			"type":        "string",
			"description": "Shared API key; defaults to the server's configured key",
		},
	})
}

// RenderEndpoint fills the endpoint template from p.
func (d *Descriptor) RenderEndpoint(p schema.Bundle) (string, error) {
	var b strings.Builder
	rest := d.Endpoint
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			b.WriteString(rest)
			return b.String(), nil
		}
		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			return "", fmt.Errorf("tool %s: unterminated endpoint placeholder", d.Name)
		}
		name := rest[open+1 : open+end]
		v, ok := p[name]
		if !ok {
			return "", fmt.Errorf("tool %s: endpoint placeholder %q has no value", d.Name, name)
		}
		b.WriteString(rest[:open])
		b.WriteString(url.PathEscape(fmt.Sprint(v)))
		rest = rest[open+end+1:]
	}
}

// Registry holds descriptors by name. It is read-only after NewRegistry.
type Registry struct {
	descriptors map[string]*Descriptor
}

func NewRegistry(descs ...Descriptor) (*Registry, error) {
	r := &Registry{descriptors: make(map[string]*Descriptor, len(descs))}
	for i := range descs {
		d := descs[i]
		name := strings.TrimSpace(d.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: empty name", ErrToolNotRegistered)
		}
		if _, exists := r.descriptors[name]; exists {
			return nil, fmt.Errorf("%w: %s", ErrToolAlreadyDeclared, name)
		}
		if d.Cacheable && d.TTL <= 0 {
			return nil, fmt.Errorf("tool %s: cacheable descriptor needs a positive TTL", name)
		}
		r.descriptors[name] = &d
	}
	return r, nil
}

func (r *Registry) Get(name string) (*Descriptor, error) {
	d, ok := r.descriptors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrToolNotRegistered, name)
	}
	return d, nil
}

// List returns descriptors sorted by name.
func (r *Registry) List() []*Descriptor {
	out := make([]*Descriptor, 0, len(r.descriptors))
	for _, d := range r.descriptors {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// WithTTL returns a copy of descs with cache TTLs overridden by name.
// Overriding an unknown or non-cacheable operation is an error.
func WithTTL(descs []Descriptor, ttl map[string]time.Duration) ([]Descriptor, error) {
	out := make([]Descriptor, len(descs))
	copy(out, descs)

	for name, d := range ttl {
		found := false
		for i := range out {
			if out[i].Name != name {
				continue
			}
			if !out[i].Cacheable {
				return nil, fmt.Errorf("tool %s is not cacheable", name)
			}
			if d <= 0 {
				return nil, fmt.Errorf("tool %s: ttl must be positive", name)
			}
			out[i].TTL = d
			found = true
		}
		if !found {
			return nil, fmt.Errorf("%w: %s", ErrToolNotRegistered, name)
		}
	}
	return out, nil
}
