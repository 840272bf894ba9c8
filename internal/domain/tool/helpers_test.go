package tool

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/matiasleandrokruk/netsuite-mcp/internal/backend"
	"github.com/matiasleandrokruk/netsuite-mcp/internal/domain/cache"
	"github.com/matiasleandrokruk/netsuite-mcp/internal/infra/logging"
	"github.com/matiasleandrokruk/netsuite-mcp/pkg/auth"
)

const testKey = "default_key"

var testFixtures = map[string]json.RawMessage{
	"record/v1/customer/123456":  json.RawMessage(`{"id":"123456","companyName":"Acme"}`),
	"record/v1/salesOrder/98765": json.RawMessage(`{"id":"98765","tranId":"SO-98765"}`),
	"record/v1/invoice/55555":    json.RawMessage(`{"id":"55555","total":99.0}`),
	"record/v1/vendor/3001":      json.RawMessage(`{"id":"3001"}`),
	"record/v1/metadata-catalog": json.RawMessage(`{"records":[{"type":"customer"},{"type":"salesOrder"},{"type":"vendor"}]}`),
	"query/v1/suiteql":           json.RawMessage(`{"items":[{"id":"123456"}],"totalResults":1}`),
}

type backendCall struct {
	Verb     backend.Verb
	Endpoint string
	Payload  any
}

// countingPort records every call before delegating.
type countingPort struct {
	next  backend.Port
	mu    sync.Mutex
	calls []backendCall
}

func (p *countingPort) record(verb backend.Verb, endpoint string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, backendCall{Verb: verb, Endpoint: endpoint, Payload: payload})
}

func (p *countingPort) Get(ctx context.Context, endpoint string) (json.RawMessage, error) {
	p.record(backend.VerbRead, endpoint, nil)
	return p.next.Get(ctx, endpoint)
}

func (p *countingPort) Create(ctx context.Context, endpoint string, payload any) (json.RawMessage, error) {
	p.record(backend.VerbCreate, endpoint, payload)
	return p.next.Create(ctx, endpoint, payload)
}

func (p *countingPort) Update(ctx context.Context, endpoint string, payload any) (json.RawMessage, error) {
	p.record(backend.VerbUpdate, endpoint, payload)
	return p.next.Update(ctx, endpoint, payload)
}

func (p *countingPort) Calls() []backendCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]backendCall(nil), p.calls...)
}

func (p *countingPort) CountEndpoint(endpoint string) int {
	n := 0
	for _, c := range p.Calls() {
		if c.Endpoint == endpoint {
			n++
		}
	}
	return n
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recordingObserver struct {
	mu          sync.Mutex
	invocations map[string]int
	hits        int
	misses      int
}

func (o *recordingObserver) InvocationDone(op, outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.invocations == nil {
		o.invocations = map[string]int{}
	}
	o.invocations[op+"/"+outcome]++
}

func (o *recordingObserver) CacheLookup(_ string, hit bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if hit {
		o.hits++
	} else {
		o.misses++
	}
}

type harness struct {
	d        *Dispatcher
	port     *countingPort
	clock    *testClock
	observer *recordingObserver
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWithPort(t, backend.NewMock(testFixtures, logging.Discard()))
}

func newHarnessWithPort(t *testing.T, next backend.Port) *harness {
	t.Helper()

	reg, err := NewRegistry(BuiltinDescriptors()...)
	require.NoError(t, err)

	guard, err := auth.NewGuard(testKey, testKey)
	require.NoError(t, err)

	clock := &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	c, err := cache.NewMemoryCache(cache.DefaultMaxEntries, cache.WithClock(clock.Now))
	require.NoError(t, err)

	port := &countingPort{next: next}
	obs := &recordingObserver{}
	d, err := NewDispatcher(Config{
		Registry: reg,
		Guard:    guard,
		Port:     port,
		Cache:    c,
		Logger:   logging.Discard(),
		Observer: obs,
	})
	require.NoError(t, err)

	return &harness{d: d, port: port, clock: clock, observer: obs}
}

func requireKind(t *testing.T, err error, kind Kind) *Error {
	t.Helper()
	require.Error(t, err)
	te, ok := err.(*Error)
	require.True(t, ok, "expected *Error, got %T: %v", err, err)
	require.Equal(t, kind, te.Kind, "message: %s", te.Message)
	return te
}

func decode(t *testing.T, raw json.RawMessage) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}
