package backend

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matiasleandrokruk/netsuite-mcp/internal/infra/logging"
)

func newTestMock() *Mock {
	return NewMock(map[string]json.RawMessage{
		"record/v1/customer/123456": json.RawMessage(`{"id":"123456"}`),
		"record/v1/customer":        json.RawMessage(`{"id":"777","status":"created"}`),
	}, logging.Discard())
}

func TestMock_GetStripsServicePrefix(t *testing.T) {
	t.Parallel()

	m := newTestMock()
	got, err := m.Get(context.Background(), "/services/rest/record/v1/customer/123456")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"123456"}`, string(got))
}

func TestMock_GetMissingIsNotFound(t *testing.T) {
	t.Parallel()

	m := newTestMock()
	_, err := m.Get(context.Background(), "/services/rest/record/v1/customer/1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMock_CreateReturnsFixtureWhenPresent(t *testing.T) {
	t.Parallel()

	m := newTestMock()
	got, err := m.Create(context.Background(), "/services/rest/record/v1/customer", map[string]any{"companyName": "x"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"777","status":"created"}`, string(got))
}

func TestMock_WriteSynthesizesDefault(t *testing.T) {
	t.Parallel()

	m := newTestMock()

	created, err := m.Create(context.Background(), "/services/rest/record/v1/invoice", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"mock_invoice","status":"created"}`, string(created))

	updated, err := m.Update(context.Background(), "/services/rest/record/v1/vendor/42", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"mock_42","status":"updated"}`, string(updated))
}

func TestMock_CopiesFixtureMap(t *testing.T) {
	t.Parallel()

	src := map[string]json.RawMessage{"a": json.RawMessage(`1`)}
	m := NewMock(src, logging.Discard())
	delete(src, "a")

	_, err := m.Get(context.Background(), "a")
	require.NoError(t, err)
}

func TestCall_DispatchesByVerb(t *testing.T) {
	t.Parallel()

	m := newTestMock()
	ctx := context.Background()

	got, err := Call(ctx, m, VerbRead, "/services/rest/record/v1/customer/123456", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"123456"}`, string(got))

	got, err = Call(ctx, m, VerbUpdate, "/services/rest/record/v1/customer/9", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"mock_9","status":"updated"}`, string(got))

	_, err = Call(ctx, m, Verb("delete"), "x", nil)
	require.Error(t, err)
}
