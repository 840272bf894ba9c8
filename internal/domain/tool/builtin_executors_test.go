package tool

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matiasleandrokruk/netsuite-mcp/internal/domain/schema"
)

func TestReshapeListing(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name, in, want string
	}{
		{"passes through", `{"items":[{"id":1}],"totalResults":7,"hasMore":true}`, `{"items":[{"id":1}],"totalResults":7}`},
		{"missing total", `{"items":[{"id":1},{"id":2}]}`, `{"items":[{"id":1},{"id":2}],"totalResults":2}`},
		{"missing items", `{"totalResults":0}`, `{"items":[],"totalResults":0}`},
		{"null items", `{"items":null}`, `{"items":[],"totalResults":0}`},
		{"empty object", `{}`, `{"items":[],"totalResults":0}`},
		{"negative total", `{"items":[1],"totalResults":-4}`, `{"items":[1],"totalResults":1}`},
		{"string total", `{"items":[1],"totalResults":"9"}`, `{"items":[1],"totalResults":1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := reshapeListing(json.RawMessage(tc.in))
			require.NoError(t, err)
			assert.JSONEq(t, tc.want, string(got))
		})
	}

	_, err := reshapeListing(json.RawMessage(`[1,2]`))
	assert.True(t, errors.Is(err, ErrMalformedResponse))
	_, err = reshapeListing(json.RawMessage(`{"items":"x"}`))
	assert.True(t, errors.Is(err, ErrMalformedResponse))
}

type stubInvoker struct {
	out      json.RawMessage
	err      error
	lastName string
	lastArgs map[string]any
}

func (s *stubInvoker) Invoke(_ context.Context, name string, args map[string]any) (json.RawMessage, error) {
	s.lastName = name
	s.lastArgs = args
	return s.out, s.err
}

func TestCheckRecordType(t *testing.T) {
	t.Parallel()

	inv := &stubInvoker{out: json.RawMessage(`{"records":[{"type":"customer"},{"type":""},{"name":"noType"}]}`)}
	ctx := context.Background()

	err := checkRecordType(ctx, inv, map[string]any{"api_key": "k"}, schema.Bundle{"record_type": "customer"})
	require.NoError(t, err)
	assert.Equal(t, BuiltinFetchMetadata, inv.lastName)
	assert.Equal(t, map[string]any{"api_key": "k"}, inv.lastArgs)

	err = checkRecordType(ctx, inv, nil, schema.Bundle{"record_type": "Customer"})
	assert.True(t, errors.Is(err, ErrUnknownRecordType))
	assert.Empty(t, inv.lastArgs)

	err = checkRecordType(ctx, inv, nil, schema.Bundle{"record_type": ""})
	assert.True(t, errors.Is(err, ErrUnknownRecordType))
}

func TestCheckRecordType_DependencyErrorPropagates(t *testing.T) {
	t.Parallel()

	depErr := &Error{Kind: KindAuth, Message: "invalid API key"}
	inv := &stubInvoker{err: depErr}

	err := checkRecordType(context.Background(), inv, nil, schema.Bundle{"record_type": "customer"})
	assert.Same(t, depErr, ToError(err))

	inv = &stubInvoker{out: json.RawMessage(`"not a catalog"`)}
	err = checkRecordType(context.Background(), inv, nil, schema.Bundle{"record_type": "customer"})
	assert.True(t, errors.Is(err, ErrMalformedResponse))
}

func TestToError(t *testing.T) {
	t.Parallel()

	assert.Nil(t, ToError(nil))
	assert.Equal(t, KindInternal, ToError(errors.New("boom")).Kind)
	assert.Equal(t, "backend call failed", ToError(errors.New("secret detail")).Message)
	assert.Equal(t, KindNotFound, ToError(ErrToolNotRegistered).Kind)
	assert.Equal(t, KindInvalidParams, ToError(ErrUnknownRecordType).Kind)
	assert.Equal(t, KindInternal, ToError(ErrMalformedResponse).Kind)

	_, verr := schema.Validate([]schema.Field{{Name: "x", Kind: schema.KindString, Required: true}}, nil)
	te := ToError(verr)
	assert.Equal(t, KindInvalidParams, te.Kind)
	assert.Equal(t, "x", te.Details["field"])
	assert.Equal(t, "required", te.Details["constraint"])
}
