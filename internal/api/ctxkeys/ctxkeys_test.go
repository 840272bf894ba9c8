package ctxkeys

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithValue_SetsAndGetsTypedKey(t *testing.T) {
	t.Parallel()

	ctx := WithValue(context.Background(), Subject, "smoke-client")
	got, ok := ctx.Value(Subject).(string)
	require.True(t, ok, "expected string value")
	assert.Equal(t, "smoke-client", got)
}

func TestWithValue_PlainStringKeyDoesNotCollide(t *testing.T) {
	t.Parallel()

	ctx := WithValue(context.Background(), AuthScheme, "bearer")
	assert.Nil(t, ctx.Value("auth_scheme"))
}

func TestCallerFrom_Success(t *testing.T) {
	t.Parallel()

	ctx := WithValue(context.Background(), AuthScheme, "bearer")
	ctx = WithValue(ctx, Subject, "ops")

	got, err := CallerFrom(ctx)
	require.NoError(t, err)
	assert.Equal(t, Caller{Scheme: "bearer", Subject: "ops"}, got)
}

func TestCallerFrom_Missing_ReturnsExpectedError(t *testing.T) {
	t.Parallel()

	_, err := CallerFrom(context.Background())
	assert.ErrorIs(t, err, ErrMissingAuthScheme)

	ctx := context.WithValue(context.Background(), AuthScheme, "")
	_, err = CallerFrom(ctx)
	assert.ErrorIs(t, err, ErrMissingAuthScheme)
}
