package ctxlog

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	ctx := WithLogger(context.Background(), logger)
	assert.Same(t, logger, FromContext(ctx))

	With(ctx, "node", "axis(a)").Info("hello")
	assert.Contains(t, buf.String(), "node=axis(a)")
}

func TestFromContext_MissingPanics(t *testing.T) {
	assert.Panics(t, func() { FromContext(context.Background()) })
	assert.NotPanics(t, func() { FromContext(Discard(context.Background())).Info("dropped") })
}
