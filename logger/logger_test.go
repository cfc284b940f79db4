package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestFromContextPrefersRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	reqLogger := zerolog.New(&buf).With().Str("request_id", "req-1").Logger()
	ctx := WithLogger(context.Background(), reqLogger)

	FromContext(ctx).Info().Msg("hello")

	assert.Contains(t, buf.String(), `"request_id":"req-1"`)
	assert.Contains(t, buf.String(), `"message":"hello"`)
}

func TestFromContextFallsBackToGlobal(t *testing.T) {
	Discard()
	assert.NotNil(t, FromContext(context.Background()))
}
