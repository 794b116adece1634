package observability

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecoverPanic(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	assert.NotPanics(t, func() {
		defer RecoverPanic(logger, "scheduled publish")
		panic("bucket vanished")
	})

	assert.Contains(t, buf.String(), "panic recovered")
	assert.Contains(t, buf.String(), "bucket vanished")
	assert.Contains(t, buf.String(), "scheduled publish")
}

func TestMustRecover(t *testing.T) {
	assert.NoError(t, MustRecover(nil))
	assert.EqualError(t, MustRecover("boom"), "panic: boom")
}
