package log

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_JSONOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	l := New(buf, InfoLevel).Named("race")
	l.Debug("hidden")
	l.Info("leg done", Int("leg", 2), String("room", "r1"))

	var entry map[string]any
	assert.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "leg done", entry["msg"])
	assert.Equal(t, "race", entry["logger"])
	assert.Equal(t, float64(2), entry["leg"])
	assert.Equal(t, "r1", entry["room"])
}

func TestLogger_SetLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	l := New(buf, WarnLevel)
	l.Info("dropped")
	assert.Equal(t, 0, buf.Len())
	l.SetLevel(DebugLevel)
	l.Debug("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestGetFromContext(t *testing.T) {
	l := NewNop()
	ctx := AddToContext(context.Background(), l)
	assert.Same(t, l, GetFromContext(ctx))
	assert.Same(t, Default(), GetFromContext(context.Background()))
}
