package log

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   LevelDebug,
		" WARN ":  LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
		"info":    LevelInfo,
		"bogus":   LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestLog_FormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, LevelInfo)

	Debug(CatCodec, "hidden")
	Info(CatCodec, "decoded", "kind", "STMTTRN", "depth", 3)
	ErrorErr(CatStore, "save failed", errors.New("disk full"), "path", "a.db")
	Warn(CatCLI, "odd", "orphan")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[INFO] [codec] decoded kind=STMTTRN depth=3\n")
	assert.Contains(t, out, "[ERROR] [store] save failed path=a.db error=disk full\n")
	assert.Contains(t, out, "[WARN] [cli] odd orphan=<missing>\n")
}

func TestLog_Disabled(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, LevelDebug)
	SetEnabled(false)
	Info(CatCLI, "nothing")
	assert.Empty(t, buf.String())
}

func TestSubscribe(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, LevelDebug)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	entries := Subscribe(ctx)
	require.NotNil(t, entries)

	Warn(CatWatcher, "slow consumer")
	select {
	case ev := <-entries:
		assert.Contains(t, ev.Payload, "[WARN] [watcher] slow consumer")
	case <-time.After(time.Second):
		t.Fatal("no log event")
	}
}
