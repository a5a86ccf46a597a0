package tracing

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestNewProvider_Disabled(t *testing.T) {
	p, err := NewProvider(DefaultConfig())
	require.NoError(t, err)
	require.False(t, p.Enabled())
	require.NotNil(t, p.Tracer())
	require.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProvider_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"file without path", Config{Enabled: true, Exporter: ExporterFile}},
		{"unknown exporter", Config{Enabled: true, Exporter: "carrier-pigeon"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProvider(tt.cfg)
			require.Error(t, err)
		})
	}
}

func TestNewProvider_FileExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "traces.jsonl")
	p, err := NewProvider(Config{Enabled: true, Exporter: ExporterFile, FilePath: path})
	require.NoError(t, err)
	require.True(t, p.Enabled())

	ctx, parent := Start(context.Background(), p.Tracer(), SpanRead, attribute.String(AttrFile, "a.ofx"))
	_, child := Start(ctx, p.Tracer(), SpanDecode, attribute.String(AttrKind, "OFX"))
	Finish(child, errors.New("missing_required"))
	Finish(parent, nil)
	require.NoError(t, p.Shutdown(context.Background()))

	records := readRecords(t, path)
	require.Len(t, records, 2)
	byName := map[string]SpanRecord{}
	for _, r := range records {
		byName[r.Name] = r
	}
	require.Equal(t, "ERROR", byName[SpanDecode].Status)
	require.Equal(t, "OK", byName[SpanRead].Status)
	require.Equal(t, byName[SpanRead].SpanID, byName[SpanDecode].ParentSpanID)
	require.Equal(t, "a.ofx", byName[SpanRead].Attributes[AttrFile])
}

func TestStart_NilTracer(t *testing.T) {
	ctx, span := Start(context.Background(), nil, SpanEncode)
	require.NotNil(t, ctx)
	require.False(t, span.IsRecording())
	Finish(span, nil)
}

func TestFileExporter_RecordsEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traces.jsonl")
	exp, err := NewFileExporter(path)
	require.NoError(t, err)

	stub := tracetest.SpanStub{
		Name:   SpanArchive,
		Status: sdktrace.Status{Code: codes.Error, Description: "boom"},
		Events: []sdktrace.Event{{Name: EventDuplicate, Attributes: []attribute.KeyValue{attribute.String(AttrDigest, "abc")}}},
	}
	require.NoError(t, exp.ExportSpans(context.Background(), []sdktrace.ReadOnlySpan{stub.Snapshot()}))
	require.NoError(t, exp.Shutdown(context.Background()))
	require.NoError(t, exp.Shutdown(context.Background()))
	require.Error(t, exp.ExportSpans(context.Background(), []sdktrace.ReadOnlySpan{stub.Snapshot()}))

	records := readRecords(t, path)
	require.Len(t, records, 1)
	require.Equal(t, "ERROR", records[0].Status)
	require.Equal(t, "boom", records[0].StatusMsg)
	require.Len(t, records[0].Events, 1)
	require.Equal(t, "abc", records[0].Events[0].Attributes[AttrDigest])
}

func readRecords(t *testing.T, path string) []SpanRecord {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var out []SpanRecord
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var r SpanRecord
		require.NoError(t, json.Unmarshal(sc.Bytes(), &r))
		out = append(out, r)
	}
	require.NoError(t, sc.Err())
	return out
}
