package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span attribute keys.
const (
	AttrFile      = "ofx.file"
	AttrDigest    = "ofx.digest"
	AttrVersion   = "ofx.version"
	AttrFormat    = "ofx.format"
	AttrKind      = "ofx.kind"
	AttrBytes     = "ofx.bytes"
	AttrErrorCode = "ofx.error.code"
	AttrDocument  = "store.document_id"
)

// Span names.
const (
	SpanRead     = "document.read"
	SpanDecode   = "aggregate.decode"
	SpanEncode   = "aggregate.encode"
	SpanWrite    = "document.write"
	SpanArchive  = "store.archive"
	SpanValidate = "cli.validate"
)

// Event names.
const (
	EventWarning   = "codec.warning"
	EventDuplicate = "store.duplicate"
)

// Start opens an internal span on tracer. A nil tracer yields a
// non-recording span from ctx.
func Start(ctx context.Context, tracer trace.Tracer, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// Finish records the outcome of the span's operation and ends it.
func Finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
