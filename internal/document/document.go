// Package document reads and writes whole OFX files: the header, then the
// tag tree of the body.
package document

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/ofxkit/internal/aggregate"
	"github.com/zjrosen/ofxkit/internal/header"
	"github.com/zjrosen/ofxkit/internal/log"
	"github.com/zjrosen/ofxkit/internal/tagtree"
	"github.com/zjrosen/ofxkit/internal/tracing"
)

// Latest header versions used when a document changes dialect.
const (
	LatestSGMLVersion = 160
	LatestXMLVersion  = 220
)

// Document is a parsed OFX file.
type Document struct {
	Header header.Header
	Body   *tagtree.Node
	// Digest is the hex sha256 of the bytes the document was read from.
	// It is empty for documents built in memory.
	Digest string
}

// Option configures reading and decoding.
type Option func(*options)

type options struct {
	tracer   trace.Tracer
	maxDepth int
}

// WithTracer records spans on t.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

// WithMaxDepth caps the nesting depth of the body tree.
func WithMaxDepth(n int) Option {
	return func(o *options) { o.maxDepth = n }
}

func buildOptions(opts []Option) options {
	o := options{maxDepth: aggregate.DefaultMaxDepth}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Digest returns the hex sha256 of data.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Parse splits data into header and body and builds the body tree.
func Parse(ctx context.Context, data []byte, opts ...Option) (*Document, error) {
	o := buildOptions(opts)
	digest := Digest(data)
	_, span := tracing.Start(ctx, o.tracer, tracing.SpanRead,
		attribute.String(tracing.AttrDigest, digest),
		attribute.Int(tracing.AttrBytes, len(data)),
	)

	doc, err := parse(data, o)
	if err == nil {
		doc.Digest = digest
		span.SetAttributes(
			attribute.Int(tracing.AttrVersion, doc.Header.Version),
			attribute.String(tracing.AttrFormat, doc.Format().String()),
		)
	}
	tracing.Finish(span, err)
	return doc, err
}

func parse(data []byte, o options) (*Document, error) {
	h, body, err := header.Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	tree, err := tagtree.NewParser(body).WithMaxDepth(o.maxDepth).Parse()
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	return &Document{Header: h, Body: tree}, nil
}

// ReadFile parses the OFX file at path.
func ReadFile(ctx context.Context, path string, opts ...Option) (*Document, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is supplied by the user
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	doc, err := Parse(ctx, data, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.Debug(log.CatCodec, "read document", "path", path, "version", doc.Header.Version)
	return doc, nil
}

// Format reports the body dialect announced by the header.
func (d *Document) Format() tagtree.Format {
	if d.Header.IsXML() {
		return tagtree.XML
	}
	return tagtree.SGML
}

// Decode converts the body into a validated aggregate.
func (d *Document) Decode(ctx context.Context, reg *aggregate.Registry, tracer trace.Tracer, opts ...aggregate.DecodeOption) (*aggregate.Instance, error) {
	_, span := tracing.Start(ctx, tracer, tracing.SpanDecode,
		attribute.String(tracing.AttrKind, d.Body.Tag),
		attribute.String(tracing.AttrDigest, d.Digest),
	)
	in, err := reg.Decode(d.Body, opts...)
	if err != nil {
		if code := aggregate.CodeOf(err); code != "" {
			span.SetAttributes(attribute.String(tracing.AttrErrorCode, string(code)))
		}
	} else {
		for _, w := range in.Warnings() {
			span.AddEvent(tracing.EventWarning, trace.WithAttributes(
				attribute.String(tracing.AttrKind, w.Kind),
				attribute.String("field", w.Field),
			))
		}
	}
	tracing.Finish(span, err)
	return in, err
}

// Encode builds a document from an aggregate under the given header.
func Encode(ctx context.Context, in *aggregate.Instance, h header.Header, tracer trace.Tracer) (*Document, error) {
	_, span := tracing.Start(ctx, tracer, tracing.SpanEncode, attribute.String(tracing.AttrKind, in.Kind()))
	tree, err := aggregate.Encode(in)
	tracing.Finish(span, err)
	if err != nil {
		return nil, err
	}
	log.Debug(log.CatCodec, "encoded", "kind", in.Kind(), "depth", tree.Depth())
	return &Document{Header: h, Body: tree}, nil
}

// Convert returns a copy of d whose header announces format f. Switching
// dialect moves the header to the latest version of that dialect. When
// newUID is set the copy gets a fresh NEWFILEUID.
func (d *Document) Convert(f tagtree.Format, newUID bool) *Document {
	h := d.Header
	switch {
	case f == tagtree.XML && !h.IsXML():
		h = header.NewV2(LatestXMLVersion)
		h.Security, h.OldFileUID, h.NewFileUID = d.Header.Security, d.Header.OldFileUID, d.Header.NewFileUID
	case f == tagtree.SGML && h.IsXML():
		h = header.NewV1(LatestSGMLVersion)
		h.Security, h.OldFileUID, h.NewFileUID = d.Header.Security, d.Header.OldFileUID, d.Header.NewFileUID
	}
	if newUID {
		h.NewFileUID = header.NewFileUID()
	}
	return &Document{Header: h, Body: d.Body.Clone()}
}

// Write renders the header followed by the body in the header's dialect.
func (d *Document) Write(w io.Writer, indent string) error {
	if err := d.Header.Validate(); err != nil {
		return err
	}
	if _, err := io.WriteString(w, d.Header.String()); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if err := tagtree.Write(w, d.Body, tagtree.WriteOptions{Format: d.Format(), Indent: indent}); err != nil {
		return fmt.Errorf("writing body: %w", err)
	}
	return nil
}

// Bytes renders the document into memory.
func (d *Document) Bytes(indent string) ([]byte, error) {
	var buf bytes.Buffer
	if err := d.Write(&buf, indent); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
