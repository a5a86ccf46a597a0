// Package report validates OFX files and renders the outcome for the
// terminal: styled validation summaries, instance dumps and round-trip
// diffs.
package report

import (
	"context"
	"errors"
	"os"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/ofxkit/internal/aggregate"
	"github.com/zjrosen/ofxkit/internal/cachemanager"
	"github.com/zjrosen/ofxkit/internal/document"
	"github.com/zjrosen/ofxkit/internal/log"
	"github.com/zjrosen/ofxkit/internal/tracing"
)

// Digest is the hex sha256 of a file's bytes.
type Digest string

// Result is the outcome of validating one file.
type Result struct {
	Path    string
	Digest  Digest
	Version int
	Kind    string
	// Err is nil when the file is valid.
	Err      error
	Members  []aggregate.MemberError
	Warnings []aggregate.Warning
}

// OK reports whether the file validated.
func (r Result) OK() bool { return r.Err == nil }

// Code returns the engine error code of a failure, or "" when the failure
// happened before decoding.
func (r Result) Code() aggregate.Code { return aggregate.CodeOf(r.Err) }

// Validator checks files against a registry. Results are memoized by
// content digest, so an unchanged file is not decoded twice.
type Validator struct {
	reg    *aggregate.Registry
	tracer trace.Tracer
	opts   []aggregate.DecodeOption
	docOpt []document.Option
	cache  *cachemanager.ReadThroughCache[Digest, Result, *document.Document]
	ttl    time.Duration
}

// ValidatorConfig configures NewValidator.
type ValidatorConfig struct {
	MaxDepth   int
	StrictText bool
	BestEffort bool
	Tracer     trace.Tracer
	// Cache memoizes results. Nil disables memoization.
	Cache cachemanager.CacheManager[Digest, Result]
	TTL   time.Duration
}

// NewValidator returns a validator over reg.
func NewValidator(reg *aggregate.Registry, cfg ValidatorConfig) *Validator {
	v := &Validator{reg: reg, tracer: cfg.Tracer, ttl: cfg.TTL}
	if cfg.MaxDepth > 0 {
		v.opts = append(v.opts, aggregate.WithMaxDepth(cfg.MaxDepth))
		v.docOpt = append(v.docOpt, document.WithMaxDepth(cfg.MaxDepth))
	}
	if cfg.StrictText {
		v.opts = append(v.opts, aggregate.WithStrictText())
	}
	if cfg.BestEffort {
		v.opts = append(v.opts, aggregate.WithBestEffort())
	}
	v.docOpt = append(v.docOpt, document.WithTracer(cfg.Tracer))
	if v.ttl == 0 {
		v.ttl = cachemanager.DefaultExpiration
	}

	v.cache = cachemanager.NewReadThroughCache(cfg.Cache, v.decode, cfg.Cache == nil)
	return v
}

func (v *Validator) decode(ctx context.Context, doc *document.Document) (Result, error) {
	res := Result{Digest: Digest(doc.Digest), Version: doc.Header.Version, Kind: doc.Body.Tag}
	in, err := doc.Decode(ctx, v.reg, v.tracer, v.opts...)
	if err != nil {
		res.Err = err
		var me *aggregate.MemberErrors
		if errors.As(err, &me) {
			res.Members = me.Members
		}
		return res, nil
	}
	res.Kind = in.Kind()
	res.Warnings = in.Warnings()
	return res, nil
}

// ValidateFile reads and validates the file at path.
func (v *Validator) ValidateFile(ctx context.Context, path string) Result {
	data, err := os.ReadFile(path) // #nosec G304 -- path is supplied by the user
	if err != nil {
		return Result{Path: path, Err: err}
	}
	return v.Validate(ctx, path, data)
}

// Validate checks data read from path.
func (v *Validator) Validate(ctx context.Context, path string, data []byte) (res Result) {
	ctx, span := tracing.Start(ctx, v.tracer, tracing.SpanValidate, attribute.String(tracing.AttrFile, path))
	defer func() { tracing.Finish(span, res.Err) }()

	doc, err := document.Parse(ctx, data, v.docOpt...)
	if err != nil {
		return Result{Path: path, Digest: Digest(document.Digest(data)), Err: err}
	}
	res, err = v.cache.Get(ctx, Digest(doc.Digest), doc, v.ttl)
	if err != nil {
		return Result{Path: path, Digest: Digest(doc.Digest), Err: err}
	}
	res.Path = path
	if res.Err != nil {
		log.Debug(log.CatCLI, "validation failed", "path", path, "code", res.Code())
	}
	return res
}
