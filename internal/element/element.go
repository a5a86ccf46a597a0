// Package element defines the scalar field descriptors of an OFX aggregate.
//
// A descriptor converts between the raw text of a leaf element and a typed
// Go value. Descriptors are immutable after construction and safe to share
// between goroutines.
//
// Value types by descriptor:
//
//	Text, OneOf   string
//	Integer       int64
//	Decimal       decimal.Decimal
//	Bool          bool
//	DateTime      time.Time (UTC)
//	Time          time.Time (UTC, on 0000-01-01)
package element

import (
	"fmt"
)

// Element converts one scalar field between wire text and a typed value.
type Element interface {
	// Required reports whether the owning aggregate must carry a value.
	Required() bool
	// Parse converts wire text. Empty text yields a nil value and no error.
	Parse(raw string, w *Warnings) (any, error)
	// Coerce validates a Go value supplied by direct construction and
	// returns it in the descriptor's canonical value type.
	Coerce(v any, w *Warnings) (any, error)
	// Render converts a canonical value back to wire text.
	Render(v any) (string, error)
}

// ValueError reports a value that does not satisfy its descriptor.
type ValueError struct {
	Value  string
	Reason string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("%s: %q", e.Reason, e.Value)
}

func valueErrorf(value any, format string, args ...any) *ValueError {
	return &ValueError{Value: fmt.Sprint(value), Reason: fmt.Sprintf(format, args...)}
}

func typeError(v any, want string) *ValueError {
	return &ValueError{Value: fmt.Sprint(v), Reason: fmt.Sprintf("expected %s, got %T", want, v)}
}

// Warnings collects soft findings that do not reject a value.
type Warnings []string

// Addf appends a formatted warning. A nil receiver discards it.
func (w *Warnings) Addf(format string, args ...any) {
	if w == nil {
		return
	}
	*w = append(*w, fmt.Sprintf(format, args...))
}

// Option configures a descriptor.
type Option func(*options)

type options struct {
	required bool
	strict   bool
	scale    int32
	hasScale bool
}

// Required marks the field as mandatory in its aggregate.
func Required() Option {
	return func(o *options) { o.required = true }
}

// Strict turns a Text length overrun into a ValueError instead of a warning.
func Strict() Option {
	return func(o *options) { o.strict = true }
}

// Scale sets the fixed-point scale used by Decimal.Bind. Defaults to 2.
func Scale(n int) Option {
	return func(o *options) {
		o.scale = int32(n) //nolint:gosec // scales are small literals
		o.hasScale = true
	}
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
