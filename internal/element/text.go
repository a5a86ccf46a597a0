package element

import (
	"strings"
	"unicode/utf8"
)

var entityReplacer = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&nbsp;", " ",
	"&apos;", "'",
	"&quot;", `"`,
)

var escapeReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
)

// TextElement is free text with an optional maximum length. Wire text is
// entity-escaped; values are plain.
//
// Producers routinely overrun the declared lengths of name and memo fields,
// so an overrun is reported as a warning unless the descriptor is strict.
type TextElement struct {
	maxLen   int
	required bool
	strict   bool
}

// Text returns a text descriptor. maxLen <= 0 means unbounded.
func Text(maxLen int, opts ...Option) *TextElement {
	o := buildOptions(opts)
	return &TextElement{maxLen: maxLen, required: o.required, strict: o.strict}
}

func (t *TextElement) Required() bool { return t.required }

// MaxLen returns the declared maximum length in runes.
func (t *TextElement) MaxLen() int { return t.maxLen }

// IsStrict reports whether length overruns are errors.
func (t *TextElement) IsStrict() bool { return t.strict }

func (t *TextElement) Parse(raw string, w *Warnings) (any, error) {
	if raw == "" {
		return nil, nil
	}
	s := entityReplacer.Replace(raw)
	if err := t.checkLength(s, w); err != nil {
		return nil, err
	}
	return s, nil
}

func (t *TextElement) Coerce(v any, w *Warnings) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, typeError(v, "string")
	}
	if s == "" {
		return nil, nil
	}
	if err := t.checkLength(s, w); err != nil {
		return nil, err
	}
	return s, nil
}

func (t *TextElement) Render(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", typeError(v, "string")
	}
	return escapeReplacer.Replace(s), nil
}

func (t *TextElement) checkLength(s string, w *Warnings) error {
	if t.maxLen <= 0 {
		return nil
	}
	n := utf8.RuneCountInString(s)
	if n <= t.maxLen {
		return nil
	}
	if t.strict {
		return valueErrorf(s, "length %d exceeds maximum %d", n, t.maxLen)
	}
	w.Addf("length %d exceeds maximum %d", n, t.maxLen)
	return nil
}
