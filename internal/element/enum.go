package element

import (
	"slices"
	"strings"
)

// BoolElement encodes true/false as the literals Y and N.
type BoolElement struct {
	required bool
}

// Bool returns a Y/N descriptor.
func Bool(opts ...Option) *BoolElement {
	return &BoolElement{required: buildOptions(opts).required}
}

func (b *BoolElement) Required() bool { return b.required }

func (b *BoolElement) Parse(raw string, _ *Warnings) (any, error) {
	switch raw {
	case "":
		return nil, nil
	case "Y":
		return true, nil
	case "N":
		return false, nil
	default:
		return nil, valueErrorf(raw, "boolean must be Y or N")
	}
}

func (b *BoolElement) Coerce(v any, _ *Warnings) (any, error) {
	x, ok := v.(bool)
	if !ok {
		return nil, typeError(v, "bool")
	}
	return x, nil
}

func (b *BoolElement) Render(v any) (string, error) {
	x, ok := v.(bool)
	if !ok {
		return "", typeError(v, "bool")
	}
	if x {
		return "Y", nil
	}
	return "N", nil
}

// OneOfElement is a string restricted to a fixed set of literals.
type OneOfElement struct {
	values   []string
	required bool
}

// OneOf returns an enumerated string descriptor.
func OneOf(values []string, opts ...Option) *OneOfElement {
	return &OneOfElement{values: slices.Clone(values), required: buildOptions(opts).required}
}

func (e *OneOfElement) Required() bool { return e.required }

// Values returns the legal literals in declaration order.
func (e *OneOfElement) Values() []string { return slices.Clone(e.values) }

func (e *OneOfElement) Parse(raw string, _ *Warnings) (any, error) {
	if raw == "" {
		return nil, nil
	}
	return e.check(raw)
}

func (e *OneOfElement) Coerce(v any, _ *Warnings) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, typeError(v, "string")
	}
	if s == "" {
		return nil, nil
	}
	return e.check(s)
}

func (e *OneOfElement) Render(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", typeError(v, "string")
	}
	return s, nil
}

func (e *OneOfElement) check(s string) (any, error) {
	if !slices.Contains(e.values, s) {
		return nil, valueErrorf(s, "not one of (%s)", strings.Join(e.values, ", "))
	}
	return s, nil
}
