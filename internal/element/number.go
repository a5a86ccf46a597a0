package element

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultScale is the fixed-point scale of a Decimal without a Scale option.
const DefaultScale = 2

// IntegerElement is a signed integer with an optional digit bound.
type IntegerElement struct {
	digits   int
	required bool
}

// Integer returns an integer descriptor. A positive digits rejects values
// whose magnitude needs more than that many decimal digits.
func Integer(digits int, opts ...Option) *IntegerElement {
	o := buildOptions(opts)
	return &IntegerElement{digits: digits, required: o.required}
}

func (i *IntegerElement) Required() bool { return i.required }

func (i *IntegerElement) Parse(raw string, _ *Warnings) (any, error) {
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, valueErrorf(raw, "not an integer")
	}
	return i.check(n)
}

func (i *IntegerElement) Coerce(v any, _ *Warnings) (any, error) {
	var n int64
	switch x := v.(type) {
	case int:
		n = int64(x)
	case int8:
		n = int64(x)
	case int16:
		n = int64(x)
	case int32:
		n = int64(x)
	case int64:
		n = x
	case uint8:
		n = int64(x)
	case uint16:
		n = int64(x)
	case uint32:
		n = int64(x)
	default:
		return nil, typeError(v, "integer")
	}
	return i.check(n)
}

func (i *IntegerElement) Render(v any) (string, error) {
	n, ok := v.(int64)
	if !ok {
		return "", typeError(v, "int64")
	}
	return strconv.FormatInt(n, 10), nil
}

func (i *IntegerElement) check(n int64) (any, error) {
	if i.digits > 0 && i.digits < 19 {
		limit := int64(math.Pow10(i.digits))
		if n >= limit || n <= -limit {
			return nil, valueErrorf(n, "exceeds %d digits", i.digits)
		}
	}
	return n, nil
}

// DecimalElement is an arbitrary-precision decimal. The scale is used only
// when binding to a fixed-point integer for storage.
type DecimalElement struct {
	scale    int32
	required bool
}

// Decimal returns a decimal descriptor.
func Decimal(opts ...Option) *DecimalElement {
	o := buildOptions(opts)
	scale := int32(DefaultScale)
	if o.hasScale {
		scale = o.scale
	}
	return &DecimalElement{scale: scale, required: o.required}
}

func (d *DecimalElement) Required() bool { return d.required }

// Scale returns the number of fractional digits kept by Bind.
func (d *DecimalElement) Scale() int { return int(d.scale) }

func (d *DecimalElement) Parse(raw string, _ *Warnings) (any, error) {
	if raw == "" {
		return nil, nil
	}
	// Some producers use a comma as the decimal separator.
	v, err := decimal.NewFromString(strings.Replace(raw, ",", ".", 1))
	if err != nil {
		return nil, valueErrorf(raw, "not a decimal")
	}
	return v, nil
}

func (d *DecimalElement) Coerce(v any, _ *Warnings) (any, error) {
	switch x := v.(type) {
	case decimal.Decimal:
		return x, nil
	case int:
		return decimal.NewFromInt(int64(x)), nil
	case int64:
		return decimal.NewFromInt(x), nil
	case float64:
		return decimal.NewFromFloat(x), nil
	case string:
		return d.Parse(x, nil)
	default:
		return nil, typeError(v, "decimal")
	}
}

// Render keeps the number of fractional digits the value was built with,
// so "12.50" survives a parse and render.
func (d *DecimalElement) Render(v any) (string, error) {
	x, ok := v.(decimal.Decimal)
	if !ok {
		return "", typeError(v, "decimal.Decimal")
	}
	if exp := x.Exponent(); exp < 0 {
		return x.StringFixed(-exp), nil
	}
	return x.String(), nil
}

// Bind converts v to a fixed-point integer with the descriptor's scale,
// rounding half away from zero.
func (d *DecimalElement) Bind(v decimal.Decimal) (int64, error) {
	shifted := v.Round(d.scale).Shift(d.scale)
	bi := shifted.BigInt()
	if !bi.IsInt64() {
		return 0, valueErrorf(v, "does not fit a %d-scale fixed-point integer", d.scale)
	}
	return bi.Int64(), nil
}

// Unbind is the inverse of Bind.
func (d *DecimalElement) Unbind(n int64) decimal.Decimal {
	return decimal.New(n, -d.scale)
}
