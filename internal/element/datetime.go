package element

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Wire layouts. Rendering always uses LayoutDateTime in UTC.
const (
	LayoutDate     = "20060102"
	LayoutDateTime = "20060102150405"
	LayoutTime     = "150405"
)

var (
	// YYYYMMDD[hhmmss[.fff]][offset[:TZ]]
	dateTimeRe = regexp.MustCompile(
		`^(\d{4})(\d{2})(\d{2})(?:(\d{2})(\d{2})(\d{2})(?:\.(\d{3}))?)?(?:\[([^\]:]*)(?::([^\]]*))?\])?$`)
	// hhmmss[.fff][offset[:TZ]]
	timeRe = regexp.MustCompile(
		`^(\d{2})(\d{2})(\d{2})(?:\.(\d{3}))?(?:\[([^\]:]*)(?::([^\]]*))?\])?$`)
)

// zoneOffsets covers the North American labels seen in the wild behind a
// missing numeric offset.
var zoneOffsets = map[string]int{
	"EST": -5, "EDT": -4,
	"CST": -6, "CDT": -5,
	"MST": -7, "MDT": -6,
	"PST": -8, "PDT": -7,
}

// DateTimeElement is a timestamp normalized to UTC.
type DateTimeElement struct {
	required bool
}

// DateTime returns a timestamp descriptor.
func DateTime(opts ...Option) *DateTimeElement {
	return &DateTimeElement{required: buildOptions(opts).required}
}

func (d *DateTimeElement) Required() bool { return d.required }

func (d *DateTimeElement) Parse(raw string, w *Warnings) (any, error) {
	if raw == "" {
		return nil, nil
	}
	m := dateTimeRe.FindStringSubmatch(raw)
	if m == nil {
		return nil, valueErrorf(raw, "does not match any datetime format")
	}
	year, month, day := atoi(m[1]), atoi(m[2]), atoi(m[3])
	var hour, minute, sec, msec int
	if m[4] != "" {
		hour, minute, sec = atoi(m[4]), atoi(m[5]), atoi(m[6])
	}
	if m[7] != "" {
		msec = atoi(m[7])
	}
	t, ok := exactDate(year, month, day, hour, minute, sec, msec)
	if !ok {
		return nil, valueErrorf(raw, "datetime out of range")
	}
	offset, err := parseOffset(m[8], m[9], raw, w)
	if err != nil {
		return nil, err
	}
	return t.Add(-offset), nil
}

func (d *DateTimeElement) Coerce(v any, _ *Warnings) (any, error) {
	t, ok := v.(time.Time)
	if !ok {
		return nil, typeError(v, "time.Time")
	}
	return t.UTC(), nil
}

func (d *DateTimeElement) Render(v any) (string, error) {
	t, ok := v.(time.Time)
	if !ok {
		return "", typeError(v, "time.Time")
	}
	return t.UTC().Format(LayoutDateTime), nil
}

// TimeElement is a time of day normalized to UTC.
type TimeElement struct {
	required bool
}

// Time returns a time-of-day descriptor. Values carry the date 0000-01-01.
func Time(opts ...Option) *TimeElement {
	return &TimeElement{required: buildOptions(opts).required}
}

func (e *TimeElement) Required() bool { return e.required }

func (e *TimeElement) Parse(raw string, w *Warnings) (any, error) {
	if raw == "" {
		return nil, nil
	}
	m := timeRe.FindStringSubmatch(raw)
	if m == nil {
		return nil, valueErrorf(raw, "does not match the time format")
	}
	var msec int
	if m[4] != "" {
		msec = atoi(m[4])
	}
	t, ok := exactDate(0, 1, 1, atoi(m[1]), atoi(m[2]), atoi(m[3]), msec)
	if !ok {
		return nil, valueErrorf(raw, "time out of range")
	}
	offset, err := parseOffset(m[5], m[6], raw, w)
	if err != nil {
		return nil, err
	}
	return clock(t.Add(-offset)), nil
}

func (e *TimeElement) Coerce(v any, _ *Warnings) (any, error) {
	t, ok := v.(time.Time)
	if !ok {
		return nil, typeError(v, "time.Time")
	}
	return clock(t.UTC()), nil
}

func (e *TimeElement) Render(v any) (string, error) {
	t, ok := v.(time.Time)
	if !ok {
		return "", typeError(v, "time.Time")
	}
	t = t.UTC()
	if t.Nanosecond() != 0 {
		return t.Format(LayoutTime + ".000"), nil
	}
	return t.Format(LayoutTime), nil
}

// clock keeps only the time of day.
func clock(t time.Time) time.Time {
	return time.Date(0, 1, 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// exactDate builds a UTC time and rejects components that time.Date would
// silently normalize, such as month 13.
func exactDate(year, month, day, hour, minute, sec, msec int) (time.Time, bool) {
	t := time.Date(year, time.Month(month), day, hour, minute, sec, msec*int(time.Millisecond), time.UTC)
	ok := t.Year() == year && int(t.Month()) == month && t.Day() == day &&
		t.Hour() == hour && t.Minute() == minute && t.Second() == sec
	return t, ok
}

var maxOffsetHours = decimal.NewFromInt(24)

// parseOffset converts the bracketed offset (hours, fractional allowed) to a
// duration. A bare sign or empty token is a known producer defect: the zone
// label supplies the offset when it is a known name, otherwise it is zero.
func parseOffset(token, zone, raw string, w *Warnings) (time.Duration, error) {
	switch token {
	case "", "-", "+":
		hours := zoneOffsets[zone]
		if token != "" || zone != "" {
			w.Addf("malformed timezone offset %q, using %d hours", token, hours)
		}
		return time.Duration(hours) * time.Hour, nil
	}
	hours, err := decimal.NewFromString(strings.TrimPrefix(token, "+"))
	if err != nil {
		return 0, valueErrorf(raw, "malformed timezone offset")
	}
	if hours.Abs().GreaterThan(maxOffsetHours) {
		return 0, valueErrorf(raw, "timezone offset %s out of range", token)
	}
	seconds := hours.Mul(decimal.NewFromInt(3600)).Round(0).IntPart()
	return time.Duration(seconds) * time.Second, nil
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
