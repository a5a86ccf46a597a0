package element

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestText_Parse(t *testing.T) {
	el := Text(5)

	v, err := el.Parse("", nil)
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = el.Parse("A&amp;B", nil)
	require.NoError(t, err)
	assert.Equal(t, "A&B", v)

	v, err = el.Parse("&lt;&gt;&quot;&apos;&nbsp;", nil)
	require.NoError(t, err)
	assert.Equal(t, `<>"' `, v)
}

func TestText_OverlongIsWarning(t *testing.T) {
	var w Warnings
	v, err := Text(4).Parse("ACME BANK", &w)
	require.NoError(t, err)
	assert.Equal(t, "ACME BANK", v)
	require.Len(t, w, 1)
	assert.Contains(t, w[0], "exceeds maximum 4")
}

func TestText_StrictOverlongIsError(t *testing.T) {
	var w Warnings
	_, err := Text(4, Strict()).Parse("ACME BANK", &w)
	var ve *ValueError
	require.ErrorAs(t, err, &ve)
	assert.Empty(t, w)
}

func TestText_CountsRunes(t *testing.T) {
	var w Warnings
	_, err := Text(3).Parse("été", &w)
	require.NoError(t, err)
	assert.Empty(t, w)
}

func TestInteger(t *testing.T) {
	tests := []struct {
		name    string
		el      *IntegerElement
		raw     string
		want    any
		wantErr bool
	}{
		{"plain", Integer(0), "42", int64(42), false},
		{"negative", Integer(0), "-7", int64(-7), false},
		{"within digits", Integer(6), "999999", int64(999999), false},
		{"too many digits", Integer(6), "1000000", nil, true},
		{"not a number", Integer(0), "4x2", nil, true},
		{"empty", Integer(6), "", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.el.Parse(tt.raw, nil)
			if tt.wantErr {
				var ve *ValueError
				require.ErrorAs(t, err, &ve)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInteger_Coerce(t *testing.T) {
	v, err := Integer(3).Coerce(12, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(12), v)

	_, err = Integer(3).Coerce("12", nil)
	require.Error(t, err)

	_, err = Integer(2).Coerce(int64(100), nil)
	require.Error(t, err)
}

func TestDecimal_Parse(t *testing.T) {
	el := Decimal()

	v, err := el.Parse("-12.50", nil)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("-12.5").Equal(v.(decimal.Decimal)))

	v, err = el.Parse("1,25", nil)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("1.25").Equal(v.(decimal.Decimal)))

	_, err = el.Parse("12.5.0", nil)
	require.Error(t, err)
}

func TestDecimal_RenderKeepsPrecision(t *testing.T) {
	el := Decimal()
	for _, raw := range []string{"12.50", "0.00", "100", "-3.14159", "7"} {
		v, err := el.Parse(raw, nil)
		require.NoError(t, err)
		got, err := el.Render(v)
		require.NoError(t, err)
		assert.Equal(t, raw, got)
	}
}

func TestDecimal_Bind(t *testing.T) {
	el := Decimal(Scale(4))
	assert.Equal(t, 4, el.Scale())

	n, err := el.Bind(decimal.RequireFromString("12.34565"))
	require.NoError(t, err)
	assert.Equal(t, int64(123457), n)
	assert.True(t, decimal.RequireFromString("12.3457").Equal(el.Unbind(n)))

	assert.Equal(t, DefaultScale, Decimal().Scale())

	_, err = el.Bind(decimal.RequireFromString("1e30"))
	require.Error(t, err)
}

func TestBool(t *testing.T) {
	el := Bool()
	v, err := el.Parse("Y", nil)
	require.NoError(t, err)
	assert.Equal(t, true, v)

	v, err = el.Parse("N", nil)
	require.NoError(t, err)
	assert.Equal(t, false, v)

	for _, bad := range []string{"y", "T", "YES", "0"} {
		_, err := el.Parse(bad, nil)
		require.Error(t, err, bad)
	}
}

func TestOneOf(t *testing.T) {
	legal := []string{"INFO", "WARN", "ERROR"}
	el := OneOf(legal, Required())
	assert.True(t, el.Required())

	for _, v := range legal {
		t.Run(v, func(t *testing.T) {
			got, err := el.Parse(v, nil)
			require.NoError(t, err)
			assert.Equal(t, v, got)
		})
	}

	_, err := el.Parse("FATAL", nil)
	var ve *ValueError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Reason, "INFO, WARN, ERROR")
}

func TestDateTime_Formats(t *testing.T) {
	el := DateTime()
	tests := []struct {
		raw  string
		want time.Time
	}{
		{"20051029", time.Date(2005, 10, 29, 0, 0, 0, 0, time.UTC)},
		{"20051029101003", time.Date(2005, 10, 29, 10, 10, 3, 0, time.UTC)},
		{"20051029101003.250", time.Date(2005, 10, 29, 10, 10, 3, 250*int(time.Millisecond), time.UTC)},
		{"20051029101003[-5:EST]", time.Date(2005, 10, 29, 15, 10, 3, 0, time.UTC)},
		{"20051029101003[+5.5:IST]", time.Date(2005, 10, 29, 4, 40, 3, 0, time.UTC)},
		{"20051029101003[0]", time.Date(2005, 10, 29, 10, 10, 3, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := el.Parse(tt.raw, nil)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got.(time.Time)), "got %v", got)
			assert.Equal(t, time.UTC, got.(time.Time).Location())
		})
	}
}

func TestDateTime_MalformedOffsetTolerated(t *testing.T) {
	var w Warnings
	got, err := DateTime().Parse("20050825013000.000[-:GMT]", &w)
	require.NoError(t, err)

	plain, err := DateTime().Parse("20050825013000.000", nil)
	require.NoError(t, err)
	assert.True(t, plain.(time.Time).Equal(got.(time.Time)))
	assert.Len(t, w, 1)
}

func TestDateTime_MalformedOffsetUsesKnownZone(t *testing.T) {
	got, err := DateTime().Parse("20050825013000[-:EDT]", nil)
	require.NoError(t, err)
	assert.True(t, time.Date(2005, 8, 25, 5, 30, 0, 0, time.UTC).Equal(got.(time.Time)))
}

func TestDateTime_Rejects(t *testing.T) {
	for _, raw := range []string{
		"2005102",
		"200510291010",
		"20051029101003.25",
		"20051329101003",
		"20050230",
		"20051029101003[abc:GMT]",
		"20051029T101003",
		"20051029101003[99999999999:X]",
		"20051029101003[-24.5:X]",
	} {
		t.Run(raw, func(t *testing.T) {
			_, err := DateTime().Parse(raw, nil)
			var ve *ValueError
			require.ErrorAs(t, err, &ve)
		})
	}
}

func TestDateTime_RenderIsUTCDateTime(t *testing.T) {
	loc := time.FixedZone("X", -5*3600)
	got, err := DateTime().Render(time.Date(2005, 10, 29, 10, 10, 3, 0, loc))
	require.NoError(t, err)
	assert.Equal(t, "20051029151003", got)
}

func TestTime(t *testing.T) {
	el := Time()
	got, err := el.Parse("231500[-2:X]", nil)
	require.NoError(t, err)
	assert.Equal(t, time.Date(0, 1, 1, 1, 15, 0, 0, time.UTC), got)

	out, err := el.Render(got)
	require.NoError(t, err)
	assert.Equal(t, "011500", out)

	got, err = el.Parse("120000.500", nil)
	require.NoError(t, err)
	out, err = el.Render(got)
	require.NoError(t, err)
	assert.Equal(t, "120000.500", out)

	_, err = el.Parse("250000", nil)
	require.Error(t, err)
}

// render(parse(text)) == text for canonical text.
func TestRoundTrip_CanonicalText(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ts := time.Date(
			rapid.IntRange(1900, 2100).Draw(t, "year"),
			time.Month(rapid.IntRange(1, 12).Draw(t, "month")),
			rapid.IntRange(1, 28).Draw(t, "day"),
			rapid.IntRange(0, 23).Draw(t, "hour"),
			rapid.IntRange(0, 59).Draw(t, "minute"),
			rapid.IntRange(0, 59).Draw(t, "second"),
			0, time.UTC)
		canon := map[Element]string{
			DateTime(): ts.Format(LayoutDateTime),
			Integer(9): fmt.Sprint(rapid.IntRange(-99999999, 99999999).Draw(t, "int")),
			Decimal(): fmt.Sprintf("%d.%02d",
				rapid.IntRange(-9999, 9999).Draw(t, "units"),
				rapid.IntRange(0, 99).Draw(t, "cents")),
			Bool():                   rapid.SampledFrom([]string{"Y", "N"}).Draw(t, "bool"),
			OneOf([]string{"A", "B"}): rapid.SampledFrom([]string{"A", "B"}).Draw(t, "enum"),
			Text(0):                  rapid.StringMatching(`[A-Za-z0-9 ]{1,32}`).Draw(t, "text"),
		}
		for el, text := range canon {
			v, err := el.Parse(text, nil)
			if err != nil {
				t.Fatalf("%T parse %q: %v", el, text, err)
			}
			out, err := el.Render(v)
			if err != nil {
				t.Fatalf("%T render: %v", el, err)
			}
			if out != text {
				t.Fatalf("%T: render(parse(%q)) = %q", el, text, out)
			}
		}
	})
}

// parse(render(value)) == value over each legal value domain.
func TestRoundTrip_Values(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ts := time.Unix(rapid.Int64Range(-2e9, 4e9).Draw(t, "unix"), 0).UTC()
		v, err := DateTime().Parse(mustRender(t, DateTime(), ts), nil)
		if err != nil || !v.(time.Time).Equal(ts) {
			t.Fatalf("datetime %v: got %v, %v", ts, v, err)
		}

		d := decimal.New(rapid.Int64Range(-1e12, 1e12).Draw(t, "coef"), -int32(rapid.IntRange(0, 8).Draw(t, "exp")))
		v, err = Decimal().Parse(mustRender(t, Decimal(), d), nil)
		if err != nil || !v.(decimal.Decimal).Equal(d) {
			t.Fatalf("decimal %v: got %v, %v", d, v, err)
		}

		n := rapid.Int64().Draw(t, "n")
		v, err = Integer(0).Parse(mustRender(t, Integer(0), n), nil)
		if err != nil || v.(int64) != n {
			t.Fatalf("integer %d: got %v, %v", n, v, err)
		}
	})
}

func mustRender(t *rapid.T, el Element, v any) string {
	s, err := el.Render(v)
	if err != nil {
		t.Fatalf("render %v: %v", v, err)
	}
	return s
}

func TestText_RenderEscapes(t *testing.T) {
	el := Text(0)
	v, err := el.Parse("A&amp;B &lt;C&gt;", nil)
	require.NoError(t, err)
	assert.Equal(t, "A&B <C>", v)

	out, err := el.Render(v)
	require.NoError(t, err)
	assert.Equal(t, "A&amp;B &lt;C&gt;", out)
}
