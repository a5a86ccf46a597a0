package aggregate

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/ofxkit/internal/element"
	"github.com/zjrosen/ofxkit/internal/tagtree"
)

const sonrsDoc = `<SONRS><STATUS><CODE>0<SEVERITY>INFO</STATUS><DTSERVER>20051029101003<LANGUAGE>ENG</SONRS>`

func sgml(n *tagtree.Node) string {
	return tagtree.Marshal(n, tagtree.WriteOptions{Format: tagtree.SGML})
}

func TestDecode_SignonResponse(t *testing.T) {
	r := testRegistry(t)
	in, err := r.Decode(mustTree(t, sonrsDoc))
	require.NoError(t, err)

	assert.Equal(t, "SONRS", in.Kind())
	code, ok := in.Int("code")
	require.True(t, ok)
	assert.Equal(t, int64(0), code)
	sev, _ := in.String("severity")
	assert.Equal(t, "INFO", sev)
	ts, _ := in.Time("dtserver")
	assert.True(t, ts.Equal(time.Date(2005, 10, 29, 10, 10, 3, 0, time.UTC)))
	assert.False(t, in.Has("org"))
	assert.Equal(t, []string{"code", "severity", "dtserver", "language"}, in.Fields())

	out, err := Encode(in)
	require.NoError(t, err)
	assert.Equal(t, sonrsDoc, sgml(out))
}

func TestDecode_OrderIsCheckedBeforeRequired(t *testing.T) {
	r := testRegistry(t)

	_, err := r.Decode(mustTree(t, `<STATUS><SEVERITY>INFO<CODE>0</STATUS>`))
	require.ErrorIs(t, err, ErrOutOfOrder)

	// CODE is also missing, but the misordering wins.
	_, err = r.Decode(mustTree(t, `<STATUS><MESSAGE>hi<SEVERITY>INFO</STATUS>`))
	require.ErrorIs(t, err, ErrOutOfOrder)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name   string
		doc    string
		code   Code
		field  string
		reason string
	}{
		{"unknown aggregate", `<NOPE><A>1</NOPE>`, CodeUnknownAggregate, "", ""},
		{"missing required", `<STATUS><CODE>0</STATUS>`, CodeMissingRequired, "SEVERITY", ""},
		{"missing required include", `<SONRS><DTSERVER>20051029</SONRS>`, CodeMissingRequired, "STATUS", ""},
		{
			"missing required inside present include",
			`<SONRS><STATUS><CODE>0<SEVERITY>INFO</STATUS><DTSERVER>20051029<FI><FID>1</FI></SONRS>`,
			CodeMissingRequired, "ORG", "",
		},
		{"unknown leaf", `<STATUS><CODE>0<SEVERITY>INFO<BOGUS>1</STATUS>`, CodeUnrecognizedField, "BOGUS", ""},
		{"unknown aggregate child", `<STATUS><CODE>0<SEVERITY>INFO<BOGUS><X>1</BOGUS></STATUS>`, CodeUnrecognizedField, "BOGUS", ""},
		{
			"included field outside its wrapper",
			`<SONRS><CODE>0<STATUS><SEVERITY>INFO</STATUS><DTSERVER>20051029</SONRS>`,
			CodeUnrecognizedField, "CODE", "",
		},
		{"duplicate leaf", `<STATUS><CODE>0<CODE>1<SEVERITY>INFO</STATUS>`, CodeDuplicateElement, "CODE", ""},
		{"bad integer", `<STATUS><CODE>abc<SEVERITY>INFO</STATUS>`, CodeInvalidValue, "CODE", ""},
		{"bad enum", `<STATUS><CODE>0<SEVERITY>LOUD</STATUS>`, CodeInvalidValue, "SEVERITY", ""},
		{
			"leaf and subtree both present",
			`<TRN><FITID>1<TRNAMT>1<NAME>Bob<PAYEE><NAME>Bob</PAYEE></TRN>`,
			CodeMutexViolation, "NAME|PAYEE", ReasonMutexOptional,
		},
		{
			"exclusive subtrees",
			`<TRN><FITID>1<TRNAMT>1<CURRENCY><CURRATE>1<CURSYM>USD</CURRENCY><ORIGCURRENCY><CURRATE>1<CURSYM>EUR</ORIGCURRENCY></TRN>`,
			CodeMutexViolation, "CURRENCY|ORIGCURRENCY", ReasonMutexTree,
		},
		{"required mutex none", `<ACCT><ACCTID>1</ACCT>`, CodeMutexViolation, "BANKID|BROKERID", ReasonMutexNone},
		{"required mutex many", `<ACCT><BANKID>1<BROKERID>2<ACCTID>1</ACCT>`, CodeMutexViolation, "BANKID|BROKERID", ReasonMutexMany},
		{"leaf where aggregate expected", `<TRN><FITID>1<TRNAMT>1<PAYEE>Bob</TRN>`, CodeInvalidValue, "PAYEE", ReasonNotAggregate},
		{"leaf where list expected", `<PORTFOLIO><ACCTID>1<STOCKS>garbage</PORTFOLIO>`, CodeInvalidValue, "STOCKS", ReasonNotAggregate},
		{
			"include tag as a leaf after its wrapper",
			`<SONRS><STATUS><CODE>0<SEVERITY>INFO</STATUS><STATUS>junk<DTSERVER>20051029101003</SONRS>`,
			CodeInvalidValue, "STATUS", ReasonNotAggregate,
		},
		{"include tag as a leaf", `<SONRS><STATUS>junk<DTSERVER>20051029101003</SONRS>`, CodeInvalidValue, "STATUS", ReasonNotAggregate},
		{
			"empty include wrapper",
			`<SONRS><STATUS><CODE>0<SEVERITY>INFO</STATUS><DTSERVER>20051029<FI></FI></SONRS>`,
			CodeMissingRequired, "ORG", "",
		},
	}

	r := testRegistry(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Decode(mustTree(t, tt.doc))
			require.Error(t, err)
			var e *Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, tt.code, e.Code, "error: %v", err)
			assert.ErrorIs(t, err, &Error{Code: tt.code})
			if tt.field != "" {
				assert.Equal(t, tt.field, e.Field)
			}
			if tt.reason != "" {
				assert.Equal(t, tt.reason, e.Reason)
			}
		})
	}
}

func TestDecode_InvalidValueWrapsValueError(t *testing.T) {
	r := testRegistry(t)
	_, err := r.Decode(mustTree(t, `<STATUS><CODE>1234567<SEVERITY>INFO</STATUS>`))
	var ve *element.ValueError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "1234567", ve.Value)
}

func TestDecode_VendorTagsDropped(t *testing.T) {
	r := testRegistry(t)
	in, err := r.Decode(mustTree(t,
		`<SONRS><STATUS><CODE>0<SEVERITY>INFO</STATUS><INTU.BID>3000<DTSERVER>20051029101003<LANGUAGE>ENG</SONRS>`))
	require.NoError(t, err)

	out, err := Encode(in)
	require.NoError(t, err)
	assert.Equal(t, sonrsDoc, sgml(out))
}

func TestDecode_EmptyElementIsAbsent(t *testing.T) {
	r := testRegistry(t)
	in, err := r.Decode(mustTree(t, `<STATUS><CODE>0<SEVERITY>INFO<MESSAGE></MESSAGE></STATUS>`))
	require.NoError(t, err)
	assert.False(t, in.Has("message"))
}

func TestDecode_OversizedTextWarns(t *testing.T) {
	r := testRegistry(t)
	doc := `<STATUS><CODE>0<SEVERITY>INFO<MESSAGE>` + strings.Repeat("x", 20) + `</STATUS>`

	in, err := r.Decode(mustTree(t, doc))
	require.NoError(t, err)
	msg, _ := in.String("message")
	assert.Len(t, msg, 20)
	ws := in.Warnings()
	require.Len(t, ws, 1)
	assert.Equal(t, "STATUS", ws[0].Kind)
	assert.Equal(t, "message", ws[0].Field)

	_, err = r.Decode(mustTree(t, doc), WithStrictText())
	require.ErrorIs(t, err, ErrInvalidValue)
}

func TestDecode_CollectionKeepsOrder(t *testing.T) {
	doc := `<TRNLIST><DTSTART>20240101000000<DTEND>20240131000000` +
		`<TRN><FITID>1<TRNAMT>1.00</TRN>` +
		`<XFER><FITID>2</XFER>` +
		`<TRN><FITID>3<TRNAMT>-2.50</TRN>` +
		`</TRNLIST>`
	r := testRegistry(t)
	in, err := r.Decode(mustTree(t, doc))
	require.NoError(t, err)

	require.Equal(t, 3, in.Len())
	var kinds, ids []string
	for _, m := range in.Members() {
		kinds = append(kinds, m.Kind())
		id, _ := m.String("fitid")
		ids = append(ids, id)
	}
	assert.Equal(t, []string{"TRN", "XFER", "TRN"}, kinds)
	assert.Equal(t, []string{"1", "2", "3"}, ids)
	amt, _ := in.At(2).Decimal("trnamt")
	assert.True(t, amt.Equal(decimal.RequireFromString("-2.5")))

	out, err := Encode(in)
	require.NoError(t, err)
	assert.Equal(t, doc, sgml(out))
}

func TestDecode_CollectionErrors(t *testing.T) {
	r := testRegistry(t)

	_, err := r.Decode(mustTree(t,
		`<TRNLIST><DTSTART>20240101<STATUS><CODE>0<SEVERITY>INFO</STATUS></TRNLIST>`))
	require.ErrorIs(t, err, ErrIllegalMember)

	_, err = r.Decode(mustTree(t,
		`<TRNLIST><DTSTART>20240101<TRN><FITID>1<TRNAMT>1</TRN><DTEND>20240102</TRNLIST>`))
	require.ErrorIs(t, err, ErrOutOfOrder)
}

func TestDecode_BestEffortCollectsMemberErrors(t *testing.T) {
	doc := `<TRNLIST><DTSTART>20240101` +
		`<TRN><FITID>1</TRN>` +
		`<TRN><FITID>2<TRNAMT>1</TRN>` +
		`<TRN><FITID>3<TRNAMT>x</TRN>` +
		`</TRNLIST>`
	r := testRegistry(t)

	_, err := r.Decode(mustTree(t, doc))
	require.ErrorIs(t, err, ErrMissingRequired)
	var me *MemberErrors
	assert.False(t, errors.As(err, &me))

	in, err := r.Decode(mustTree(t, doc), WithBestEffort())
	assert.Nil(t, in)
	require.ErrorAs(t, err, &me)
	require.Len(t, me.Members, 2)
	assert.Equal(t, 0, me.Members[0].Index)
	assert.Equal(t, 2, me.Members[1].Index)
	assert.ErrorIs(t, err, ErrMissingRequired)
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestDecode_ListField(t *testing.T) {
	doc := `<PORTFOLIO><ACCTID>1<STOCKS><STOCK><TICKER>A<YIELD>1.5</STOCK><STOCK><TICKER>B</STOCK></STOCKS></PORTFOLIO>`
	r := testRegistry(t)
	in, err := r.Decode(mustTree(t, doc))
	require.NoError(t, err)

	stocks := in.List("stocks")
	require.Len(t, stocks, 2)
	yld, ok := stocks[0].Decimal("yld")
	require.True(t, ok)
	assert.Equal(t, "1.5", yld.String())

	out, err := Encode(in)
	require.NoError(t, err)
	assert.Equal(t, doc, sgml(out))

	_, err = r.Decode(mustTree(t,
		`<PORTFOLIO><ACCTID>1<STOCKS><STOCK><TICKER>A</STOCK><XFER><FITID>1</XFER></STOCKS></PORTFOLIO>`))
	require.ErrorIs(t, err, ErrIllegalMember)
}

func TestDecode_RenamedTag(t *testing.T) {
	doc := `<STOCK><TICKER>ACME<YIELD>2.25</STOCK>`
	r := testRegistry(t)
	in, err := r.Decode(mustTree(t, doc))
	require.NoError(t, err)
	assert.True(t, in.Has("yld"))

	out, err := Encode(in)
	require.NoError(t, err)
	assert.Equal(t, doc, sgml(out))
}

func TestDecode_AlternateWrapper(t *testing.T) {
	doc := `<TRN><FITID>1<TRNAMT>1<ORIGCURRENCY><CURRATE>1.5<CURSYM>EUR</ORIGCURRENCY></TRN>`
	r := testRegistry(t)
	in, err := r.Decode(mustTree(t, doc))
	require.NoError(t, err)
	assert.Equal(t, []string{"origcurrency"}, in.PathOf("cursym"))

	out, err := Encode(in)
	require.NoError(t, err)
	assert.Equal(t, doc, sgml(out))

	built, err := r.New("TRN", Values{
		"fitid":   "1",
		"trnamt":  decimal.NewFromInt(1),
		"currate": decimal.RequireFromString("1.5"),
		"cursym":  "EUR",
	}, Via("currate", "origcurrency"), Via("cursym", "origcurrency"))
	require.NoError(t, err)
	assert.True(t, built.Equal(in))

	_, err = r.Decode(mustTree(t, `<TRN><FITID>1<TRNAMT>1<ORIGCURRENCY><CURRATE>1.5</ORIGCURRENCY></TRN>`))
	require.ErrorIs(t, err, ErrMissingRequired)
}

func TestDecode_MaxDepth(t *testing.T) {
	doc := `<NEST><V>a<NEST><V>b<NEST><V>c</NEST></NEST></NEST>`
	r := testRegistry(t)

	in, err := r.Decode(mustTree(t, doc))
	require.NoError(t, err)
	v, _ := in.Sub("nest").Sub("nest").String("v")
	assert.Equal(t, "c", v)

	_, err = r.Decode(mustTree(t, doc), WithMaxDepth(2))
	require.ErrorIs(t, err, ErrTooDeep)
}

func TestDecode_XMLAndSGMLAgree(t *testing.T) {
	r := testRegistry(t)
	a, err := r.Decode(mustTree(t, sonrsDoc))
	require.NoError(t, err)
	b, err := r.Decode(mustTree(t,
		`<SONRS><STATUS><CODE>0</CODE><SEVERITY>INFO</SEVERITY></STATUS><DTSERVER>20051029101003</DTSERVER><LANGUAGE>ENG</LANGUAGE></SONRS>`))
	require.NoError(t, err)
	assert.True(t, a.Equal(b))
}
