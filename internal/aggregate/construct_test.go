package aggregate

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zjrosen/ofxkit/internal/tagtree"
)

func TestNew_Status(t *testing.T) {
	r := testRegistry(t)
	in, err := r.New("STATUS", Values{"code": 0, "severity": "INFO"})
	require.NoError(t, err)

	code, _ := in.Int("code")
	assert.Equal(t, int64(0), code)

	out, err := Encode(in)
	require.NoError(t, err)
	assert.Equal(t, "<STATUS><CODE>0<SEVERITY>INFO</STATUS>", sgml(out))
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name   string
		kind   string
		values Values
		opts   []Option
		code   Code
	}{
		{"unknown kind", "NOPE", Values{}, nil, CodeUnknownAggregate},
		{"missing required", "STATUS", Values{"code": 0}, nil, CodeMissingRequired},
		{"unknown field", "STATUS", Values{"code": 0, "severity": "INFO", "bogus": "x"}, nil, CodeUnrecognizedField},
		{"wrong type", "STATUS", Values{"code": "zero", "severity": "INFO"}, nil, CodeInvalidValue},
		{"too many digits", "STATUS", Values{"code": 1234567, "severity": "INFO"}, nil, CodeInvalidValue},
		{"bad enum", "STATUS", Values{"code": 0, "severity": "LOUD"}, nil, CodeInvalidValue},
		{"required mutex none", "ACCT", Values{"acctid": "1"}, nil, CodeMutexViolation},
		{"bad wrapper", "TRN", Values{"fitid": "1", "trnamt": 1}, []Option{Via("trnamt", "currency")}, CodeUnrecognizedField},
		{"sub of wrong kind", "TRN", Values{"fitid": "1", "trnamt": 1, "payee": mustStatus(t)}, nil, CodeIllegalMember},
		{"members on plain kind", "STATUS", Values{"code": 0, "severity": "INFO"}, []Option{WithMembers(mustStatus(t))}, CodeIllegalMember},
		{"member of wrong kind", "TRNLIST", Values{"dtstart": time.Now()}, []Option{WithMembers(mustStatus(t))}, CodeIllegalMember},
		{"empty required text", "FI", Values{"org": ""}, nil, CodeMissingRequired},
		{"empty required enum", "STATUS", Values{"code": 0, "severity": ""}, nil, CodeMissingRequired},
		{"empty required decimal", "TRN", Values{"fitid": "1", "trnamt": ""}, nil, CodeMissingRequired},
		{"include name as a value", "SONRS", Values{"status": mustStatus(t), "dtserver": time.Now()}, nil, CodeUnrecognizedField},
		{"leaf for a list", "PORTFOLIO", Values{"acctid": "1", "stocks": "garbage"}, nil, CodeInvalidValue},
	}

	r := testRegistry(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.New(tt.kind, tt.values, tt.opts...)
			require.Error(t, err)
			assert.Equal(t, tt.code, CodeOf(err), "error: %v", err)
			assert.ErrorIs(t, err, &Error{Code: tt.code})
		})
	}
}

func TestNew_EmptyOptionalIsAbsent(t *testing.T) {
	r := testRegistry(t)
	in, err := r.New("STATUS", Values{"code": 0, "severity": "INFO", "message": ""})
	require.NoError(t, err)
	assert.False(t, in.Has("message"))
}

func mustStatus(t testing.TB) *Instance {
	t.Helper()
	in, err := testRegistry(t).New("STATUS", Values{"code": 0, "severity": "INFO"})
	require.NoError(t, err)
	return in
}

func TestNew_MatchesDecode(t *testing.T) {
	r := testRegistry(t)
	payee, err := r.New("PAYEE", Values{"name": "Corner Shop"})
	require.NoError(t, err)
	trn, err := r.New("TRN", Values{
		"fitid":  "A1",
		"trnamt": decimal.RequireFromString("-12.50"),
		"payee":  payee,
	})
	require.NoError(t, err)
	list, err := r.New("TRNLIST", Values{
		"dtstart": time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}, WithMembers(trn))
	require.NoError(t, err)

	out, err := Encode(list)
	require.NoError(t, err)
	assert.Equal(t,
		`<TRNLIST><DTSTART>20240101000000<TRN><FITID>A1<TRNAMT>-12.50<PAYEE><NAME>Corner Shop</PAYEE></TRN></TRNLIST>`,
		sgml(out))

	back, err := r.Decode(out)
	require.NoError(t, err)
	assert.True(t, back.Equal(list))
}

// drawTRN builds a random valid TRN, exercising optional fields, the
// NAME/PAYEE choice and both currency wrappers.
func drawTRN(t *rapid.T, r *Registry) *Instance {
	values := Values{
		"fitid":  rapid.StringMatching(`[A-Za-z0-9]{1,20}`).Draw(t, "fitid"),
		"trnamt": decimal.New(rapid.Int64Range(-1e9, 1e9).Draw(t, "amt"), -int32(rapid.IntRange(0, 4).Draw(t, "scale"))),
	}
	switch rapid.IntRange(0, 2).Draw(t, "who") {
	case 1:
		values["name"] = rapid.StringMatching(`[A-Za-z]{1,32}`).Draw(t, "name")
	case 2:
		payee, err := r.New("PAYEE", Values{"name": rapid.StringMatching(`[A-Za-z]{1,32}`).Draw(t, "payee")})
		if err != nil {
			t.Fatal(err)
		}
		values["payee"] = payee
	}
	if rapid.Bool().Draw(t, "memo") {
		values["memo"] = rapid.StringMatching(`[A-Za-z0-9&<>]{1,40}`).Draw(t, "memotext")
	}
	var opts []Option
	if wrapper := rapid.SampledFrom([]string{"", "currency", "origcurrency"}).Draw(t, "wrapper"); wrapper != "" {
		values["currate"] = decimal.New(rapid.Int64Range(1, 1e6).Draw(t, "rate"), -3)
		values["cursym"] = rapid.StringMatching(`[A-Z]{3}`).Draw(t, "cursym")
		opts = append(opts, Via("currate", wrapper), Via("cursym", wrapper))
	}
	in, err := r.New("TRN", values, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return in
}

// Encoding, writing, parsing and decoding returns an equal instance, and
// encoding that instance again yields the same tree.
func TestProperty_EncodeDecodeIsStable(t *testing.T) {
	r := testRegistry(t)
	rapid.Check(t, func(t *rapid.T) {
		var members []*Instance
		for i := rapid.IntRange(0, 4).Draw(t, "n"); i > 0; i-- {
			members = append(members, drawTRN(t, r))
		}
		list, err := r.New("TRNLIST", Values{
			"dtstart": time.Unix(rapid.Int64Range(0, 4e9).Draw(t, "start"), 0).UTC(),
		}, WithMembers(members...))
		if err != nil {
			t.Fatal(err)
		}
		tree, err := Encode(list)
		if err != nil {
			t.Fatal(err)
		}
		format := rapid.SampledFrom([]tagtree.Format{tagtree.SGML, tagtree.XML}).Draw(t, "format")
		parsed, err := tagtree.Parse(tagtree.Marshal(tree, tagtree.WriteOptions{Format: format}))
		if err != nil {
			t.Fatal(err)
		}
		back, err := r.Decode(parsed)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !back.Equal(list) {
			t.Fatalf("decoded instance differs")
		}
		again, err := Encode(back)
		if err != nil {
			t.Fatal(err)
		}
		if !again.Equal(tree) {
			t.Fatalf("re-encoded tree differs:\n%s\n%s", sgml(tree), sgml(again))
		}
	})
}

// A required mutex group accepts exactly one member; an optional group at
// most one. New and Decode agree.
func TestProperty_MutexGroups(t *testing.T) {
	r := testRegistry(t)
	rapid.Check(t, func(t *rapid.T) {
		bank := rapid.Bool().Draw(t, "bank")
		broker := rapid.Bool().Draw(t, "broker")
		values := Values{"acctid": "1"}
		children := []*tagtree.Node{}
		if bank {
			values["bankid"] = "B"
			children = append(children, tagtree.Leaf("BANKID", "B"))
		}
		if broker {
			values["brokerid"] = "K"
			children = append(children, tagtree.Leaf("BROKERID", "K"))
		}
		children = append(children, tagtree.Leaf("ACCTID", "1"))

		_, newErr := r.New("ACCT", values)
		_, decErr := r.Decode(tagtree.Elem("ACCT", children...))
		if bank != broker {
			if newErr != nil || decErr != nil {
				t.Fatalf("exactly one present but rejected: %v / %v", newErr, decErr)
			}
			return
		}
		if CodeOf(newErr) != CodeMutexViolation || CodeOf(decErr) != CodeMutexViolation {
			t.Fatalf("expected mutex violation, got %v / %v", newErr, decErr)
		}
	})
}

// Adding an undeclared leaf anywhere in a valid aggregate is rejected.
func TestProperty_UnknownLeafRejected(t *testing.T) {
	r := testRegistry(t)
	rapid.Check(t, func(t *rapid.T) {
		children := []*tagtree.Node{
			tagtree.Leaf("CODE", "0"),
			tagtree.Leaf("SEVERITY", "INFO"),
			tagtree.Leaf("MESSAGE", "ok"),
		}
		pos := rapid.IntRange(0, len(children)).Draw(t, "pos")
		extra := tagtree.Leaf(rapid.StringMatching(`X[A-Z]{1,7}`).Draw(t, "tag"), "1")
		children = append(children[:pos], append([]*tagtree.Node{extra}, children[pos:]...)...)

		_, err := r.Decode(tagtree.Elem("STATUS", children...))
		if CodeOf(err) != CodeUnrecognizedField {
			t.Fatalf("expected unrecognized field, got %v", err)
		}
	})
}
