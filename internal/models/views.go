package models

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zjrosen/ofxkit/internal/aggregate"
)

// ErrWrongKind is returned when a typed view is read from an instance of
// another kind.
var ErrWrongKind = errors.New("instance has the wrong kind for this view")

func expectKind(in *aggregate.Instance, kinds ...string) error {
	if in == nil {
		return fmt.Errorf("%w: nil instance", ErrWrongKind)
	}
	if !slices.Contains(kinds, in.Kind()) {
		return fmt.Errorf("%w: got %s, want %v", ErrWrongKind, in.Kind(), kinds)
	}
	return nil
}

func optString(in *aggregate.Instance, name string) *string {
	if v, ok := in.String(name); ok {
		return &v
	}
	return nil
}

func optTime(in *aggregate.Instance, name string) *time.Time {
	if v, ok := in.Time(name); ok {
		return &v
	}
	return nil
}

func setOpt[T any](values aggregate.Values, name string, p *T) {
	if p != nil {
		values[name] = *p
	}
}

// Status is the typed view of STATUS.
type Status struct {
	Code     int64
	Severity string
	Message  *string
}

// StatusOf reads the status of a STATUS instance or of any kind that
// includes STATUS, such as SONRS or STMTTRNRS.
func StatusOf(in *aggregate.Instance) (Status, error) {
	if in == nil || in.Schema().Field("code") == nil || in.Schema().Field("severity") == nil {
		return Status{}, fmt.Errorf("%w: no STATUS fields", ErrWrongKind)
	}
	code, _ := in.Int("code")
	sev, _ := in.String("severity")
	return Status{Code: code, Severity: sev, Message: optString(in, "message")}, nil
}

func (s Status) values(v aggregate.Values) {
	v["code"] = s.Code
	v["severity"] = s.Severity
	setOpt(v, "message", s.Message)
}

// Instance builds the STATUS aggregate.
func (s Status) Instance(reg *aggregate.Registry) (*aggregate.Instance, error) {
	v := aggregate.Values{}
	s.values(v)
	return reg.New("STATUS", v)
}

// OK reports whether the status code signals success.
func (s Status) OK() bool { return s.Code == 0 }

// FI identifies the financial institution in a signon.
type FI struct {
	Org string
	FID *string
}

// SignonResponse is the typed view of SONRS.
type SignonResponse struct {
	Status      Status
	DTServer    time.Time
	UserKey     *string
	TSKeyExpire *time.Time
	Language    *string
	DTProfUp    *time.Time
	DTAcctUp    *time.Time
	FI          *FI
	SessCookie  *string
	AccessKey   *string
}

// SignonResponseOf reads a SONRS instance.
func SignonResponseOf(in *aggregate.Instance) (SignonResponse, error) {
	if err := expectKind(in, "SONRS"); err != nil {
		return SignonResponse{}, err
	}
	status, err := StatusOf(in)
	if err != nil {
		return SignonResponse{}, err
	}
	dtserver, _ := in.Time("dtserver")
	s := SignonResponse{
		Status:      status,
		DTServer:    dtserver,
		UserKey:     optString(in, "userkey"),
		TSKeyExpire: optTime(in, "tskeyexpire"),
		Language:    optString(in, "language"),
		DTProfUp:    optTime(in, "dtprofup"),
		DTAcctUp:    optTime(in, "dtacctup"),
		SessCookie:  optString(in, "sesscookie"),
		AccessKey:   optString(in, "accesskey"),
	}
	if org, ok := in.String("org"); ok {
		s.FI = &FI{Org: org, FID: optString(in, "fid")}
	}
	return s, nil
}

// Instance builds the SONRS aggregate.
func (s SignonResponse) Instance(reg *aggregate.Registry) (*aggregate.Instance, error) {
	v := aggregate.Values{"dtserver": s.DTServer}
	s.Status.values(v)
	setOpt(v, "userkey", s.UserKey)
	setOpt(v, "tskeyexpire", s.TSKeyExpire)
	setOpt(v, "language", s.Language)
	setOpt(v, "dtprofup", s.DTProfUp)
	setOpt(v, "dtacctup", s.DTAcctUp)
	if s.FI != nil {
		v["org"] = s.FI.Org
		setOpt(v, "fid", s.FI.FID)
	}
	setOpt(v, "sesscookie", s.SessCookie)
	setOpt(v, "accesskey", s.AccessKey)
	return reg.New("SONRS", v)
}

// Currency is a CURRENCY or ORIGCURRENCY block.
type Currency struct {
	Rate   decimal.Decimal
	Symbol string
	// Original marks ORIGCURRENCY: the amounts are in the original
	// currency rather than converted into it.
	Original bool
}

// Transaction is the typed view of STMTTRN. Payee and the destination
// accounts stay untyped aggregates.
type Transaction struct {
	TrnType    string
	DTPosted   time.Time
	DTUser     *time.Time
	DTAvail    *time.Time
	TrnAmt     decimal.Decimal
	FITID      string
	CheckNum   *string
	RefNum     *string
	Name       *string
	Payee      *aggregate.Instance
	BankAcctTo *aggregate.Instance
	CCAcctTo   *aggregate.Instance
	Memo       *string
	Currency   *Currency
}

// TransactionOf reads a STMTTRN instance.
func TransactionOf(in *aggregate.Instance) (Transaction, error) {
	if err := expectKind(in, "STMTTRN"); err != nil {
		return Transaction{}, err
	}
	trntype, _ := in.String("trntype")
	posted, _ := in.Time("dtposted")
	amt, _ := in.Decimal("trnamt")
	fitid, _ := in.String("fitid")
	t := Transaction{
		TrnType:    trntype,
		DTPosted:   posted,
		DTUser:     optTime(in, "dtuser"),
		DTAvail:    optTime(in, "dtavail"),
		TrnAmt:     amt,
		FITID:      fitid,
		CheckNum:   optString(in, "checknum"),
		RefNum:     optString(in, "refnum"),
		Name:       optString(in, "name"),
		Payee:      in.Sub("payee"),
		BankAcctTo: in.Sub("bankacctto"),
		CCAcctTo:   in.Sub("ccacctto"),
		Memo:       optString(in, "memo"),
	}
	if sym, ok := in.String("cursym"); ok {
		rate, _ := in.Decimal("currate")
		path := in.PathOf("cursym")
		t.Currency = &Currency{
			Rate:     rate,
			Symbol:   sym,
			Original: len(path) > 0 && path[0] == "origcurrency",
		}
	}
	return t, nil
}

// Instance builds the STMTTRN aggregate.
func (t Transaction) Instance(reg *aggregate.Registry) (*aggregate.Instance, error) {
	v := aggregate.Values{
		"trntype":  t.TrnType,
		"dtposted": t.DTPosted,
		"trnamt":   t.TrnAmt,
		"fitid":    t.FITID,
	}
	setOpt(v, "dtuser", t.DTUser)
	setOpt(v, "dtavail", t.DTAvail)
	setOpt(v, "checknum", t.CheckNum)
	setOpt(v, "refnum", t.RefNum)
	setOpt(v, "name", t.Name)
	if t.Payee != nil {
		v["payee"] = t.Payee
	}
	if t.BankAcctTo != nil {
		v["bankacctto"] = t.BankAcctTo
	}
	if t.CCAcctTo != nil {
		v["ccacctto"] = t.CCAcctTo
	}
	setOpt(v, "memo", t.Memo)

	var opts []aggregate.Option
	if c := t.Currency; c != nil {
		v["currate"] = c.Rate
		v["cursym"] = c.Symbol
		wrapper := "currency"
		if c.Original {
			wrapper = "origcurrency"
		}
		opts = append(opts, aggregate.Via("currate", wrapper), aggregate.Via("cursym", wrapper))
	}
	return reg.New("STMTTRN", v, opts...)
}

// TransactionsOf reads every member of a BANKTRANLIST.
func TransactionsOf(list *aggregate.Instance) ([]Transaction, error) {
	if err := expectKind(list, "BANKTRANLIST"); err != nil {
		return nil, err
	}
	out := make([]Transaction, 0, list.Len())
	for i, m := range list.Members() {
		t, err := TransactionOf(m)
		if err != nil {
			return nil, fmt.Errorf("member %d: %w", i, err)
		}
		out = append(out, t)
	}
	return out, nil
}
