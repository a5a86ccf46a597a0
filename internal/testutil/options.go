package testutil

import "time"

// txnData holds the wire text of one STMTTRN.
type txnData struct {
	fitid    string
	trnType  string
	posted   time.Time
	user     *time.Time
	amount   string
	checkNum string
	name     string
	memo     string
	origRate string
	origSym  string
}

// defaultTxn returns a debit posted on the statement start date.
func defaultTxn(fitid string, posted time.Time) txnData {
	return txnData{
		fitid:   fitid,
		trnType: "DEBIT",
		posted:  posted,
		amount:  "-1.00",
	}
}

// TxnOption configures a transaction during builder setup.
type TxnOption func(*txnData)

// TrnType sets TRNTYPE.
func TrnType(t string) TxnOption {
	return func(d *txnData) { d.trnType = t }
}

// Amount sets TRNAMT verbatim, so malformed amounts can be built too.
func Amount(a string) TxnOption {
	return func(d *txnData) { d.amount = a }
}

// Posted sets DTPOSTED.
func Posted(t time.Time) TxnOption {
	return func(d *txnData) { d.posted = t }
}

// UserDate sets DTUSER.
func UserDate(t time.Time) TxnOption {
	return func(d *txnData) { d.user = &t }
}

// CheckNum sets CHECKNUM.
func CheckNum(n string) TxnOption {
	return func(d *txnData) { d.checkNum = n }
}

// Name sets NAME.
func Name(n string) TxnOption {
	return func(d *txnData) { d.name = n }
}

// Memo sets MEMO.
func Memo(m string) TxnOption {
	return func(d *txnData) { d.memo = m }
}

// OrigCurrency wraps the amount's original currency in ORIGCURRENCY.
func OrigCurrency(rate, sym string) TxnOption {
	return func(d *txnData) {
		d.origRate = rate
		d.origSym = sym
	}
}
