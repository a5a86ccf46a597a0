// Package testutil builds OFX bank statements for tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/ofxkit/internal/header"
	"github.com/zjrosen/ofxkit/internal/tagtree"
)

const dateLayout = "20060102"

// Builder accumulates a bank statement and renders it as a tag tree or a
// complete OFX file.
type Builder struct {
	t        *testing.T
	bankID   string
	acctID   string
	acctType string
	curdef   string
	start    time.Time
	end      time.Time
	balance  string
	txns     []txnData
	omit     map[string]bool
}

// NewBuilder creates a builder for a USD checking account statement
// covering January 2024.
func NewBuilder(t *testing.T) *Builder {
	t.Helper()
	return &Builder{
		t:        t,
		bankID:   "121099999",
		acctID:   "999988",
		acctType: "CHECKING",
		curdef:   "USD",
		start:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		end:      time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		balance:  "0.00",
		omit:     map[string]bool{},
	}
}

// WithAccount sets the BANKACCTFROM block.
func (b *Builder) WithAccount(bankID, acctID, acctType string) *Builder {
	b.bankID, b.acctID, b.acctType = bankID, acctID, acctType
	return b
}

// WithCurrency sets CURDEF.
func (b *Builder) WithCurrency(sym string) *Builder {
	b.curdef = sym
	return b
}

// WithBalance sets the ledger balance.
func (b *Builder) WithBalance(amount string) *Builder {
	b.balance = amount
	return b
}

// WithTransaction adds a STMTTRN with optional configuration.
func (b *Builder) WithTransaction(fitid string, opts ...TxnOption) *Builder {
	txn := defaultTxn(fitid, b.start)
	for _, opt := range opts {
		opt(&txn)
	}
	b.txns = append(b.txns, txn)
	return b
}

// Without drops the named tag wherever the builder would write it, for
// building documents that miss a required element.
func (b *Builder) Without(tag string) *Builder {
	b.omit[tag] = true
	return b
}

func (b *Builder) leaf(tag, text string) *tagtree.Node {
	if text == "" || b.omit[tag] {
		return nil
	}
	return tagtree.Leaf(tag, text)
}

func (b *Builder) elem(tag string, children ...*tagtree.Node) *tagtree.Node {
	if b.omit[tag] {
		return nil
	}
	kept := children[:0]
	for _, c := range children {
		if c != nil {
			kept = append(kept, c)
		}
	}
	return tagtree.Elem(tag, kept...)
}

func (b *Builder) txnNode(d txnData) *tagtree.Node {
	var user string
	if d.user != nil {
		user = d.user.Format(dateLayout)
	}
	var orig *tagtree.Node
	if d.origSym != "" {
		orig = b.elem("ORIGCURRENCY", b.leaf("CURRATE", d.origRate), b.leaf("CURSYM", d.origSym))
	}
	return b.elem("STMTTRN",
		b.leaf("TRNTYPE", d.trnType),
		b.leaf("DTPOSTED", d.posted.Format(dateLayout)),
		b.leaf("DTUSER", user),
		b.leaf("TRNAMT", d.amount),
		b.leaf("FITID", d.fitid),
		b.leaf("CHECKNUM", d.checkNum),
		b.leaf("NAME", d.name),
		b.leaf("MEMO", d.memo),
		orig,
	)
}

// Tree returns the OFX body.
func (b *Builder) Tree() *tagtree.Node {
	txns := []*tagtree.Node{
		b.leaf("DTSTART", b.start.Format(dateLayout)),
		b.leaf("DTEND", b.end.Format(dateLayout)),
	}
	for _, d := range b.txns {
		txns = append(txns, b.txnNode(d))
	}
	asof := b.end.Format(dateLayout)

	return b.elem("OFX",
		b.elem("SIGNONMSGSRSV1",
			b.elem("SONRS",
				b.elem("STATUS", b.leaf("CODE", "0"), b.leaf("SEVERITY", "INFO")),
				b.leaf("DTSERVER", asof),
				b.leaf("LANGUAGE", "ENG"),
			),
		),
		b.elem("BANKMSGSRSV1",
			b.elem("STMTTRNRS",
				b.leaf("TRNUID", "1001"),
				b.elem("STATUS", b.leaf("CODE", "0"), b.leaf("SEVERITY", "INFO")),
				b.elem("STMTRS",
					b.leaf("CURDEF", b.curdef),
					b.elem("BANKACCTFROM",
						b.leaf("BANKID", b.bankID),
						b.leaf("ACCTID", b.acctID),
						b.leaf("ACCTTYPE", b.acctType),
					),
					b.elem("BANKTRANLIST", txns...),
					b.elem("LEDGERBAL", b.leaf("BALAMT", b.balance), b.leaf("DTASOF", asof)),
				),
			),
		),
	)
}

// Bytes renders a complete document in format f: a version 102 header for
// SGML, 220 for XML.
func (b *Builder) Bytes(f tagtree.Format) []byte {
	b.t.Helper()
	h := header.NewV1(102)
	indent := ""
	if f == tagtree.XML {
		h = header.NewV2(220)
		indent = "  "
	}
	require.NoError(b.t, h.Validate())
	return []byte(h.String() + tagtree.Marshal(b.Tree(), tagtree.WriteOptions{Format: f, Indent: indent}))
}

// WriteFile writes the document to dir/name and returns the path.
func (b *Builder) WriteFile(dir, name string, f tagtree.Format) string {
	b.t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(b.t, os.WriteFile(path, b.Bytes(f), 0o600))
	return path
}
