// Package models declares the OFX aggregates understood by ofxkit: signon,
// bank and credit card statements, investment statements and security
// lists. Typed views for the most common aggregates live in views.go.
package models

import (
	"fmt"
	"sync"

	"github.com/zjrosen/ofxkit/internal/aggregate"
	"github.com/zjrosen/ofxkit/internal/element"
)

// FamilyInvBuy is the closed family of investment buy transactions.
const FamilyInvBuy = "INVBUYTRAN"

// Enumerations shared by several aggregates.
var (
	Severities    = []string{"INFO", "WARN", "ERROR"}
	AcctTypes     = []string{"CHECKING", "SAVINGS", "MONEYMRKT", "CREDITLINE", "CD"}
	InvSubAccts   = []string{"CASH", "MARGIN", "SHORT", "OTHER"}
	BuyTypes      = []string{"BUY", "BUYTOCOVER"}
	OptBuyTypes   = []string{"BUYTOOPEN", "BUYTOCLOSE"}
	IncomeTypes   = []string{"CGLONG", "CGSHORT", "DIV", "INTEREST", "MISC"}
	Inv401kSource = []string{"PRETAX", "AFTERTAX", "MATCH", "PROFITSHARING", "ROLLOVER", "OTHERVEST", "OTHERNONVEST"}
	AssetClasses  = []string{"DOMESTICBOND", "INTLBOND", "LARGESTOCK", "SMALLSTOCK", "INTLSTOCK", "MONEYMRKT", "OTHER"}
	TrnTypes      = []string{
		"CREDIT", "DEBIT", "INT", "DIV", "FEE", "SRVCHG", "DEP", "ATM", "POS",
		"XFER", "CHECK", "PAYMENT", "CASH", "DIRECTDEP", "DIRECTDEBIT", "REPEATPMT", "OTHER",
	}
)

// Shorthand for the declaration tables.
var (
	text     = element.Text
	number   = element.Decimal
	datetime = element.DateTime
	boolean  = element.Bool
	integer  = element.Integer
	req      = element.Required
)

func oneOf(values []string, opts ...element.Option) element.Element {
	return element.OneOf(values, opts...)
}

// currencySymbol is a three-letter ISO 4217 code. The code table itself is
// not enforced.
func currencySymbol(opts ...element.Option) element.Element {
	return element.Text(3, append(opts, element.Strict())...)
}

// kindGroups lists the declaration tables in registration order. Included
// kinds must come before the kinds that include them.
func kindGroups() [][]*aggregate.Kind {
	return [][]*aggregate.Kind{
		signonKinds(),
		bankKinds(),
		securityKinds(),
		investKinds(),
		rootKinds(),
	}
}

// NewRegistry builds a registry holding every OFX aggregate kind.
func NewRegistry() (*aggregate.Registry, error) {
	r := aggregate.NewRegistry()
	if _, err := r.DefineFamily(FamilyInvBuy, "BUYDEBT", "BUYMF", "BUYOPT", "BUYOTHER", "BUYSTOCK"); err != nil {
		return nil, fmt.Errorf("defining %s: %w", FamilyInvBuy, err)
	}
	for _, group := range kindGroups() {
		for _, k := range group {
			if err := r.Register(k); err != nil {
				return nil, fmt.Errorf("registering %s: %w", k.Name, err)
			}
		}
	}
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("validating registry: %w", err)
	}
	return r, nil
}

// Registry returns the shared registry. Kinds are immutable, so one
// registry serves every goroutine.
var Registry = sync.OnceValue(func() *aggregate.Registry {
	r, err := NewRegistry()
	if err != nil {
		panic(err)
	}
	return r
})

func rootKinds() []*aggregate.Kind {
	return []*aggregate.Kind{
		{Name: "OFX", Entries: []aggregate.Entry{
			aggregate.Sub("signonmsgsrsv1", aggregate.Required()),
			aggregate.Sub("bankmsgsrsv1"),
			aggregate.Sub("creditcardmsgsrsv1"),
			aggregate.Sub("invstmtmsgsrsv1"),
			aggregate.Sub("seclistmsgsrsv1"),
		}},
	}
}
