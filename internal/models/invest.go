package models

import "github.com/zjrosen/ofxkit/internal/aggregate"

// buyKind declares one member of the investment buy family: the shared
// INVBUY block followed by the flavor's own fields.
func buyKind(name string, entries ...aggregate.Entry) *aggregate.Kind {
	return &aggregate.Kind{
		Name:    name,
		Entries: append([]aggregate.Entry{aggregate.Include("INVBUY", aggregate.Required())}, entries...),
	}
}

func investKinds() []*aggregate.Kind {
	return []*aggregate.Kind{
		{Name: "INVACCTFROM", Entries: []aggregate.Entry{
			aggregate.Scalar("brokerid", text(22, req())),
			aggregate.Scalar("acctid", text(22, req())),
		}},
		{Name: "INVTRAN", Entries: []aggregate.Entry{
			aggregate.Scalar("fitid", text(255, req())),
			aggregate.Scalar("srvrtid", text(10)),
			aggregate.Scalar("dttrade", datetime(req())),
			aggregate.Scalar("dtsettle", datetime()),
			aggregate.Scalar("reversalfitid", text(255)),
			aggregate.Scalar("memo", text(255)),
		}},
		{
			Name: "INVBUY",
			Entries: []aggregate.Entry{
				aggregate.Include("INVTRAN", aggregate.Required()),
				aggregate.Sub("secid", aggregate.Required()),
				aggregate.Scalar("units", number(req())),
				aggregate.Scalar("unitprice", number(req())),
				aggregate.Scalar("markup", number()),
				aggregate.Scalar("commission", number()),
				aggregate.Scalar("taxes", number()),
				aggregate.Scalar("fees", number()),
				aggregate.Scalar("load", number()),
				aggregate.Scalar("total", number(req())),
				aggregate.Include("CURRENCY"),
				aggregate.Include("ORIGCURRENCY"),
				aggregate.Scalar("subacctsec", oneOf(InvSubAccts, req())),
				aggregate.Scalar("subacctfund", oneOf(InvSubAccts, req())),
				aggregate.Scalar("loanid", text(32)),
				aggregate.Scalar("loanprincipal", number()),
				aggregate.Scalar("loaninterest", number()),
				aggregate.Scalar("inv401ksource", oneOf(Inv401kSource)),
				aggregate.Scalar("dtpayroll", datetime()),
				aggregate.Scalar("prioryearcontrib", boolean()),
			},
			OptionalMutexes: [][]string{{"currency", "origcurrency"}},
		},
		buyKind("BUYDEBT",
			aggregate.Scalar("accrdint", number()),
		),
		buyKind("BUYMF",
			aggregate.Scalar("buytype", oneOf(BuyTypes, req())),
			aggregate.Scalar("relfitid", text(255)),
		),
		buyKind("BUYOPT",
			aggregate.Scalar("optbuytype", oneOf(OptBuyTypes, req())),
			aggregate.Scalar("shperctrct", integer(0, req())),
		),
		buyKind("BUYOTHER"),
		buyKind("BUYSTOCK",
			aggregate.Scalar("buytype", oneOf(BuyTypes, req())),
		),
		{
			Name: "INCOME",
			Entries: []aggregate.Entry{
				aggregate.Include("INVTRAN", aggregate.Required()),
				aggregate.Sub("secid", aggregate.Required()),
				aggregate.Scalar("incometype", oneOf(IncomeTypes, req())),
				aggregate.Scalar("total", number(req())),
				aggregate.Scalar("subacctsec", oneOf(InvSubAccts, req())),
				aggregate.Scalar("subacctfund", oneOf(InvSubAccts, req())),
				aggregate.Scalar("taxexempt", boolean()),
				aggregate.Scalar("withholding", number()),
				aggregate.Include("CURRENCY"),
				aggregate.Include("ORIGCURRENCY"),
				aggregate.Scalar("inv401ksource", oneOf(Inv401kSource)),
			},
			OptionalMutexes: [][]string{{"currency", "origcurrency"}},
		},
		{Name: "INVBANKTRAN", Entries: []aggregate.Entry{
			aggregate.Sub("stmttrn", aggregate.Required()),
			aggregate.Scalar("subacctfund", oneOf(InvSubAccts, req())),
		}},
		{
			Name:    "INVTRANLIST",
			Entries: tranListEntries(),
			Members: &aggregate.Members{Kinds: []string{FamilyInvBuy, "INCOME", "INVBANKTRAN"}},
		},
		{Name: "INVSTMTRS", Entries: []aggregate.Entry{
			aggregate.Scalar("dtasof", datetime(req())),
			aggregate.Scalar("curdef", currencySymbol(req())),
			aggregate.Sub("invacctfrom", aggregate.Required()),
			aggregate.Sub("invtranlist"),
			aggregate.Scalar("mktginfo", text(360)),
		}},
		{Name: "INVSTMTTRNRS", Entries: trnrsEntries("invstmtrs")},
		{
			Name:    "INVSTMTMSGSRSV1",
			Members: &aggregate.Members{Kinds: []string{"INVSTMTTRNRS"}},
		},
	}
}
