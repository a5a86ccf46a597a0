package models

import "github.com/zjrosen/ofxkit/internal/aggregate"

func currencyEntries() []aggregate.Entry {
	return []aggregate.Entry{
		aggregate.Scalar("currate", number(req())),
		aggregate.Scalar("cursym", currencySymbol(req())),
	}
}

func bankAcctEntries() []aggregate.Entry {
	return []aggregate.Entry{
		aggregate.Scalar("bankid", text(9, req())),
		aggregate.Scalar("branchid", text(22)),
		aggregate.Scalar("acctid", text(22, req())),
		aggregate.Scalar("accttype", oneOf(AcctTypes, req())),
		aggregate.Scalar("acctkey", text(22)),
	}
}

func ccAcctEntries() []aggregate.Entry {
	return []aggregate.Entry{
		aggregate.Scalar("acctid", text(22, req())),
		aggregate.Scalar("acctkey", text(22)),
	}
}

func balanceEntries() []aggregate.Entry {
	return []aggregate.Entry{
		aggregate.Scalar("balamt", number(req())),
		aggregate.Scalar("dtasof", datetime(req())),
	}
}

func tranListEntries() []aggregate.Entry {
	return []aggregate.Entry{
		aggregate.Scalar("dtstart", datetime(req())),
		aggregate.Scalar("dtend", datetime(req())),
	}
}

func bankKinds() []*aggregate.Kind {
	return []*aggregate.Kind{
		{Name: "CURRENCY", Entries: currencyEntries()},
		{Name: "ORIGCURRENCY", Entries: currencyEntries()},
		{Name: "BANKACCTFROM", Entries: bankAcctEntries()},
		{Name: "BANKACCTTO", Entries: bankAcctEntries()},
		{Name: "CCACCTFROM", Entries: ccAcctEntries()},
		{Name: "CCACCTTO", Entries: ccAcctEntries()},
		{Name: "PAYEE", Entries: []aggregate.Entry{
			aggregate.Scalar("name", text(32, req())),
			aggregate.Scalar("addr1", text(32, req())),
			aggregate.Scalar("addr2", text(32)),
			aggregate.Scalar("addr3", text(32)),
			aggregate.Scalar("city", text(32, req())),
			aggregate.Scalar("state", text(5, req())),
			aggregate.Scalar("postalcode", text(11, req())),
			aggregate.Scalar("country", text(3)),
			aggregate.Scalar("phone", text(32, req())),
		}},
		{
			Name: "STMTTRN",
			Entries: []aggregate.Entry{
				aggregate.Scalar("trntype", oneOf(TrnTypes, req())),
				aggregate.Scalar("dtposted", datetime(req())),
				aggregate.Scalar("dtuser", datetime()),
				aggregate.Scalar("dtavail", datetime()),
				aggregate.Scalar("trnamt", number(req())),
				aggregate.Scalar("fitid", text(255, req())),
				aggregate.Scalar("correctfitid", text(255)),
				aggregate.Scalar("correctaction", oneOf([]string{"REPLACE", "DELETE"})),
				aggregate.Scalar("srvrtid", text(10)),
				aggregate.Scalar("checknum", text(12)),
				aggregate.Scalar("refnum", text(32)),
				aggregate.Scalar("sic", integer(0)),
				aggregate.Scalar("payeeid", text(12)),
				aggregate.Scalar("name", text(32)),
				aggregate.Sub("payee"),
				aggregate.Scalar("extdname", text(100)),
				aggregate.Sub("bankacctto"),
				aggregate.Sub("ccacctto"),
				aggregate.Scalar("memo", text(255)),
				aggregate.Include("CURRENCY"),
				aggregate.Include("ORIGCURRENCY"),
				aggregate.Scalar("inv401ksource", oneOf(Inv401kSource)),
			},
			OptionalMutexes: [][]string{
				{"name", "payee"},
				{"ccacctto", "bankacctto"},
				{"currency", "origcurrency"},
			},
		},
		{
			Name:    "BANKTRANLIST",
			Entries: tranListEntries(),
			Members: &aggregate.Members{Kinds: []string{"STMTTRN"}},
		},
		{Name: "LEDGERBAL", Entries: balanceEntries()},
		{Name: "AVAILBAL", Entries: balanceEntries()},
		{Name: "STMTRS", Entries: []aggregate.Entry{
			aggregate.Scalar("curdef", currencySymbol(req())),
			aggregate.Sub("bankacctfrom", aggregate.Required()),
			aggregate.Sub("banktranlist"),
			aggregate.Sub("ledgerbal", aggregate.Required()),
			aggregate.Sub("availbal"),
			aggregate.Scalar("cashadvbalamt", number()),
			aggregate.Scalar("intrate", number()),
			aggregate.Scalar("mktginfo", text(360)),
		}},
		{Name: "STMTTRNRS", Entries: trnrsEntries("stmtrs")},
		{
			Name:    "BANKMSGSRSV1",
			Members: &aggregate.Members{Kinds: []string{"STMTTRNRS"}},
		},
		{Name: "CCSTMTRS", Entries: []aggregate.Entry{
			aggregate.Scalar("curdef", currencySymbol(req())),
			aggregate.Sub("ccacctfrom", aggregate.Required()),
			aggregate.Sub("banktranlist"),
			aggregate.Sub("ledgerbal", aggregate.Required()),
			aggregate.Sub("availbal"),
			aggregate.Scalar("cashadvbalamt", number()),
			aggregate.Scalar("intratepurch", number()),
			aggregate.Scalar("intratecash", number()),
			aggregate.Scalar("intratexfer", number()),
			aggregate.Scalar("mktginfo", text(360)),
		}},
		{Name: "CCSTMTTRNRS", Entries: trnrsEntries("ccstmtrs")},
		{
			Name:    "CREDITCARDMSGSRSV1",
			Members: &aggregate.Members{Kinds: []string{"CCSTMTTRNRS"}},
		},
	}
}
