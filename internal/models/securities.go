package models

import "github.com/zjrosen/ofxkit/internal/aggregate"

// yieldRename maps the wire tag YIELD onto the declared field yld.
var yieldRename = map[string]string{"YIELD": "YLD"}

func securityKinds() []*aggregate.Kind {
	return []*aggregate.Kind{
		{Name: "SECID", Entries: []aggregate.Entry{
			aggregate.Scalar("uniqueid", text(32, req())),
			aggregate.Scalar("uniqueidtype", text(10, req())),
		}},
		{Name: "SECINFO", Entries: []aggregate.Entry{
			aggregate.Sub("secid", aggregate.Required()),
			aggregate.Scalar("secname", text(120, req())),
			aggregate.Scalar("ticker", text(32)),
			aggregate.Scalar("fiid", text(32)),
			aggregate.Scalar("rating", text(10)),
			aggregate.Scalar("unitprice", number()),
			aggregate.Scalar("dtasof", datetime()),
			aggregate.Include("CURRENCY"),
			aggregate.Scalar("memo", text(255)),
		}},
		{Name: "DEBTINFO", Entries: []aggregate.Entry{
			aggregate.Sub("secinfo", aggregate.Required()),
			aggregate.Scalar("parvalue", number(req())),
			aggregate.Scalar("debttype", oneOf([]string{"COUPON", "ZERO"}, req())),
			aggregate.Scalar("debtclass", oneOf([]string{"TREASURY", "MUNICIPAL", "CORPORATE", "OTHER"})),
			aggregate.Scalar("couponrt", number()),
			aggregate.Scalar("dtcoupon", datetime()),
			aggregate.Scalar("couponfreq", oneOf([]string{"MONTHLY", "QUARTERLY", "SEMIANNUAL", "ANNUAL", "OTHER"})),
			aggregate.Scalar("callprice", number()),
			aggregate.Scalar("yieldtocall", number()),
			aggregate.Scalar("dtcall", datetime()),
			aggregate.Scalar("calltype", oneOf([]string{"CALL", "PUT", "PREFUND", "MATURITY"})),
			aggregate.Scalar("yieldtomat", number()),
			aggregate.Scalar("dtmat", datetime()),
			aggregate.Scalar("assetclass", oneOf(AssetClasses)),
			aggregate.Scalar("fiassetclass", text(32)),
		}},
		{Name: "PORTION", Entries: []aggregate.Entry{
			aggregate.Scalar("assetclass", oneOf(AssetClasses, req())),
			aggregate.Scalar("percent", number(req())),
		}},
		{Name: "FIPORTION", Entries: []aggregate.Entry{
			aggregate.Scalar("fiassetclass", text(32, req())),
			aggregate.Scalar("percent", number(req())),
		}},
		{
			Name: "MFINFO",
			Entries: []aggregate.Entry{
				aggregate.Sub("secinfo", aggregate.Required()),
				aggregate.Scalar("mftype", oneOf([]string{"OPENEND", "CLOSEEND", "OTHER"})),
				aggregate.Scalar("yld", number()),
				aggregate.Scalar("dtyieldasof", datetime()),
				aggregate.List("mfassetclass", aggregate.Kinds("PORTION")),
				aggregate.List("fimfassetclass", aggregate.Kinds("FIPORTION")),
			},
			Renames: yieldRename,
		},
		{Name: "OPTINFO", Entries: []aggregate.Entry{
			aggregate.Sub("secinfo", aggregate.Required()),
			aggregate.Scalar("opttype", oneOf([]string{"CALL", "PUT"}, req())),
			aggregate.Scalar("strikeprice", number(req())),
			aggregate.Scalar("dtexpire", datetime(req())),
			aggregate.Scalar("shperctrct", integer(0, req())),
			aggregate.Sub("secid"),
			aggregate.Scalar("assetclass", oneOf(AssetClasses)),
			aggregate.Scalar("fiassetclass", text(32)),
		}},
		{Name: "OTHERINFO", Entries: []aggregate.Entry{
			aggregate.Sub("secinfo", aggregate.Required()),
			aggregate.Scalar("typedesc", text(32)),
			aggregate.Scalar("assetclass", oneOf(AssetClasses)),
			aggregate.Scalar("fiassetclass", text(32)),
		}},
		{
			Name: "STOCKINFO",
			Entries: []aggregate.Entry{
				aggregate.Sub("secinfo", aggregate.Required()),
				aggregate.Scalar("stocktype", oneOf([]string{"COMMON", "PREFERRED", "CONVERTIBLE", "OTHER"})),
				aggregate.Scalar("yld", number()),
				aggregate.Scalar("dtyieldasof", datetime()),
				aggregate.Scalar("typedesc", text(32)),
				aggregate.Scalar("assetclass", oneOf(AssetClasses)),
				aggregate.Scalar("fiassetclass", text(32)),
			},
			Renames: yieldRename,
		},
		{
			Name:    "SECLIST",
			Members: &aggregate.Members{Kinds: []string{"DEBTINFO", "MFINFO", "OPTINFO", "OTHERINFO", "STOCKINFO"}},
		},
		{Name: "SECLISTMSGSRSV1", Entries: []aggregate.Entry{
			aggregate.Sub("seclist"),
		}},
	}
}
