package models

import "github.com/zjrosen/ofxkit/internal/aggregate"

func signonKinds() []*aggregate.Kind {
	return []*aggregate.Kind{
		{Name: "STATUS", Entries: []aggregate.Entry{
			aggregate.Scalar("code", integer(6, req())),
			aggregate.Scalar("severity", oneOf(Severities, req())),
			aggregate.Scalar("message", text(255)),
		}},
		{Name: "FI", Entries: []aggregate.Entry{
			aggregate.Scalar("org", text(32, req())),
			aggregate.Scalar("fid", text(32)),
		}},
		{Name: "SONRS", Entries: []aggregate.Entry{
			aggregate.Include("STATUS", aggregate.Required()),
			aggregate.Scalar("dtserver", datetime(req())),
			aggregate.Scalar("userkey", text(64)),
			aggregate.Scalar("tskeyexpire", datetime()),
			aggregate.Scalar("language", text(3)),
			aggregate.Scalar("dtprofup", datetime()),
			aggregate.Scalar("dtacctup", datetime()),
			aggregate.Include("FI"),
			aggregate.Scalar("sesscookie", text(1000)),
			aggregate.Scalar("accesskey", text(1000)),
		}},
		{Name: "SIGNONMSGSRSV1", Entries: []aggregate.Entry{
			aggregate.Sub("sonrs", aggregate.Required()),
		}},
	}
}

// trnrsEntries wraps the response of a *TRNRS transaction wrapper with its
// transaction id and status.
func trnrsEntries(response string) []aggregate.Entry {
	return []aggregate.Entry{
		aggregate.Scalar("trnuid", text(36, req())),
		aggregate.Include("STATUS", aggregate.Required()),
		aggregate.Scalar("cltcookie", text(32)),
		aggregate.Sub(response),
	}
}
