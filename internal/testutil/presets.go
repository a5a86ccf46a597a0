package testutil

import "time"

// WithStandardStatement adds three transactions: a check, a deposit and a
// card purchase made abroad. The ledger balance is their sum.
func (b *Builder) WithStandardStatement() *Builder {
	return b.
		WithTransaction("T1001",
			TrnType("CHECK"), Amount("-200.00"), CheckNum("1000"),
			Posted(time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC))).
		WithTransaction("T1002",
			TrnType("DEP"), Amount("1500.00"), Name("Payroll"),
			Posted(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))).
		WithTransaction("T1003",
			TrnType("POS"), Amount("-42.50"), Name("Corner Cafe"), Memo("card 1234"),
			OrigCurrency("1.0850", "EUR"),
			Posted(time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)),
			UserDate(time.Date(2024, 1, 19, 0, 0, 0, 0, time.UTC))).
		WithBalance("1257.50")
}
