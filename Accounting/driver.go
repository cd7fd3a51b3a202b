package Accounting

import "github.com/shopspring/decimal"

// Driver transaction types
const (
	DriverAdvance   = "avance"
	DriverSalary    = "salaire"
	DriverBonus     = "prime"
	DriverDeduction = "retenue"
	DriverRepayment = "remboursement"
)

type DriverEntry struct {
	Type    string
	Montant float64
}

type DriverStatement struct {
	TotalAvances        float64 `json:"totalAvances"`
	TotalSalaires       float64 `json:"totalSalaires"`
	TotalPrimes         float64 `json:"totalPrimes"`
	TotalRetenues       float64 `json:"totalRetenues"`
	TotalRemboursements float64 `json:"totalRemboursements"`
	// What the driver still owes on advances
	SoldeDu float64 `json:"soldeDu"`
	// Everything handed to the driver
	TotalVerse float64 `json:"totalVerse"`
}

func BuildDriverStatement(entries []DriverEntry) DriverStatement {
	totals := map[string]decimal.Decimal{}
	for _, e := range entries {
		totals[e.Type] = totals[e.Type].Add(decimal.NewFromFloat(e.Montant))
	}

	owed := totals[DriverAdvance].Sub(totals[DriverRepayment]).Sub(totals[DriverDeduction])
	paid := totals[DriverAdvance].Add(totals[DriverSalary]).Add(totals[DriverBonus])

	return DriverStatement{
		TotalAvances:        totals[DriverAdvance].InexactFloat64(),
		TotalSalaires:       totals[DriverSalary].InexactFloat64(),
		TotalPrimes:         totals[DriverBonus].InexactFloat64(),
		TotalRetenues:       totals[DriverDeduction].InexactFloat64(),
		TotalRemboursements: totals[DriverRepayment].InexactFloat64(),
		SoldeDu:             owed.InexactFloat64(),
		TotalVerse:          paid.InexactFloat64(),
	}
}
