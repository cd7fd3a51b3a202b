// Package Accounting holds the arithmetic of the back office: invoice totals,
// payment states, the cash journal and driver statements. Nothing here touches
// the database.
package Accounting

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount = errors.New("amount must be positive")
	ErrInvalidRate   = errors.New("rate must be between 0 and 100")
	ErrOverpayment   = errors.New("payment exceeds the amount due")
)

var hundred = decimal.NewFromInt(100)

// InvoiceInput carries the amount before tax and the percentages entered on
// the invoice form.
type InvoiceInput struct {
	MontantHT float64
	Remise    float64
	TVA       float64
	TPS       float64
}

type InvoiceTotals struct {
	MontantHT     float64 `json:"montantHT"`
	MontantRemise float64 `json:"montantRemise"`
	NetHT         float64 `json:"netHT"`
	MontantTVA    float64 `json:"montantTVA"`
	MontantTPS    float64 `json:"montantTPS"`
	MontantTTC    float64 `json:"montantTTC"`
}

// ComputeInvoice applies the discount on HT, then TVA and TPS on the net
// amount. Each component is rounded to the franc so the stored parts always
// add up to TTC.
func ComputeInvoice(in InvoiceInput) (InvoiceTotals, error) {
	if in.MontantHT < 0 {
		return InvoiceTotals{}, ErrInvalidAmount
	}
	for _, rate := range []float64{in.Remise, in.TVA, in.TPS} {
		if rate < 0 || rate > 100 {
			return InvoiceTotals{}, ErrInvalidRate
		}
	}

	ht := roundFranc(decimal.NewFromFloat(in.MontantHT))
	remise := roundFranc(percentOf(ht, in.Remise))
	net := ht.Sub(remise)
	tva := roundFranc(percentOf(net, in.TVA))
	tps := roundFranc(percentOf(net, in.TPS))
	ttc := net.Add(tva).Add(tps)

	return InvoiceTotals{
		MontantHT:     ht.InexactFloat64(),
		MontantRemise: remise.InexactFloat64(),
		NetHT:         net.InexactFloat64(),
		MontantTVA:    tva.InexactFloat64(),
		MontantTPS:    tps.InexactFloat64(),
		MontantTTC:    ttc.InexactFloat64(),
	}, nil
}

func percentOf(amount decimal.Decimal, rate float64) decimal.Decimal {
	return amount.Mul(decimal.NewFromFloat(rate)).Div(hundred)
}

// FCFA has no minor unit.
func roundFranc(d decimal.Decimal) decimal.Decimal {
	return d.Round(0)
}

// Sum adds amounts without float drift.
func Sum(amounts ...float64) float64 {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(decimal.NewFromFloat(a))
	}
	return total.InexactFloat64()
}

// Percent returns part/whole as a percentage with two decimals, 0 when whole is 0.
func Percent(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return decimal.NewFromFloat(part).Mul(hundred).Div(decimal.NewFromFloat(whole)).Round(2).InexactFloat64()
}
