package Accounting

import "github.com/shopspring/decimal"

// Invoice states
const (
	InvoiceUnpaid    = "impayee"
	InvoicePartial   = "partielle"
	InvoicePaid      = "payee"
	InvoiceCancelled = "annulee"
)

// Trip payment states
const (
	TripUnpaid  = "non_paye"
	TripPartial = "partiel"
	TripPaid    = "paye"
)

// InvoiceStatus derives the state of an invoice from what has been paid.
// A zero-value invoice counts as paid once issued.
func InvoiceStatus(ttc, paid float64, cancelled bool) string {
	if cancelled {
		return InvoiceCancelled
	}
	switch compare(paid, ttc) {
	case 1, 0:
		return InvoicePaid
	}
	if paid > 0 {
		return InvoicePartial
	}
	return InvoiceUnpaid
}

// TripPaymentStatus derives the payment state of an invoiced trip. Like
// InvoiceStatus, nothing due means paid.
func TripPaymentStatus(due, paid float64) string {
	if compare(paid, due) >= 0 {
		return TripPaid
	}
	if paid > 0 {
		return TripPartial
	}
	return TripUnpaid
}

// ValidatePayment checks a new payment against what is left to pay.
func ValidatePayment(ttc, alreadyPaid, amount float64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	remaining := decimal.NewFromFloat(ttc).Sub(decimal.NewFromFloat(alreadyPaid))
	if decimal.NewFromFloat(amount).GreaterThan(remaining) {
		return ErrOverpayment
	}
	return nil
}

// Outstanding is never negative.
func Outstanding(ttc, paid float64) float64 {
	rest := decimal.NewFromFloat(ttc).Sub(decimal.NewFromFloat(paid))
	if rest.IsNegative() {
		return 0
	}
	return rest.InexactFloat64()
}

func compare(a, b float64) int {
	return decimal.NewFromFloat(a).Cmp(decimal.NewFromFloat(b))
}
