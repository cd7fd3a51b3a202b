package Accounting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeInvoiceDiscountAndTVA(t *testing.T) {
	totals, err := ComputeInvoice(InvoiceInput{MontantHT: 100000, Remise: 10, TVA: 19.25})
	require.NoError(t, err)

	assert.Equal(t, 100000.0, totals.MontantHT)
	assert.Equal(t, 10000.0, totals.MontantRemise)
	assert.Equal(t, 90000.0, totals.NetHT)
	assert.Equal(t, 17325.0, totals.MontantTVA)
	assert.Equal(t, 0.0, totals.MontantTPS)
	assert.Equal(t, 107325.0, totals.MontantTTC)
}

func TestComputeInvoiceTVAAndTPSOnNet(t *testing.T) {
	totals, err := ComputeInvoice(InvoiceInput{MontantHT: 250000, TVA: 19.25, TPS: 2.2})
	require.NoError(t, err)

	assert.Equal(t, 250000.0, totals.NetHT)
	assert.Equal(t, 48125.0, totals.MontantTVA)
	assert.Equal(t, 5500.0, totals.MontantTPS)
	assert.Equal(t, 303625.0, totals.MontantTTC)
}

func TestComputeInvoiceRoundsEachComponent(t *testing.T) {
	// 33 333 * 19.25% = 6416.60 -> 6417
	totals, err := ComputeInvoice(InvoiceInput{MontantHT: 33333, TVA: 19.25})
	require.NoError(t, err)

	assert.Equal(t, 6417.0, totals.MontantTVA)
	assert.Equal(t, totals.NetHT+totals.MontantTVA+totals.MontantTPS, totals.MontantTTC)

	// half a franc of discount rounds away from zero
	totals, err = ComputeInvoice(InvoiceInput{MontantHT: 1005, Remise: 50})
	require.NoError(t, err)
	assert.Equal(t, 503.0, totals.MontantRemise)
	assert.Equal(t, 502.0, totals.NetHT)
}

func TestComputeInvoiceRejectsBadInput(t *testing.T) {
	_, err := ComputeInvoice(InvoiceInput{MontantHT: -1})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	for _, in := range []InvoiceInput{
		{MontantHT: 10, Remise: -5},
		{MontantHT: 10, Remise: 101},
		{MontantHT: 10, TVA: 150},
		{MontantHT: 10, TPS: -0.5},
	} {
		_, err := ComputeInvoice(in)
		assert.ErrorIs(t, err, ErrInvalidRate, "%+v", in)
	}
}

func TestComputeInvoiceFullDiscount(t *testing.T) {
	totals, err := ComputeInvoice(InvoiceInput{MontantHT: 80000, Remise: 100, TVA: 19.25})
	require.NoError(t, err)
	assert.Equal(t, 0.0, totals.MontantTTC)
}

func TestSum(t *testing.T) {
	assert.Equal(t, 0.3, Sum(0.1, 0.2))
	assert.Equal(t, 0.0, Sum())
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 25.0, Percent(25000, 100000))
	assert.Equal(t, 33.33, Percent(1, 3))
	assert.Equal(t, 0.0, Percent(10, 0))
}
