package Billing

import (
	"context"
	"testing"

	"FleetDesk/Accounting"
	"FleetDesk/Models"
	"FleetDesk/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db     *gorm.DB
	svc    *Service
	client Models.ThirdParty
	driver Models.Driver
	truck  Models.Truck
	trip   Models.Trip
}

func setupTestService(t *testing.T) *fixture {
	t.Helper()
	db, err := Models.Open("sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, Models.Migrate(db))

	settings := config.DefaultSettings()
	settings.CashOpeningBalance = 10000
	f := &fixture{db: db, svc: NewService(db, settings)}

	f.client = Models.ThirdParty{Nom: "Brasseries du Cameroun", Type: Models.PartyClient}
	require.NoError(t, db.Create(&f.client).Error)
	f.driver = Models.Driver{Nom: "Ngono", Prenom: "Jean"}
	require.NoError(t, db.Create(&f.driver).Error)
	f.truck = Models.Truck{Immatriculation: "LT 001 AA"}
	require.NoError(t, db.Create(&f.truck).Error)
	f.trip = Models.Trip{
		CamionID:    f.truck.ID,
		ChauffeurID: f.driver.ID,
		ClientID:    &f.client.ID,
		Depart:      "Douala",
		Arrivee:     "Garoua",
		DateDepart:  "2026-03-01",
		Distance:    1100,
		Prix:        100000,
	}
	require.NoError(t, f.svc.SaveTrip(context.Background(), &f.trip))
	return f
}

func float(v float64) *float64 { return &v }

func (f *fixture) reloadTrip(t *testing.T) Models.Trip {
	t.Helper()
	var trip Models.Trip
	require.NoError(t, f.db.First(&trip, "id = ?", f.trip.ID).Error)
	return trip
}

func (f *fixture) invoiceTrip(t *testing.T) *Models.Invoice {
	t.Helper()
	inv, err := f.svc.CreateInvoice(context.Background(), InvoiceRequest{
		TrajetID:     &f.trip.ID,
		DateEmission: "2026-03-05",
		Remise:       float(10),
	})
	require.NoError(t, err)
	return inv
}

func TestCreateInvoiceFromTrip(t *testing.T) {
	f := setupTestService(t)

	inv := f.invoiceTrip(t)

	assert.Equal(t, "FAC-2026-0001", inv.Numero)
	assert.Equal(t, 100000.0, inv.MontantHT)
	assert.Equal(t, 90000.0, inv.NetHT)
	assert.Equal(t, 17325.0, inv.MontantTVA)
	assert.Equal(t, 107325.0, inv.MontantTTC)
	assert.Equal(t, 107325.0, inv.ResteAPayer)
	assert.Equal(t, Accounting.InvoiceUnpaid, inv.Statut)
	assert.Equal(t, f.client.ID, Models.Deref(inv.ClientID))
	assert.Equal(t, "2026-04-04", inv.DateEcheance)
	assert.Contains(t, inv.Designation, "Douala - Garoua")

	trip := f.reloadTrip(t)
	assert.True(t, trip.Facture)
	assert.Equal(t, inv.ID, Models.Deref(trip.FactureID))
	assert.Equal(t, Accounting.TripUnpaid, trip.StatutPaiement)
}

func TestCreateInvoiceValidation(t *testing.T) {
	f := setupTestService(t)
	ctx := context.Background()

	_, err := f.svc.CreateInvoice(ctx, InvoiceRequest{DateEmission: "2026-03-05"})
	assert.ErrorIs(t, err, ErrMissingAmount)

	missing := "does-not-exist"
	_, err = f.svc.CreateInvoice(ctx, InvoiceRequest{TrajetID: &missing})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.CreateInvoice(ctx, InvoiceRequest{ClientID: &missing, MontantHT: float(1000)})
	assert.ErrorIs(t, err, ErrUnknownReference)

	_, err = f.svc.CreateInvoice(ctx, InvoiceRequest{MontantHT: float(1000), Remise: float(120)})
	assert.ErrorIs(t, err, Accounting.ErrInvalidRate)
}

func TestInvoiceNumbersAreNeverReused(t *testing.T) {
	f := setupTestService(t)
	ctx := context.Background()

	first, err := f.svc.CreateInvoice(ctx, InvoiceRequest{DateEmission: "2026-01-10", MontantHT: float(5000)})
	require.NoError(t, err)
	require.NoError(t, f.svc.DeleteInvoice(ctx, first.ID))

	second, err := f.svc.CreateInvoice(ctx, InvoiceRequest{DateEmission: "2026-06-10", MontantHT: float(5000)})
	require.NoError(t, err)
	assert.Equal(t, "FAC-2026-0002", second.Numero)

	other, err := f.svc.CreateInvoice(ctx, InvoiceRequest{DateEmission: "2027-01-02", MontantHT: float(5000)})
	require.NoError(t, err)
	assert.Equal(t, "FAC-2027-0001", other.Numero)
}

func TestInvoiceNumbersSurviveBackupRestore(t *testing.T) {
	f := setupTestService(t)
	ctx := context.Background()

	_, err := f.svc.CreateInvoice(ctx, InvoiceRequest{DateEmission: "2026-01-10", MontantHT: float(5000)})
	require.NoError(t, err)
	deleted, err := f.svc.CreateInvoice(ctx, InvoiceRequest{DateEmission: "2026-01-11", MontantHT: float(5000)})
	require.NoError(t, err)
	require.NoError(t, f.svc.DeleteInvoice(ctx, deleted.ID))

	backup, err := Models.Snapshot(ctx, f.db)
	require.NoError(t, err)
	require.NoError(t, Models.Restore(ctx, f.db, backup))

	next, err := f.svc.CreateInvoice(ctx, InvoiceRequest{DateEmission: "2026-02-01", MontantHT: float(5000)})
	require.NoError(t, err)
	assert.Equal(t, "FAC-2026-0003", next.Numero)
}

func TestZeroPricedTripIsPaidOnceInvoiced(t *testing.T) {
	f := setupTestService(t)
	ctx := context.Background()

	free := Models.Trip{
		CamionID:    f.truck.ID,
		ChauffeurID: f.driver.ID,
		ClientID:    &f.client.ID,
		Depart:      "Douala",
		Arrivee:     "Edea",
		DateDepart:  "2026-03-02",
	}
	require.NoError(t, f.svc.SaveTrip(ctx, &free))

	inv, err := f.svc.CreateInvoice(ctx, InvoiceRequest{TrajetID: &free.ID, DateEmission: "2026-03-03"})
	require.NoError(t, err)
	assert.Equal(t, 0.0, inv.MontantTTC)
	assert.Equal(t, Accounting.InvoicePaid, inv.Statut)

	var trip Models.Trip
	require.NoError(t, f.db.First(&trip, "id = ?", free.ID).Error)
	assert.Equal(t, Accounting.TripPaid, trip.StatutPaiement)
}

func TestSyncTripAggregatesInvoices(t *testing.T) {
	f := setupTestService(t)
	ctx := context.Background()

	var ids []string
	for i, ht := range []float64{30000, 70000} {
		inv, err := f.svc.CreateInvoice(ctx, InvoiceRequest{
			TrajetID: &f.trip.ID, DateEmission: []string{"2026-03-04", "2026-03-05"}[i], MontantHT: float(ht),
			TVA: float(0), TPS: float(0),
		})
		require.NoError(t, err)
		ids = append(ids, inv.ID)
	}

	_, err := f.svc.RecordPayment(ctx, ids[0], &Models.Payment{Date: "2026-03-06", Montant: 30000, Mode: "virement"})
	require.NoError(t, err)
	_, err = f.svc.RecordPayment(ctx, ids[1], &Models.Payment{Date: "2026-03-07", Montant: 20000.5, Mode: "virement"})
	require.NoError(t, err)

	trip := f.reloadTrip(t)
	assert.Equal(t, Accounting.TripPartial, trip.StatutPaiement)
	assert.Equal(t, 50000.5, trip.MontantPaye)
	assert.Equal(t, ids[1], Models.Deref(trip.FactureID))

	_, err = f.svc.RecordPayment(ctx, ids[1], &Models.Payment{Date: "2026-03-08", Montant: 49999.5, Mode: "virement"})
	require.NoError(t, err)
	assert.Equal(t, Accounting.TripPaid, f.reloadTrip(t).StatutPaiement)
}

func TestPartialPaymentsSyncTrip(t *testing.T) {
	f := setupTestService(t)
	ctx := context.Background()
	inv := f.invoiceTrip(t)

	updated, err := f.svc.RecordPayment(ctx, inv.ID, &Models.Payment{Date: "2026-03-10", Montant: 50000, Mode: ModeCash})
	require.NoError(t, err)
	assert.Equal(t, 50000.0, updated.MontantPaye)
	assert.Equal(t, 57325.0, updated.ResteAPayer)
	assert.Equal(t, Accounting.InvoicePartial, updated.Statut)
	require.Len(t, updated.Paiements, 1)
	require.NotNil(t, updated.Paiements[0].CaisseID)

	trip := f.reloadTrip(t)
	assert.Equal(t, Accounting.TripPartial, trip.StatutPaiement)
	assert.Equal(t, 50000.0, trip.MontantPaye)

	var cash []Models.CashEntry
	require.NoError(t, f.db.Find(&cash).Error)
	require.Len(t, cash, 1)
	assert.Equal(t, 50000.0, cash[0].Recette)
	assert.Equal(t, updated.Paiements[0].ID, Models.Deref(cash[0].PaiementID))

	_, err = f.svc.RecordPayment(ctx, inv.ID, &Models.Payment{Date: "2026-03-11", Montant: 60000, Mode: "virement"})
	assert.ErrorIs(t, err, Accounting.ErrOverpayment)

	updated, err = f.svc.RecordPayment(ctx, inv.ID, &Models.Payment{Date: "2026-03-12", Montant: 57325, Mode: "virement"})
	require.NoError(t, err)
	assert.Equal(t, Accounting.InvoicePaid, updated.Statut)
	assert.Equal(t, 0.0, updated.ResteAPayer)
	assert.Equal(t, Accounting.TripPaid, f.reloadTrip(t).StatutPaiement)

	// Only the cash payment reached the cash book
	var count int64
	f.db.Model(&Models.CashEntry{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestDeletePaymentRemovesCashEntry(t *testing.T) {
	f := setupTestService(t)
	ctx := context.Background()
	inv := f.invoiceTrip(t)

	paid, err := f.svc.RecordPayment(ctx, inv.ID, &Models.Payment{Date: "2026-03-10", Montant: 107325, Mode: ModeCash})
	require.NoError(t, err)
	require.Equal(t, Accounting.InvoicePaid, paid.Statut)

	after, err := f.svc.DeletePayment(ctx, inv.ID, paid.Paiements[0].ID)
	require.NoError(t, err)
	assert.Equal(t, Accounting.InvoiceUnpaid, after.Statut)
	assert.Empty(t, after.Paiements)
	assert.Equal(t, Accounting.TripUnpaid, f.reloadTrip(t).StatutPaiement)

	var count int64
	f.db.Model(&Models.CashEntry{}).Count(&count)
	assert.Zero(t, count)

	_, err = f.svc.DeletePayment(ctx, inv.ID, "unknown")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCancelInvoice(t *testing.T) {
	f := setupTestService(t)
	ctx := context.Background()
	inv := f.invoiceTrip(t)

	_, err := f.svc.RecordPayment(ctx, inv.ID, &Models.Payment{Date: "2026-03-10", Montant: 1000, Mode: "cheque"})
	require.NoError(t, err)
	_, err = f.svc.CancelInvoice(ctx, inv.ID)
	assert.ErrorIs(t, err, ErrHasPayments)

	other, err := f.svc.CreateInvoice(ctx, InvoiceRequest{TrajetID: &f.trip.ID, MontantHT: float(20000), TVA: float(0)})
	require.NoError(t, err)
	cancelled, err := f.svc.CancelInvoice(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, Accounting.InvoiceCancelled, cancelled.Statut)
	assert.Equal(t, 0.0, cancelled.ResteAPayer)

	_, err = f.svc.RecordPayment(ctx, other.ID, &Models.Payment{Date: "2026-03-10", Montant: 1000, Mode: "cheque"})
	assert.ErrorIs(t, err, ErrInvoiceCancelled)

	// The cancelled invoice no longer counts toward the trip
	trip := f.reloadTrip(t)
	assert.Equal(t, inv.ID, Models.Deref(trip.FactureID))
	assert.Equal(t, Accounting.TripPartial, trip.StatutPaiement)
}

func TestUpdateInvoice(t *testing.T) {
	f := setupTestService(t)
	ctx := context.Background()
	inv := f.invoiceTrip(t)

	_, err := f.svc.RecordPayment(ctx, inv.ID, &Models.Payment{Date: "2026-03-10", Montant: 100000, Mode: "virement"})
	require.NoError(t, err)

	_, err = f.svc.UpdateInvoice(ctx, inv.ID, InvoiceRequest{Remise: float(50)})
	assert.ErrorIs(t, err, ErrTotalBelowPaid)

	updated, err := f.svc.UpdateInvoice(ctx, inv.ID, InvoiceRequest{Remise: float(0), TPS: float(2)})
	require.NoError(t, err)
	assert.Equal(t, 19250.0, updated.MontantTVA)
	assert.Equal(t, 2000.0, updated.MontantTPS)
	assert.Equal(t, 121250.0, updated.MontantTTC)
	assert.Equal(t, 21250.0, updated.ResteAPayer)
	assert.Equal(t, Accounting.InvoicePartial, updated.Statut)

	// Unlinking resets the trip
	empty := ""
	_, err = f.svc.UpdateInvoice(ctx, inv.ID, InvoiceRequest{TrajetID: &empty})
	require.NoError(t, err)
	trip := f.reloadTrip(t)
	assert.False(t, trip.Facture)
	assert.Nil(t, trip.FactureID)
	assert.Equal(t, 0.0, trip.MontantPaye)
}

func TestDeleteInvoiceResetsTrip(t *testing.T) {
	f := setupTestService(t)
	ctx := context.Background()
	inv := f.invoiceTrip(t)
	_, err := f.svc.RecordPayment(ctx, inv.ID, &Models.Payment{Date: "2026-03-10", Montant: 5000, Mode: ModeCash})
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.DeleteTrip(ctx, f.trip.ID), ErrTripHasInvoices)

	require.NoError(t, f.svc.DeleteInvoice(ctx, inv.ID))
	assert.False(t, f.reloadTrip(t).Facture)

	var payments, cash int64
	f.db.Model(&Models.Payment{}).Count(&payments)
	f.db.Model(&Models.CashEntry{}).Count(&cash)
	assert.Zero(t, payments)
	assert.Zero(t, cash)

	require.NoError(t, f.svc.DeleteTrip(ctx, f.trip.ID))
}

func TestPreview(t *testing.T) {
	f := setupTestService(t)

	totals, err := f.svc.Preview(context.Background(), InvoiceRequest{TrajetID: &f.trip.ID, Remise: float(10)})
	require.NoError(t, err)
	assert.Equal(t, 107325.0, totals.MontantTTC)

	var count int64
	f.db.Model(&Models.Invoice{}).Count(&count)
	assert.Zero(t, count)
}
