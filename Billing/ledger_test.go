package Billing

import (
	"context"
	"testing"

	"FleetDesk/Accounting"
	"FleetDesk/Models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCashExpenseIsMirrored(t *testing.T) {
	f := setupTestService(t)
	ctx := context.Background()

	expense := &Models.Expense{
		CamionID:     &f.truck.ID,
		Categorie:    "carburant",
		Montant:      45000,
		Date:         "2026-03-02",
		Description:  "Plein Douala",
		ModePaiement: ModeCash,
	}
	require.NoError(t, f.svc.SaveExpense(ctx, expense))
	require.NotNil(t, expense.CaisseID)

	var entry Models.CashEntry
	require.NoError(t, f.db.First(&entry, "id = ?", *expense.CaisseID).Error)
	assert.Equal(t, 45000.0, entry.Depense)
	assert.Equal(t, "Dépense carburant : Plein Douala", entry.Libelle)

	expense.Montant = 50000
	require.NoError(t, f.svc.SaveExpense(ctx, expense))
	require.NoError(t, f.db.First(&entry, "id = ?", *expense.CaisseID).Error)
	assert.Equal(t, 50000.0, entry.Depense)

	// Linked lines are read-only from the cash book
	assert.ErrorIs(t, f.svc.DeleteCashEntry(ctx, entry.ID), ErrLinkedCashEntry)

	expense.ModePaiement = "virement"
	require.NoError(t, f.svc.SaveExpense(ctx, expense))
	assert.Nil(t, expense.CaisseID)
	var count int64
	f.db.Model(&Models.CashEntry{}).Count(&count)
	assert.Zero(t, count)
}

func TestSaveExpenseChecksReferences(t *testing.T) {
	f := setupTestService(t)
	missing := "nope"
	err := f.svc.SaveExpense(context.Background(), &Models.Expense{
		FournisseurID: &missing, Categorie: "autre", Montant: 10, Date: "2026-01-01",
	})
	assert.ErrorIs(t, err, ErrUnknownReference)
}

func TestJournalRunningBalance(t *testing.T) {
	f := setupTestService(t)
	ctx := context.Background()

	entries := []Models.CashEntry{
		{Date: "2026-02-20", Libelle: "Apport", Recette: 5000},
		{Date: "2026-03-02", Libelle: "Péage", Depense: 3000},
		{Date: "2026-03-01", Libelle: "Encaissement", Recette: 20000},
		{Date: "2026-04-01", Libelle: "Hors période", Recette: 1},
	}
	for i := range entries {
		require.NoError(t, f.svc.SaveCashEntry(ctx, &entries[i]))
	}

	journal, err := f.svc.Journal(ctx, "2026-03-01", "2026-03-31")
	require.NoError(t, err)

	assert.Equal(t, 15000.0, journal.SoldeInitial)
	require.Len(t, journal.Lignes, 2)
	assert.Equal(t, "Encaissement", journal.Lignes[0].Libelle)
	assert.Equal(t, 35000.0, journal.Lignes[0].Solde)
	assert.Equal(t, 32000.0, journal.Lignes[1].Solde)
	assert.Equal(t, 32000.0, journal.SoldeFinal)

	err = f.svc.SaveCashEntry(ctx, &Models.CashEntry{Date: "2026-03-03", Libelle: "x", Recette: 1, Depense: 1})
	assert.ErrorIs(t, err, Accounting.ErrBothSides)
}

func TestSaveCashEntryUpdate(t *testing.T) {
	f := setupTestService(t)
	ctx := context.Background()

	entry := &Models.CashEntry{Date: "2026-03-01", Libelle: "Apport", Recette: 5000}
	require.NoError(t, f.svc.SaveCashEntry(ctx, entry))

	entry.Recette = 0
	entry.Depense = 700
	require.NoError(t, f.svc.SaveCashEntry(ctx, entry))

	var stored Models.CashEntry
	require.NoError(t, f.db.First(&stored, "id = ?", entry.ID).Error)
	assert.Equal(t, 700.0, stored.Depense)
	assert.Equal(t, 0.0, stored.Recette)

	require.NoError(t, f.svc.DeleteCashEntry(ctx, entry.ID))
	assert.ErrorIs(t, f.svc.DeleteCashEntry(ctx, entry.ID), ErrNotFound)
}

func TestSaveTripKeepsInvoiceFields(t *testing.T) {
	f := setupTestService(t)
	ctx := context.Background()
	inv := f.invoiceTrip(t)

	trip := f.reloadTrip(t)
	trip.Facture = false
	trip.FactureID = nil
	trip.Statut = Models.TripDone
	trip.Notes = "Livré"
	require.NoError(t, f.svc.SaveTrip(ctx, &trip))

	stored := f.reloadTrip(t)
	assert.Equal(t, Models.TripDone, stored.Statut)
	assert.Equal(t, "Livré", stored.Notes)
	assert.True(t, stored.Facture)
	assert.Equal(t, inv.ID, Models.Deref(stored.FactureID))

	bad := Models.Trip{CamionID: "x", ChauffeurID: f.driver.ID, Depart: "A", Arrivee: "B", DateDepart: "2026-01-01"}
	assert.ErrorIs(t, f.svc.SaveTrip(ctx, &bad), ErrUnknownReference)
}
