package Billing

import (
	"context"
	"testing"

	"FleetDesk/Models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruckProfitability(t *testing.T) {
	f := setupTestService(t)
	ctx := context.Background()

	cancelled := Models.Trip{CamionID: f.truck.ID, ChauffeurID: f.driver.ID, Depart: "A", Arrivee: "B", DateDepart: "2026-03-04", Prix: 999999, Statut: Models.TripCancelled}
	require.NoError(t, f.svc.SaveTrip(ctx, &cancelled))
	require.NoError(t, f.svc.SaveExpense(ctx, &Models.Expense{CamionID: &f.truck.ID, Categorie: "carburant", Montant: 30000, Date: "2026-03-02"}))
	require.NoError(t, f.svc.SaveExpense(ctx, &Models.Expense{CamionID: &f.truck.ID, Categorie: "peage", Montant: 5000, Date: "2026-03-03"}))
	require.NoError(t, f.svc.SaveExpense(ctx, &Models.Expense{CamionID: &f.truck.ID, Categorie: "peage", Montant: 7000, Date: "2025-12-31"}))

	profits, err := f.svc.TruckProfitability(ctx, f.truck.ID, "2026-01-01", "")
	require.NoError(t, err)
	require.Len(t, profits, 1)

	p := profits[0]
	assert.Equal(t, 1, p.NombreTrajets)
	assert.Equal(t, 100000.0, p.Revenus)
	assert.Equal(t, 35000.0, p.Depenses)
	assert.Equal(t, 65000.0, p.Marge)
	assert.Equal(t, 65.0, p.MargePct)
	assert.Equal(t, 5000.0, p.ParCategorie["peage"])

	_, err = f.svc.TruckProfitability(ctx, "missing", "", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStatementAndTopClients(t *testing.T) {
	f := setupTestService(t)
	ctx := context.Background()
	inv := f.invoiceTrip(t)
	_, err := f.svc.RecordPayment(ctx, inv.ID, &Models.Payment{Date: "2026-03-10", Montant: 7325, Mode: "virement"})
	require.NoError(t, err)

	statement, err := f.svc.Statement(ctx, f.client.ID, "", "")
	require.NoError(t, err)
	require.Len(t, statement.Factures, 1)
	assert.Equal(t, 107325.0, statement.TotalFacture)
	assert.Equal(t, 7325.0, statement.TotalEncaisse)
	assert.Equal(t, 100000.0, statement.SoldeClient)
	assert.Empty(t, statement.Depenses)

	top, err := f.svc.TopClients(ctx, "", "", 5)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "Brasseries du Cameroun", top[0].Nom)
	assert.Equal(t, 1, top[0].Factures)
}
