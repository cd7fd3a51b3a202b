package Alerts

import (
	"context"
	"testing"
	"time"

	"FleetDesk/Accounting"
	"FleetDesk/Models"
	"FleetDesk/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupScanner(t *testing.T) (*Scanner, *gorm.DB) {
	t.Helper()
	db, err := Models.Open("sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, Models.Migrate(db))

	scanner := NewScanner(db, config.DefaultSettings(), config.SMTPConfig{})
	scanner.Now = func() time.Time { return time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC) }
	return scanner, db
}

func TestScanRaisesEachAlertOnce(t *testing.T) {
	scanner, db := setupScanner(t)

	require.NoError(t, db.Create(&Models.Truck{Immatriculation: "LT 1", DateAssurance: "2026-03-20", DateVisiteTechnique: "2026-09-01"}).Error)
	require.NoError(t, db.Create(&Models.Truck{Immatriculation: "LT 2", DateAssurance: "2026-02-01", Statut: Models.TruckInactive}).Error)
	require.NoError(t, db.Create(&Models.Driver{Nom: "Abena", DateExpirationPermis: "2026-02-15"}).Error)
	require.NoError(t, db.Create(&Models.Invoice{Numero: "FAC-2026-0001", DateEmission: "2026-01-01", DateEcheance: "2026-01-31", MontantTTC: 5000, ResteAPayer: 5000, Statut: Accounting.InvoiceUnpaid}).Error)
	require.NoError(t, db.Create(&Models.Invoice{Numero: "FAC-2026-0002", DateEmission: "2026-01-01", DateEcheance: "2026-01-31", Statut: Accounting.InvoicePaid}).Error)

	created, err := scanner.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, created, 3)

	kinds := map[string]string{}
	for _, n := range created {
		kinds[n.Type] = n.Message
	}
	assert.Equal(t, "L'assurance du camion LT 1 expire le 20/03/2026", kinds[Models.NotifyInsurance])
	assert.Equal(t, "Le permis de Abena a expiré le 15/02/2026", kinds[Models.NotifyLicence])
	assert.Equal(t, "La facture FAC-2026-0001 est échue depuis le 31/01/2026, reste à payer 5 000 FCFA", kinds[Models.NotifyOverdue])

	again, err := scanner.Scan(context.Background())
	require.NoError(t, err)
	assert.Empty(t, again)

	var count int64
	db.Model(&Models.Notification{}).Count(&count)
	assert.Equal(t, int64(3), count)
}

func TestDigest(t *testing.T) {
	msg := Digest("FleetDesk", []string{"chef@x.cm"}, []Models.Notification{{Message: "A"}, {Message: "B"}})
	assert.Equal(t, []string{"chef@x.cm"}, msg.To)
	assert.Contains(t, msg.Body, "2 nouvelle(s) alerte(s)")
	assert.Contains(t, msg.Body, "- B\n")
}
