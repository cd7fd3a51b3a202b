package Models

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedBackupData(t *testing.T) *Backup {
	t.Helper()
	db := setupTestDB(t)

	client := ThirdParty{Nom: "SOCAPALM", Type: PartyClient}
	require.NoError(t, db.Create(&client).Error)
	driver := Driver{Nom: "Essomba"}
	require.NoError(t, db.Create(&driver).Error)
	truck := Truck{Immatriculation: "LT 777 AA", ChauffeurID: &driver.ID}
	require.NoError(t, db.Create(&truck).Error)
	trip := Trip{CamionID: truck.ID, ChauffeurID: driver.ID, ClientID: &client.ID, Depart: "Douala", Arrivee: "Yaoundé", DateDepart: "2026-03-01", Prix: 100000}
	require.NoError(t, db.Create(&trip).Error)
	invoice := Invoice{Numero: "FAC-2026-0001", TrajetID: &trip.ID, DateEmission: "2026-03-02", MontantHT: 100000, MontantTTC: 119250}
	require.NoError(t, db.Create(&invoice).Error)
	payment := Payment{FactureID: invoice.ID, Date: "2026-03-10", Montant: 50000, Mode: "virement"}
	require.NoError(t, db.Create(&payment).Error)
	require.NoError(t, db.Create(&CashEntry{Date: "2026-03-10", Libelle: "Apport", Recette: 20000}).Error)

	backup, err := Snapshot(context.Background(), db)
	require.NoError(t, err)
	return backup
}

func TestSnapshotReadsEveryCollection(t *testing.T) {
	backup := seedBackupData(t)

	counts := backup.Data.Counts()
	assert.Equal(t, 1, counts["thirdParties"])
	assert.Equal(t, 1, counts["trucks"])
	assert.Equal(t, 1, counts["trips"])
	assert.Equal(t, 1, counts["invoices"])
	assert.Equal(t, 1, counts["payments"])
	assert.Equal(t, 1, counts["cashEntries"])
	assert.Equal(t, BackupVersion, backup.Version)
}

func TestRestoreReplacesContent(t *testing.T) {
	backup := seedBackupData(t)

	// Round trip through JSON like a downloaded file
	raw, err := json.Marshal(backup)
	require.NoError(t, err)
	var decoded Backup
	require.NoError(t, json.Unmarshal(raw, &decoded))
	// a duplicated record in the file
	decoded.Data.Trucks = append(decoded.Data.Trucks, decoded.Data.Trucks[0])

	target := setupTestDB(t)
	require.NoError(t, target.Create(&Truck{Immatriculation: "TO BE WIPED"}).Error)

	require.NoError(t, Restore(context.Background(), target, &decoded))

	var trucks []Truck
	require.NoError(t, target.Find(&trucks).Error)
	require.Len(t, trucks, 1)
	assert.Equal(t, "LT 777 AA", trucks[0].Immatriculation)

	var invoice Invoice
	require.NoError(t, target.Preload("Paiements").First(&invoice).Error)
	assert.Equal(t, "FAC-2026-0001", invoice.Numero)
	require.Len(t, invoice.Paiements, 1)
	assert.Equal(t, 50000.0, invoice.Paiements[0].Montant)
}

func TestRestoreOntoItsOwnDatabase(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, db.Create(&ThirdParty{Nom: "Dangote", Type: PartyClient}).Error)
	require.NoError(t, db.Create(&Truck{Immatriculation: "OU 123 AB"}).Error)
	require.NoError(t, db.Create(&Truck{Immatriculation: "NW 456 CD"}).Error)

	backup, err := Snapshot(context.Background(), db)
	require.NoError(t, err)
	require.NoError(t, Restore(context.Background(), db, backup))

	var trucks, parties int64
	db.Model(&Truck{}).Count(&trucks)
	db.Model(&ThirdParty{}).Count(&parties)
	assert.Equal(t, int64(2), trucks)
	assert.Equal(t, int64(1), parties)
}

func TestRestoreKeepsDeletedInvoicesAndDismissedAlerts(t *testing.T) {
	db := setupTestDB(t)
	invoice := Invoice{Numero: "FAC-2026-0007", DateEmission: "2026-02-01", MontantHT: 1000, MontantTTC: 1000}
	require.NoError(t, db.Create(&invoice).Error)
	require.NoError(t, db.Delete(&invoice).Error)
	alert := Notification{Type: NotifyInsurance, Reference: "truck-1", DateEcheance: "2026-03-01", Message: "Assurance"}
	require.NoError(t, db.Create(&alert).Error)
	require.NoError(t, db.Delete(&alert).Error)

	backup, err := Snapshot(context.Background(), db)
	require.NoError(t, err)
	assert.Empty(t, backup.Data.Invoices)
	require.Len(t, backup.Data.DeletedInvoices, 1)
	require.Len(t, backup.Data.DismissedAlerts, 1)

	raw, err := json.Marshal(backup)
	require.NoError(t, err)
	var decoded Backup
	require.NoError(t, json.Unmarshal(raw, &decoded))

	target := setupTestDB(t)
	require.NoError(t, Restore(context.Background(), target, &decoded))

	var live int64
	target.Model(&Invoice{}).Count(&live)
	assert.Zero(t, live)

	var archived Invoice
	require.NoError(t, target.Unscoped().First(&archived, "numero = ?", "FAC-2026-0007").Error)
	assert.True(t, archived.DeletedAt.Valid)

	// The same alert cannot be raised again
	again := Notification{Type: NotifyInsurance, Reference: "truck-1", DateEcheance: "2026-03-01"}
	assert.Error(t, target.Create(&again).Error)
}

func TestRestoreRejectsNewerVersion(t *testing.T) {
	db := setupTestDB(t)
	err := Restore(context.Background(), db, &Backup{Version: BackupVersion + 1})
	assert.Error(t, err)
}

func TestWriteSnapshotFile(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, db.Create(&ThirdParty{Nom: "Total", Type: PartySupplier}).Error)

	path, err := WriteSnapshotFile(context.Background(), db, t.TempDir())
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var backup Backup
	require.NoError(t, json.Unmarshal(raw, &backup))
	require.Len(t, backup.Data.ThirdParties, 1)
	assert.Equal(t, "Total", backup.Data.ThirdParties[0].Nom)
}
