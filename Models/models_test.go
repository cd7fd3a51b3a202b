package Models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// setupTestDB opens an in-memory SQLite database with every table migrated.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open("sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	return db
}

func TestBaseGeneratesID(t *testing.T) {
	db := setupTestDB(t)

	truck := Truck{Immatriculation: "LT 123 AB"}
	require.NoError(t, db.Create(&truck).Error)
	assert.Len(t, truck.ID, 36)

	kept := Truck{Base: Base{ID: "fixed-id"}, Immatriculation: "CE 456 CD"}
	require.NoError(t, db.Create(&kept).Error)
	assert.Equal(t, "fixed-id", kept.ID)
}

func TestUniqueByID(t *testing.T) {
	items := []Truck{
		{Base: Base{ID: "a"}, Immatriculation: "old"},
		{Base: Base{ID: "b"}, Immatriculation: "b"},
		{Immatriculation: "no id"},
		{Base: Base{ID: "a"}, Immatriculation: "new"},
	}

	out := UniqueByID(items)
	require.Len(t, out, 3)
	assert.Equal(t, "a", out[0].ID)
	assert.Equal(t, "new", out[0].Immatriculation)
	assert.Equal(t, "b", out[1].ID)
	assert.Equal(t, "no id", out[2].Immatriculation)
}

func TestDriverTransactions(t *testing.T) {
	db := setupTestDB(t)

	driver := Driver{Nom: "Mbarga", Prenom: "Paul"}
	list, err := driver.TransactionList()
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, driver.SetTransactionList([]DriverTransaction{
		{ID: "t1", Date: "2026-02-01", Type: "avance", Montant: 30000},
		{ID: "t2", Date: "2026-02-15", Type: "retenue", Montant: 10000},
		{ID: "t1", Date: "2026-02-01", Type: "avance", Montant: 35000},
	}))
	require.NoError(t, db.Create(&driver).Error)

	var loaded Driver
	require.NoError(t, db.First(&loaded, "id = ?", driver.ID).Error)
	list, err = loaded.TransactionList()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 35000.0, list[0].Montant)

	statement, err := loaded.Statement()
	require.NoError(t, err)
	assert.Equal(t, 25000.0, statement.SoldeDu)
	assert.Equal(t, "Paul Mbarga", loaded.FullName())
}

func TestUserPasswordAndPermission(t *testing.T) {
	user := User{Nom: "Awa", Email: "awa@fleetdesk.cm", Role: RoleAccountant}
	require.NoError(t, user.SetPassword("motdepasse"))

	assert.True(t, user.CheckPassword("motdepasse"))
	assert.False(t, user.CheckPassword("autre"))
	assert.Equal(t, 3, user.Permission())
	assert.Equal(t, 0, User{Role: "inconnu"}.Permission())
	assert.True(t, ValidRole(RoleAdmin))
	assert.False(t, ValidRole("superuser"))
}

func TestEnsureAdmin(t *testing.T) {
	db := setupTestDB(t)

	assert.Error(t, EnsureAdmin(db, "admin@x.cm", ""))
	require.NoError(t, EnsureAdmin(db, "admin@x.cm", "secret"))
	require.NoError(t, EnsureAdmin(db, "other@x.cm", "secret"))

	var users []User
	require.NoError(t, db.Find(&users).Error)
	require.Len(t, users, 1)
	assert.Equal(t, RoleAdmin, users[0].Role)
}

func TestNotificationHashDeduplicates(t *testing.T) {
	db := setupTestDB(t)

	first := Notification{Type: NotifyInsurance, Reference: "truck-1", DateEcheance: "2026-05-01"}
	require.NoError(t, db.Create(&first).Error)
	assert.NotEmpty(t, first.Hash)

	again := Notification{Type: NotifyInsurance, Reference: "truck-1", DateEcheance: "2026-05-01"}
	assert.Error(t, db.Create(&again).Error)
}
