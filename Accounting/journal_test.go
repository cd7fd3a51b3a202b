package Accounting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateMovement(t *testing.T) {
	assert.NoError(t, ValidateMovement(5000, 0))
	assert.NoError(t, ValidateMovement(0, 5000))
	assert.ErrorIs(t, ValidateMovement(5000, 2000), ErrBothSides)
	assert.ErrorIs(t, ValidateMovement(0, 0), ErrNoAmount)
	assert.ErrorIs(t, ValidateMovement(-1, 0), ErrInvalidAmount)
}

func TestBuildJournalRunningBalance(t *testing.T) {
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	movements := []Movement{
		{ID: "c", Date: "2026-03-05", Seq: base.Add(3 * time.Hour), Libelle: "Gasoil", Depense: 40000},
		{ID: "a", Date: "2026-03-01", Seq: base, Libelle: "Règlement FAC-2026-0001", Recette: 107325},
		{ID: "b", Date: "2026-03-05", Seq: base.Add(time.Hour), Libelle: "Péage", Depense: 2500},
	}

	journal := BuildJournal(movements, 10000, "", "")
	require.Len(t, journal.Lignes, 3)

	assert.Equal(t, []string{"a", "b", "c"}, []string{journal.Lignes[0].ID, journal.Lignes[1].ID, journal.Lignes[2].ID})
	assert.Equal(t, 117325.0, journal.Lignes[0].Solde)
	assert.Equal(t, 114825.0, journal.Lignes[1].Solde)
	assert.Equal(t, 74825.0, journal.Lignes[2].Solde)

	assert.Equal(t, 10000.0, journal.SoldeInitial)
	assert.Equal(t, 107325.0, journal.TotalRecettes)
	assert.Equal(t, 42500.0, journal.TotalDepenses)
	assert.Equal(t, 74825.0, journal.SoldeFinal)

	// input order untouched
	assert.Equal(t, "c", movements[0].ID)
}

func TestBuildJournalDateWindow(t *testing.T) {
	movements := []Movement{
		{ID: "feb", Date: "2026-02-20", Recette: 50000},
		{ID: "mar1", Date: "2026-03-02", Depense: 20000},
		{ID: "mar2", Date: "2026-03-20", Recette: 5000},
		{ID: "apr", Date: "2026-04-01", Depense: 1000},
	}

	journal := BuildJournal(movements, 0, "2026-03-01", "2026-03-31")
	require.Len(t, journal.Lignes, 2)
	assert.Equal(t, 50000.0, journal.SoldeInitial)
	assert.Equal(t, 30000.0, journal.Lignes[0].Solde)
	assert.Equal(t, 35000.0, journal.SoldeFinal)
	assert.Equal(t, 5000.0, journal.TotalRecettes)
	assert.Equal(t, 20000.0, journal.TotalDepenses)
}

func TestBuildJournalEmptyWindowKeepsCarriedBalance(t *testing.T) {
	movements := []Movement{{ID: "x", Date: "2026-01-10", Recette: 1200}}

	journal := BuildJournal(movements, 300, "2026-02-01", "")
	assert.Empty(t, journal.Lignes)
	assert.Equal(t, 1500.0, journal.SoldeInitial)
	assert.Equal(t, 1500.0, journal.SoldeFinal)
}
