package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Nom     string  `json:"nom" validate:"required"`
	Date    string  `json:"date" validate:"required,datetime=2006-01-02"`
	Montant float64 `json:"montant" validate:"gt=0"`
	Mode    string  `json:"mode" validate:"omitempty,oneof=especes virement"`
}

func TestStructValid(t *testing.T) {
	assert.Nil(t, Struct(sample{Nom: "A", Date: "2026-01-31", Montant: 10}))
}

func TestStructReportsJSONNames(t *testing.T) {
	errs := Struct(sample{Date: "31/01/2026", Mode: "carte"})

	assert.Len(t, errs, 4)
	assert.Contains(t, errs, "nom")
	assert.Contains(t, errs, "montant")
	assert.Contains(t, errs, "mode")
	assert.Equal(t, "date doit être une date au format AAAA-MM-JJ", errs["date"])
}

func TestVar(t *testing.T) {
	assert.NoError(t, Var("2026-02-28", "datetime=2006-01-02"))
	assert.Error(t, Var("2026-02-30", "datetime=2006-01-02"))
}
