package Accounting

import (
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrBothSides = errors.New("a cash entry is either a receipt or an expense, not both")
	ErrNoAmount  = errors.New("a cash entry needs a receipt or an expense amount")
)

// Movement is one line of the cash book. Date is YYYY-MM-DD; Seq breaks ties
// between entries of the same day (creation time).
type Movement struct {
	ID       string
	Date     string
	Seq      time.Time
	Libelle  string
	Recette  float64
	Depense  float64
	Category string
}

type JournalLine struct {
	ID        string  `json:"id"`
	Date      string  `json:"date"`
	Libelle   string  `json:"libelle"`
	Categorie string  `json:"categorie,omitempty"`
	Recette   float64 `json:"recette"`
	Depense   float64 `json:"depense"`
	Solde     float64 `json:"solde"`
}

type Journal struct {
	From          string        `json:"from,omitempty"`
	To            string        `json:"to,omitempty"`
	SoldeInitial  float64       `json:"soldeInitial"`
	TotalRecettes float64       `json:"totalRecettes"`
	TotalDepenses float64       `json:"totalDepenses"`
	SoldeFinal    float64       `json:"soldeFinal"`
	Lignes        []JournalLine `json:"lignes"`
}

// ValidateMovement enforces the receipt-xor-expense rule.
func ValidateMovement(recette, depense float64) error {
	if recette < 0 || depense < 0 {
		return ErrInvalidAmount
	}
	if recette > 0 && depense > 0 {
		return ErrBothSides
	}
	if recette == 0 && depense == 0 {
		return ErrNoAmount
	}
	return nil
}

// BuildJournal sorts the movements chronologically and accumulates the
// running balance. Movements dated before from are folded into the opening
// balance and movements after to are left out. Empty bounds are open.
func BuildJournal(movements []Movement, opening float64, from, to string) Journal {
	sorted := make([]Movement, len(movements))
	copy(sorted, movements)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Date != sorted[j].Date {
			return sorted[i].Date < sorted[j].Date
		}
		return sorted[i].Seq.Before(sorted[j].Seq)
	})

	balance := decimal.NewFromFloat(opening)
	receipts := decimal.Zero
	expenses := decimal.Zero
	journal := Journal{From: from, To: to, Lignes: []JournalLine{}}

	for _, m := range sorted {
		in := decimal.NewFromFloat(m.Recette)
		out := decimal.NewFromFloat(m.Depense)

		if from != "" && m.Date < from {
			balance = balance.Add(in).Sub(out)
			continue
		}
		if to != "" && m.Date > to {
			continue
		}
		if len(journal.Lignes) == 0 {
			journal.SoldeInitial = balance.InexactFloat64()
		}

		balance = balance.Add(in).Sub(out)
		receipts = receipts.Add(in)
		expenses = expenses.Add(out)
		journal.Lignes = append(journal.Lignes, JournalLine{
			ID:        m.ID,
			Date:      m.Date,
			Libelle:   m.Libelle,
			Categorie: m.Category,
			Recette:   m.Recette,
			Depense:   m.Depense,
			Solde:     balance.InexactFloat64(),
		})
	}

	if len(journal.Lignes) == 0 {
		journal.SoldeInitial = balance.InexactFloat64()
	}
	journal.TotalRecettes = receipts.InexactFloat64()
	journal.TotalDepenses = expenses.InexactFloat64()
	journal.SoldeFinal = balance.InexactFloat64()
	return journal
}
