package Billing

import (
	"context"
	"fmt"

	"FleetDesk/Accounting"
	"FleetDesk/Models"

	"gorm.io/gorm"
)

// ModeCash is the payment mode that moves money through the cash box.
const ModeCash = "especes"

// SaveExpense creates the expense when it has no id, updates it otherwise,
// and keeps its cash book mirror in step.
func (s *Service) SaveExpense(ctx context.Context, expense *Models.Expense) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		refs := []struct {
			model interface{}
			id    *string
			name  string
		}{
			{&Models.Truck{}, expense.CamionID, "truck"},
			{&Models.Trip{}, expense.TrajetID, "trip"},
			{&Models.Driver{}, expense.ChauffeurID, "driver"},
			{&Models.ThirdParty{}, expense.FournisseurID, "supplier"},
		}
		for _, r := range refs {
			if err := checkReference(tx, r.model, r.id, r.name); err != nil {
				return err
			}
		}

		if expense.ID == "" {
			if err := tx.Create(expense).Error; err != nil {
				return fmt.Errorf("failed to create expense: %w", err)
			}
		} else if err := tx.Save(expense).Error; err != nil {
			return fmt.Errorf("failed to update expense: %w", err)
		}

		if expense.ModePaiement == ModeCash {
			return PostExpense(tx, expense)
		}
		return UnpostExpense(tx, expense)
	})
}

func (s *Service) DeleteExpense(ctx context.Context, id string) (*Models.Expense, error) {
	var expense Models.Expense
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&expense, "id = ?", id).Error; err != nil {
			return notFound("expense", err)
		}
		if err := tx.Where("depense_id = ?", expense.ID).Delete(&Models.CashEntry{}).Error; err != nil {
			return err
		}
		return tx.Delete(&expense).Error
	})
	if err != nil {
		return nil, err
	}
	return &expense, nil
}

// PostExpense creates or refreshes the dépense line mirroring a cash expense.
func PostExpense(tx *gorm.DB, expense *Models.Expense) error {
	var entry Models.CashEntry
	err := tx.Where("depense_id = ?", expense.ID).Limit(1).Find(&entry).Error
	if err != nil {
		return err
	}

	libelle := "Dépense " + expense.Categorie
	if expense.Description != "" {
		libelle += " : " + expense.Description
	}
	if r := []rune(libelle); len(r) > 255 {
		libelle = string(r[:255])
	}

	entry.Date = expense.Date
	entry.Libelle = libelle
	entry.Recette = 0
	entry.Depense = expense.Montant
	entry.Categorie = expense.Categorie
	entry.TiersID = expense.FournisseurID
	entry.DepenseID = &expense.ID
	if err := tx.Save(&entry).Error; err != nil {
		return fmt.Errorf("failed to post cash entry: %w", err)
	}

	if Models.Deref(expense.CaisseID) != entry.ID {
		expense.CaisseID = &entry.ID
		return tx.Model(expense).Update("caisse_id", entry.ID).Error
	}
	return nil
}

// UnpostExpense removes the cash book mirror, if any.
func UnpostExpense(tx *gorm.DB, expense *Models.Expense) error {
	if err := tx.Where("depense_id = ?", expense.ID).Delete(&Models.CashEntry{}).Error; err != nil {
		return err
	}
	if expense.CaisseID != nil {
		expense.CaisseID = nil
		return tx.Model(expense).Update("caisse_id", nil).Error
	}
	return nil
}

// SaveCashEntry stores a manual cash book line. Lines mirroring a payment or
// an expense can only change through their source record.
func (s *Service) SaveCashEntry(ctx context.Context, entry *Models.CashEntry) error {
	if err := Accounting.ValidateMovement(entry.Recette, entry.Depense); err != nil {
		return err
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkReference(tx, &Models.ThirdParty{}, entry.TiersID, "third party"); err != nil {
			return err
		}
		if entry.ID == "" {
			entry.PaiementID = nil
			entry.DepenseID = nil
			return tx.Create(entry).Error
		}

		var current Models.CashEntry
		if err := tx.First(&current, "id = ?", entry.ID).Error; err != nil {
			return notFound("cash entry", err)
		}
		if current.Linked() {
			return ErrLinkedCashEntry
		}
		entry.CreatedAt = current.CreatedAt
		entry.PaiementID = nil
		entry.DepenseID = nil
		return tx.Save(entry).Error
	})
}

func (s *Service) DeleteCashEntry(ctx context.Context, id string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entry Models.CashEntry
		if err := tx.First(&entry, "id = ?", id).Error; err != nil {
			return notFound("cash entry", err)
		}
		if entry.Linked() {
			return ErrLinkedCashEntry
		}
		return tx.Delete(&entry).Error
	})
}

// Journal builds the cash book between from and to (inclusive, either may be
// empty) starting from the configured opening balance.
func (s *Service) Journal(ctx context.Context, from, to string) (Accounting.Journal, error) {
	query := s.DB.WithContext(ctx).Model(&Models.CashEntry{})
	if to != "" {
		query = query.Where("date <= ?", to)
	}

	var entries []Models.CashEntry
	if err := query.Order("date ASC, created_at ASC").Find(&entries).Error; err != nil {
		return Accounting.Journal{}, err
	}

	movements := make([]Accounting.Movement, 0, len(entries))
	for _, e := range entries {
		movements = append(movements, Accounting.Movement{
			ID:       e.ID,
			Date:     e.Date,
			Seq:      e.CreatedAt,
			Libelle:  e.Libelle,
			Recette:  e.Recette,
			Depense:  e.Depense,
			Category: e.Categorie,
		})
	}
	return Accounting.BuildJournal(movements, s.Settings.CashOpeningBalance, from, to), nil
}

// DeleteTrip refuses to remove a trip that still carries a live invoice.
func (s *Service) DeleteTrip(ctx context.Context, id string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var trip Models.Trip
		if err := tx.First(&trip, "id = ?", id).Error; err != nil {
			return notFound("trip", err)
		}
		var count int64
		err := tx.Model(&Models.Invoice{}).
			Where("trajet_id = ? AND statut <> ?", id, Accounting.InvoiceCancelled).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrTripHasInvoices
		}
		return tx.Delete(&trip).Error
	})
}

// SaveTrip checks the references of a trip and stores it. Invoicing fields
// are left to SyncTrip.
func (s *Service) SaveTrip(ctx context.Context, trip *Models.Trip) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkReference(tx, &Models.Truck{}, &trip.CamionID, "truck"); err != nil {
			return err
		}
		if err := checkReference(tx, &Models.Driver{}, &trip.ChauffeurID, "driver"); err != nil {
			return err
		}
		if err := checkReference(tx, &Models.ThirdParty{}, trip.ClientID, "client"); err != nil {
			return err
		}

		if trip.ID == "" {
			trip.Facture = false
			trip.FactureID = nil
			trip.MontantPaye = 0
			trip.StatutPaiement = Accounting.TripUnpaid
			return tx.Create(trip).Error
		}
		err := tx.Model(trip).
			Select("*").
			Omit("facture", "facture_id", "montant_paye", "statut_paiement", "created_at").
			Updates(trip).Error
		if err != nil {
			return err
		}
		return tx.First(trip, "id = ?", trip.ID).Error
	})
}
