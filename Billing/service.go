package Billing

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"FleetDesk/Accounting"
	"FleetDesk/Models"
	"FleetDesk/config"

	"gorm.io/gorm"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrUnknownReference  = errors.New("unknown reference")
	ErrInvoiceCancelled  = errors.New("invoice is cancelled")
	ErrHasPayments       = errors.New("invoice already has payments")
	ErrTotalBelowPaid    = errors.New("invoice total is below the amount already paid")
	ErrMissingAmount     = errors.New("montantHT is required when no trip is linked")
	ErrLinkedCashEntry   = errors.New("cash entry is maintained by another record")
	ErrTripHasInvoices   = errors.New("trip is invoiced")
	ErrInvalidDateFormat = errors.New("dates must use the YYYY-MM-DD format")
)

const dateLayout = "2006-01-02"

// Service owns every write that must keep invoices, payments, trips and the
// cash book consistent with each other.
type Service struct {
	DB       *gorm.DB
	Settings config.Settings
}

func NewService(db *gorm.DB, settings config.Settings) *Service {
	return &Service{DB: db, Settings: settings}
}

// InvoiceRequest carries invoice fields from the client. Nil pointers mean
// "use the default" on create and "keep the current value" on update.
type InvoiceRequest struct {
	TrajetID     *string  `json:"trajetId"`
	ClientID     *string  `json:"clientId"`
	DateEmission string   `json:"dateEmission" validate:"omitempty,datetime=2006-01-02"`
	DateEcheance string   `json:"dateEcheance" validate:"omitempty,datetime=2006-01-02"`
	Designation  *string  `json:"designation"`
	MontantHT    *float64 `json:"montantHT" validate:"omitempty,gte=0"`
	Remise       *float64 `json:"remise" validate:"omitempty,gte=0,lte=100"`
	TVA          *float64 `json:"tva" validate:"omitempty,gte=0,lte=100"`
	TPS          *float64 `json:"tps" validate:"omitempty,gte=0,lte=100"`
}

// Preview computes the totals a request would produce without storing it.
func (s *Service) Preview(ctx context.Context, req InvoiceRequest) (Accounting.InvoiceTotals, error) {
	ht := deref(req.MontantHT, 0)
	if req.MontantHT == nil && req.TrajetID != nil && *req.TrajetID != "" {
		var trip Models.Trip
		if err := s.DB.WithContext(ctx).First(&trip, "id = ?", *req.TrajetID).Error; err != nil {
			return Accounting.InvoiceTotals{}, notFound("trip", err)
		}
		ht = trip.Prix
	}
	return Accounting.ComputeInvoice(Accounting.InvoiceInput{
		MontantHT: ht,
		Remise:    deref(req.Remise, 0),
		TVA:       deref(req.TVA, s.Settings.DefaultTVA),
		TPS:       deref(req.TPS, s.Settings.DefaultTPS),
	})
}

func (s *Service) CreateInvoice(ctx context.Context, req InvoiceRequest) (*Models.Invoice, error) {
	invoice := &Models.Invoice{
		TrajetID:     Models.StringPtr(derefString(req.TrajetID)),
		ClientID:     Models.StringPtr(derefString(req.ClientID)),
		DateEmission: req.DateEmission,
		DateEcheance: req.DateEcheance,
		Designation:  derefString(req.Designation),
		Remise:       deref(req.Remise, 0),
		TVA:          deref(req.TVA, s.Settings.DefaultTVA),
		TPS:          deref(req.TPS, s.Settings.DefaultTPS),
	}
	if invoice.DateEmission == "" {
		invoice.DateEmission = time.Now().Format(dateLayout)
	}
	issued, err := time.Parse(dateLayout, invoice.DateEmission)
	if err != nil {
		return nil, ErrInvalidDateFormat
	}
	if invoice.DateEcheance == "" {
		invoice.DateEcheance = issued.AddDate(0, 0, s.Settings.PaymentTermsDays).Format(dateLayout)
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if invoice.TrajetID != nil {
			var trip Models.Trip
			if err := tx.First(&trip, "id = ?", *invoice.TrajetID).Error; err != nil {
				return notFound("trip", err)
			}
			if req.MontantHT == nil || *req.MontantHT == 0 {
				invoice.MontantHT = trip.Prix
			} else {
				invoice.MontantHT = *req.MontantHT
			}
			if invoice.ClientID == nil {
				invoice.ClientID = trip.ClientID
			}
			if invoice.Designation == "" {
				invoice.Designation = fmt.Sprintf("Transport %s - %s du %s", trip.Depart, trip.Arrivee, trip.DateDepart)
			}
		} else {
			if req.MontantHT == nil {
				return ErrMissingAmount
			}
			invoice.MontantHT = *req.MontantHT
		}
		if err := checkReference(tx, &Models.ThirdParty{}, invoice.ClientID, "client"); err != nil {
			return err
		}

		numero, err := nextInvoiceNumber(tx, s.prefix(), issued.Year())
		if err != nil {
			return err
		}
		invoice.Numero = numero

		if err := applyTotals(invoice); err != nil {
			return err
		}
		if err := tx.Omit("Paiements").Create(invoice).Error; err != nil {
			return fmt.Errorf("failed to create invoice: %w", err)
		}
		return SyncTrip(tx, invoice.TrajetID)
	})
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

func (s *Service) UpdateInvoice(ctx context.Context, id string, req InvoiceRequest) (*Models.Invoice, error) {
	var invoice Models.Invoice
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&invoice, "id = ?", id).Error; err != nil {
			return notFound("invoice", err)
		}
		if invoice.Statut == Accounting.InvoiceCancelled {
			return ErrInvoiceCancelled
		}
		previousTrip := invoice.TrajetID

		if req.TrajetID != nil {
			invoice.TrajetID = Models.StringPtr(*req.TrajetID)
			if err := checkReference(tx, &Models.Trip{}, invoice.TrajetID, "trip"); err != nil {
				return err
			}
		}
		if req.ClientID != nil {
			invoice.ClientID = Models.StringPtr(*req.ClientID)
			if err := checkReference(tx, &Models.ThirdParty{}, invoice.ClientID, "client"); err != nil {
				return err
			}
		}
		if req.DateEmission != "" {
			invoice.DateEmission = req.DateEmission
		}
		if req.DateEcheance != "" {
			invoice.DateEcheance = req.DateEcheance
		}
		if req.Designation != nil {
			invoice.Designation = *req.Designation
		}
		invoice.MontantHT = deref(req.MontantHT, invoice.MontantHT)
		invoice.Remise = deref(req.Remise, invoice.Remise)
		invoice.TVA = deref(req.TVA, invoice.TVA)
		invoice.TPS = deref(req.TPS, invoice.TPS)

		paid := invoice.MontantPaye
		if err := applyTotals(&invoice); err != nil {
			return err
		}
		if invoice.MontantTTC < paid {
			return ErrTotalBelowPaid
		}
		if err := refreshInvoice(tx, &invoice); err != nil {
			return err
		}

		if err := SyncTrip(tx, invoice.TrajetID); err != nil {
			return err
		}
		if Models.Deref(previousTrip) != Models.Deref(invoice.TrajetID) {
			return SyncTrip(tx, previousTrip)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// DeleteInvoice removes the invoice with its payments and their cash entries.
func (s *Service) DeleteInvoice(ctx context.Context, id string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var invoice Models.Invoice
		if err := tx.First(&invoice, "id = ?", id).Error; err != nil {
			return notFound("invoice", err)
		}

		var paymentIDs []string
		if err := tx.Model(&Models.Payment{}).Where("facture_id = ?", id).Pluck("id", &paymentIDs).Error; err != nil {
			return err
		}
		if len(paymentIDs) > 0 {
			if err := tx.Where("paiement_id IN ?", paymentIDs).Delete(&Models.CashEntry{}).Error; err != nil {
				return err
			}
			if err := tx.Where("facture_id = ?", id).Delete(&Models.Payment{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Delete(&invoice).Error; err != nil {
			return err
		}
		return SyncTrip(tx, invoice.TrajetID)
	})
}

// CancelInvoice voids an unpaid invoice. Its number stays used.
func (s *Service) CancelInvoice(ctx context.Context, id string) (*Models.Invoice, error) {
	var invoice Models.Invoice
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&invoice, "id = ?", id).Error; err != nil {
			return notFound("invoice", err)
		}
		if invoice.Statut == Accounting.InvoiceCancelled {
			return nil
		}
		if invoice.MontantPaye > 0 {
			return ErrHasPayments
		}

		invoice.Statut = Accounting.InvoiceCancelled
		invoice.ResteAPayer = 0
		if err := tx.Omit("Paiements").Save(&invoice).Error; err != nil {
			return err
		}
		return SyncTrip(tx, invoice.TrajetID)
	})
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// RecordPayment adds a payment to an invoice. Cash payments are mirrored as
// a recette in the cash book.
func (s *Service) RecordPayment(ctx context.Context, invoiceID string, payment *Models.Payment) (*Models.Invoice, error) {
	var invoice Models.Invoice
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&invoice, "id = ?", invoiceID).Error; err != nil {
			return notFound("invoice", err)
		}
		if invoice.Statut == Accounting.InvoiceCancelled {
			return ErrInvoiceCancelled
		}
		if err := Accounting.ValidatePayment(invoice.MontantTTC, invoice.MontantPaye, payment.Montant); err != nil {
			return err
		}

		payment.ID = ""
		payment.FactureID = invoice.ID
		payment.CaisseID = nil
		if err := tx.Create(payment).Error; err != nil {
			return fmt.Errorf("failed to record payment: %w", err)
		}

		if payment.Mode == ModeCash {
			entry := Models.CashEntry{
				Date:       payment.Date,
				Libelle:    "Règlement facture " + invoice.Numero,
				Recette:    payment.Montant,
				Categorie:  "encaissement",
				Reference:  invoice.Numero,
				TiersID:    invoice.ClientID,
				PaiementID: &payment.ID,
			}
			if err := tx.Create(&entry).Error; err != nil {
				return fmt.Errorf("failed to post cash entry: %w", err)
			}
			payment.CaisseID = &entry.ID
			if err := tx.Model(payment).Update("caisse_id", entry.ID).Error; err != nil {
				return err
			}
		}

		if err := refreshInvoice(tx, &invoice); err != nil {
			return err
		}
		return SyncTrip(tx, invoice.TrajetID)
	})
	if err != nil {
		return nil, err
	}
	return s.loadInvoice(ctx, invoice.ID)
}

func (s *Service) DeletePayment(ctx context.Context, invoiceID, paymentID string) (*Models.Invoice, error) {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var invoice Models.Invoice
		if err := tx.First(&invoice, "id = ?", invoiceID).Error; err != nil {
			return notFound("invoice", err)
		}
		var payment Models.Payment
		if err := tx.First(&payment, "id = ? AND facture_id = ?", paymentID, invoiceID).Error; err != nil {
			return notFound("payment", err)
		}

		if err := tx.Where("paiement_id = ?", payment.ID).Delete(&Models.CashEntry{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&payment).Error; err != nil {
			return err
		}
		if err := refreshInvoice(tx, &invoice); err != nil {
			return err
		}
		return SyncTrip(tx, invoice.TrajetID)
	})
	if err != nil {
		return nil, err
	}
	return s.loadInvoice(ctx, invoiceID)
}

func (s *Service) loadInvoice(ctx context.Context, id string) (*Models.Invoice, error) {
	var invoice Models.Invoice
	err := s.DB.WithContext(ctx).
		Preload("Paiements", func(db *gorm.DB) *gorm.DB { return db.Order("date ASC, created_at ASC") }).
		First(&invoice, "id = ?", id).Error
	if err != nil {
		return nil, notFound("invoice", err)
	}
	return &invoice, nil
}

// SyncTrip writes the payment state of the trip's live invoices back onto
// the trip. A nil trip id is a no-op.
func SyncTrip(tx *gorm.DB, tripID *string) error {
	if tripID == nil || *tripID == "" {
		return nil
	}

	var trip Models.Trip
	if err := tx.First(&trip, "id = ?", *tripID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// The trip was deleted, nothing to update
			return nil
		}
		return err
	}

	var invoices []Models.Invoice
	err := tx.Where("trajet_id = ? AND statut <> ?", trip.ID, Accounting.InvoiceCancelled).
		Order("date_emission ASC, created_at ASC").
		Find(&invoices).Error
	if err != nil {
		return err
	}

	updates := map[string]interface{}{
		"facture":         false,
		"facture_id":      nil,
		"montant_paye":    0.0,
		"statut_paiement": Accounting.TripUnpaid,
	}
	if len(invoices) > 0 {
		dues := make([]float64, len(invoices))
		payments := make([]float64, len(invoices))
		for i, inv := range invoices {
			dues[i] = inv.MontantTTC
			payments[i] = inv.MontantPaye
		}
		due, paid := Accounting.Sum(dues...), Accounting.Sum(payments...)
		updates["facture"] = true
		updates["facture_id"] = invoices[len(invoices)-1].ID
		updates["montant_paye"] = paid
		updates["statut_paiement"] = Accounting.TripPaymentStatus(due, paid)
	}
	return tx.Model(&trip).Updates(updates).Error
}

// refreshInvoice recomputes the paid amount from the stored payments and saves.
func refreshInvoice(tx *gorm.DB, invoice *Models.Invoice) error {
	var paid float64
	err := tx.Model(&Models.Payment{}).
		Where("facture_id = ?", invoice.ID).
		Select("COALESCE(SUM(montant), 0)").
		Scan(&paid).Error
	if err != nil {
		return err
	}

	cancelled := invoice.Statut == Accounting.InvoiceCancelled
	invoice.MontantPaye = paid
	invoice.ResteAPayer = Accounting.Outstanding(invoice.MontantTTC, paid)
	if cancelled {
		invoice.ResteAPayer = 0
	}
	invoice.Statut = Accounting.InvoiceStatus(invoice.MontantTTC, paid, cancelled)
	return tx.Omit("Paiements").Save(invoice).Error
}

func applyTotals(invoice *Models.Invoice) error {
	totals, err := Accounting.ComputeInvoice(Accounting.InvoiceInput{
		MontantHT: invoice.MontantHT,
		Remise:    invoice.Remise,
		TVA:       invoice.TVA,
		TPS:       invoice.TPS,
	})
	if err != nil {
		return err
	}
	invoice.MontantRemise = totals.MontantRemise
	invoice.NetHT = totals.NetHT
	invoice.MontantTVA = totals.MontantTVA
	invoice.MontantTPS = totals.MontantTPS
	invoice.MontantTTC = totals.MontantTTC
	invoice.ResteAPayer = Accounting.Outstanding(totals.MontantTTC, invoice.MontantPaye)
	invoice.Statut = Accounting.InvoiceStatus(totals.MontantTTC, invoice.MontantPaye, false)
	return nil
}

// nextInvoiceNumber returns PREFIX-YYYY-NNNN, one above the highest number
// ever issued that year, deleted invoices included.
func nextInvoiceNumber(tx *gorm.DB, prefix string, year int) (string, error) {
	base := fmt.Sprintf("%s-%d-", prefix, year)

	var numbers []string
	err := tx.Unscoped().Model(&Models.Invoice{}).
		Where("numero LIKE ?", base+"%").
		Pluck("numero", &numbers).Error
	if err != nil {
		return "", err
	}

	highest := 0
	for _, n := range numbers {
		seq, err := strconv.Atoi(strings.TrimPrefix(n, base))
		if err == nil && seq > highest {
			highest = seq
		}
	}
	return fmt.Sprintf("%s%04d", base, highest+1), nil
}

func (s *Service) prefix() string {
	if s.Settings.InvoicePrefix == "" {
		return "FAC"
	}
	return s.Settings.InvoicePrefix
}

// checkReference fails with ErrUnknownReference when id is set but no live
// row of model has it.
func checkReference(tx *gorm.DB, model interface{}, id *string, name string) error {
	if id == nil || *id == "" {
		return nil
	}
	var count int64
	if err := tx.Model(model).Where("id = ?", *id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("%w: %s %s", ErrUnknownReference, name, *id)
	}
	return nil
}

func notFound(what string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return err
}

func deref(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
