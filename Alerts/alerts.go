package Alerts

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"FleetDesk/Accounting"
	"FleetDesk/Exports"
	"FleetDesk/Models"
	"FleetDesk/config"
	"FleetDesk/email"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const dateLayout = "2006-01-02"

// Scanner turns upcoming document expiries and overdue invoices into
// notifications.
type Scanner struct {
	DB       *gorm.DB
	Settings config.Settings
	SMTP     config.SMTPConfig
	// Now is replaced in tests
	Now func() time.Time
}

func NewScanner(db *gorm.DB, settings config.Settings, smtp config.SMTPConfig) *Scanner {
	return &Scanner{DB: db, Settings: settings, SMTP: smtp, Now: time.Now}
}

// Scan stores the notifications not raised yet and returns them. Each
// (kind, record, due date) is raised once, even after being dismissed.
func (s *Scanner) Scan(ctx context.Context) ([]Models.Notification, error) {
	today := s.Now().Format(dateLayout)
	limit := s.Now().AddDate(0, 0, s.window()).Format(dateLayout)
	db := s.DB.WithContext(ctx)

	var candidates []Models.Notification

	var trucks []Models.Truck
	if err := db.Where("statut <> ?", Models.TruckInactive).Find(&trucks).Error; err != nil {
		return nil, fmt.Errorf("failed to read trucks: %w", err)
	}
	for _, t := range trucks {
		if due(t.DateAssurance, limit) {
			candidates = append(candidates, expiry(Models.NotifyInsurance, t.ID, t.DateAssurance, today,
				"L'assurance du camion "+t.Immatriculation))
		}
		if due(t.DateVisiteTechnique, limit) {
			candidates = append(candidates, expiry(Models.NotifyInspection, t.ID, t.DateVisiteTechnique, today,
				"La visite technique du camion "+t.Immatriculation))
		}
	}

	var drivers []Models.Driver
	if err := db.Where("statut <> ?", "inactif").Find(&drivers).Error; err != nil {
		return nil, fmt.Errorf("failed to read drivers: %w", err)
	}
	for _, d := range drivers {
		if due(d.DateExpirationPermis, limit) {
			candidates = append(candidates, expiry(Models.NotifyLicence, d.ID, d.DateExpirationPermis, today,
				"Le permis de "+d.FullName()))
		}
	}

	var invoices []Models.Invoice
	err := db.Where("statut IN ? AND date_echeance <> '' AND date_echeance < ?",
		[]string{Accounting.InvoiceUnpaid, Accounting.InvoicePartial}, today).
		Find(&invoices).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read invoices: %w", err)
	}
	for _, inv := range invoices {
		candidates = append(candidates, Models.Notification{
			Type:         Models.NotifyOverdue,
			Reference:    inv.ID,
			DateEcheance: inv.DateEcheance,
			Message: fmt.Sprintf("La facture %s est échue depuis le %s, reste à payer %s",
				inv.Numero, Exports.Date(inv.DateEcheance), Exports.Money(inv.ResteAPayer, s.Settings.Currency)),
		})
	}

	var created []Models.Notification
	for _, n := range candidates {
		result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&n)
		if result.Error != nil {
			return created, fmt.Errorf("failed to store notification: %w", result.Error)
		}
		if result.RowsAffected > 0 {
			created = append(created, n)
		}
	}
	return created, nil
}

// Run scans and mails the new notifications when SMTP is configured.
func (s *Scanner) Run(ctx context.Context) {
	created, err := s.Scan(ctx)
	if err != nil {
		log.Printf("Alert scan failed: %v", err)
		return
	}
	log.Printf("Alert scan raised %d new notification(s)", len(created))

	if len(created) == 0 || !s.SMTP.Enabled() {
		return
	}
	if err := email.Send(s.SMTP, Digest(s.Settings.CompanyName, s.SMTP.AlertRecipients, created)); err != nil {
		log.Printf("Failed to send alert digest: %v", err)
	}
}

// Digest is the plain-text mail listing new notifications.
func Digest(company string, to []string, notifications []Models.Notification) email.Message {
	var body strings.Builder
	body.WriteString(fmt.Sprintf("%s : %d nouvelle(s) alerte(s)\n\n", company, len(notifications)))
	for _, n := range notifications {
		body.WriteString("- " + n.Message + "\n")
	}
	return email.Message{
		To:      to,
		Subject: fmt.Sprintf("[%s] Alertes du %s", company, time.Now().Format("02/01/2006")),
		Body:    body.String(),
	}
}

func (s *Scanner) window() int {
	if s.Settings.AlertWindowDays <= 0 {
		return 30
	}
	return s.Settings.AlertWindowDays
}

func due(date, limit string) bool {
	return date != "" && date <= limit
}

func expiry(kind, reference, date, today, subject string) Models.Notification {
	verb := "expire le"
	if date < today {
		verb = "a expiré le"
	}
	return Models.Notification{
		Type:         kind,
		Reference:    reference,
		DateEcheance: date,
		Message:      fmt.Sprintf("%s %s %s", subject, verb, Exports.Date(date)),
	}
}
