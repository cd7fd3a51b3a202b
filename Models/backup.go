package Models

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const BackupVersion = 1

// Backup is the content of a backup file. Users are not part of it: their
// password hashes never leave the database.
type Backup struct {
	Version   int        `json:"version"`
	Timestamp time.Time  `json:"timestamp"`
	Data      BackupData `json:"data"`
}

type BackupData struct {
	ThirdParties  []ThirdParty   `json:"thirdParties"`
	Drivers       []Driver       `json:"drivers"`
	Trucks        []Truck        `json:"trucks"`
	Trips         []Trip         `json:"trips"`
	Expenses      []Expense      `json:"expenses"`
	Invoices      []Invoice      `json:"invoices"`
	Payments      []Payment      `json:"payments"`
	CashEntries   []CashEntry    `json:"cashEntries"`
	Notifications []Notification `json:"notifications"`

	// Deleted rows kept so invoice numbers are not issued twice and dismissed
	// alerts stay dismissed
	DeletedInvoices []Invoice      `json:"deletedInvoices,omitempty"`
	DismissedAlerts []Notification `json:"dismissedAlerts,omitempty"`
}

// Counts returns the number of records per collection.
func (d BackupData) Counts() map[string]int {
	return map[string]int{
		"thirdParties":  len(d.ThirdParties),
		"drivers":       len(d.Drivers),
		"trucks":        len(d.Trucks),
		"trips":         len(d.Trips),
		"expenses":      len(d.Expenses),
		"invoices":      len(d.Invoices),
		"payments":      len(d.Payments),
		"cashEntries":   len(d.CashEntries),
		"notifications": len(d.Notifications),
	}
}

// Snapshot reads every live record.
func Snapshot(ctx context.Context, db *gorm.DB) (*Backup, error) {
	backup := &Backup{Version: BackupVersion, Timestamp: time.Now()}
	tx := db.WithContext(ctx)

	reads := []struct {
		name string
		dest interface{}
	}{
		{"third_parties", &backup.Data.ThirdParties},
		{"drivers", &backup.Data.Drivers},
		{"trucks", &backup.Data.Trucks},
		{"trips", &backup.Data.Trips},
		{"expenses", &backup.Data.Expenses},
		{"invoices", &backup.Data.Invoices},
		{"payments", &backup.Data.Payments},
		{"cash_entries", &backup.Data.CashEntries},
		{"notifications", &backup.Data.Notifications},
	}
	for _, r := range reads {
		if err := tx.Order("created_at ASC").Find(r.dest).Error; err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", r.name, err)
		}
	}

	deleted := []struct {
		name string
		dest interface{}
	}{
		{"deleted invoices", &backup.Data.DeletedInvoices},
		{"dismissed notifications", &backup.Data.DismissedAlerts},
	}
	for _, r := range deleted {
		err := tx.Unscoped().Where("deleted_at IS NOT NULL").Order("created_at ASC").Find(r.dest).Error
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", r.name, err)
		}
	}
	return backup, nil
}

// Restore replaces the whole content of the database with the backup in a
// single transaction. Repeated ids in the file are collapsed first.
func Restore(ctx context.Context, db *gorm.DB, backup *Backup) error {
	if backup == nil {
		return fmt.Errorf("empty backup")
	}
	if backup.Version > BackupVersion {
		return fmt.Errorf("backup version %d is newer than supported version %d", backup.Version, BackupVersion)
	}
	data := backup.Data

	// Invoices are inserted without their nested payments; payments have
	// their own collection.
	invoices := UniqueByID(data.Invoices)
	for i := range invoices {
		invoices[i].Paiements = nil
	}
	// deleted_at is not part of the JSON, the restore time stands in for it
	deletedAt := gorm.DeletedAt{Time: time.Now(), Valid: true}
	deletedInvoices := UniqueByID(data.DeletedInvoices)
	for i := range deletedInvoices {
		deletedInvoices[i].Paiements = nil
		deletedInvoices[i].DeletedAt = deletedAt
	}
	dismissed := UniqueByID(data.DismissedAlerts)
	for i := range dismissed {
		dismissed[i].DeletedAt = deletedAt
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		wipe := tx.Unscoped().Session(&gorm.Session{AllowGlobalUpdate: true})
		// Children before parents
		for _, model := range []interface{}{
			&Notification{}, &CashEntry{}, &Payment{}, &Invoice{},
			&Expense{}, &Trip{}, &Truck{}, &Driver{}, &ThirdParty{},
		} {
			if err := wipe.Delete(model).Error; err != nil {
				return fmt.Errorf("failed to clear %T: %w", model, err)
			}
		}

		if err := insertAll(tx, UniqueByID(data.ThirdParties)); err != nil {
			return err
		}
		if err := insertAll(tx, UniqueByID(data.Drivers)); err != nil {
			return err
		}
		if err := insertAll(tx, UniqueByID(data.Trucks)); err != nil {
			return err
		}
		if err := insertAll(tx, UniqueByID(data.Trips)); err != nil {
			return err
		}
		if err := insertAll(tx, UniqueByID(data.Expenses)); err != nil {
			return err
		}
		if err := insertAll(tx, invoices); err != nil {
			return err
		}
		if err := insertAll(tx, UniqueByID(data.Payments)); err != nil {
			return err
		}
		if err := insertAll(tx, UniqueByID(data.CashEntries)); err != nil {
			return err
		}
		if err := insertAll(tx, UniqueByID(data.Notifications)); err != nil {
			return err
		}
		if err := insertAll(tx, deletedInvoices); err != nil {
			return err
		}
		return insertAll(tx, dismissed)
	})
}

func insertAll[T any](tx *gorm.DB, records []T) error {
	if len(records) == 0 {
		return nil
	}
	if err := tx.Omit(clause.Associations).CreateInBatches(records, 100).Error; err != nil {
		var zero T
		return fmt.Errorf("failed to restore %T: %w", zero, err)
	}
	return nil
}

// WriteSnapshotFile stores a snapshot as JSON under dir and returns its path.
func WriteSnapshotFile(ctx context.Context, db *gorm.DB, dir string) (string, error) {
	backup, err := Snapshot(ctx, db)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	path := filepath.Join(dir, fmt.Sprintf("backup_fleetdesk_%s.json", backup.Timestamp.Format("2006-01-02_15-04-05")))
	file, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return "", err
	}
	return path, nil
}
