package Models

import (
	"crypto/sha256"
	"fmt"

	"gorm.io/gorm"
)

// Notification kinds
const (
	NotifyInsurance  = "assurance"
	NotifyInspection = "visite_technique"
	NotifyLicence    = "permis"
	NotifyOverdue    = "facture_echue"
)

type Notification struct {
	Base
	Type         string `json:"type" gorm:"size:30;not null;index"`
	Message      string `json:"message" gorm:"type:text"`
	Reference    string `json:"reference" gorm:"size:36;index"`
	DateEcheance string `json:"dateEcheance" gorm:"size:10"`
	Lu           bool   `json:"lu" gorm:"default:false"`
	Hash         string `json:"-" gorm:"uniqueIndex;size:64"`
}

func (Notification) TableName() string {
	return "notifications"
}

// ComputeHash identifies one alert: same record, same kind, same due date.
func (n *Notification) ComputeHash() string {
	data := fmt.Sprintf("%s|%s|%s", n.Type, n.Reference, n.DateEcheance)
	return fmt.Sprintf("%x", sha256.Sum256([]byte(data)))
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if err := n.Base.BeforeCreate(tx); err != nil {
		return err
	}
	if n.Hash == "" {
		n.Hash = n.ComputeHash()
	}
	return nil
}
