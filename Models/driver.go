package Models

import (
	"encoding/json"
	"fmt"

	"FleetDesk/Accounting"

	"gorm.io/datatypes"
)

type Driver struct {
	Base
	Nom                  string  `json:"nom" gorm:"size:100;not null;index" validate:"required,max=100"`
	Prenom               string  `json:"prenom" gorm:"size:100"`
	Telephone            string  `json:"telephone" gorm:"size:30"`
	NumeroPermis         string  `json:"numeroPermis" gorm:"size:50"`
	DateExpirationPermis string  `json:"dateExpirationPermis" gorm:"size:10" validate:"omitempty,datetime=2006-01-02"`
	DateEmbauche         string  `json:"dateEmbauche" gorm:"size:10" validate:"omitempty,datetime=2006-01-02"`
	Salaire              float64 `json:"salaire" validate:"gte=0"`
	Statut               string  `json:"statut" gorm:"size:20;default:actif" validate:"omitempty,oneof=actif inactif"`

	// Embedded list of DriverTransaction, stored as a JSON column
	Transactions datatypes.JSON `json:"transactions"`
}

func (Driver) TableName() string {
	return "drivers"
}

type DriverTransaction struct {
	ID          string  `json:"id"`
	Date        string  `json:"date" validate:"required,datetime=2006-01-02"`
	Type        string  `json:"type" validate:"required,oneof=avance salaire prime retenue remboursement"`
	Montant     float64 `json:"montant" validate:"gt=0"`
	Description string  `json:"description"`
}

func (t DriverTransaction) GetID() string {
	return t.ID
}

// FullName is "Prenom Nom" or just Nom.
func (d Driver) FullName() string {
	if d.Prenom == "" {
		return d.Nom
	}
	return d.Prenom + " " + d.Nom
}

func (d Driver) TransactionList() ([]DriverTransaction, error) {
	if len(d.Transactions) == 0 {
		return []DriverTransaction{}, nil
	}
	var list []DriverTransaction
	if err := json.Unmarshal(d.Transactions, &list); err != nil {
		return nil, fmt.Errorf("driver %s: invalid transactions: %w", d.ID, err)
	}
	if list == nil {
		list = []DriverTransaction{}
	}
	return list, nil
}

func (d *Driver) SetTransactionList(list []DriverTransaction) error {
	if list == nil {
		list = []DriverTransaction{}
	}
	data, err := json.Marshal(UniqueByID(list))
	if err != nil {
		return err
	}
	d.Transactions = datatypes.JSON(data)
	return nil
}

// Statement summarizes the embedded transactions.
func (d Driver) Statement() (Accounting.DriverStatement, error) {
	list, err := d.TransactionList()
	if err != nil {
		return Accounting.DriverStatement{}, err
	}
	entries := make([]Accounting.DriverEntry, 0, len(list))
	for _, t := range list {
		entries = append(entries, Accounting.DriverEntry{Type: t.Type, Montant: t.Montant})
	}
	return Accounting.BuildDriverStatement(entries), nil
}
