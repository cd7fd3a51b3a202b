package Models

// CashEntry is a line of the cash book: money in (Recette) or out (Depense).
type CashEntry struct {
	Base
	Date      string  `json:"date" gorm:"size:10;not null;index" validate:"required,datetime=2006-01-02"`
	Libelle   string  `json:"libelle" gorm:"size:255;not null" validate:"required,max=255"`
	Recette   float64 `json:"recette" validate:"gte=0"`
	Depense   float64 `json:"depense" validate:"gte=0"`
	Categorie string  `json:"categorie" gorm:"size:50"`
	Reference string  `json:"reference" gorm:"size:100"`
	TiersID   *string `json:"tiersId" gorm:"size:36;index"`

	// Set when the entry mirrors an invoice payment or an expense
	PaiementID *string `json:"paiementId" gorm:"size:36;index"`
	DepenseID  *string `json:"depenseId" gorm:"size:36;index"`
}

func (CashEntry) TableName() string {
	return "cash_entries"
}

// Linked reports whether the entry is maintained by another record.
func (e CashEntry) Linked() bool {
	return e.PaiementID != nil || e.DepenseID != nil
}
