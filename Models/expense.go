package Models

type Expense struct {
	Base
	CamionID      *string `json:"camionId" gorm:"size:36;index"`
	TrajetID      *string `json:"trajetId" gorm:"size:36;index"`
	ChauffeurID   *string `json:"chauffeurId" gorm:"size:36;index"`
	FournisseurID *string `json:"fournisseurId" gorm:"size:36;index"`

	Categorie    string  `json:"categorie" gorm:"size:30;not null;index" validate:"required,oneof=carburant entretien reparation peage assurance salaire pieces autre"`
	Montant      float64 `json:"montant" gorm:"not null" validate:"gt=0"`
	Date         string  `json:"date" gorm:"size:10;not null;index" validate:"required,datetime=2006-01-02"`
	Description  string  `json:"description" gorm:"type:text"`
	ModePaiement string  `json:"modePaiement" gorm:"size:20" validate:"omitempty,oneof=especes virement cheque mobile_money"`

	// Scanned receipt and its thumbnail, relative to the upload directory
	Justificatif string `json:"justificatif" gorm:"size:255"`
	Miniature    string `json:"miniature" gorm:"size:255"`

	// Mirror entry in the cash book when paid in cash
	CaisseID *string `json:"caisseId" gorm:"size:36"`
}

func (Expense) TableName() string {
	return "expenses"
}
