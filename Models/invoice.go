package Models

type Invoice struct {
	Base
	Numero   string  `json:"numero" gorm:"size:32;uniqueIndex"`
	TrajetID *string `json:"trajetId" gorm:"size:36;index"`
	ClientID *string `json:"clientId" gorm:"size:36;index"`

	DateEmission string `json:"dateEmission" gorm:"size:10;not null;index" validate:"required,datetime=2006-01-02"`
	DateEcheance string `json:"dateEcheance" gorm:"size:10" validate:"omitempty,datetime=2006-01-02"`
	Designation  string `json:"designation" gorm:"type:text"`

	// Percentages
	MontantHT float64 `json:"montantHT" validate:"gte=0"`
	Remise    float64 `json:"remise" validate:"gte=0,lte=100"`
	TVA       float64 `json:"tva" gorm:"column:tva" validate:"gte=0,lte=100"`
	TPS       float64 `json:"tps" gorm:"column:tps" validate:"gte=0,lte=100"`

	// Computed by the billing service
	MontantRemise float64 `json:"montantRemise"`
	NetHT         float64 `json:"netHT" gorm:"column:net_ht"`
	MontantTVA    float64 `json:"montantTVA" gorm:"column:montant_tva"`
	MontantTPS    float64 `json:"montantTPS" gorm:"column:montant_tps"`
	MontantTTC    float64 `json:"montantTTC" gorm:"column:montant_ttc"`
	MontantPaye   float64 `json:"montantPaye"`
	ResteAPayer   float64 `json:"resteAPayer"`
	Statut        string  `json:"statut" gorm:"size:20;default:impayee;index"`

	Paiements []Payment `json:"paiements,omitempty" gorm:"foreignKey:FactureID;constraint:OnDelete:CASCADE"`
}

func (Invoice) TableName() string {
	return "invoices"
}

// Payment is one settlement, possibly partial, of an invoice.
type Payment struct {
	Base
	FactureID string  `json:"factureId" gorm:"size:36;not null;index"`
	Date      string  `json:"date" gorm:"size:10;not null" validate:"required,datetime=2006-01-02"`
	Montant   float64 `json:"montant" gorm:"not null" validate:"gt=0"`
	Mode      string  `json:"mode" gorm:"size:20;not null" validate:"required,oneof=especes virement cheque mobile_money"`
	Reference string  `json:"reference" gorm:"size:100"`
	CaisseID  *string `json:"caisseId" gorm:"size:36"`
}

func (Payment) TableName() string {
	return "payments"
}
