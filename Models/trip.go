package Models

// Trip statuses
const (
	TripPlanned    = "planifie"
	TripInProgress = "en_cours"
	TripDone       = "termine"
	TripCancelled  = "annule"
)

// Trip is a haul from Depart to Arrivee billed at Prix (HT). The invoicing
// fields at the bottom are owned by the billing service and ignored on input.
type Trip struct {
	Base
	CamionID    string  `json:"camionId" gorm:"size:36;not null;index" validate:"required"`
	ChauffeurID string  `json:"chauffeurId" gorm:"size:36;not null;index" validate:"required"`
	ClientID    *string `json:"clientId" gorm:"size:36;index"`

	Depart      string  `json:"depart" gorm:"size:150;not null" validate:"required"`
	Arrivee     string  `json:"arrivee" gorm:"size:150;not null" validate:"required"`
	DateDepart  string  `json:"dateDepart" gorm:"size:10;not null;index" validate:"required,datetime=2006-01-02"`
	DateArrivee string  `json:"dateArrivee" gorm:"size:10" validate:"omitempty,datetime=2006-01-02"`
	Marchandise string  `json:"marchandise" gorm:"size:255"`
	Poids       float64 `json:"poids" validate:"gte=0"`
	Distance    float64 `json:"distance" validate:"gte=0"`
	Prix        float64 `json:"prix" validate:"gte=0"`
	Statut      string  `json:"statut" gorm:"size:20;default:planifie" validate:"omitempty,oneof=planifie en_cours termine annule"`
	Notes       string  `json:"notes" gorm:"type:text"`

	Facture        bool    `json:"facture"`
	FactureID      *string `json:"factureId" gorm:"size:36"`
	MontantPaye    float64 `json:"montantPaye"`
	StatutPaiement string  `json:"statutPaiement" gorm:"size:20;default:non_paye"`
}

func (Trip) TableName() string {
	return "trips"
}
