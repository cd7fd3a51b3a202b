package Models

// Truck statuses
const (
	TruckActive      = "actif"
	TruckMaintenance = "maintenance"
	TruckInactive    = "inactif"
)

type Truck struct {
	Base
	Immatriculation string  `json:"immatriculation" gorm:"size:32;not null;index" validate:"required,max=32"`
	Marque          string  `json:"marque" gorm:"size:100"`
	Modele          string  `json:"modele" gorm:"size:100"`
	Annee           int     `json:"annee" validate:"omitempty,gte=1950,lte=2100"`
	Capacite        float64 `json:"capacite" validate:"gte=0"` // tonnes
	Kilometrage     int64   `json:"kilometrage" validate:"gte=0"`
	Statut          string  `json:"statut" gorm:"size:20;default:actif" validate:"omitempty,oneof=actif maintenance inactif"`

	ChauffeurID         *string `json:"chauffeurId" gorm:"size:36;index"`
	DateAssurance       string  `json:"dateAssurance" gorm:"size:10" validate:"omitempty,datetime=2006-01-02"`
	DateVisiteTechnique string  `json:"dateVisiteTechnique" gorm:"size:10" validate:"omitempty,datetime=2006-01-02"`
	Notes               string  `json:"notes" gorm:"type:text"`
}

func (Truck) TableName() string {
	return "trucks"
}
