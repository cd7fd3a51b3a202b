package Models

// Third party kinds
const (
	PartyClient   = "client"
	PartySupplier = "fournisseur"
	PartyPartner  = "partenaire"
)

type ThirdParty struct {
	Base
	Nom       string `json:"nom" gorm:"size:150;not null;index" validate:"required,max=150"`
	Type      string `json:"type" gorm:"size:20;not null;index" validate:"required,oneof=client fournisseur partenaire"`
	Telephone string `json:"telephone" gorm:"size:30"`
	Email     string `json:"email" gorm:"size:150" validate:"omitempty,email"`
	Adresse   string `json:"adresse" gorm:"size:255"`
	NIU       string `json:"niu" gorm:"column:niu;size:30"`
	Notes     string `json:"notes" gorm:"type:text"`
}

func (ThirdParty) TableName() string {
	return "third_parties"
}
