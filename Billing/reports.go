package Billing

import (
	"context"
	"sort"

	"FleetDesk/Accounting"
	"FleetDesk/Models"

	"gorm.io/gorm"
)

type TruckProfit struct {
	CamionID        string             `json:"camionId"`
	Immatriculation string             `json:"immatriculation"`
	NombreTrajets   int                `json:"nombreTrajets"`
	Distance        float64            `json:"distance"`
	Revenus         float64            `json:"revenus"`
	Depenses        float64            `json:"depenses"`
	ParCategorie    map[string]float64 `json:"parCategorie"`
	Marge           float64            `json:"marge"`
	MargePct        float64            `json:"margePct"`
}

// TruckProfitability compares trip revenue (HT, cancelled trips excluded)
// with the expenses booked on each truck. An empty truckID covers the fleet.
func (s *Service) TruckProfitability(ctx context.Context, truckID, from, to string) ([]TruckProfit, error) {
	db := s.DB.WithContext(ctx)

	var trucks []Models.Truck
	query := db.Order("immatriculation ASC")
	if truckID != "" {
		query = query.Where("id = ?", truckID)
	}
	if err := query.Find(&trucks).Error; err != nil {
		return nil, err
	}
	if truckID != "" && len(trucks) == 0 {
		return nil, notFound("truck", gorm.ErrRecordNotFound)
	}

	byTruck := make(map[string]*TruckProfit, len(trucks))
	ids := make([]string, 0, len(trucks))
	for _, t := range trucks {
		byTruck[t.ID] = &TruckProfit{CamionID: t.ID, Immatriculation: t.Immatriculation, ParCategorie: map[string]float64{}}
		ids = append(ids, t.ID)
	}
	if len(ids) == 0 {
		return []TruckProfit{}, nil
	}

	var trips []Models.Trip
	tripQuery := dateRange(db.Where("camion_id IN ? AND statut <> ?", ids, Models.TripCancelled), "date_depart", from, to)
	if err := tripQuery.Find(&trips).Error; err != nil {
		return nil, err
	}
	for _, trip := range trips {
		p := byTruck[trip.CamionID]
		p.NombreTrajets++
		p.Distance += trip.Distance
		p.Revenus += trip.Prix
	}

	var expenses []Models.Expense
	expenseQuery := dateRange(db.Where("camion_id IN ?", ids), "date", from, to)
	if err := expenseQuery.Find(&expenses).Error; err != nil {
		return nil, err
	}
	for _, e := range expenses {
		p := byTruck[Models.Deref(e.CamionID)]
		p.Depenses += e.Montant
		p.ParCategorie[e.Categorie] += e.Montant
	}

	out := make([]TruckProfit, 0, len(ids))
	for _, id := range ids {
		p := byTruck[id]
		p.Marge = p.Revenus - p.Depenses
		if p.Revenus > 0 {
			p.MargePct = Accounting.Percent(p.Marge, p.Revenus)
		}
		out = append(out, *p)
	}
	return out, nil
}

type StatementInvoice struct {
	ID           string  `json:"id"`
	Numero       string  `json:"numero"`
	DateEmission string  `json:"dateEmission"`
	DateEcheance string  `json:"dateEcheance"`
	MontantTTC   float64 `json:"montantTTC"`
	MontantPaye  float64 `json:"montantPaye"`
	ResteAPayer  float64 `json:"resteAPayer"`
	Statut       string  `json:"statut"`
}

type StatementExpense struct {
	ID        string  `json:"id"`
	Date      string  `json:"date"`
	Categorie string  `json:"categorie"`
	Montant   float64 `json:"montant"`
}

// ThirdPartyStatement is what the company billed a client and what it spent
// with a supplier. A partner can have both.
type ThirdPartyStatement struct {
	Tiers         Models.ThirdParty  `json:"tiers"`
	Factures      []StatementInvoice `json:"factures"`
	TotalFacture  float64            `json:"totalFacture"`
	TotalEncaisse float64            `json:"totalEncaisse"`
	SoldeClient   float64            `json:"soldeClient"`
	Depenses      []StatementExpense `json:"depenses"`
	TotalDepenses float64            `json:"totalDepenses"`
}

func (s *Service) Statement(ctx context.Context, partyID, from, to string) (*ThirdPartyStatement, error) {
	db := s.DB.WithContext(ctx)

	var party Models.ThirdParty
	if err := db.First(&party, "id = ?", partyID).Error; err != nil {
		return nil, notFound("third party", err)
	}
	statement := &ThirdPartyStatement{
		Tiers:    party,
		Factures: []StatementInvoice{},
		Depenses: []StatementExpense{},
	}

	var invoices []Models.Invoice
	invoiceQuery := dateRange(db.Where("client_id = ? AND statut <> ?", partyID, Accounting.InvoiceCancelled), "date_emission", from, to)
	if err := invoiceQuery.Order("date_emission ASC").Find(&invoices).Error; err != nil {
		return nil, err
	}
	for _, inv := range invoices {
		statement.Factures = append(statement.Factures, StatementInvoice{
			ID:           inv.ID,
			Numero:       inv.Numero,
			DateEmission: inv.DateEmission,
			DateEcheance: inv.DateEcheance,
			MontantTTC:   inv.MontantTTC,
			MontantPaye:  inv.MontantPaye,
			ResteAPayer:  inv.ResteAPayer,
			Statut:       inv.Statut,
		})
		statement.TotalFacture += inv.MontantTTC
		statement.TotalEncaisse += inv.MontantPaye
	}
	statement.SoldeClient = Accounting.Outstanding(statement.TotalFacture, statement.TotalEncaisse)

	var expenses []Models.Expense
	expenseQuery := dateRange(db.Where("fournisseur_id = ?", partyID), "date", from, to)
	if err := expenseQuery.Order("date ASC").Find(&expenses).Error; err != nil {
		return nil, err
	}
	for _, e := range expenses {
		statement.Depenses = append(statement.Depenses, StatementExpense{ID: e.ID, Date: e.Date, Categorie: e.Categorie, Montant: e.Montant})
		statement.TotalDepenses += e.Montant
	}
	return statement, nil
}

type ClientRevenue struct {
	ClientID   string  `json:"clientId"`
	Nom        string  `json:"nom"`
	Factures   int     `json:"factures"`
	MontantTTC float64 `json:"montantTTC"`
	Encaisse   float64 `json:"encaisse"`
}

// TopClients ranks clients by invoiced TTC.
func (s *Service) TopClients(ctx context.Context, from, to string, limit int) ([]ClientRevenue, error) {
	db := s.DB.WithContext(ctx)

	var invoices []Models.Invoice
	query := dateRange(db.Where("client_id IS NOT NULL AND statut <> ?", Accounting.InvoiceCancelled), "date_emission", from, to)
	if err := query.Find(&invoices).Error; err != nil {
		return nil, err
	}

	byClient := map[string]*ClientRevenue{}
	for _, inv := range invoices {
		id := Models.Deref(inv.ClientID)
		r, ok := byClient[id]
		if !ok {
			r = &ClientRevenue{ClientID: id}
			byClient[id] = r
		}
		r.Factures++
		r.MontantTTC += inv.MontantTTC
		r.Encaisse += inv.MontantPaye
	}

	ids := make([]string, 0, len(byClient))
	for id := range byClient {
		ids = append(ids, id)
	}
	var parties []Models.ThirdParty
	if len(ids) > 0 {
		if err := db.Where("id IN ?", ids).Find(&parties).Error; err != nil {
			return nil, err
		}
	}
	for _, p := range parties {
		byClient[p.ID].Nom = p.Nom
	}

	out := make([]ClientRevenue, 0, len(byClient))
	for _, r := range byClient {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MontantTTC != out[j].MontantTTC {
			return out[i].MontantTTC > out[j].MontantTTC
		}
		return out[i].Nom < out[j].Nom
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// dateRange restricts a YYYY-MM-DD column; empty bounds are open.
func dateRange(db *gorm.DB, column, from, to string) *gorm.DB {
	if from != "" {
		db = db.Where(column+" >= ?", from)
	}
	if to != "" {
		db = db.Where(column+" <= ?", to)
	}
	return db
}
