package Exports

import (
	"bytes"
	"fmt"

	"FleetDesk/Accounting"
	"FleetDesk/Models"

	"github.com/xuri/excelize/v2"
)

const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Sheet is a header row followed by data rows.
type Sheet struct {
	Name    string
	Headers []string
	Rows    [][]interface{}
	// Footer is written one row below the data, in bold
	Footer []interface{}
}

// Names resolves record ids to display names in exported rows.
type Names map[string]string

func (n Names) Of(id *string) string {
	if id == nil {
		return ""
	}
	if name, ok := n[*id]; ok {
		return name
	}
	return *id
}

// WriteWorkbook renders the sheets into an xlsx file.
func WriteWorkbook(sheets ...Sheet) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#1F4E78"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("error creating header style: %v", err)
	}
	boldStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("error creating footer style: %v", err)
	}

	for i, sheet := range sheets {
		index, err := f.NewSheet(sheet.Name)
		if err != nil {
			return nil, fmt.Errorf("error creating sheet %s: %v", sheet.Name, err)
		}
		if i == 0 {
			f.SetActiveSheet(index)
		}

		if err := writeRow(f, sheet.Name, 1, toInterfaces(sheet.Headers)); err != nil {
			return nil, err
		}
		f.SetRowStyle(sheet.Name, 1, 1, headerStyle)

		for r, row := range sheet.Rows {
			if err := writeRow(f, sheet.Name, r+2, row); err != nil {
				return nil, err
			}
		}
		if len(sheet.Footer) > 0 {
			footerRow := len(sheet.Rows) + 3
			if err := writeRow(f, sheet.Name, footerRow, sheet.Footer); err != nil {
				return nil, err
			}
			f.SetRowStyle(sheet.Name, footerRow, footerRow, boldStyle)
		}

		if len(sheet.Headers) > 0 {
			last, _ := excelize.ColumnNumberToName(len(sheet.Headers))
			f.SetColWidth(sheet.Name, "A", last, 18)
		}
	}

	// Delete the default sheet unless one of ours took its name
	keep := false
	for _, sheet := range sheets {
		if sheet.Name == "Sheet1" {
			keep = true
		}
	}
	if !keep {
		f.DeleteSheet("Sheet1")
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("error writing Excel file to buffer: %v", err)
	}
	return &buf, nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	for col, value := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return err
		}
	}
	return nil
}

func toInterfaces(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func TripsSheet(trips []Models.Trip, trucks, drivers, clients Names) Sheet {
	sheet := Sheet{
		Name: "Trajets",
		Headers: []string{
			"Date départ", "Date arrivée", "Camion", "Chauffeur", "Client", "Départ", "Arrivée",
			"Marchandise", "Poids (t)", "Distance (km)", "Prix HT", "Statut", "Facturé", "Montant payé", "Paiement",
		},
	}
	var total, paid float64
	for _, t := range trips {
		facture := "Non"
		if t.Facture {
			facture = "Oui"
		}
		sheet.Rows = append(sheet.Rows, []interface{}{
			t.DateDepart, t.DateArrivee, trucks.Of(&t.CamionID), drivers.Of(&t.ChauffeurID), clients.Of(t.ClientID),
			t.Depart, t.Arrivee, t.Marchandise, t.Poids, t.Distance, t.Prix, t.Statut, facture, t.MontantPaye, t.StatutPaiement,
		})
		total += t.Prix
		paid += t.MontantPaye
	}
	sheet.Footer = []interface{}{"Total", "", "", "", "", "", "", "", "", "", total, "", "", paid}
	return sheet
}

func ExpensesSheet(expenses []Models.Expense, trucks, drivers, suppliers Names) Sheet {
	sheet := Sheet{
		Name:    "Dépenses",
		Headers: []string{"Date", "Catégorie", "Camion", "Chauffeur", "Fournisseur", "Description", "Mode de paiement", "Montant"},
	}
	var total float64
	for _, e := range expenses {
		sheet.Rows = append(sheet.Rows, []interface{}{
			e.Date, e.Categorie, trucks.Of(e.CamionID), drivers.Of(e.ChauffeurID), suppliers.Of(e.FournisseurID),
			e.Description, e.ModePaiement, e.Montant,
		})
		total += e.Montant
	}
	sheet.Footer = []interface{}{"Total", "", "", "", "", "", "", total}
	return sheet
}

func InvoicesSheet(invoices []Models.Invoice, clients Names) Sheet {
	sheet := Sheet{
		Name: "Factures",
		Headers: []string{
			"Numéro", "Date", "Échéance", "Client", "Désignation", "Montant HT", "Remise %", "Montant remise",
			"Net HT", "TVA %", "Montant TVA", "TPS %", "Montant TPS", "Total TTC", "Payé", "Reste à payer", "Statut",
		},
	}
	var ttc, paid, rest float64
	for _, inv := range invoices {
		sheet.Rows = append(sheet.Rows, []interface{}{
			inv.Numero, inv.DateEmission, inv.DateEcheance, clients.Of(inv.ClientID), inv.Designation,
			inv.MontantHT, inv.Remise, inv.MontantRemise, inv.NetHT, inv.TVA, inv.MontantTVA, inv.TPS, inv.MontantTPS,
			inv.MontantTTC, inv.MontantPaye, inv.ResteAPayer, inv.Statut,
		})
		if inv.Statut != Accounting.InvoiceCancelled {
			ttc += inv.MontantTTC
			paid += inv.MontantPaye
			rest += inv.ResteAPayer
		}
	}
	sheet.Footer = []interface{}{"Total", "", "", "", "", "", "", "", "", "", "", "", "", ttc, paid, rest}
	return sheet
}

func JournalSheet(journal Accounting.Journal) Sheet {
	sheet := Sheet{
		Name:    "Caisse",
		Headers: []string{"Date", "Libellé", "Catégorie", "Recette", "Dépense", "Solde"},
		Rows:    [][]interface{}{{journal.From, "Solde initial", "", "", "", journal.SoldeInitial}},
	}
	for _, l := range journal.Lignes {
		sheet.Rows = append(sheet.Rows, []interface{}{l.Date, l.Libelle, l.Categorie, l.Recette, l.Depense, l.Solde})
	}
	sheet.Footer = []interface{}{"Total", "", "", journal.TotalRecettes, journal.TotalDepenses, journal.SoldeFinal}
	return sheet
}
