package Exports

import (
	"bytes"
	"fmt"

	"FleetDesk/Accounting"
	"FleetDesk/Models"
	"FleetDesk/config"

	"github.com/jung-kurt/gofpdf"
)

// InvoiceDocument gathers what a printed invoice shows. It feeds both the
// PDF and the HTML print template.
type InvoiceDocument struct {
	Company config.Settings
	Invoice Models.Invoice
	Client  *Models.ThirdParty
	Trip    *Models.Trip
}

// DocumentLine is a label and its formatted value.
type DocumentLine struct {
	Label string
	Value string
}

// Lines are the totals block, skipping zero discount and zero TPS.
func (d InvoiceDocument) Lines() []DocumentLine {
	inv := d.Invoice
	cur := d.Company.Currency
	lines := []DocumentLine{{"Montant HT", Money(inv.MontantHT, cur)}}
	if inv.MontantRemise > 0 {
		lines = append(lines,
			DocumentLine{"Remise " + Rate(inv.Remise), "-" + Money(inv.MontantRemise, cur)},
			DocumentLine{"Net HT", Money(inv.NetHT, cur)},
		)
	}
	lines = append(lines, DocumentLine{"TVA " + Rate(inv.TVA), Money(inv.MontantTVA, cur)})
	if inv.MontantTPS > 0 {
		lines = append(lines, DocumentLine{"TPS " + Rate(inv.TPS), Money(inv.MontantTPS, cur)})
	}
	lines = append(lines, DocumentLine{"Total TTC", Money(inv.MontantTTC, cur)})
	if inv.MontantPaye > 0 {
		lines = append(lines,
			DocumentLine{"Déjà réglé", Money(inv.MontantPaye, cur)},
			DocumentLine{"Reste à payer", Money(inv.ResteAPayer, cur)},
		)
	}
	return lines
}

func (d InvoiceDocument) Cancelled() bool {
	return d.Invoice.Statut == Accounting.InvoiceCancelled
}

// InvoicePDF renders an A4 invoice.
func InvoicePDF(doc InvoiceDocument) (*bytes.Buffer, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr("Facture "+doc.Invoice.Numero), false)
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	company := doc.Company
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(110, 8, tr(company.CompanyName), "", 0, "L", false, 0, "")
	pdf.SetFont("Arial", "B", 20)
	pdf.CellFormat(70, 8, "FACTURE", "", 1, "R", false, 0, "")

	pdf.SetFont("Arial", "", 9)
	for _, line := range []string{company.Address, company.Phone, company.Email, idLine("NIU", company.NIU), idLine("RCCM", company.RCCM)} {
		if line != "" {
			pdf.CellFormat(110, 5, tr(line), "", 1, "L", false, 0, "")
		}
	}
	pdf.Ln(6)

	// Invoice references on the left, client on the right
	top := pdf.GetY()
	pdf.SetFont("Arial", "", 10)
	refs := []DocumentLine{
		{"Numéro", doc.Invoice.Numero},
		{"Date", Date(doc.Invoice.DateEmission)},
		{"Échéance", Date(doc.Invoice.DateEcheance)},
	}
	for _, r := range refs {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(25, 6, tr(r.Label), "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(60, 6, tr(r.Value), "", 1, "L", false, 0, "")
	}
	if doc.Client != nil {
		pdf.SetXY(110, top)
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(85, 6, tr("Client : "+doc.Client.Nom), "LTR", 2, "L", false, 0, "")
		pdf.SetFont("Arial", "", 9)
		for _, line := range []string{doc.Client.Adresse, doc.Client.Telephone, idLine("NIU", doc.Client.NIU)} {
			pdf.CellFormat(85, 5, tr(line), "LR", 2, "L", false, 0, "")
		}
		pdf.CellFormat(85, 1, "", "LBR", 1, "L", false, 0, "")
	}
	pdf.SetY(top + 26)

	// Designation table
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(31, 78, 120)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(130, 8, tr("Désignation"), "1", 0, "L", true, 0, "")
	pdf.CellFormat(50, 8, tr("Montant HT"), "1", 1, "R", true, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Arial", "", 10)

	designation := doc.Invoice.Designation
	if doc.Trip != nil {
		designation += fmt.Sprintf("\nTrajet %s - %s, %s", doc.Trip.Depart, doc.Trip.Arrivee, Date(doc.Trip.DateDepart))
		if doc.Trip.Marchandise != "" {
			designation += fmt.Sprintf("\nMarchandise : %s", doc.Trip.Marchandise)
		}
	}
	y := pdf.GetY()
	pdf.MultiCell(130, 6, tr(designation), "1", "L", false)
	height := pdf.GetY() - y
	pdf.SetXY(145, y)
	pdf.CellFormat(50, height, tr(Money(doc.Invoice.MontantHT, company.Currency)), "1", 1, "R", false, 0, "")
	pdf.Ln(4)

	for i, line := range doc.Lines() {
		last := i == len(doc.Lines())-1
		style := ""
		if line.Label == "Total TTC" || last {
			style = "B"
		}
		pdf.SetFont("Arial", style, 10)
		pdf.SetX(105)
		pdf.CellFormat(45, 7, tr(line.Label), "1", 0, "L", false, 0, "")
		pdf.CellFormat(45, 7, tr(line.Value), "1", 1, "R", false, 0, "")
	}

	if doc.Cancelled() {
		pdf.Ln(6)
		pdf.SetFont("Arial", "B", 14)
		pdf.SetTextColor(200, 0, 0)
		pdf.CellFormat(180, 10, tr("FACTURE ANNULÉE"), "", 1, "C", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	}

	pdf.SetY(-30)
	pdf.SetFont("Arial", "I", 8)
	pdf.CellFormat(180, 5, tr(fmt.Sprintf("Paiement à %d jours. Montants exprimés en %s.", company.PaymentTermsDays, company.Currency)), "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("error writing PDF: %v", err)
	}
	return &buf, nil
}

func idLine(label, value string) string {
	if value == "" {
		return ""
	}
	return label + " : " + value
}
