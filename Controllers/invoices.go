package Controllers

import (
	"fmt"

	"FleetDesk/Billing"
	"FleetDesk/Exports"
	"FleetDesk/Models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type InvoiceController struct {
	DB      *gorm.DB
	Billing *Billing.Service
}

func NewInvoiceController(db *gorm.DB, billing *Billing.Service) *InvoiceController {
	return &InvoiceController{DB: db, Billing: billing}
}

// GetInvoices lists invoices, newest first
// GET /api/invoices?statut=&clientId=&trajetId=
func (h *InvoiceController) GetInvoices(c *fiber.Ctx) error {
	q, err := parseListQuery(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	query := h.DB.Model(&Models.Invoice{})
	if statut := c.Query("statut"); statut != "" {
		query = query.Where("statut = ?", statut)
	}
	if client := c.Query("clientId"); client != "" {
		query = query.Where("client_id = ?", client)
	}
	if trip := c.Query("trajetId"); trip != "" {
		query = query.Where("trajet_id = ?", trip)
	}
	query = q.dates(query, "date_emission")
	query = q.search(query, "numero", "designation")

	var invoices []Models.Invoice
	return paginate(c, query, q, "date_emission DESC, numero DESC", &invoices, "Invoices retrieved successfully")
}

// GetInvoice returns the invoice with its payments
// GET /api/invoices/:id
func (h *InvoiceController) GetInvoice(c *fiber.Ctx) error {
	var invoice Models.Invoice
	err := h.DB.Preload("Paiements", func(db *gorm.DB) *gorm.DB {
		return db.Order("date ASC, created_at ASC")
	}).First(&invoice, "id = ?", c.Params("id")).Error
	if err != nil {
		return notFound(c, "Invoice")
	}
	return c.JSON(invoice)
}

// POST /api/invoices
func (h *InvoiceController) CreateInvoice(c *fiber.Ctx) error {
	var req Billing.InvoiceRequest
	if ok, err := parseAndValidate(c, &req); !ok {
		return err
	}
	invoice, err := h.Billing.CreateInvoice(c.UserContext(), req)
	if err != nil {
		return serviceError(c, err, "Failed to create invoice")
	}
	return c.Status(fiber.StatusCreated).JSON(invoice)
}

// PUT /api/invoices/:id
func (h *InvoiceController) UpdateInvoice(c *fiber.Ctx) error {
	var req Billing.InvoiceRequest
	if ok, err := parseAndValidate(c, &req); !ok {
		return err
	}
	invoice, err := h.Billing.UpdateInvoice(c.UserContext(), c.Params("id"), req)
	if err != nil {
		return serviceError(c, err, "Failed to update invoice")
	}
	return c.JSON(invoice)
}

// DELETE /api/invoices/:id
func (h *InvoiceController) DeleteInvoice(c *fiber.Ctx) error {
	if err := h.Billing.DeleteInvoice(c.UserContext(), c.Params("id")); err != nil {
		return serviceError(c, err, "Failed to delete invoice")
	}
	return c.JSON(fiber.Map{"message": "Invoice deleted successfully"})
}

// PreviewInvoice computes the totals of a draft without storing it
// POST /api/invoices/preview
func (h *InvoiceController) PreviewInvoice(c *fiber.Ctx) error {
	var req Billing.InvoiceRequest
	if ok, err := parseAndValidate(c, &req); !ok {
		return err
	}
	totals, err := h.Billing.Preview(c.UserContext(), req)
	if err != nil {
		return serviceError(c, err, "Failed to compute invoice")
	}
	return c.JSON(totals)
}

// POST /api/invoices/:id/cancel
func (h *InvoiceController) CancelInvoice(c *fiber.Ctx) error {
	invoice, err := h.Billing.CancelInvoice(c.UserContext(), c.Params("id"))
	if err != nil {
		return serviceError(c, err, "Failed to cancel invoice")
	}
	return c.JSON(invoice)
}

// AddPayment records a full or partial payment
// POST /api/invoices/:id/payments
func (h *InvoiceController) AddPayment(c *fiber.Ctx) error {
	var payment Models.Payment
	if ok, err := parseAndValidate(c, &payment); !ok {
		return err
	}
	invoice, err := h.Billing.RecordPayment(c.UserContext(), c.Params("id"), &payment)
	if err != nil {
		return serviceError(c, err, "Failed to record payment")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":  "Payment recorded successfully",
		"paiement": payment,
		"facture":  invoice,
	})
}

// DELETE /api/invoices/:id/payments/:paymentId
func (h *InvoiceController) DeletePayment(c *fiber.Ctx) error {
	invoice, err := h.Billing.DeletePayment(c.UserContext(), c.Params("id"), c.Params("paymentId"))
	if err != nil {
		return serviceError(c, err, "Failed to delete payment")
	}
	return c.JSON(fiber.Map{
		"message": "Payment deleted successfully",
		"facture": invoice,
	})
}

// GET /api/invoices/:id/pdf
func (h *InvoiceController) DownloadPDF(c *fiber.Ctx) error {
	doc, err := h.document(c.Params("id"))
	if err != nil {
		return serviceError(c, err, "Failed to load invoice")
	}
	buf, err := Exports.InvoicePDF(doc)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to generate PDF",
			"message": err.Error(),
		})
	}

	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("inline; filename=%s.pdf", doc.Invoice.Numero))
	return c.Send(buf.Bytes())
}

// PrintInvoice renders the printable HTML view
// GET /api/invoices/:id/print
func (h *InvoiceController) PrintInvoice(c *fiber.Ctx) error {
	doc, err := h.document(c.Params("id"))
	if err != nil {
		return serviceError(c, err, "Failed to load invoice")
	}
	return c.Render("invoice", fiber.Map{
		"Doc":       doc,
		"Lines":     doc.Lines(),
		"Cancelled": doc.Cancelled(),
		"Total":     Exports.Money(doc.Invoice.MontantTTC, doc.Company.Currency),
	})
}

func (h *InvoiceController) document(id string) (Exports.InvoiceDocument, error) {
	doc := Exports.InvoiceDocument{Company: h.Billing.Settings}
	err := h.DB.Preload("Paiements").First(&doc.Invoice, "id = ?", id).Error
	if err != nil {
		return doc, fmt.Errorf("%w: invoice %s", Billing.ErrNotFound, id)
	}

	if doc.Invoice.ClientID != nil {
		var client Models.ThirdParty
		if h.DB.Unscoped().First(&client, "id = ?", *doc.Invoice.ClientID).Error == nil {
			doc.Client = &client
		}
	}
	if doc.Invoice.TrajetID != nil {
		var trip Models.Trip
		if h.DB.Unscoped().First(&trip, "id = ?", *doc.Invoice.TrajetID).Error == nil {
			doc.Trip = &trip
		}
	}
	return doc, nil
}
