package Controllers

import (
	"bytes"
	"fmt"
	"time"

	"FleetDesk/Billing"
	"FleetDesk/Exports"
	"FleetDesk/Models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ExportController writes the xlsx reports
type ExportController struct {
	DB      *gorm.DB
	Billing *Billing.Service
}

func NewExportController(db *gorm.DB, billing *Billing.Service) *ExportController {
	return &ExportController{DB: db, Billing: billing}
}

// GET /api/exports/trips.xlsx
func (h *ExportController) Trips(c *fiber.Ctx) error {
	q, err := parseListQuery(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	var trips []Models.Trip
	if err := q.dates(h.DB, "date_depart").Order("date_depart ASC").Find(&trips).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch trips"})
	}
	names, err := h.names()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch references"})
	}
	return h.send(c, "trajets", Exports.TripsSheet(trips, names.trucks, names.drivers, names.parties))
}

// GET /api/exports/expenses.xlsx
func (h *ExportController) Expenses(c *fiber.Ctx) error {
	q, err := parseListQuery(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	var expenses []Models.Expense
	if err := q.dates(h.DB, "date").Order("date ASC").Find(&expenses).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch expenses"})
	}
	names, err := h.names()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch references"})
	}
	return h.send(c, "depenses", Exports.ExpensesSheet(expenses, names.trucks, names.drivers, names.parties))
}

// GET /api/exports/invoices.xlsx
func (h *ExportController) Invoices(c *fiber.Ctx) error {
	q, err := parseListQuery(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	var invoices []Models.Invoice
	if err := q.dates(h.DB, "date_emission").Order("numero ASC").Find(&invoices).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch invoices"})
	}
	names, err := h.names()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch references"})
	}
	return h.send(c, "factures", Exports.InvoicesSheet(invoices, names.parties))
}

// GET /api/exports/cash.xlsx
func (h *ExportController) Cash(c *fiber.Ctx) error {
	q, err := parseListQuery(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	journal, err := h.Billing.Journal(c.UserContext(), q.From, q.To)
	if err != nil {
		return serviceError(c, err, "Failed to build cash journal")
	}
	return h.send(c, "caisse", Exports.JournalSheet(journal))
}

type exportNames struct {
	trucks  Exports.Names
	drivers Exports.Names
	parties Exports.Names
}

// names maps ids to labels, deleted records included so old rows stay readable.
func (h *ExportController) names() (exportNames, error) {
	out := exportNames{trucks: Exports.Names{}, drivers: Exports.Names{}, parties: Exports.Names{}}
	db := h.DB.Unscoped().Session(&gorm.Session{})

	var trucks []Models.Truck
	if err := db.Select("id", "immatriculation").Find(&trucks).Error; err != nil {
		return out, err
	}
	for _, t := range trucks {
		out.trucks[t.ID] = t.Immatriculation
	}

	var drivers []Models.Driver
	if err := db.Select("id", "nom", "prenom").Find(&drivers).Error; err != nil {
		return out, err
	}
	for _, d := range drivers {
		out.drivers[d.ID] = d.FullName()
	}

	var parties []Models.ThirdParty
	if err := db.Select("id", "nom").Find(&parties).Error; err != nil {
		return out, err
	}
	for _, p := range parties {
		out.parties[p.ID] = p.Nom
	}
	return out, nil
}

func (h *ExportController) send(c *fiber.Ctx, name string, sheet Exports.Sheet) error {
	buf, err := Exports.WriteWorkbook(sheet)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to generate Excel file",
			"message": err.Error(),
		})
	}
	return sendXLSX(c, fmt.Sprintf("%s_%s.xlsx", name, time.Now().Format("2006-01-02")), buf)
}

func sendXLSX(c *fiber.Ctx, filename string, buf *bytes.Buffer) error {
	c.Set(fiber.HeaderContentType, Exports.XLSXContentType)
	c.Set(fiber.HeaderContentDisposition, "attachment; filename="+filename)
	return c.Send(buf.Bytes())
}
