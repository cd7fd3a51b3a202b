package Controllers

import (
	"FleetDesk/Billing"
	"FleetDesk/Models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// CashController exposes the cash book
type CashController struct {
	DB      *gorm.DB
	Billing *Billing.Service
}

func NewCashController(db *gorm.DB, billing *Billing.Service) *CashController {
	return &CashController{DB: db, Billing: billing}
}

// GetJournal returns the cash book with its running balance
// GET /api/cash?from=&to=
func (h *CashController) GetJournal(c *fiber.Ctx) error {
	q, err := parseListQuery(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	journal, err := h.Billing.Journal(c.UserContext(), q.From, q.To)
	if err != nil {
		return serviceError(c, err, "Failed to build cash journal")
	}
	return c.JSON(journal)
}

// GET /api/cash/:id
func (h *CashController) GetEntry(c *fiber.Ctx) error {
	var entry Models.CashEntry
	if err := h.DB.First(&entry, "id = ?", c.Params("id")).Error; err != nil {
		return notFound(c, "Cash entry")
	}
	return c.JSON(entry)
}

// POST /api/cash
func (h *CashController) CreateEntry(c *fiber.Ctx) error {
	var entry Models.CashEntry
	if ok, err := parseAndValidate(c, &entry); !ok {
		return err
	}
	entry.ID = ""
	if err := h.Billing.SaveCashEntry(c.UserContext(), &entry); err != nil {
		return serviceError(c, err, "Failed to create cash entry")
	}
	return c.Status(fiber.StatusCreated).JSON(entry)
}

// PUT /api/cash/:id
func (h *CashController) UpdateEntry(c *fiber.Ctx) error {
	var entry Models.CashEntry
	if ok, err := parseAndValidate(c, &entry); !ok {
		return err
	}
	entry.ID = c.Params("id")
	if err := h.Billing.SaveCashEntry(c.UserContext(), &entry); err != nil {
		return serviceError(c, err, "Failed to update cash entry")
	}
	return c.JSON(entry)
}

// DELETE /api/cash/:id
func (h *CashController) DeleteEntry(c *fiber.Ctx) error {
	if err := h.Billing.DeleteCashEntry(c.UserContext(), c.Params("id")); err != nil {
		return serviceError(c, err, "Failed to delete cash entry")
	}
	return c.JSON(fiber.Map{"message": "Cash entry deleted successfully"})
}
