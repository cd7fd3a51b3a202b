package Controllers

import (
	"FleetDesk/Billing"
	"FleetDesk/Models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ThirdPartyController manages clients, suppliers and partners
type ThirdPartyController struct {
	DB      *gorm.DB
	Billing *Billing.Service
}

func NewThirdPartyController(db *gorm.DB, billing *Billing.Service) *ThirdPartyController {
	return &ThirdPartyController{DB: db, Billing: billing}
}

// GET /api/third-parties?type=client
func (h *ThirdPartyController) GetThirdParties(c *fiber.Ctx) error {
	q, err := parseListQuery(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	query := h.DB.Model(&Models.ThirdParty{})
	if kind := c.Query("type"); kind != "" {
		query = query.Where("type = ?", kind)
	}
	query = q.search(query, "nom", "telephone", "email", "niu")

	var parties []Models.ThirdParty
	return paginate(c, query, q, "nom ASC", &parties, "Third parties retrieved successfully")
}

// GET /api/third-parties/:id
func (h *ThirdPartyController) GetThirdParty(c *fiber.Ctx) error {
	var party Models.ThirdParty
	if err := h.DB.First(&party, "id = ?", c.Params("id")).Error; err != nil {
		return notFound(c, "Third party")
	}
	return c.JSON(party)
}

// POST /api/third-parties
func (h *ThirdPartyController) CreateThirdParty(c *fiber.Ctx) error {
	var party Models.ThirdParty
	if ok, err := parseAndValidate(c, &party); !ok {
		return err
	}
	party.ID = ""
	if err := h.DB.Create(&party).Error; err != nil {
		return serviceError(c, err, "Failed to create third party")
	}
	return c.Status(fiber.StatusCreated).JSON(party)
}

// PUT /api/third-parties/:id
func (h *ThirdPartyController) UpdateThirdParty(c *fiber.Ctx) error {
	var existing Models.ThirdParty
	if err := h.DB.First(&existing, "id = ?", c.Params("id")).Error; err != nil {
		return notFound(c, "Third party")
	}

	var party Models.ThirdParty
	if ok, err := parseAndValidate(c, &party); !ok {
		return err
	}
	party.Base = existing.Base
	if err := h.DB.Save(&party).Error; err != nil {
		return serviceError(c, err, "Failed to update third party")
	}
	return c.JSON(party)
}

// DeleteThirdParty refuses to remove a client that still has invoices.
// DELETE /api/third-parties/:id
func (h *ThirdPartyController) DeleteThirdParty(c *fiber.Ctx) error {
	var party Models.ThirdParty
	if err := h.DB.First(&party, "id = ?", c.Params("id")).Error; err != nil {
		return notFound(c, "Third party")
	}

	var invoices int64
	h.DB.Model(&Models.Invoice{}).Where("client_id = ?", party.ID).Count(&invoices)
	if invoices > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Third party has invoices"})
	}

	if err := h.DB.Delete(&party).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete third party"})
	}
	return c.JSON(fiber.Map{"message": "Third party deleted successfully"})
}

// GET /api/third-parties/:id/statement
func (h *ThirdPartyController) GetStatement(c *fiber.Ctx) error {
	q, err := parseListQuery(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	statement, err := h.Billing.Statement(c.UserContext(), c.Params("id"), q.From, q.To)
	if err != nil {
		return serviceError(c, err, "Failed to build statement")
	}
	return c.JSON(statement)
}
