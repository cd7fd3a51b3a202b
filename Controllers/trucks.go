package Controllers

import (
	"errors"
	"fmt"
	"strings"

	"FleetDesk/Billing"
	"FleetDesk/Exports"
	"FleetDesk/Models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var errPlateTaken = errors.New("immatriculation already used by another truck")

type TruckController struct {
	DB      *gorm.DB
	Billing *Billing.Service
}

func NewTruckController(db *gorm.DB, billing *Billing.Service) *TruckController {
	return &TruckController{DB: db, Billing: billing}
}

// GetTrucks lists trucks with optional statut filter and search
// GET /api/trucks
func (h *TruckController) GetTrucks(c *fiber.Ctx) error {
	q, err := parseListQuery(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	query := h.DB.Model(&Models.Truck{})
	if statut := c.Query("statut"); statut != "" {
		query = query.Where("statut = ?", statut)
	}
	query = q.search(query, "immatriculation", "marque", "modele")

	var trucks []Models.Truck
	return paginate(c, query, q, "immatriculation ASC", &trucks, "Trucks retrieved successfully")
}

// GET /api/trucks/:id
func (h *TruckController) GetTruck(c *fiber.Ctx) error {
	var truck Models.Truck
	if err := h.DB.First(&truck, "id = ?", c.Params("id")).Error; err != nil {
		return notFound(c, "Truck")
	}
	return c.JSON(truck)
}

// POST /api/trucks
func (h *TruckController) CreateTruck(c *fiber.Ctx) error {
	var truck Models.Truck
	if ok, err := parseAndValidate(c, &truck); !ok {
		return err
	}
	truck.ID = ""
	truck.Immatriculation = strings.ToUpper(strings.TrimSpace(truck.Immatriculation))
	if truck.Statut == "" {
		truck.Statut = Models.TruckActive
	}
	if err := h.checkDriver(truck.ChauffeurID); err != nil {
		return serviceError(c, err, "")
	}
	if err := plateAvailable(h.DB, truck.Immatriculation, ""); err != nil {
		return serviceError(c, err, "Failed to create truck")
	}
	if err := h.DB.Create(&truck).Error; err != nil {
		return serviceError(c, err, "Failed to create truck")
	}
	return c.Status(fiber.StatusCreated).JSON(truck)
}

// PUT /api/trucks/:id
func (h *TruckController) UpdateTruck(c *fiber.Ctx) error {
	var existing Models.Truck
	if err := h.DB.First(&existing, "id = ?", c.Params("id")).Error; err != nil {
		return notFound(c, "Truck")
	}

	var truck Models.Truck
	if ok, err := parseAndValidate(c, &truck); !ok {
		return err
	}
	truck.Base = existing.Base
	truck.Immatriculation = strings.ToUpper(strings.TrimSpace(truck.Immatriculation))
	if truck.Statut == "" {
		truck.Statut = existing.Statut
	}
	if err := h.checkDriver(truck.ChauffeurID); err != nil {
		return serviceError(c, err, "")
	}
	if err := plateAvailable(h.DB, truck.Immatriculation, truck.ID); err != nil {
		return serviceError(c, err, "Failed to update truck")
	}
	if err := h.DB.Save(&truck).Error; err != nil {
		return serviceError(c, err, "Failed to update truck")
	}
	return c.JSON(truck)
}

// DELETE /api/trucks/:id
func (h *TruckController) DeleteTruck(c *fiber.Ctx) error {
	result := h.DB.Delete(&Models.Truck{}, "id = ?", c.Params("id"))
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete truck"})
	}
	if result.RowsAffected == 0 {
		return notFound(c, "Truck")
	}
	return c.JSON(fiber.Map{"message": "Truck deleted successfully"})
}

// ImportTrucks merges an xlsx sheet into the fleet. Rows match existing
// trucks by id, then by immatriculation.
// POST /api/trucks/import
func (h *TruckController) ImportTrucks(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "No file uploaded"})
	}
	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Failed to open uploaded file"})
	}
	defer file.Close()

	imported, rowErrors, err := Exports.ReadTrucks(file)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Invalid spreadsheet",
			"message": err.Error(),
		})
	}

	var existing []Models.Truck
	if err := h.DB.Find(&existing).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch trucks"})
	}
	creates, updates := Exports.MergeTrucks(existing, imported)

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		// Updates first so plates moved between trucks are free for the creates
		for i := range updates {
			if err := plateAvailable(tx, updates[i].Immatriculation, updates[i].ID); err != nil {
				return err
			}
			if err := tx.Save(&updates[i]).Error; err != nil {
				return err
			}
		}
		for i := range creates {
			if err := plateAvailable(tx, creates[i].Immatriculation, ""); err != nil {
				return err
			}
			if err := tx.Create(&creates[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return serviceError(c, err, "Failed to import trucks")
	}

	if rowErrors == nil {
		rowErrors = []Exports.RowError{}
	}
	return c.JSON(fiber.Map{
		"message": "Import completed",
		"created": len(creates),
		"updated": len(updates),
		"skipped": rowErrors,
	})
}

// GET /api/trucks/:id/profitability
func (h *TruckController) GetProfitability(c *fiber.Ctx) error {
	q, err := parseListQuery(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	results, err := h.Billing.TruckProfitability(c.UserContext(), c.Params("id"), q.From, q.To)
	if err != nil {
		return serviceError(c, err, "Failed to compute profitability")
	}
	if len(results) == 0 {
		return notFound(c, "Truck")
	}
	return c.JSON(results[0])
}

// plateAvailable fails with errPlateTaken when another live truck already
// uses the plate.
func plateAvailable(db *gorm.DB, plate, id string) error {
	var count int64
	err := db.Model(&Models.Truck{}).
		Where("UPPER(immatriculation) = ? AND id <> ?", strings.ToUpper(plate), id).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: %s", errPlateTaken, plate)
	}
	return nil
}

func (h *TruckController) checkDriver(id *string) error {
	if id == nil || *id == "" {
		return nil
	}
	err := h.DB.Select("id").First(&Models.Driver{}, "id = ?", *id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Billing.ErrUnknownReference
	}
	return err
}
