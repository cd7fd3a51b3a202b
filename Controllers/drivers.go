package Controllers

import (
	"fmt"
	"sort"

	"FleetDesk/Models"
	"FleetDesk/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DriverController struct {
	DB *gorm.DB
}

func NewDriverController(db *gorm.DB) *DriverController {
	return &DriverController{DB: db}
}

// GET /api/drivers
func (h *DriverController) GetDrivers(c *fiber.Ctx) error {
	q, err := parseListQuery(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	query := h.DB.Model(&Models.Driver{})
	if statut := c.Query("statut"); statut != "" {
		query = query.Where("statut = ?", statut)
	}
	query = q.search(query, "nom", "prenom", "telephone", "numero_permis")

	var drivers []Models.Driver
	return paginate(c, query, q, "nom ASC, prenom ASC", &drivers, "Drivers retrieved successfully")
}

// GET /api/drivers/:id
func (h *DriverController) GetDriver(c *fiber.Ctx) error {
	var driver Models.Driver
	if err := h.DB.First(&driver, "id = ?", c.Params("id")).Error; err != nil {
		return notFound(c, "Driver")
	}
	return c.JSON(driver)
}

// CreateDriver stores a driver. Transactions sent with the body are
// deduplicated by id.
// POST /api/drivers
func (h *DriverController) CreateDriver(c *fiber.Ctx) error {
	var driver Models.Driver
	if ok, err := parseAndValidate(c, &driver); !ok {
		return err
	}
	driver.ID = ""
	if driver.Statut == "" {
		driver.Statut = "actif"
	}
	if err := normalizeTransactions(&driver); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid transactions", "message": err.Error()})
	}
	if err := h.DB.Create(&driver).Error; err != nil {
		return serviceError(c, err, "Failed to create driver")
	}
	return c.Status(fiber.StatusCreated).JSON(driver)
}

// UpdateDriver replaces the driver fields. The transaction list is kept when
// the body does not carry one.
// PUT /api/drivers/:id
func (h *DriverController) UpdateDriver(c *fiber.Ctx) error {
	var existing Models.Driver
	if err := h.DB.First(&existing, "id = ?", c.Params("id")).Error; err != nil {
		return notFound(c, "Driver")
	}

	var driver Models.Driver
	if ok, err := parseAndValidate(c, &driver); !ok {
		return err
	}
	driver.Base = existing.Base
	if driver.Statut == "" {
		driver.Statut = existing.Statut
	}
	if len(driver.Transactions) == 0 || string(driver.Transactions) == "null" {
		driver.Transactions = existing.Transactions
	}
	if err := normalizeTransactions(&driver); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid transactions", "message": err.Error()})
	}
	if err := h.DB.Save(&driver).Error; err != nil {
		return serviceError(c, err, "Failed to update driver")
	}
	return c.JSON(driver)
}

// DELETE /api/drivers/:id
func (h *DriverController) DeleteDriver(c *fiber.Ctx) error {
	var driver Models.Driver
	if err := h.DB.First(&driver, "id = ?", c.Params("id")).Error; err != nil {
		return notFound(c, "Driver")
	}

	var trips int64
	h.DB.Model(&Models.Trip{}).Where("chauffeur_id = ? AND statut IN ?", driver.ID,
		[]string{Models.TripPlanned, Models.TripInProgress}).Count(&trips)
	if trips > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Driver has trips in progress"})
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&Models.Truck{}).Where("chauffeur_id = ?", driver.ID).Update("chauffeur_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&driver).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete driver"})
	}
	return c.JSON(fiber.Map{"message": "Driver deleted successfully"})
}

// GET /api/drivers/:id/transactions
func (h *DriverController) GetTransactions(c *fiber.Ctx) error {
	var driver Models.Driver
	if err := h.DB.First(&driver, "id = ?", c.Params("id")).Error; err != nil {
		return notFound(c, "Driver")
	}
	list, err := driver.TransactionList()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to read transactions"})
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].Date > list[j].Date })
	return c.JSON(fiber.Map{"message": "Transactions retrieved successfully", "data": list})
}

// POST /api/drivers/:id/transactions
func (h *DriverController) AddTransaction(c *fiber.Ctx) error {
	var driver Models.Driver
	if err := h.DB.First(&driver, "id = ?", c.Params("id")).Error; err != nil {
		return notFound(c, "Driver")
	}

	var entry Models.DriverTransaction
	if ok, err := parseAndValidate(c, &entry); !ok {
		return err
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	list, err := driver.TransactionList()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to read transactions"})
	}
	if err := driver.SetTransactionList(append(list, entry)); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save transaction"})
	}
	if err := h.DB.Model(&driver).Update("transactions", driver.Transactions).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save transaction"})
	}
	return c.Status(fiber.StatusCreated).JSON(entry)
}

// DELETE /api/drivers/:id/transactions/:txId
func (h *DriverController) DeleteTransaction(c *fiber.Ctx) error {
	var driver Models.Driver
	if err := h.DB.First(&driver, "id = ?", c.Params("id")).Error; err != nil {
		return notFound(c, "Driver")
	}
	list, err := driver.TransactionList()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to read transactions"})
	}

	kept := make([]Models.DriverTransaction, 0, len(list))
	for _, t := range list {
		if t.ID != c.Params("txId") {
			kept = append(kept, t)
		}
	}
	if len(kept) == len(list) {
		return notFound(c, "Transaction")
	}
	if err := driver.SetTransactionList(kept); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete transaction"})
	}
	if err := h.DB.Model(&driver).Update("transactions", driver.Transactions).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete transaction"})
	}
	return c.JSON(fiber.Map{"message": "Transaction deleted successfully"})
}

// GET /api/drivers/:id/statement
func (h *DriverController) GetStatement(c *fiber.Ctx) error {
	var driver Models.Driver
	if err := h.DB.First(&driver, "id = ?", c.Params("id")).Error; err != nil {
		return notFound(c, "Driver")
	}
	statement, err := driver.Statement()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to read transactions"})
	}
	return c.JSON(fiber.Map{
		"chauffeur": driver,
		"releve":    statement,
	})
}

// normalizeTransactions validates the embedded list, fills missing ids and
// drops repeated ones.
func normalizeTransactions(driver *Models.Driver) error {
	list, err := driver.TransactionList()
	if err != nil {
		return err
	}
	for i := range list {
		if errs := validation.Struct(list[i]); errs != nil {
			for field, msg := range errs {
				return fmt.Errorf("transaction %d: %s: %s", i+1, field, msg)
			}
		}
		if list[i].ID == "" {
			list[i].ID = uuid.NewString()
		}
	}
	return driver.SetTransactionList(list)
}
