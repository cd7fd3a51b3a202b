package Controllers

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"FleetDesk/Billing"
	"FleetDesk/Models"

	"github.com/disintegration/imaging"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const thumbnailSize = 320

var receiptExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".pdf":  true,
}

// ExpenseHandler contains the database connection
type ExpenseHandler struct {
	DB        *gorm.DB
	Billing   *Billing.Service
	UploadDir string
}

// NewExpenseHandler creates a new expense handler with the given database connection
func NewExpenseHandler(db *gorm.DB, billing *Billing.Service, uploadDir string) *ExpenseHandler {
	return &ExpenseHandler{DB: db, Billing: billing, UploadDir: uploadDir}
}

// GetExpenses lists expenses with optional filters
// GET /api/expenses?categorie=&camionId=&trajetId=&chauffeurId=&fournisseurId=
func (h *ExpenseHandler) GetExpenses(c *fiber.Ctx) error {
	q, err := parseListQuery(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	query := h.DB.Model(&Models.Expense{})
	filters := map[string]string{
		"categorie":     "categorie",
		"camionId":      "camion_id",
		"trajetId":      "trajet_id",
		"chauffeurId":   "chauffeur_id",
		"fournisseurId": "fournisseur_id",
		"modePaiement":  "mode_paiement",
	}
	for param, column := range filters {
		if v := c.Query(param); v != "" {
			query = query.Where(column+" = ?", v)
		}
	}
	query = q.dates(query, "date")
	query = q.search(query, "description", "categorie")

	var expenses []Models.Expense
	return paginate(c, query, q, "date DESC, created_at DESC", &expenses, "Expenses retrieved successfully")
}

// GET /api/expenses/:id
func (h *ExpenseHandler) GetExpense(c *fiber.Ctx) error {
	var expense Models.Expense
	if err := h.DB.First(&expense, "id = ?", c.Params("id")).Error; err != nil {
		return notFound(c, "Expense")
	}
	return c.JSON(expense)
}

// POST /api/expenses
func (h *ExpenseHandler) CreateExpense(c *fiber.Ctx) error {
	var expense Models.Expense
	if ok, err := parseAndValidate(c, &expense); !ok {
		return err
	}
	expense.ID = ""
	expense.CaisseID = nil
	expense.Justificatif = ""
	expense.Miniature = ""

	if err := h.Billing.SaveExpense(c.UserContext(), &expense); err != nil {
		return serviceError(c, err, "Failed to create expense")
	}
	return c.Status(fiber.StatusCreated).JSON(expense)
}

// UpdateExpense replaces the expense fields. The receipt and the cash book
// link are kept.
// PUT /api/expenses/:id
func (h *ExpenseHandler) UpdateExpense(c *fiber.Ctx) error {
	var existing Models.Expense
	if err := h.DB.First(&existing, "id = ?", c.Params("id")).Error; err != nil {
		return notFound(c, "Expense")
	}

	var expense Models.Expense
	if ok, err := parseAndValidate(c, &expense); !ok {
		return err
	}
	expense.Base = existing.Base
	expense.CaisseID = existing.CaisseID
	expense.Justificatif = existing.Justificatif
	expense.Miniature = existing.Miniature

	if err := h.Billing.SaveExpense(c.UserContext(), &expense); err != nil {
		return serviceError(c, err, "Failed to update expense")
	}
	return c.JSON(expense)
}

// DELETE /api/expenses/:id
func (h *ExpenseHandler) DeleteExpense(c *fiber.Ctx) error {
	expense, err := h.Billing.DeleteExpense(c.UserContext(), c.Params("id"))
	if err != nil {
		return serviceError(c, err, "Failed to delete expense")
	}
	h.removeReceipt(expense)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Expense deleted successfully",
	})
}

// UploadReceipt stores the scanned receipt of an expense. Images also get a
// thumbnail for the dashboard.
// POST /api/expenses/:id/receipt
func (h *ExpenseHandler) UploadReceipt(c *fiber.Ctx) error {
	var expense Models.Expense
	if err := h.DB.First(&expense, "id = ?", c.Params("id")).Error; err != nil {
		return notFound(c, "Expense")
	}

	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "No file uploaded"})
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !receiptExtensions[ext] {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unsupported file type, expected jpg, png or pdf",
		})
	}

	dir := filepath.Join(h.UploadDir, "receipts")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to store receipt"})
	}

	h.removeReceipt(&expense)
	name := expense.ID + ext
	if err := c.SaveFile(file, filepath.Join(dir, name)); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to store receipt"})
	}

	thumb := ""
	if ext != ".pdf" {
		thumb, err = makeThumbnail(dir, name)
		if err != nil {
			log.Printf("Failed to create thumbnail for expense %s: %v", expense.ID, err)
			thumb = ""
		}
	}

	expense.Justificatif = filepath.ToSlash(filepath.Join("receipts", name))
	expense.Miniature = ""
	if thumb != "" {
		expense.Miniature = filepath.ToSlash(filepath.Join("receipts", thumb))
	}
	if err := h.DB.Model(&expense).Select("justificatif", "miniature").Updates(&expense).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update expense"})
	}
	return c.JSON(expense)
}

// GetReceipt sends the stored receipt, or its thumbnail with ?thumb=1
// GET /api/expenses/:id/receipt
func (h *ExpenseHandler) GetReceipt(c *fiber.Ctx) error {
	var expense Models.Expense
	if err := h.DB.First(&expense, "id = ?", c.Params("id")).Error; err != nil {
		return notFound(c, "Expense")
	}
	path := expense.Justificatif
	if c.Query("thumb") != "" && expense.Miniature != "" {
		path = expense.Miniature
	}
	if path == "" {
		return notFound(c, "Receipt")
	}
	return c.SendFile(filepath.Join(h.UploadDir, filepath.FromSlash(path)))
}

func (h *ExpenseHandler) removeReceipt(expense *Models.Expense) {
	for _, p := range []string{expense.Justificatif, expense.Miniature} {
		if p == "" {
			continue
		}
		if err := os.Remove(filepath.Join(h.UploadDir, filepath.FromSlash(p))); err != nil && !os.IsNotExist(err) {
			log.Printf("Failed to remove %s: %v", p, err)
		}
	}
}

// makeThumbnail writes a jpeg thumbnail next to the receipt and returns its name.
func makeThumbnail(dir, name string) (string, error) {
	img, err := imaging.Open(filepath.Join(dir, name), imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}
	thumb := imaging.Fit(img, thumbnailSize, thumbnailSize, imaging.Lanczos)

	thumbName := strings.TrimSuffix(name, filepath.Ext(name)) + "_thumb.jpg"
	if err := imaging.Save(thumb, filepath.Join(dir, thumbName), imaging.JPEGQuality(80)); err != nil {
		return "", err
	}
	return thumbName, nil
}
