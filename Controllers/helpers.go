package Controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"FleetDesk/Accounting"
	"FleetDesk/Billing"
	"FleetDesk/validation"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// pagination reads page and limit, falling back to page 1 and def.
func pagination(pageStr, limitStr string, def int) (int, int) {
	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit < 1 || limit > 1000 {
		limit = def
	}
	return page, limit
}

// pageBounds clamps the [start, end) slice of one page over total items.
func pageBounds(page, size, total int) (int, int) {
	start := (page - 1) * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}
	return start, end
}

// listQuery is the paging and filtering shared by list endpoints.
type listQuery struct {
	Page   int
	Limit  int
	Search string
	From   string
	To     string
}

func parseListQuery(c *fiber.Ctx) (listQuery, error) {
	page, limit := pagination(c.Query("page", "1"), c.Query("limit", "20"), 20)
	q := listQuery{
		Page:   page,
		Limit:  limit,
		Search: strings.TrimSpace(c.Query("search")),
		From:   c.Query("from"),
		To:     c.Query("to"),
	}
	for _, d := range []string{q.From, q.To} {
		if d != "" && validation.Var(d, "datetime=2006-01-02") != nil {
			return q, errors.New("from and to must use the YYYY-MM-DD format")
		}
	}
	return q, nil
}

// dates restricts column to the from/to window.
func (q listQuery) dates(db *gorm.DB, column string) *gorm.DB {
	if q.From != "" {
		db = db.Where(column+" >= ?", q.From)
	}
	if q.To != "" {
		db = db.Where(column+" <= ?", q.To)
	}
	return db
}

// search matches the term against any of the columns.
func (q listQuery) search(db *gorm.DB, columns ...string) *gorm.DB {
	if q.Search == "" || len(columns) == 0 {
		return db
	}
	pattern := "%" + strings.ToLower(q.Search) + "%"
	clauses := make([]string, len(columns))
	args := make([]interface{}, len(columns))
	for i, col := range columns {
		clauses[i] = "LOWER(" + col + ") LIKE ?"
		args[i] = pattern
	}
	return db.Where(strings.Join(clauses, " OR "), args...)
}

// paginate counts then loads one page into dest and writes the list body.
func paginate(c *fiber.Ctx, query *gorm.DB, q listQuery, order string, dest interface{}, message string) error {
	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Database error",
			"message": err.Error(),
		})
	}

	offset := (q.Page - 1) * q.Limit
	if err := query.Order(order).Limit(q.Limit).Offset(offset).Find(dest).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Database error",
			"message": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": message,
		"data":    dest,
		"meta": fiber.Map{
			"total": total,
			"page":  q.Page,
			"limit": q.Limit,
			"pages": (total + int64(q.Limit) - 1) / int64(q.Limit),
		},
	})
}

// parseAndValidate decodes the JSON body into dest and runs the struct
// validation. It writes the error response itself and returns false on failure.
func parseAndValidate(c *fiber.Ctx, dest interface{}) (bool, error) {
	if err := c.BodyParser(dest); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Invalid request body",
			"message": err.Error(),
		})
	}
	if errs := validation.Struct(dest); errs != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "Validation failed",
			"errors": errs,
		})
	}
	return true, nil
}

// serviceError maps domain errors to HTTP statuses.
func serviceError(c *fiber.Ctx, err error, fallback string) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, Billing.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, Billing.ErrUnknownReference),
		errors.Is(err, Billing.ErrMissingAmount),
		errors.Is(err, Billing.ErrInvalidDateFormat),
		errors.Is(err, Accounting.ErrInvalidAmount),
		errors.Is(err, Accounting.ErrInvalidRate),
		errors.Is(err, Accounting.ErrBothSides),
		errors.Is(err, Accounting.ErrNoAmount):
		status = fiber.StatusBadRequest
	case errors.Is(err, Accounting.ErrOverpayment),
		errors.Is(err, Billing.ErrInvoiceCancelled),
		errors.Is(err, Billing.ErrHasPayments),
		errors.Is(err, Billing.ErrTotalBelowPaid),
		errors.Is(err, Billing.ErrLinkedCashEntry),
		errors.Is(err, Billing.ErrTripHasInvoices),
		errors.Is(err, errPlateTaken),
		errors.Is(err, gorm.ErrDuplicatedKey):
		status = fiber.StatusConflict
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		message = fallback
	}
	return c.Status(status).JSON(fiber.Map{
		"error":   message,
		"message": err.Error(),
	})
}

func notFound(c *fiber.Ctx, what string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error": what + " not found",
	})
}
