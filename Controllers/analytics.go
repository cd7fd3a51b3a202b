package Controllers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"FleetDesk/Accounting"
	"FleetDesk/Billing"
	"FleetDesk/Models"
)

// AnalyticsController handles dashboard figures
type AnalyticsController struct {
	DB      *gorm.DB
	Billing *Billing.Service
	Now     func() time.Time
}

// NewAnalyticsController creates a new AnalyticsController
func NewAnalyticsController(db *gorm.DB, billing *Billing.Service) *AnalyticsController {
	return &AnalyticsController{DB: db, Billing: billing, Now: time.Now}
}

type DashboardSummary struct {
	Camions       map[string]int64 `json:"camions"`
	Chauffeurs    int64            `json:"chauffeurs"`
	Trajets       int64            `json:"trajets"`
	ChiffreHT     float64          `json:"chiffreAffairesHT"`
	FactureTTC    float64          `json:"factureTTC"`
	Encaisse      float64          `json:"encaisse"`
	ResteARecouvr float64          `json:"resteARecouvrer"`
	Depenses      float64          `json:"depenses"`
	Marge         float64          `json:"marge"`
	SoldeCaisse   float64          `json:"soldeCaisse"`
}

// Summary returns the headline figures over the from/to window
// GET /api/analytics/summary
func (c *AnalyticsController) Summary(ctx *fiber.Ctx) error {
	q, err := parseListQuery(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	db := c.DB.WithContext(ctx.UserContext())
	summary := DashboardSummary{Camions: map[string]int64{}}

	// Fleet by status
	type statusCount struct {
		Statut string
		Count  int64
	}
	var counts []statusCount
	db.Model(&Models.Truck{}).Select("statut, COUNT(*) AS count").Group("statut").Scan(&counts)
	for _, sc := range counts {
		summary.Camions[sc.Statut] = sc.Count
	}
	db.Model(&Models.Driver{}).Where("statut <> ?", "inactif").Count(&summary.Chauffeurs)

	q.dates(db.Model(&Models.Trip{}).Where("statut <> ?", Models.TripCancelled), "date_depart").
		Count(&summary.Trajets)

	invoices := q.dates(db.Model(&Models.Invoice{}).Where("statut <> ?", Accounting.InvoiceCancelled), "date_emission")
	invoices.Session(&gorm.Session{}).
		Select("COALESCE(SUM(net_ht), 0) AS net, COALESCE(SUM(montant_ttc), 0) AS ttc").
		Row().Scan(&summary.ChiffreHT, &summary.FactureTTC)

	q.dates(db.Model(&Models.Payment{}), "date").
		Select("COALESCE(SUM(montant), 0)").Scan(&summary.Encaisse)
	q.dates(db.Model(&Models.Expense{}), "date").
		Select("COALESCE(SUM(montant), 0)").Scan(&summary.Depenses)

	// Outstanding is a balance, not a flow: it ignores the window
	db.Model(&Models.Invoice{}).Where("statut IN ?", []string{Accounting.InvoiceUnpaid, Accounting.InvoicePartial}).
		Select("COALESCE(SUM(reste_a_payer), 0)").Scan(&summary.ResteARecouvr)

	summary.Marge = Accounting.Sum(summary.ChiffreHT, -summary.Depenses)

	journal, err := c.Billing.Journal(ctx.UserContext(), "", q.To)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to compute cash balance"})
	}
	summary.SoldeCaisse = journal.SoldeFinal

	return ctx.JSON(summary)
}

// MonthlyData is one month of the revenue versus expenses chart
type MonthlyData struct {
	Month    string  `json:"month"`
	Revenus  float64 `json:"revenus"`
	Encaisse float64 `json:"encaisse"`
	Depenses float64 `json:"depenses"`
	Net      float64 `json:"net"`
}

// Monthly returns invoiced revenue (net HT), collections and expenses for
// the last 12 months including the current one
// GET /api/analytics/monthly
func (c *AnalyticsController) Monthly(ctx *fiber.Ctx) error {
	endDate := c.Now()
	firstMonth := time.Date(endDate.Year(), endDate.Month(), 1, 0, 0, 0, 0, endDate.Location()).AddDate(0, -11, 0)
	from := firstMonth.Format("2006-01-02")
	to := endDate.Format("2006-01-02")
	db := c.DB.WithContext(ctx.UserContext())

	// Query the window and group in Go: dates are YYYY-MM-DD strings on
	// every driver, so the month is their first 7 characters.
	var invoices []Models.Invoice
	var payments []Models.Payment
	var expenses []Models.Expense
	if err := db.Where("date_emission BETWEEN ? AND ? AND statut <> ?", from, to, Accounting.InvoiceCancelled).Find(&invoices).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve invoices"})
	}
	if err := db.Where("date BETWEEN ? AND ?", from, to).Find(&payments).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve payments"})
	}
	if err := db.Where("date BETWEEN ? AND ?", from, to).Find(&expenses).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve expenses"})
	}

	response := make([]MonthlyData, 12)
	index := make(map[string]int, 12)
	for i := 0; i < 12; i++ {
		month := firstMonth.AddDate(0, i, 0).Format("2006-01")
		response[i] = MonthlyData{Month: month}
		index[month] = i
	}
	month := func(date string) (int, bool) {
		if len(date) < 7 {
			return 0, false
		}
		i, ok := index[date[:7]]
		return i, ok
	}

	for _, inv := range invoices {
		if i, ok := month(inv.DateEmission); ok {
			response[i].Revenus += inv.NetHT
		}
	}
	for _, p := range payments {
		if i, ok := month(p.Date); ok {
			response[i].Encaisse += p.Montant
		}
	}
	for _, e := range expenses {
		if i, ok := month(e.Date); ok {
			response[i].Depenses += e.Montant
		}
	}
	for i := range response {
		response[i].Net = Accounting.Sum(response[i].Revenus, -response[i].Depenses)
	}

	return ctx.JSON(response)
}

// TopClients ranks clients by invoiced TTC
// GET /api/analytics/top-clients?limit=5
func (c *AnalyticsController) TopClients(ctx *fiber.Ctx) error {
	q, err := parseListQuery(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	limit, err := strconv.Atoi(ctx.Query("limit", "5"))
	if err != nil || limit < 1 {
		limit = 5
	}
	results, err := c.Billing.TopClients(ctx.UserContext(), q.From, q.To, limit)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to rank clients"})
	}
	return ctx.JSON(results)
}

// Trucks returns the profitability of the whole fleet
// GET /api/analytics/trucks
func (c *AnalyticsController) Trucks(ctx *fiber.Ctx) error {
	q, err := parseListQuery(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	results, err := c.Billing.TruckProfitability(ctx.UserContext(), "", q.From, q.To)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to compute profitability"})
	}
	return ctx.JSON(results)
}

// RecentActivity returns the latest cash book lines
// GET /api/analytics/recent
func (c *AnalyticsController) RecentActivity(ctx *fiber.Ctx) error {
	var entries []Models.CashEntry
	err := c.DB.WithContext(ctx.UserContext()).
		Order("date DESC, created_at DESC").
		Limit(10).
		Find(&entries).Error
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve activity"})
	}
	return ctx.JSON(entries)
}
