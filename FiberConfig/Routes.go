package FiberConfig

import (
	"errors"
	"log"
	"strings"
	"time"

	"FleetDesk/Alerts"
	"FleetDesk/Billing"
	"FleetDesk/Controllers"
	"FleetDesk/Exports"
	"FleetDesk/config"
	"FleetDesk/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/html"
	"gorm.io/gorm"
)

// Permission levels
const (
	Reader     = 1
	Manager    = 2
	Accountant = 3
	Admin      = 4
)

// Dependencies is everything the handlers need
type Dependencies struct {
	DB        *gorm.DB
	Config    *config.Config
	Billing   *Billing.Service
	Scanner   *Alerts.Scanner
	Scheduler Controllers.ScheduleUpdater
}

func SetupRoutes(app *fiber.App, deps Dependencies) {
	db := deps.DB
	cfg := deps.Config
	auth := middleware.NewAuth(db, cfg.JWTSecret)

	// Initialize handlers
	authController := Controllers.NewAuthController(db, auth)
	truckController := Controllers.NewTruckController(db, deps.Billing)
	driverController := Controllers.NewDriverController(db)
	partyController := Controllers.NewThirdPartyController(db, deps.Billing)
	tripHandler := Controllers.NewTripHandler(db, deps.Billing)
	expenseHandler := Controllers.NewExpenseHandler(db, deps.Billing, cfg.UploadDir)
	invoiceController := Controllers.NewInvoiceController(db, deps.Billing)
	cashController := Controllers.NewCashController(db, deps.Billing)
	analyticsController := Controllers.NewAnalyticsController(db, deps.Billing)
	exportController := Controllers.NewExportController(db, deps.Billing)
	notificationController := Controllers.NewNotificationController(db, deps.Scanner)
	backupController := Controllers.NewBackupController(db, cfg.BackupDir, deps.Scheduler)
	logController := Controllers.NewLogController(cfg.LogDir)

	app.Get("/health", func(c *fiber.Ctx) error {
		status := "ok"
		if sqlDB, err := db.DB(); err != nil || sqlDB.Ping() != nil {
			status = "degraded"
		}
		return c.JSON(fiber.Map{"status": status, "time": time.Now()})
	})

	// API group
	api := app.Group("/api")

	api.Post("/login", authController.Login)
	api.Post("/logout", authController.Logout)
	api.Get("/me", auth.Verify(Reader), authController.Me)

	// User routes
	users := api.Group("/users", auth.Verify(Admin))
	users.Get("/", authController.ListUsers)
	users.Post("/", authController.CreateUser)
	users.Put("/:id", authController.UpdateUser)
	users.Delete("/:id", authController.DeleteUser)

	// Truck routes - import before the ID routes
	trucks := api.Group("/trucks", auth.Verify(Reader))
	trucks.Get("/", truckController.GetTrucks)
	trucks.Post("/import", auth.Verify(Manager), truckController.ImportTrucks)
	trucks.Get("/:id", truckController.GetTruck)
	trucks.Get("/:id/profitability", auth.Verify(Accountant), truckController.GetProfitability)
	trucks.Post("/", auth.Verify(Manager), truckController.CreateTruck)
	trucks.Put("/:id", auth.Verify(Manager), truckController.UpdateTruck)
	trucks.Delete("/:id", auth.Verify(Manager), truckController.DeleteTruck)

	// Driver routes
	drivers := api.Group("/drivers", auth.Verify(Reader))
	drivers.Get("/", driverController.GetDrivers)
	drivers.Get("/:id", driverController.GetDriver)
	drivers.Post("/", auth.Verify(Manager), driverController.CreateDriver)
	drivers.Put("/:id", auth.Verify(Manager), driverController.UpdateDriver)
	drivers.Delete("/:id", auth.Verify(Manager), driverController.DeleteDriver)
	drivers.Get("/:id/transactions", auth.Verify(Accountant), driverController.GetTransactions)
	drivers.Post("/:id/transactions", auth.Verify(Accountant), driverController.AddTransaction)
	drivers.Delete("/:id/transactions/:txId", auth.Verify(Accountant), driverController.DeleteTransaction)
	drivers.Get("/:id/statement", auth.Verify(Accountant), driverController.GetStatement)

	// Third party routes
	parties := api.Group("/third-parties", auth.Verify(Reader))
	parties.Get("/", partyController.GetThirdParties)
	parties.Get("/:id", partyController.GetThirdParty)
	parties.Get("/:id/statement", auth.Verify(Accountant), partyController.GetStatement)
	parties.Post("/", auth.Verify(Manager), partyController.CreateThirdParty)
	parties.Put("/:id", auth.Verify(Manager), partyController.UpdateThirdParty)
	parties.Delete("/:id", auth.Verify(Manager), partyController.DeleteThirdParty)

	// Trip routes
	trips := api.Group("/trips", auth.Verify(Reader))
	trips.Get("/", tripHandler.GetAllTrips)
	trips.Get("/stats", tripHandler.GetTripStats)
	trips.Get("/:id", tripHandler.GetTrip)
	trips.Post("/", auth.Verify(Manager), tripHandler.CreateTrip)
	trips.Put("/:id", auth.Verify(Manager), tripHandler.UpdateTrip)
	trips.Delete("/:id", auth.Verify(Manager), tripHandler.DeleteTrip)

	// Expense routes
	expenses := api.Group("/expenses", auth.Verify(Reader))
	expenses.Get("/", expenseHandler.GetExpenses)
	expenses.Get("/:id", expenseHandler.GetExpense)
	expenses.Get("/:id/receipt", expenseHandler.GetReceipt)
	expenses.Post("/", auth.Verify(Manager), expenseHandler.CreateExpense)
	expenses.Put("/:id", auth.Verify(Manager), expenseHandler.UpdateExpense)
	expenses.Delete("/:id", auth.Verify(Manager), expenseHandler.DeleteExpense)
	expenses.Post("/:id/receipt", auth.Verify(Manager), expenseHandler.UploadReceipt)

	// Invoice routes - preview before the ID routes
	invoices := api.Group("/invoices", auth.Verify(Reader))
	invoices.Get("/", invoiceController.GetInvoices)
	invoices.Post("/preview", invoiceController.PreviewInvoice)
	invoices.Get("/:id", invoiceController.GetInvoice)
	invoices.Get("/:id/pdf", invoiceController.DownloadPDF)
	invoices.Get("/:id/print", invoiceController.PrintInvoice)
	invoices.Post("/", auth.Verify(Accountant), invoiceController.CreateInvoice)
	invoices.Put("/:id", auth.Verify(Accountant), invoiceController.UpdateInvoice)
	invoices.Delete("/:id", auth.Verify(Accountant), invoiceController.DeleteInvoice)
	invoices.Post("/:id/cancel", auth.Verify(Accountant), invoiceController.CancelInvoice)
	invoices.Post("/:id/payments", auth.Verify(Accountant), invoiceController.AddPayment)
	invoices.Delete("/:id/payments/:paymentId", auth.Verify(Accountant), invoiceController.DeletePayment)

	// Cash book routes
	cash := api.Group("/cash", auth.Verify(Accountant))
	cash.Get("/", cashController.GetJournal)
	cash.Get("/:id", cashController.GetEntry)
	cash.Post("/", cashController.CreateEntry)
	cash.Put("/:id", cashController.UpdateEntry)
	cash.Delete("/:id", cashController.DeleteEntry)

	// Analytics routes
	analytics := api.Group("/analytics", auth.Verify(Accountant))
	analytics.Get("/summary", analyticsController.Summary)
	analytics.Get("/monthly", analyticsController.Monthly)
	analytics.Get("/top-clients", analyticsController.TopClients)
	analytics.Get("/trucks", analyticsController.Trucks)
	analytics.Get("/recent-activity", analyticsController.RecentActivity)

	// Excel exports
	exports := api.Group("/exports", auth.Verify(Accountant))
	exports.Get("/trips.xlsx", exportController.Trips)
	exports.Get("/expenses.xlsx", exportController.Expenses)
	exports.Get("/invoices.xlsx", exportController.Invoices)
	exports.Get("/cash.xlsx", exportController.Cash)

	// Notification routes - "read" before the ID routes
	notifications := api.Group("/notifications", auth.Verify(Reader))
	notifications.Get("/", notificationController.GetNotifications)
	notifications.Patch("/read", notificationController.MarkAllRead)
	notifications.Patch("/:id/read", notificationController.MarkRead)
	notifications.Delete("/:id", auth.Verify(Manager), notificationController.DeleteNotification)
	notifications.Post("/scan", auth.Verify(Manager), notificationController.Scan)

	// Admin routes
	admin := api.Group("/admin", auth.Verify(Admin))
	admin.Get("/backup", backupController.Download)
	admin.Post("/restore", backupController.Restore)
	admin.Get("/backups", backupController.ListBackups)
	admin.Get("/backups/:name", backupController.DownloadStored)
	admin.Put("/schedules/:job", backupController.UpdateSchedule)

	// Logs API routes
	api.Get("/logs", auth.Verify(Admin), logController.GetLogs)
	api.Get("/logs/stats", auth.Verify(Admin), logController.GetLogStats)
}

// NewApp builds the fiber application with its middleware and routes.
func NewApp(deps Dependencies) *fiber.App {
	cfg := deps.Config
	currency := deps.Billing.Settings.Currency

	// Html Template engine
	engine := html.New(cfg.TemplatesDir, ".html")
	engine.AddFunc("date", Exports.Date)
	engine.AddFunc("money", func(v float64) string { return Exports.Money(v, currency) })

	app := fiber.New(fiber.Config{
		Views:        engine,
		BodyLimit:    20 * 1024 * 1024,
		ErrorHandler: errorHandler,
	})
	app.Use(recover.New())
	app.Use(middleware.RequestLogger(cfg.LogDir))
	app.Use(middleware.ErrorLogger(cfg.LogDir))
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.ReplaceAll(cfg.CORSOrigins, " ", ""),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With",
		ExposeHeaders:    "Content-Disposition, X-Request-ID",
		AllowCredentials: true, // Important for cookies
		MaxAge:           300,  // Max age for preflight requests caching (5 minutes)
	}))

	SetupRoutes(app, deps)
	return app
}

// errorHandler answers stray errors with the JSON error body used by the handlers.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	} else {
		log.Printf("Unhandled error on %s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   message,
		"message": err.Error(),
	})
}
