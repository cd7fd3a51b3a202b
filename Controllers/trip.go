package Controllers

import (
	"net/http"

	"FleetDesk/Billing"
	"FleetDesk/Models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// TripHandler contains handler methods for trip routes
type TripHandler struct {
	DB      *gorm.DB
	Billing *Billing.Service
}

// NewTripHandler creates a new trip handler
func NewTripHandler(db *gorm.DB, billing *Billing.Service) *TripHandler {
	return &TripHandler{
		DB:      db,
		Billing: billing,
	}
}

// GetAllTrips lists trips, newest departure first
// GET /api/trips?statut=&camionId=&chauffeurId=&clientId=&statutPaiement=
func (h *TripHandler) GetAllTrips(c *fiber.Ctx) error {
	q, err := parseListQuery(c)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	query := h.DB.Model(&Models.Trip{})
	filters := map[string]string{
		"statut":         "statut",
		"camionId":       "camion_id",
		"chauffeurId":    "chauffeur_id",
		"clientId":       "client_id",
		"statutPaiement": "statut_paiement",
	}
	for param, column := range filters {
		if v := c.Query(param); v != "" {
			query = query.Where(column+" = ?", v)
		}
	}
	query = q.dates(query, "date_depart")
	query = q.search(query, "depart", "arrivee", "marchandise")

	var trips []Models.Trip
	return paginate(c, query, q, "date_depart DESC, created_at DESC", &trips, "Trips retrieved successfully")
}

// GET /api/trips/:id
func (h *TripHandler) GetTrip(c *fiber.Ctx) error {
	var trip Models.Trip
	if err := h.DB.First(&trip, "id = ?", c.Params("id")).Error; err != nil {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{
			"message": "Trip not found",
		})
	}
	return c.JSON(trip)
}

// POST /api/trips
func (h *TripHandler) CreateTrip(c *fiber.Ctx) error {
	var trip Models.Trip
	if ok, err := parseAndValidate(c, &trip); !ok {
		return err
	}
	trip.ID = ""
	if trip.Statut == "" {
		trip.Statut = Models.TripPlanned
	}
	if err := h.Billing.SaveTrip(c.UserContext(), &trip); err != nil {
		return serviceError(c, err, "Failed to create trip")
	}
	return c.Status(http.StatusCreated).JSON(trip)
}

// UpdateTrip replaces the trip fields. Invoicing fields sent by the client
// are ignored.
// PUT /api/trips/:id
func (h *TripHandler) UpdateTrip(c *fiber.Ctx) error {
	var existing Models.Trip
	if err := h.DB.First(&existing, "id = ?", c.Params("id")).Error; err != nil {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{
			"message": "Trip not found",
		})
	}

	var trip Models.Trip
	if ok, err := parseAndValidate(c, &trip); !ok {
		return err
	}
	trip.Base = existing.Base
	if trip.Statut == "" {
		trip.Statut = existing.Statut
	}
	if err := h.Billing.SaveTrip(c.UserContext(), &trip); err != nil {
		return serviceError(c, err, "Failed to update trip")
	}
	return c.JSON(trip)
}

// DELETE /api/trips/:id
func (h *TripHandler) DeleteTrip(c *fiber.Ctx) error {
	if err := h.Billing.DeleteTrip(c.UserContext(), c.Params("id")); err != nil {
		return serviceError(c, err, "Failed to delete trip")
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message": "Trip deleted successfully",
	})
}

// GetTripStats returns totals over the filtered trips, grouped by status
// GET /api/trips/stats
func (h *TripHandler) GetTripStats(c *fiber.Ctx) error {
	q, err := parseListQuery(c)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	type StatsResult struct {
		Statut       string  `json:"statut"`
		TotalTrips   int64   `json:"totalTrajets"`
		TotalRevenue float64 `json:"totalRevenus"`
		TotalPaid    float64 `json:"totalEncaisse"`
		TotalMileage float64 `json:"totalDistance"`
	}

	query := h.DB.Model(&Models.Trip{})
	if camion := c.Query("camionId"); camion != "" {
		query = query.Where("camion_id = ?", camion)
	}
	query = q.dates(query, "date_depart")

	var groups []StatsResult
	err = query.Select(`statut,
		COUNT(*) AS total_trips,
		COALESCE(SUM(prix), 0) AS total_revenue,
		COALESCE(SUM(montant_paye), 0) AS total_paid,
		COALESCE(SUM(distance), 0) AS total_mileage`).
		Group("statut").
		Scan(&groups).Error
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to fetch trip statistics",
			"error":   err.Error(),
		})
	}

	var total StatsResult
	total.Statut = "total"
	for _, g := range groups {
		total.TotalTrips += g.TotalTrips
		total.TotalRevenue += g.TotalRevenue
		total.TotalPaid += g.TotalPaid
		total.TotalMileage += g.TotalMileage
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message": "Trip statistics retrieved successfully",
		"data":    groups,
		"total":   total,
	})
}
