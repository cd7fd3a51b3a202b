package Controllers

import (
	"log"
	"net/http"

	"FleetDesk/Alerts"
	"FleetDesk/Models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type NotificationController struct {
	DB      *gorm.DB
	Scanner *Alerts.Scanner
}

func NewNotificationController(db *gorm.DB, scanner *Alerts.Scanner) *NotificationController {
	return &NotificationController{DB: db, Scanner: scanner}
}

// GetNotifications lists notifications, unread first. ?unread=true keeps the
// unread ones, ?grouped=true returns them keyed by type.
// GET /api/notifications
func (h *NotificationController) GetNotifications(c *fiber.Ctx) error {
	query := h.DB.Model(&Models.Notification{})
	if c.Query("unread") == "true" {
		query = query.Where("lu = ?", false)
	}
	if kind := c.Query("type"); kind != "" {
		query = query.Where("type = ?", kind)
	}

	var notifications []Models.Notification
	if err := query.Order("lu ASC, date_echeance ASC").Find(&notifications).Error; err != nil {
		log.Println(err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch notifications"})
	}

	if c.Query("grouped") == "true" {
		outputMap := make(map[string][]Models.Notification)
		for _, n := range notifications {
			outputMap[n.Type] = append(outputMap[n.Type], n)
		}
		return c.JSON(outputMap)
	}

	var unread int64
	h.DB.Model(&Models.Notification{}).Where("lu = ?", false).Count(&unread)
	return c.JSON(fiber.Map{
		"message": "Notifications retrieved successfully",
		"data":    notifications,
		"unread":  unread,
	})
}

// PATCH /api/notifications/:id/read
func (h *NotificationController) MarkRead(c *fiber.Ctx) error {
	result := h.DB.Model(&Models.Notification{}).Where("id = ?", c.Params("id")).Update("lu", true)
	if result.Error != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update notification"})
	}
	if result.RowsAffected == 0 {
		return notFound(c, "Notification")
	}
	return c.JSON(fiber.Map{"message": "Notification marked as read"})
}

// PATCH /api/notifications/read
func (h *NotificationController) MarkAllRead(c *fiber.Ctx) error {
	result := h.DB.Model(&Models.Notification{}).Where("lu = ?", false).Update("lu", true)
	if result.Error != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update notifications"})
	}
	return c.JSON(fiber.Map{"message": "Notifications marked as read", "updated": result.RowsAffected})
}

// DeleteNotification dismisses a notification. The row is soft deleted so
// its hash still blocks the same alert on the next scan.
// DELETE /api/notifications/:id
func (h *NotificationController) DeleteNotification(c *fiber.Ctx) error {
	result := h.DB.Delete(&Models.Notification{}, "id = ?", c.Params("id"))
	if result.Error != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete notification"})
	}
	if result.RowsAffected == 0 {
		return notFound(c, "Notification")
	}
	return c.JSON(fiber.Map{"message": "Notification deleted successfully"})
}

// Scan runs the alert scan now instead of waiting for the scheduler
// POST /api/notifications/scan
func (h *NotificationController) Scan(c *fiber.Ctx) error {
	created, err := h.Scanner.Scan(c.UserContext())
	if err != nil {
		log.Printf("Alert scan failed: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Alert scan failed"})
	}
	return c.JSON(fiber.Map{
		"message": "Scan completed",
		"created": len(created),
		"data":    created,
	})
}
