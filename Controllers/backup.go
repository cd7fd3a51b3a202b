package Controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"FleetDesk/Models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ScheduleUpdater reschedules a background job
type ScheduleUpdater interface {
	UpdateSchedule(job, schedule string) error
}

type BackupController struct {
	DB        *gorm.DB
	BackupDir string
	Scheduler ScheduleUpdater
}

func NewBackupController(db *gorm.DB, backupDir string, scheduler ScheduleUpdater) *BackupController {
	return &BackupController{DB: db, BackupDir: backupDir, Scheduler: scheduler}
}

// Download sends a snapshot of every collection as a JSON attachment
// GET /api/admin/backup
func (h *BackupController) Download(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 30*time.Second)
	defer cancel()

	backup, err := Models.Snapshot(ctx, h.DB)
	if err != nil {
		log.Printf("Backup failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to read data"})
	}

	filename := fmt.Sprintf("backup_fleetdesk_%s.json", backup.Timestamp.Format("2006-01-02_15-04"))
	c.Set(fiber.HeaderContentDisposition, "attachment; filename="+filename)
	return c.JSON(backup)
}

// Restore replaces the database content with an uploaded backup file
// POST /api/admin/restore (multipart backup_file)
func (h *BackupController) Restore(c *fiber.Ctx) error {
	file, err := c.FormFile("backup_file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "No backup file uploaded"})
	}
	f, err := file.Open()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to open backup file"})
	}
	defer f.Close()

	var backup Models.Backup
	if err := json.NewDecoder(f).Decode(&backup); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Invalid or corrupted backup file",
			"message": err.Error(),
		})
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Minute)
	defer cancel()
	if err := Models.Restore(ctx, h.DB, &backup); err != nil {
		log.Printf("Restore failed: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Restore failed",
			"message": err.Error(),
		})
	}

	user, _ := c.Locals("user").(Models.User)
	log.Printf("Database restored from backup of %s by %s", backup.Timestamp.Format(time.RFC3339), user.Email)
	return c.JSON(fiber.Map{
		"message":  "Backup restored successfully",
		"restored": backup.Data.Counts(),
	})
}

type backupFile struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"modTime"`
}

// ListBackups shows the snapshots written by the scheduler, newest first
// GET /api/admin/backups
func (h *BackupController) ListBackups(c *fiber.Ctx) error {
	entries, err := os.ReadDir(h.BackupDir)
	if err != nil && !os.IsNotExist(err) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to read backup directory"})
	}

	files := make([]backupFile, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, backupFile{Name: e.Name(), Size: info.Size(), ModTime: info.ModTime()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].ModTime.After(files[j].ModTime) })
	return c.JSON(fiber.Map{"message": "Backups retrieved successfully", "data": files})
}

// DownloadStored sends one of the stored snapshots
// GET /api/admin/backups/:name
func (h *BackupController) DownloadStored(c *fiber.Ctx) error {
	name := filepath.Base(c.Params("name"))
	if !strings.HasPrefix(name, "backup_") || !strings.HasSuffix(name, ".json") {
		return notFound(c, "Backup")
	}
	path := filepath.Join(h.BackupDir, name)
	if _, err := os.Stat(path); err != nil {
		return notFound(c, "Backup")
	}
	return c.Download(path, name)
}

type scheduleRequest struct {
	Schedule string `json:"schedule" validate:"required"`
}

// UpdateSchedule changes the cron expression of "backup" or "alerts"
// PUT /api/admin/schedules/:job
func (h *BackupController) UpdateSchedule(c *fiber.Ctx) error {
	var req scheduleRequest
	if ok, err := parseAndValidate(c, &req); !ok {
		return err
	}
	if err := h.Scheduler.UpdateSchedule(c.Params("job"), req.Schedule); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Invalid schedule",
			"message": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"message": "Schedule updated", "job": c.Params("job"), "schedule": req.Schedule})
}
