package CronJobs

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"FleetDesk/Alerts"
	"FleetDesk/Models"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// Scheduler runs the nightly backup and the daily alert scan
type Scheduler struct {
	cronScheduler *cron.Cron
	db            *gorm.DB
	scanner       *Alerts.Scanner
	backupDir     string
	keepBackups   int

	mu   sync.Mutex
	jobs map[string]cron.EntryID
}

// NewScheduler creates a scheduler; nothing runs until Start
func NewScheduler(db *gorm.DB, scanner *Alerts.Scanner, backupDir string) *Scheduler {
	return &Scheduler{
		cronScheduler: cron.New(cron.WithSeconds()),
		db:            db,
		scanner:       scanner,
		backupDir:     backupDir,
		keepBackups:   30,
		jobs:          make(map[string]cron.EntryID),
	}
}

// Start registers both jobs with their schedules and starts the cron loop.
// Format: "0 0 2 * * *" = At 02:00:00 AM every day
func (s *Scheduler) Start(backupSchedule, alertSchedule string) error {
	if err := s.schedule("backup", backupSchedule, s.RunBackup); err != nil {
		return err
	}
	if err := s.schedule("alerts", alertSchedule, s.RunAlertScan); err != nil {
		return err
	}

	s.cronScheduler.Start()
	log.Printf("Scheduler started - backup %q, alerts %q", backupSchedule, alertSchedule)
	return nil
}

// Stop terminates the scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	if s.cronScheduler != nil {
		<-s.cronScheduler.Stop().Done()
		log.Println("Scheduler stopped")
	}
}

// UpdateSchedule changes the schedule of one job ("backup" or "alerts")
func (s *Scheduler) UpdateSchedule(job, schedule string) error {
	var run func()
	switch job {
	case "backup":
		run = s.RunBackup
	case "alerts":
		run = s.RunAlertScan
	default:
		return fmt.Errorf("unknown job %q", job)
	}
	if err := s.schedule(job, schedule, run); err != nil {
		return fmt.Errorf("error updating schedule: %w", err)
	}
	log.Printf("%s schedule updated to: %s\n", job, schedule)
	return nil
}

func (s *Scheduler) schedule(job, spec string, run func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Parse before removing so a bad spec keeps the old entry
	if _, err := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor).Parse(spec); err != nil {
		return fmt.Errorf("error scheduling %s job: %w", job, err)
	}
	if id, ok := s.jobs[job]; ok {
		s.cronScheduler.Remove(id)
	}
	id, err := s.cronScheduler.AddFunc(spec, func() {
		log.Printf("Running scheduled %s job", job)
		run()
	})
	if err != nil {
		return fmt.Errorf("error scheduling %s job: %w", job, err)
	}
	s.jobs[job] = id
	return nil
}

// RunBackup writes a snapshot to the backup directory and prunes old files
func (s *Scheduler) RunBackup() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	path, err := Models.WriteSnapshotFile(ctx, s.db, s.backupDir)
	if err != nil {
		log.Printf("Error in scheduled backup: %v\n", err)
		return
	}
	log.Printf("Backup written to %s", path)

	if removed, err := s.prune(); err != nil {
		log.Printf("Error pruning backups: %v\n", err)
	} else if removed > 0 {
		log.Printf("Removed %d old backup(s)", removed)
	}
}

// RunAlertScan raises expiry and overdue notifications
func (s *Scheduler) RunAlertScan() {
	if s.scanner == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	s.scanner.Run(ctx)
}

// prune keeps the most recent keepBackups snapshot files.
func (s *Scheduler) prune() (int, error) {
	entries, err := os.ReadDir(s.backupDir)
	if err != nil {
		return 0, err
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), "backup_fleetdesk_") && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	if len(names) <= s.keepBackups {
		return 0, nil
	}

	// Timestamped names sort chronologically
	sort.Strings(names)
	removed := 0
	for _, name := range names[:len(names)-s.keepBackups] {
		if err := os.Remove(filepath.Join(s.backupDir, name)); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
