package main

import (
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"FleetDesk/Alerts"
	"FleetDesk/Billing"
	"FleetDesk/CronJobs"
	"FleetDesk/FiberConfig"
	"FleetDesk/Models"
	"FleetDesk/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	setupLogging(cfg.LogDir)

	settings, err := config.LoadSettings(cfg.SettingsFile)
	if err != nil {
		log.Fatalf("Settings error: %v", err)
	}

	// Setup database
	if err := Models.Connect(cfg); err != nil {
		log.Fatal(err)
	}

	billing := Billing.NewService(Models.DB, settings)
	scanner := Alerts.NewScanner(Models.DB, settings, cfg.SMTP)

	scheduler := CronJobs.NewScheduler(Models.DB, scanner, cfg.BackupDir)
	if err := scheduler.Start(cfg.BackupSchedule, cfg.AlertSchedule); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	app := FiberConfig.NewApp(FiberConfig.Dependencies{
		DB:        Models.DB,
		Config:    cfg,
		Billing:   billing,
		Scanner:   scanner,
		Scheduler: scheduler,
	})

	go func() {
		log.Printf("Server Up on port %s...", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	if err := app.Shutdown(); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	scheduler.Stop()
	if sqlDB, err := Models.DB.DB(); err == nil {
		sqlDB.Close()
	}
}

// setupLogging mirrors the application log to logs/application.log.
func setupLogging(dir string) {
	// Create logs directory if it doesn't exist
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Printf("Error creating logs directory: %v\n", err)
		return
	}

	logFile, err := os.OpenFile(filepath.Join(dir, "application.log"),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Printf("Error opening log file: %v\n", err)
		return
	}

	log.SetOutput(io.MultiWriter(os.Stderr, logFile))
	log.SetFlags(log.Ldate | log.Ltime)
}
