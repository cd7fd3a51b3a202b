package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port         string
	DBDriver     string
	DBDSN        string
	JWTSecret    string
	CORSOrigins  string
	LogDir       string
	BackupDir    string
	UploadDir    string
	TemplatesDir string
	SettingsFile string

	// Cron expressions with a leading seconds field
	BackupSchedule string
	AlertSchedule  string

	AdminEmail    string
	AdminPassword string

	SMTP SMTPConfig
}

type SMTPConfig struct {
	Server       string
	Port         int
	Username     string
	Password     string
	FromEmail    string
	FromName     string
	TLSEnabled   bool
	SkipTLSCheck bool
	// Recipients of the alert digest
	AlertRecipients []string
}

// Enabled reports whether an SMTP server has been configured.
func (s SMTPConfig) Enabled() bool {
	return s.Server != "" && s.FromEmail != "" && len(s.AlertRecipients) > 0
}

// Load reads the .env file when present, then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		log.Printf("Error loading .env file: %v", err)
	}

	cfg := &Config{
		Port:           GetEnv("PORT", "3001"),
		DBDriver:       strings.ToLower(GetEnv("DB_DRIVER", "sqlite")),
		DBDSN:          GetEnv("DB_DSN", "fleetdesk.db"),
		JWTSecret:      GetEnv("JWT_SECRET", ""),
		CORSOrigins:    GetEnv("CORS_ORIGINS", "http://localhost:5173"),
		LogDir:         GetEnv("LOG_DIR", "logs"),
		BackupDir:      GetEnv("BACKUP_DIR", "backups"),
		UploadDir:      GetEnv("UPLOAD_DIR", "uploads"),
		TemplatesDir:   GetEnv("TEMPLATES_DIR", "./Templates"),
		SettingsFile:   GetEnv("SETTINGS_FILE", "settings.json5"),
		BackupSchedule: GetEnv("BACKUP_SCHEDULE", "0 0 2 * * *"),
		AlertSchedule:  GetEnv("ALERT_SCHEDULE", "0 0 7 * * *"),
		AdminEmail:     GetEnv("ADMIN_EMAIL", "admin@fleetdesk.local"),
		AdminPassword:  GetEnv("ADMIN_PASSWORD", ""),
	}

	smtpPort, err := strconv.Atoi(GetEnv("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}
	cfg.SMTP = SMTPConfig{
		Server:       GetEnv("SMTP_SERVER", ""),
		Port:         smtpPort,
		Username:     GetEnv("SMTP_USERNAME", ""),
		Password:     GetEnv("SMTP_PASSWORD", ""),
		FromEmail:    GetEnv("SMTP_FROM_EMAIL", ""),
		FromName:     GetEnv("SMTP_FROM_NAME", "FleetDesk"),
		TLSEnabled:   GetEnv("SMTP_TLS", "false") == "true",
		SkipTLSCheck: GetEnv("SMTP_SKIP_TLS_CHECK", "false") == "true",
	}
	for _, r := range strings.Split(GetEnv("SMTP_ALERT_RECIPIENTS", ""), ",") {
		if r = strings.TrimSpace(r); r != "" {
			cfg.SMTP.AlertRecipients = append(cfg.SMTP.AlertRecipients, r)
		}
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not set")
	}
	switch cfg.DBDriver {
	case "sqlite", "mysql", "postgres":
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	return cfg, nil
}

// GetEnv returns the variable or the fallback when it is unset or empty.
func GetEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
