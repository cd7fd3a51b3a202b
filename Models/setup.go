package Models

import (
	"errors"
	"fmt"
	"log"

	"FleetDesk/config"

	mysqlcfg "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Open connects to one of the supported databases.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "mysql":
		// Dates are scanned into time.Time, so parseTime must be on
		parsed, err := mysqlcfg.ParseDSN(dsn)
		if err != nil {
			return nil, fmt.Errorf("invalid mysql DSN: %w", err)
		}
		parsed.ParseTime = true
		dialector = mysql.Open(parsed.FormatDSN())
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	if driver == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// In-memory databases exist per connection
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// Migrate creates or updates every table of the application.
func Migrate(db *gorm.DB) error {
	// Referenced tables first
	if err := db.AutoMigrate(
		&User{},
		&ThirdParty{},
		&Driver{},
		&Truck{},
	); err != nil {
		return err
	}

	if err := db.AutoMigrate(
		&Trip{},
		&Expense{},
		&Invoice{},
		&Payment{},
		&CashEntry{},
		&Notification{},
	); err != nil {
		return err
	}
	return nil
}

// Connect opens the configured database, migrates it and makes sure an
// administrator exists.
func Connect(cfg *config.Config) error {
	connection, err := Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := Migrate(connection); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	DB = connection

	if err := EnsureAdmin(connection, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return err
	}
	log.Printf("Connected to %s database", cfg.DBDriver)
	return nil
}

// EnsureAdmin creates the first administrator when the users table is empty.
func EnsureAdmin(db *gorm.DB, email, password string) error {
	var count int64
	if err := db.Model(&User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	if password == "" {
		return errors.New("no user exists yet: ADMIN_PASSWORD must be set")
	}

	admin := User{Nom: "Administrateur", Email: email, Role: RoleAdmin}
	if err := admin.SetPassword(password); err != nil {
		return err
	}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}
	log.Printf("Created administrator %s", email)
	return nil
}
