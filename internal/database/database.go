package database

import (
	"fmt"

	"seragon/config"
	applog "seragon/internal/logger"
	"seragon/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func dialector(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "", "mysql":
		return mysql.Open(cfg.DSN), nil
	case "postgres":
		return postgres.Open(cfg.DSN), nil
	case "sqlite":
		return sqlite.Open(cfg.DSN), nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
}

func NewDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	d, err := dialector(cfg)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(d, &gorm.Config{
		Logger:         newGormLogger(zap.NewStdLog(applog.Log)),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.Driver == "sqlite" {
		// SQLite: single writer
		sqlDB.SetMaxOpenConns(1)
		return db, nil
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}

// newGormLogger logs failed statements only. Lookups that miss are expected
// (fresh idempotency keys, first logins) and stay quiet.
func newGormLogger(w logger.Writer) logger.Interface {
	return logger.New(w, logger.Config{
		LogLevel:                  logger.Error,
		IgnoreRecordNotFoundError: true,
	})
}

// AutoMigrate runs Gorm auto-migration for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.ServiceCategory{},
		&models.Service{},
		&models.Order{},
		&models.OrderItem{},
		&models.CheckoutKey{},
		&models.SupportTicket{},
		&models.SupportTicketMessage{},
		&models.Notification{},
		&models.AuditLog{},
	)
}
