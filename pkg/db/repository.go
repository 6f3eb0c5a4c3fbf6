package db

import (
	"strconv"

	"github.com/Basil-Gomaa/AZTrackonomy/pkg/config"
	"github.com/Basil-Gomaa/AZTrackonomy/pkg/logger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func InitDB(cfg config.DatabaseConfig) (*Store, error) {
	dsn := "host=" + cfg.Host +
		" user=" + cfg.User +
		" password=" + cfg.Password +
		" dbname=" + cfg.DBName +
		" port=" + strconv.Itoa(cfg.Port) +
		" sslmode=" + cfg.SSLMode
	gormLogger, gormErr := newGormLogger(config.AppConfig.Logging.GormLevel)
	if gormErr != nil {
		logger.Error("invalid gorm log level", "value", config.AppConfig.Logging.GormLevel, "error", gormErr)
	}
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLogger})
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}
	if err := Migrate(gdb); err != nil {
		logger.Error("failed to auto-migrate database", "error", err)
		return nil, err
	}
	return NewStore(gdb), nil
}

func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&TrackedProduct{},
		&PriceHistory{},
		&Notification{},
		&UserSettings{},
		&CheckRun{},
	)
}
