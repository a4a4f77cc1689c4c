package db

import (
	"fmt"
	"log/slog"
	"strings"

	"query-server/confs"
	"query-server/entities"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var models = []interface{}{&entities.User{}, &entities.QrHistoryItem{}, &entities.AppConfig{}}

// remoteDSN builds the postgres DSN for the cloud store.
func remoteDSN(cfg confs.RemoteDBConfig) (string, error) {
	if cfg.URL != "" {
		dsn := cfg.URL
		// Hosted databases expect TLS; add it unless the URL chose already
		if !strings.Contains(dsn, "sslmode=") {
			if strings.Contains(dsn, "?") {
				dsn += "&sslmode=require"
			} else {
				dsn += "?sslmode=require"
			}
		}
		return dsn, nil
	}

	if !cfg.Configured() {
		return "", fmt.Errorf("missing required database configuration: DB_URL or (DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME)")
	}

	sslMode := "require"
	if cfg.Host == "localhost" || cfg.Host == "127.0.0.1" {
		sslMode = "disable"
	}

	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		cfg.Host, cfg.User, cfg.Password, cfg.Name, cfg.Port, sslMode), nil
}

func gormConfig(debug bool) *gorm.Config {
	level := logger.Warn
	if debug {
		level = logger.Info
	}
	return &gorm.Config{
		Logger:      logger.Default.LogMode(level),
		PrepareStmt: true,
	}
}

// ConnectRemote opens the postgres store used in authenticated mode.
func ConnectRemote(cfg *confs.Config) (Database, error) {
	dsn, err := remoteDSN(cfg.Remote)
	if err != nil {
		return nil, err
	}

	log := slog.With("source", "db", "store", "remote")
	log.Info("connecting to remote database")

	db, err := gorm.Open(postgres.Open(dsn), gormConfig(cfg.DBDebug))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(0)

	if err := db.AutoMigrate(models...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Info("remote database ready")
	return &GormDatabase{DB: db}, nil
}
