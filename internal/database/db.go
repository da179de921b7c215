package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ahmadqo/course-certificates/internal/config"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver untuk database/sql
	"github.com/jmoiron/sqlx"
)

func DSN(cfg *config.DatabaseConfig) string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode,
	)
}

func Connect(ctx context.Context, cfg *config.DatabaseConfig, log *slog.Logger) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "pgx", DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("connect database %s@%s:%s: %w", cfg.Name, cfg.Host, cfg.Port, err)
	}

	// render PDF bisa lama, pool dijaga tetap kecil
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	log.Info("database connected", "host", cfg.Host, "name", cfg.Name)
	return db, nil
}
