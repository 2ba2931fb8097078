package cmd

import (
	"fmt"

	"github.com/chezmoi-app/chezmoi/internal/config"
	"github.com/chezmoi-app/chezmoi/internal/db"
	"github.com/chezmoi-app/chezmoi/internal/logger"
	"github.com/jmoiron/sqlx"
)

// open loads configuration the same way the server does and connects to the database.
func open() (*config.Config, *sqlx.DB, error) {
	cfg := config.Load()
	logger.Init(true, "", cfg.AppEnv, cfg.AppVersion)

	conn, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, nil, fmt.Errorf("connect: %w", err)
	}
	return cfg, conn, nil
}
