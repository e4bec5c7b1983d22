package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"financas/internal/cli"
	"financas/internal/config"
	"financas/internal/core"
	"financas/internal/services"
)

// seed-admin creates the first admin user in the SQLite database. Running
// it again with the same email is a no-op.
func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))

	email := strings.TrimSpace(os.Getenv("ADMIN_EMAIL"))
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		logger.Error("ADMIN_EMAIL and ADMIN_PASSWORD are required")
		os.Exit(1)
	}

	cfg := config.Load()
	if dir := filepath.Dir(cfg.SQLiteDBPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Error("Failed to create database directory", "error", err, "dir", dir)
			os.Exit(1)
		}
	}
	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	users := services.NewUserService(repo, nil)
	u, err := users.SeedAdmin(ctx, core.UserInput{
		Name:     os.Getenv("ADMIN_NAME"),
		Email:    email,
		Password: password,
	})
	switch {
	case errors.Is(err, core.ErrConflict):
		logger.Info("Admin user already exists", "email", email)
	case err != nil:
		logger.Error("Failed to create admin user", "error", err)
		repo.Close()
		os.Exit(1)
	default:
		logger.Info("Admin user created", "user_id", u.ID, "email", u.Email)
	}
}
