// Command create-admin seeds a privileged principal. Self-service
// registration only produces employees, which cannot delete records, so a
// fresh deployment runs this once to bootstrap its first owner or admin.
//
// Usage:
//
//	create-admin -email owner@example.com -name Olive -surname Owner -password <pw> [-role owner|admin]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	identityapp "github.com/estatecrm/backend/internal/application/identity"
	"github.com/estatecrm/backend/internal/domain/identity"
	"github.com/estatecrm/backend/internal/infrastructure/auth"
	"github.com/estatecrm/backend/internal/infrastructure/config"
	"github.com/estatecrm/backend/internal/infrastructure/logger"
	"github.com/estatecrm/backend/internal/infrastructure/persistence"
	"go.uber.org/zap"
)

func main() {
	var (
		email    string
		name     string
		surname  string
		password string
		role     string
		logLevel string
	)
	flag.StringVar(&email, "email", "", "Email address of the new principal")
	flag.StringVar(&name, "name", "", "First name")
	flag.StringVar(&surname, "surname", "", "Surname")
	flag.StringVar(&password, "password", "", "Password (at least 8 characters)")
	flag.StringVar(&role, "role", string(identity.RoleOwner), "Role: owner or admin")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	if email == "" || name == "" || password == "" {
		fmt.Fprintln(os.Stderr, "Usage: create-admin -email <email> -name <name> [-surname <surname>] -password <password> [-role owner|admin]")
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	authService := identityapp.NewAuthService(
		persistence.NewGormUserRepository(db.DB),
		persistence.NewGormCredentialRepository(db.DB),
		auth.NewJWTService(cfg.JWT),
		identityapp.WithLogger(log),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	user, err := authService.CreateAdmin(ctx, email, name, surname, password, identity.Role(role))
	if err != nil {
		log.Fatal("Failed to create admin", zap.Error(err))
	}

	log.Info("Admin created",
		zap.String("user_id", user.ID.String()),
		zap.String("email", user.Email),
		zap.String("role", string(user.Role)),
	)
}
