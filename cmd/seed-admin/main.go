package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"safecampus/config"
	"safecampus/database"
	"safecampus/models"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultSeedEmail      = "admin@safecampus.ke"
	defaultSeedPassword   = "admin2024"
	defaultSeedUniversity = "egerton"
	seedBcryptCost        = 10
)

type adminCreator interface {
	GetByEmail(ctx context.Context, email string) (*models.AdminUser, error)
	Create(ctx context.Context, a *models.AdminUser) error
}

type seed struct {
	Email      string
	Password   string
	University string
}

func seedFromEnv() (seed, bool) {
	email, password, university := os.Getenv("ADMIN_SEED_EMAIL"), os.Getenv("ADMIN_SEED_PASSWORD"), os.Getenv("ADMIN_SEED_UNIVERSITY")
	usedDefaults := email == "" || password == "" || university == ""
	s := seed{Email: email, Password: password, University: university}
	if s.Email == "" {
		s.Email = defaultSeedEmail
	}
	if s.Password == "" {
		s.Password = defaultSeedPassword
	}
	if s.University == "" {
		s.University = defaultSeedUniversity
	}
	s.Email = strings.ToLower(strings.TrimSpace(s.Email))
	return s, usedDefaults
}

// seedAdmin creates the admin unless one with the same email exists.
func seedAdmin(ctx context.Context, store adminCreator, s seed) (*models.AdminUser, bool, error) {
	existing, err := store.GetByEmail(ctx, s.Email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, false, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(s.Password), seedBcryptCost)
	if err != nil {
		return nil, false, fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &models.AdminUser{
		ID:           uuid.NewString(),
		Email:        s.Email,
		PasswordHash: string(hash),
		University:   s.University,
		Role:         models.RoleAdmin,
	}
	if err := store.Create(ctx, admin); err != nil {
		return nil, false, err
	}
	return admin, true, nil
}

func main() {
	log.SetHandler(cli.Default)
	cfg := config.Load()

	s, usedDefaults := seedFromEnv()
	if usedDefaults {
		log.Warnf("Using default admin seed credentials where unset (%s / %s / %s). For production, set ADMIN_SEED_EMAIL, ADMIN_SEED_PASSWORD and ADMIN_SEED_UNIVERSITY.",
			defaultSeedEmail, defaultSeedPassword, defaultSeedUniversity)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := database.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.InitializeSchema(db); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	admin, created, err := seedAdmin(ctx, database.NewAdminStore(db), s)
	if err != nil {
		log.Fatalf("Error creating admin user: %v", err)
	}
	if !created {
		log.Infof("Admin user with email %s already exists.", admin.Email)
		return
	}

	log.WithFields(log.Fields{
		"email":      admin.Email,
		"university": admin.University,
		"role":       admin.Role,
	}).Info("Admin user created successfully")
}
