package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	appModels "github.com/afterschool/sessions-api/internal/app/models"
	"github.com/afterschool/sessions-api/internal/pkg/apperrors"
	"github.com/afterschool/sessions-api/internal/pkg/auth"
	"github.com/rs/zerolog"
)

// Store is the persistence surface the seed needs
type Store interface {
	StaffEmailExists(ctx context.Context, email string) (bool, error)
	CreateStaff(ctx context.Context, s *appModels.Staff) error
	CreateBlock(ctx context.Context, b *appModels.Block) error
}

// Options controls what default data is created
type Options struct {
	AdminEmail    string
	AdminName     string
	AdminPassword string
	Timezone      string
	Now           time.Time
}

// CreateDefaultData creates the configured admin account and the special
// block of the current year when they don't exist yet. Every step runs even
// when an earlier one fails; the failures are joined.
func CreateDefaultData(ctx context.Context, store Store, opts Options, lgr zerolog.Logger) error {
	lgr.Info().Msg("Checking/Creating default data (admin staff, special block)...")
	var finalErr error

	if err := createAdmin(ctx, store, opts, lgr); err != nil {
		lgr.Error().Err(err).Msg("Error creating default admin")
		finalErr = errors.Join(finalErr, err)
	}

	if err := createSpecialBlock(ctx, store, opts, lgr); err != nil {
		lgr.Error().Err(err).Msg("Error creating special block")
		finalErr = errors.Join(finalErr, err)
	}

	lgr.Info().Msg("Default data check/creation finished.")
	return finalErr
}

func createAdmin(ctx context.Context, store Store, opts Options, lgr zerolog.Logger) error {
	email := strings.ToLower(strings.TrimSpace(opts.AdminEmail))
	if email == "" || opts.AdminPassword == "" {
		lgr.Warn().Msg("No admin credentials configured, skipping admin creation")
		return nil
	}

	exists, err := store.StaffEmailExists(ctx, email)
	if err != nil {
		return fmt.Errorf("checking admin account: %w", err)
	}
	if exists {
		lgr.Info().Str("email", email).Msg("Admin user already exists, skipping creation")
		return nil
	}

	hash, err := auth.HashPassword(opts.AdminPassword)
	if err != nil {
		return fmt.Errorf("hashing admin password: %w", err)
	}

	name := strings.TrimSpace(opts.AdminName)
	if name == "" {
		name = "Administrator"
	}
	admin := &appModels.Staff{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Role:         appModels.StaffRoleAdmin,
		Active:       true,
	}
	if err := store.CreateStaff(ctx, admin); err != nil {
		return fmt.Errorf("creating admin account: %w", err)
	}

	lgr.Info().Int64("staffID", admin.ID).Str("email", email).Msg("Default admin user created successfully")
	return nil
}

// createSpecialBlock adds a "special" block spanning the whole current year so
// one-off sessions always have a block to attach to.
func createSpecialBlock(ctx context.Context, store Store, opts Options, lgr zerolog.Logger) error {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	year := now.Year()
	if loc, err := time.LoadLocation(opts.Timezone); err == nil {
		year = now.In(loc).Year()
	}

	block := &appModels.Block{
		Year:      year,
		BlockType: appModels.BlockTypeSpecial,
		Name:      fmt.Sprintf("Special %d", year),
		StartDate: time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC),
		Timezone:  opts.Timezone,
	}
	err := store.CreateBlock(ctx, block)
	switch {
	case errors.Is(err, apperrors.ErrBlockAlreadyExists):
		lgr.Debug().Int("year", year).Msg("Special block already exists")
		return nil
	case err != nil:
		return fmt.Errorf("creating special block for %d: %w", year, err)
	}

	lgr.Info().Int64("blockID", block.ID).Int("year", year).Msg("Special block created")
	return nil
}
