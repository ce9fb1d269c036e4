// Package services contains the application business logic.
//
// This file implements ProfileService, which exposes the session user's
// display name and point balance. The profile is seeded once at startup and
// the balance shrinks as generations complete.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/mkaran/go-studio-backend/internal/domain"
	"github.com/mkaran/go-studio-backend/internal/repo"

	"go.opentelemetry.io/otel"
)

// ProfileService provides access to the session profile.
type ProfileService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB

	// Name and InitialPoints seed the profile on first use.
	Name          string
	InitialPoints int64
}

// NewProfileService constructs a ProfileService.
func NewProfileService(db *gorm.DB, name string, initialPoints int64) *ProfileService {
	return &ProfileService{DB: db, Name: name, InitialPoints: initialPoints}
}

// Ensure creates the profile row with the configured name and starting
// balance when it does not exist yet, and returns it either way.
func (s *ProfileService) Ensure(ctx context.Context) (*domain.Profile, error) {
	tr := otel.Tracer("services/ProfileService")
	ctx, span := tr.Start(ctx, "Ensure")
	defer span.End()

	return repo.EnsureProfile(ctx, s.DB, s.Name, s.InitialPoints)
}

// Get returns the stored profile, or ErrProfileNotFound when it has not been
// seeded.
func (s *ProfileService) Get(ctx context.Context) (*domain.Profile, error) {
	tr := otel.Tracer("services/ProfileService")
	ctx, span := tr.Start(ctx, "Get")
	defer span.End()

	p, err := repo.GetProfile(ctx, s.DB)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return p, nil
}
