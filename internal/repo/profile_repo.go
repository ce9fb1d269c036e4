// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Profile
// model (the session user's point balance).
package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mkaran/go-studio-backend/internal/domain"
)

// EnsureProfile returns the stored profile, creating it with the given name
// and starting balance when none exists yet. The balance of an existing
// profile is left untouched.
func EnsureProfile(ctx context.Context, db *gorm.DB, name string, points int64) (*domain.Profile, error) {
	var p domain.Profile
	err := db.WithContext(ctx).First(&p).Error
	if err == nil {
		return &p, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	p = domain.Profile{
		ID:     uuid.NewString(),
		Name:   name,
		Points: points,
	}
	if err := db.WithContext(ctx).Create(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// GetProfile fetches the single profile row, or ErrNotFound when the table
// is empty.
func GetProfile(ctx context.Context, db *gorm.DB) (*domain.Profile, error) {
	var p domain.Profile
	if err := db.WithContext(ctx).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// DeductPoints subtracts cost from the profile balance. The balance may go
// negative; no floor is enforced.
func DeductPoints(ctx context.Context, db *gorm.DB, cost int64) error {
	res := db.WithContext(ctx).
		Model(&domain.Profile{}).
		Where("1 = 1").
		Update("points", gorm.Expr("points - ?", cost))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
