package services

import (
	"context"
	"errors"
	"testing"
)

func TestProfileEnsureIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	s := NewProfileService(db, "Admin", 34250)

	p, err := s.Ensure(context.Background())
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if p.Name != "Admin" || p.Points != 34250 {
		t.Errorf("profile = %+v", p)
	}

	// A second Ensure keeps the existing balance.
	s.InitialPoints = 99
	again, err := s.Ensure(context.Background())
	if err != nil {
		t.Fatalf("second Ensure: %v", err)
	}
	if again.ID != p.ID || again.Points != 34250 {
		t.Errorf("second Ensure = %+v", again)
	}
}

func TestProfileGet(t *testing.T) {
	db := newTestDB(t)
	s := NewProfileService(db, "Admin", 100)

	if _, err := s.Get(context.Background()); !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("unseeded Get: err = %v, want ErrProfileNotFound", err)
	}

	if _, err := s.Ensure(context.Background()); err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	p, err := s.Get(context.Background())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p.Name != "Admin" || p.Points != 100 {
		t.Errorf("profile = %+v", p)
	}
}
