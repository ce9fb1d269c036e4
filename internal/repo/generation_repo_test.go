package repo

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mkaran/go-studio-backend/internal/domain"
)

func newTestDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("repo_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// Ensure the file handle is released before TempDir cleanup (Windows needs this).
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func mustCreate(t *testing.T, db *gorm.DB, userID, prompt string, kind domain.MediaKind, tool domain.Tool) *domain.Generation {
	t.Helper()
	g, err := CreateGeneration(context.Background(), db, userID, prompt, "", kind, tool)
	if err != nil {
		t.Fatalf("CreateGeneration: %v", err)
	}
	return g
}

func TestCreateGeneration_Error_NoTable(t *testing.T) {
	db := newTestDB(t /* no migrations */)
	g, err := CreateGeneration(context.Background(), db, "u1", "a cat", "", domain.KindImage, domain.ToolTextToImage)
	if err == nil || g != nil {
		t.Fatalf("expected error creating without table, got gen=%v err=%v", g, err)
	}
}

func TestCreateGeneration_StartsProcessing(t *testing.T) {
	db := newTestDB(t, &domain.Generation{})
	g := mustCreate(t, db, "u1", "a cat", domain.KindImage, domain.ToolTextToImage)

	if g.ID == "" {
		t.Fatalf("expected generated ID")
	}
	if g.Status != domain.StatusProcessing {
		t.Fatalf("status = %q; want processing", g.Status)
	}
	if g.ResultURL != "" || g.Error != "" {
		t.Fatalf("result/error must be empty at creation")
	}

	got, err := GetGeneration(context.Background(), db, g.ID, "u1")
	if err != nil {
		t.Fatalf("GetGeneration: %v", err)
	}
	if got.Prompt != "a cat" || got.Kind != domain.KindImage || got.Tool != domain.ToolTextToImage {
		t.Fatalf("round-trip mismatch: %+v", got)
	}
}

func TestGetGeneration_WrongUser(t *testing.T) {
	db := newTestDB(t, &domain.Generation{})
	g := mustCreate(t, db, "u1", "p", domain.KindImage, domain.ToolTextToImage)

	if _, err := GetGeneration(context.Background(), db, g.ID, "other"); err == nil {
		t.Fatalf("expected not found for foreign user")
	}
}

func TestCompleteGeneration_SetsResult(t *testing.T) {
	db := newTestDB(t, &domain.Generation{})
	g := mustCreate(t, db, "u1", "p", domain.KindImage, domain.ToolTextToImage)

	if err := CompleteGeneration(context.Background(), db, g.ID, "https://assets/x.png"); err != nil {
		t.Fatalf("CompleteGeneration: %v", err)
	}
	got, _ := GetGeneration(context.Background(), db, g.ID, "u1")
	if got.Status != domain.StatusCompleted || got.ResultURL != "https://assets/x.png" {
		t.Fatalf("after complete: %+v", got)
	}
}

func TestCompleteGeneration_TerminalIsImmutable(t *testing.T) {
	db := newTestDB(t, &domain.Generation{})
	g := mustCreate(t, db, "u1", "p", domain.KindVideo, domain.ToolTextToVideo)

	if err := FailGeneration(context.Background(), db, g.ID, "boom"); err != nil {
		t.Fatalf("FailGeneration: %v", err)
	}
	// A failed row must not become completed (and vice versa).
	if err := CompleteGeneration(context.Background(), db, g.ID, "u"); err != ErrNotFound {
		t.Fatalf("complete after fail = %v; want ErrNotFound", err)
	}
	if err := FailGeneration(context.Background(), db, g.ID, "again"); err != ErrNotFound {
		t.Fatalf("second fail = %v; want ErrNotFound", err)
	}
	got, _ := GetGeneration(context.Background(), db, g.ID, "u1")
	if got.Status != domain.StatusFailed || got.Error != "boom" || got.ResultURL != "" {
		t.Fatalf("terminal row changed: %+v", got)
	}
}

func TestFailGeneration_MissingRow(t *testing.T) {
	db := newTestDB(t, &domain.Generation{})
	if err := FailGeneration(context.Background(), db, "nope", "x"); err != ErrNotFound {
		t.Fatalf("err = %v; want ErrNotFound", err)
	}
}

func TestToggleFavorite_DoubleToggleRestores(t *testing.T) {
	db := newTestDB(t, &domain.Generation{})
	g := mustCreate(t, db, "u1", "p", domain.KindImage, domain.ToolTextToImage)

	if err := ToggleFavorite(context.Background(), db, g.ID, "u1"); err != nil {
		t.Fatalf("toggle 1: %v", err)
	}
	got, _ := GetGeneration(context.Background(), db, g.ID, "u1")
	if !got.IsFavorite {
		t.Fatalf("expected favorite after first toggle")
	}

	if err := ToggleFavorite(context.Background(), db, g.ID, "u1"); err != nil {
		t.Fatalf("toggle 2: %v", err)
	}
	got, _ = GetGeneration(context.Background(), db, g.ID, "u1")
	if got.IsFavorite {
		t.Fatalf("expected original value after double toggle")
	}
}

func TestToggleFavorite_NotFound(t *testing.T) {
	db := newTestDB(t, &domain.Generation{})
	if err := ToggleFavorite(context.Background(), db, "missing", "u1"); err != ErrNotFound {
		t.Fatalf("err = %v; want ErrNotFound", err)
	}
}

func TestListGenerations_FilterAndOrder(t *testing.T) {
	db := newTestDB(t, &domain.Generation{})
	ctx := context.Background()

	img := mustCreate(t, db, "u1", "one", domain.KindImage, domain.ToolTextToImage)
	vid := mustCreate(t, db, "u1", "two", domain.KindVideo, domain.ToolTextToVideo)
	mustCreate(t, db, "someone-else", "three", domain.KindImage, domain.ToolTextToImage)

	// Spread creation times so ordering is deterministic.
	db.Model(&domain.Generation{}).Where("id = ?", img.ID).
		Update("created_at", time.Now().UTC().Add(-time.Hour))

	if err := ToggleFavorite(ctx, db, vid.ID, "u1"); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	all, err := ListGenerations(ctx, db, "u1", GenerationFilter{})
	if err != nil {
		t.Fatalf("ListGenerations: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("len(all) = %d; want 2", len(all))
	}
	if all[0].ID != vid.ID {
		t.Fatalf("expected newest first, got %s", all[0].ID)
	}

	images, err := ListGenerations(ctx, db, "u1", GenerationFilter{Kind: domain.KindImage})
	if err != nil || len(images) != 1 || images[0].ID != img.ID {
		t.Fatalf("image filter: %v %v", images, err)
	}

	favs, err := ListGenerations(ctx, db, "u1", GenerationFilter{FavoritesOnly: true})
	if err != nil || len(favs) != 1 || favs[0].ID != vid.ID {
		t.Fatalf("favorites filter: %v %v", favs, err)
	}

	total, err := CountGenerations(ctx, db, "u1", GenerationFilter{Kind: domain.KindVideo, FavoritesOnly: true})
	if err != nil || total != 1 {
		t.Fatalf("count = %d, %v", total, err)
	}
}

func TestListGenerationsPage(t *testing.T) {
	db := newTestDB(t, &domain.Generation{})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		g := mustCreate(t, db, "u1", fmt.Sprintf("p%d", i), domain.KindImage, domain.ToolTextToImage)
		db.Model(&domain.Generation{}).Where("id = ?", g.ID).
			Update("created_at", time.Now().UTC().Add(time.Duration(i)*time.Minute))
	}

	page, err := ListGenerationsPage(ctx, db, "u1", GenerationFilter{}, 1, 2)
	if err != nil {
		t.Fatalf("ListGenerationsPage: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("len(page) = %d; want 2", len(page))
	}
	if page[0].Prompt != "p3" || page[1].Prompt != "p2" {
		t.Fatalf("unexpected page order: %s, %s", page[0].Prompt, page[1].Prompt)
	}
}
