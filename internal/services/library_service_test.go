package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mkaran/go-studio-backend/internal/domain"
	"github.com/mkaran/go-studio-backend/internal/repo"
)

func insertGeneration(t *testing.T, db *gorm.DB, userID, prompt string, kind domain.MediaKind, status domain.Status, createdAt time.Time, favorite bool) domain.Generation {
	t.Helper()
	g := domain.Generation{
		ID:         uuid.NewString(),
		UserID:     userID,
		Kind:       kind,
		Tool:       domain.ToolTextToImage,
		Status:     status,
		Prompt:     prompt,
		IsFavorite: favorite,
		CreatedAt:  createdAt,
	}
	if kind == domain.KindVideo {
		g.Tool = domain.ToolTextToVideo
	}
	if err := db.Create(&g).Error; err != nil {
		t.Fatalf("inserting generation: %v", err)
	}
	return g
}

func TestListPageFiltersAndPaginates(t *testing.T) {
	db := newTestDB(t)
	s := NewLibraryService(db)
	base := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

	insertGeneration(t, db, "u1", "first image", domain.KindImage, domain.StatusCompleted, base, false)
	insertGeneration(t, db, "u1", "a video", domain.KindVideo, domain.StatusCompleted, base.Add(time.Hour), true)
	insertGeneration(t, db, "u1", "second image", domain.KindImage, domain.StatusCompleted, base.Add(2*time.Hour), false)
	insertGeneration(t, db, "other", "not mine", domain.KindImage, domain.StatusCompleted, base, false)

	items, total, err := s.ListPage(context.Background(), "u1", repo.GenerationFilter{Kind: domain.KindImage}, 1, 10)
	if err != nil {
		t.Fatalf("ListPage: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Fatalf("total = %d, len = %d, want 2/2", total, len(items))
	}
	if items[0].Prompt != "second image" {
		t.Errorf("first item = %q, want newest first", items[0].Prompt)
	}

	items, total, err = s.ListPage(context.Background(), "u1", repo.GenerationFilter{FavoritesOnly: true}, 1, 10)
	if err != nil {
		t.Fatalf("ListPage favorites: %v", err)
	}
	if total != 1 || items[0].Prompt != "a video" {
		t.Fatalf("favorites: total = %d, got %v", total, items)
	}

	// Out-of-range page yields an empty slice, not an error.
	items, total, err = s.ListPage(context.Background(), "u1", repo.GenerationFilter{}, 5, 10)
	if err != nil {
		t.Fatalf("ListPage page 5: %v", err)
	}
	if total != 3 || len(items) != 0 {
		t.Errorf("page 5: total = %d, len = %d", total, len(items))
	}
}

func TestGroupedPartitionsByDay(t *testing.T) {
	db := newTestDB(t)
	s := NewLibraryService(db)

	jan2 := time.Date(2026, time.January, 2, 9, 0, 0, 0, time.UTC)
	jan1 := time.Date(2026, time.January, 1, 9, 0, 0, 0, time.UTC)
	insertGeneration(t, db, "u1", "oldest", domain.KindImage, domain.StatusCompleted, jan1, false)
	insertGeneration(t, db, "u1", "morning", domain.KindImage, domain.StatusCompleted, jan2, false)
	insertGeneration(t, db, "u1", "evening", domain.KindImage, domain.StatusCompleted, jan2.Add(8*time.Hour), false)

	groups, err := s.Grouped(context.Background(), "u1", repo.GenerationFilter{})
	if err != nil {
		t.Fatalf("Grouped: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("len(groups) = %d, want 2", len(groups))
	}
	if groups[0].Label != "January 2" {
		t.Errorf("first label = %q, want January 2", groups[0].Label)
	}
	if len(groups[0].Items) != 2 || groups[0].Items[0].Prompt != "evening" {
		t.Errorf("January 2 items = %v", groups[0].Items)
	}
	if groups[1].Label != "January 1" || len(groups[1].Items) != 1 {
		t.Errorf("second group = %v", groups[1])
	}
}

func TestGroupedEmptyLibrary(t *testing.T) {
	s := NewLibraryService(newTestDB(t))
	groups, err := s.Grouped(context.Background(), "u1", repo.GenerationFilter{})
	if err != nil {
		t.Fatalf("Grouped: %v", err)
	}
	if len(groups) != 0 {
		t.Errorf("groups = %v, want empty", groups)
	}
}

func TestToggleFavoriteReturnsUpdated(t *testing.T) {
	db := newTestDB(t)
	s := NewLibraryService(db)
	g := insertGeneration(t, db, "u1", "a fox", domain.KindImage, domain.StatusCompleted, time.Now().UTC(), false)

	got, err := s.ToggleFavorite(context.Background(), "u1", g.ID)
	if err != nil {
		t.Fatalf("ToggleFavorite: %v", err)
	}
	if !got.IsFavorite {
		t.Error("IsFavorite = false after toggle")
	}

	got, err = s.ToggleFavorite(context.Background(), "u1", g.ID)
	if err != nil {
		t.Fatalf("second ToggleFavorite: %v", err)
	}
	if got.IsFavorite {
		t.Error("IsFavorite = true after second toggle")
	}

	if _, err := s.ToggleFavorite(context.Background(), "u1", "missing"); !errors.Is(err, ErrGenerationNotFound) {
		t.Errorf("missing: err = %v, want ErrGenerationNotFound", err)
	}
	if _, err := s.ToggleFavorite(context.Background(), "other", g.ID); !errors.Is(err, ErrGenerationNotFound) {
		t.Errorf("wrong user: err = %v, want ErrGenerationNotFound", err)
	}
}

func TestSearchRanksCompletedPrompts(t *testing.T) {
	db := newTestDB(t)
	s := NewLibraryService(db)
	now := time.Now().UTC()

	insertGeneration(t, db, "u1", "a red fox running through snow", domain.KindImage, domain.StatusCompleted, now, false)
	insertGeneration(t, db, "u1", "a fox sleeping in autumn leaves", domain.KindImage, domain.StatusCompleted, now.Add(time.Minute), false)
	insertGeneration(t, db, "u1", "red fox portrait", domain.KindImage, domain.StatusFailed, now.Add(2*time.Minute), false)
	insertGeneration(t, db, "u1", "city skyline at night", domain.KindImage, domain.StatusCompleted, now.Add(3*time.Minute), false)

	got, err := s.Search(context.Background(), "u1", "red fox")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2 (failed item excluded)", len(got))
	}
	if got[0].Prompt != "a red fox running through snow" {
		t.Errorf("top = %q", got[0].Prompt)
	}

	if _, err := s.Search(context.Background(), "u1", "  "); !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("blank query: err = %v, want ErrEmptyQuery", err)
	}
}

func TestVersionChangesOnUpdate(t *testing.T) {
	db := newTestDB(t)
	s := NewLibraryService(db)

	count, ts, err := s.Version(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Version: %v", err)
	}
	if count != 0 || ts != 0 {
		t.Errorf("empty library version = %d/%d", count, ts)
	}

	g := insertGeneration(t, db, "u1", "a fox", domain.KindImage, domain.StatusCompleted, time.Now().UTC(), false)
	count, ts, err = s.Version(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Version: %v", err)
	}
	if count != 1 || ts == 0 {
		t.Errorf("version after insert = %d/%d", count, ts)
	}

	time.Sleep(10 * time.Millisecond)
	if _, err := s.ToggleFavorite(context.Background(), "u1", g.ID); err != nil {
		t.Fatalf("ToggleFavorite: %v", err)
	}
	_, ts2, err := s.Version(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Version: %v", err)
	}
	if ts2 <= ts {
		t.Errorf("version timestamp did not advance: %d -> %d", ts, ts2)
	}
}
