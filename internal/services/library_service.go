// Package services contains the application business logic.
//
// This file implements LibraryService, which serves the asset library:
// filtered listings, date-grouped browsing, favorite toggling, and free-text
// search over prompts.
package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/mkaran/go-studio-backend/internal/domain"
	"github.com/mkaran/go-studio-backend/internal/repo"
	"github.com/mkaran/go-studio-backend/internal/search"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// AssetGroup is a contiguous run of generations sharing a creation date,
// labeled for display ("January 2"). Groups appear newest first, matching the
// listing order.
type AssetGroup struct {
	Label string              `json:"label"`
	Items []domain.Generation `json:"items"`
}

// LibraryService provides read and curation operations over the generation
// library.
type LibraryService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Ranker scores prompts for Search.
	Ranker *search.Ranker

	// SearchLimit caps the number of search results.
	SearchLimit int
}

// NewLibraryService constructs a LibraryService with sane defaults.
func NewLibraryService(db *gorm.DB) *LibraryService {
	return &LibraryService{
		DB:          db,
		Ranker:      search.NewRanker(),
		SearchLimit: 20,
	}
}

// ListPage returns a page of generations for a user, newest first, with the
// total matching count. Defaults are applied for invalid page/pageSize.
func (s *LibraryService) ListPage(ctx context.Context, userID string, f repo.GenerationFilter, page, pageSize int) ([]domain.Generation, int64, error) {
	tr := otel.Tracer("services/LibraryService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := repo.CountGenerations(ctx, s.DB, userID, f)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Generation{}, 0, nil
	}

	items, err := repo.ListGenerationsPage(ctx, s.DB, userID, f, offset, pageSize)
	return items, total, err
}

// Grouped returns all matching generations partitioned into date groups,
// newest group first. Items within a group keep the newest-first order.
func (s *LibraryService) Grouped(ctx context.Context, userID string, f repo.GenerationFilter) ([]AssetGroup, error) {
	tr := otel.Tracer("services/LibraryService")
	ctx, span := tr.Start(ctx, "Grouped",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	items, err := repo.ListGenerations(ctx, s.DB, userID, f)
	if err != nil {
		return nil, err
	}

	groups := make([]AssetGroup, 0, 8)
	for _, g := range items {
		label := g.CreatedAt.Format("January 2")
		if n := len(groups); n > 0 && groups[n-1].Label == label {
			groups[n-1].Items = append(groups[n-1].Items, g)
			continue
		}
		groups = append(groups, AssetGroup{Label: label, Items: []domain.Generation{g}})
	}
	return groups, nil
}

// ToggleFavorite flips the favorite flag of a generation owned by userID and
// returns the updated item. The flag is independent of lifecycle status.
func (s *LibraryService) ToggleFavorite(ctx context.Context, userID, id string) (*domain.Generation, error) {
	tr := otel.Tracer("services/LibraryService")
	ctx, span := tr.Start(ctx, "ToggleFavorite",
		trace.WithAttributes(
			attribute.String("generation.id", id),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	if err := repo.ToggleFavorite(ctx, s.DB, id, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrGenerationNotFound
		}
		return nil, err
	}
	return repo.GetGeneration(ctx, s.DB, id, userID)
}

// Search ranks the user's completed generations against a free-text query,
// best match first. Items whose prompt shares no token with the query are
// omitted.
func (s *LibraryService) Search(ctx context.Context, userID, query string) ([]domain.Generation, error) {
	tr := otel.Tracer("services/LibraryService")
	ctx, span := tr.Start(ctx, "Search",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	all, err := repo.ListGenerations(ctx, s.DB, userID, repo.GenerationFilter{})
	if err != nil {
		return nil, err
	}

	byID := make(map[string]domain.Generation, len(all))
	candidates := make([]search.Item, 0, len(all))
	for _, g := range all {
		if g.Status != domain.StatusCompleted {
			continue
		}
		byID[g.ID] = g
		candidates = append(candidates, search.Item{ID: g.ID, Prompt: g.Prompt})
	}

	limit := s.SearchLimit
	if limit <= 0 {
		limit = 20
	}
	matches := s.Ranker.Rank(query, candidates, limit)

	out := make([]domain.Generation, 0, len(matches))
	for _, m := range matches {
		out = append(out, byID[m.ID])
	}
	return out, nil
}

// Version returns a cheap fingerprint of the user's library: the item count
// and the latest update time. Handlers derive ETags from it.
func (s *LibraryService) Version(ctx context.Context, userID string) (int64, int64, error) {
	count, maxUpdated, err := repo.GenerationsStats(ctx, s.DB, userID)
	if err != nil {
		return 0, 0, err
	}
	var ts int64
	if maxUpdated != nil {
		ts = maxUpdated.UnixNano()
	}
	return count, ts, nil
}
