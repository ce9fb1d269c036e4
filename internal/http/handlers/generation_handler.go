// Generation HTTP handlers.
//
// This file exposes REST endpoints for generation resources:
//   - POST   /generations                 (submit, 202 with processing placeholder)
//   - GET    /generations                 (list, paginated, filterable)
//   - GET    /generations/{id}            (fetch one; poll until terminal)
//   - POST   /generations/{id}/favorite   (toggle favorite flag)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses. Submission honors the
// Idempotency-Key header: replays return the originally created item instead
// of starting a new generation.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mkaran/go-studio-backend/internal/domain"
	"github.com/mkaran/go-studio-backend/internal/http/middleware"
	"github.com/mkaran/go-studio-backend/internal/repo"
	"github.com/mkaran/go-studio-backend/internal/services"
	"github.com/mkaran/go-studio-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// GenerationService defines the generation lifecycle operations consumed by
// HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type GenerationService interface {
	// Submit admits a new generation and returns its processing placeholder.
	Submit(ctx context.Context, userID string, tool domain.Tool, prompt string) (*domain.Generation, error)
	// Get fetches a generation owned by userID.
	Get(ctx context.Context, userID, id string) (*domain.Generation, error)
	// InFlight reports whether a generation is currently resolving.
	InFlight() bool
}

// LibraryService defines asset library operations consumed by HTTP handlers.
type LibraryService interface {
	// ListPage returns a page of generations and the total matching count.
	ListPage(ctx context.Context, userID string, f repo.GenerationFilter, page, pageSize int) ([]domain.Generation, int64, error)
	// Grouped returns all matching generations partitioned into date groups.
	Grouped(ctx context.Context, userID string, f repo.GenerationFilter) ([]services.AssetGroup, error)
	// ToggleFavorite flips the favorite flag and returns the updated item.
	ToggleFavorite(ctx context.Context, userID, id string) (*domain.Generation, error)
	// Search ranks generations against a free-text query.
	Search(ctx context.Context, userID, query string) ([]domain.Generation, error)
	// Version fingerprints the library for conditional responses.
	Version(ctx context.Context, userID string) (int64, int64, error)
}

// ProfileService defines profile read operations consumed by HTTP handlers.
type ProfileService interface {
	// Get returns the session profile.
	Get(ctx context.Context) (*domain.Profile, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for generations, the asset library, and the
// profile. It depends on abstract service interfaces to keep transport
// concerns separate from business logic.
type Handlers struct {
	genSvc  GenerationService
	libSvc  LibraryService
	profSvc ProfileService

	// IdemTTL bounds how long a submission replay window stays open.
	IdemTTL time.Duration
}

// New constructs and returns a Handlers instance bound to the given services.
func New(genSvc GenerationService, libSvc LibraryService, profSvc ProfileService) *Handlers {
	return &Handlers{
		genSvc:  genSvc,
		libSvc:  libSvc,
		profSvc: profSvc,
		IdemTTL: 24 * time.Hour,
	}
}

// userID extracts the authenticated user id from Gin context (set by upstream
// middleware). If absent, it falls back to "X-User-ID" header (tests use it),
// and finally to "demo-user". It never touches c.Request if it's nil.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return "demo-user"
}

// db returns the underlying GORM handle when the generation service is the
// concrete implementation. Used for idempotency record access (best effort).
func (h *Handlers) db() *gorm.DB {
	if svc, ok := h.genSvc.(*services.GenerationService); ok {
		return svc.DB
	}
	return nil
}

//
// DTOs
//

// SubmitGenerationRequest is the JSON payload for submitting a generation.
type SubmitGenerationRequest struct {
	// Tool selects the operation variant (text_to_image, image_editing,
	// face_swap, text_to_video).
	Tool string `json:"tool" binding:"required" example:"text_to_image"`
	// Prompt is the text describing the desired asset.
	Prompt string `json:"prompt" binding:"required" example:"a red fox running through snow"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListGenerationsResponse wraps a page of generations and pagination info.
type ListGenerationsResponse struct {
	Generations []domain.Generation `json:"generations"`
	Pagination  Pagination          `json:"pagination"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// filterFromQuery builds the listing filter from query parameters:
// kind=image|video restricts by media kind, favorites=true keeps only
// favorited items. Unknown kind values are rejected by the caller.
func filterFromQuery(c *gin.Context) (repo.GenerationFilter, bool) {
	f := repo.GenerationFilter{}
	if k := strings.TrimSpace(c.Query("kind")); k != "" {
		kind := domain.MediaKind(k)
		if !kind.Valid() {
			return f, false
		}
		f.Kind = kind
	}
	if strings.EqualFold(c.Query("favorites"), "true") {
		f.FavoritesOnly = true
	}
	return f, true
}

//
// Handlers
//

// SubmitGeneration godoc
// @ID          submitGeneration
// @Summary     Submit a generation
// @Description Admits a prompt for asynchronous generation and returns the processing placeholder. Poll GET /generations/{id} until its status is terminal. Honors Idempotency-Key for safe retries.
// @Tags        Generations
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  string  false "User ID (demo header)"  example(user123)
// @Param       Idempotency-Key  header  string  false "Safe-retry key"
// @Param       body             body    handlers.SubmitGenerationRequest  true  "Submission payload"
//
// @Success     202  {object}  domain.Generation
// @Success     200  {object}  domain.Generation "Idempotent replay"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     409  {object}  handlers.ErrorResponse  "Generation in flight"
// @Failure     410  {object}  handlers.ErrorResponse  "Replayed generation no longer exists"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /generations [post]
func (h *Handlers) SubmitGeneration(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)

	// Idempotent replay: return the originally created item. Once a key is
	// bound to a generation the request never re-submits; charging again for
	// what the client regards as the same request is worse than an error.
	if middleware.IsReplay(c) {
		if key, okKey := middleware.GetIdempotencyKey(c); okKey {
			if db := h.db(); db != nil {
				rec, err := repo.GetIdempotency(ctx, db, uid, key, time.Now().UTC())
				switch {
				case err == nil:
					g, err := h.genSvc.Get(ctx, uid, rec.GenerationID)
					if err != nil {
						if errors.Is(err, services.ErrGenerationNotFound) {
							fail(c, http.StatusGone, ErrCodeReplayGone, "generation for this idempotency key no longer exists")
							return
						}
						fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
						return
					}
					ok(c, http.StatusOK, g)
					return
				case errors.Is(err, repo.ErrNotFound):
					// The record expired between validation and now; fall
					// through and treat the submission as new.
				default:
					fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
					return
				}
			}
		}
	}

	var req SubmitGenerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	g, err := h.genSvc.Submit(ctx, uid, domain.Tool(req.Tool), req.Prompt)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyPrompt):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "prompt required")
		case errors.Is(err, services.ErrPromptTooLong):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "prompt too long")
		case errors.Is(err, services.ErrInvalidTool):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unknown tool")
		case errors.Is(err, services.ErrGenerationInFlight):
			fail(c, http.StatusConflict, ErrCodeGenerationInFlight, "a generation is already in progress")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeSubmitFailed, err.Error())
		}
		return
	}

	// Bind the idempotency key to the created item (best effort).
	if key, okKey := middleware.GetIdempotencyKey(c); okKey {
		if db := h.db(); db != nil {
			_, _ = repo.CreateIdempotency(ctx, db, uid, key, g.ID, h.IdemTTL)
		}
	}

	accepted(c, g)
}

// ListGenerations godoc
// @ID          listGenerations
// @Summary     List generations (paginated)
// @Description Returns a page of the user's generations, newest first. Supports kind and favorites filters.
// @Tags        Generations
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       kind       query   string  false "Filter by media kind"   Enums(image, video)
// @Param       favorites  query   bool    false "Return only favorites"
// @Param       page       query   int     false "Page number"            minimum(1) default(1)
// @Param       page_size  query   int     false "Items per page"         minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListGenerationsResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /generations [get]
func (h *Handlers) ListGenerations(c *gin.Context) {
	uid := userID(c)
	page, pageSize := clampPagination(c)

	f, okFilter := filterFromQuery(c)
	if !okFilter {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "kind must be image or video")
		return
	}

	items, total, err := h.libSvc.ListPage(c.Request.Context(), uid, f, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListGenerationsResponse{
		Generations: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// GetGeneration godoc
// @ID          getGeneration
// @Summary     Fetch a generation
// @Description Returns a single generation by ID. Clients poll this endpoint until the status is completed or failed.
// @Tags        Generations
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Generation ID (UUID)"   format(uuid)
//
// @Success     200  {object} domain.Generation
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Generation not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /generations/{id} [get]
func (h *Handlers) GetGeneration(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "generation id must be a UUID")
		return
	}

	g, err := h.genSvc.Get(c.Request.Context(), userID(c), id)
	if err != nil {
		if errors.Is(err, services.ErrGenerationNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "generation not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, g)
}

// ToggleFavorite godoc
// @ID          toggleFavorite
// @Summary     Toggle the favorite flag
// @Description Flips the favorite flag of a generation owned by the current user and returns the updated item.
// @Tags        Generations
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Generation ID (UUID)"   format(uuid)
//
// @Success     200  {object} domain.Generation
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Generation not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /generations/{id}/favorite [post]
func (h *Handlers) ToggleFavorite(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "generation id must be a UUID")
		return
	}

	g, err := h.libSvc.ToggleFavorite(c.Request.Context(), userID(c), id)
	if err != nil {
		if errors.Is(err, services.ErrGenerationNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "generation not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, g)
}
