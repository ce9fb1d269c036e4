// Asset library HTTP handlers.
//
// This file exposes REST endpoints for browsing the generated-asset library:
//   - GET /assets         (date-grouped browsing, weak ETag support)
//   - GET /assets/search  (free-text search over prompts)
package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mkaran/go-studio-backend/internal/domain"
	"github.com/mkaran/go-studio-backend/internal/services"
)

// ListAssetsResponse wraps the date-grouped library view.
type ListAssetsResponse struct {
	Groups []services.AssetGroup `json:"groups"`
}

// SearchAssetsResponse wraps ranked search results.
type SearchAssetsResponse struct {
	Query   string              `json:"query"`
	Results []domain.Generation `json:"results"`
}

// ListAssets godoc
// @ID          listAssets
// @Summary     Browse the asset library
// @Description Returns the user's generations partitioned into date groups, newest first. Supports kind and favorites filters and weak ETag via If-None-Match (may return 304).
// @Tags        Assets
// @Produce     json
//
// @Param       X-User-ID      header  string  false "User ID (demo header)"       example(user123)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       kind           query   string  false "Filter by media kind"        Enums(image, video)
// @Param       favorites      query   bool    false "Return only favorites"
//
// @Success     200  {object} handlers.ListAssetsResponse
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /assets [get]
func (h *Handlers) ListAssets(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)

	f, okFilter := filterFromQuery(c)
	if !okFilter {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "kind must be image or video")
		return
	}

	// ETag pre-check (best effort). The fingerprint covers every mutation
	// that changes the library view: inserts, transitions, favorite flips.
	// The filter is part of the tag so filtered views validate independently.
	if count, ts, err := h.libSvc.Version(ctx, uid); err == nil {
		etag := fmt.Sprintf(`W/"assets:%s:%s:%t:%d:%d"`, uid, f.Kind, f.FavoritesOnly, count, ts)
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	groups, err := h.libSvc.Grouped(ctx, uid, f)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListAssetsResponse{Groups: groups})
}

// SearchAssets godoc
// @ID          searchAssets
// @Summary     Search the asset library
// @Description Ranks the user's completed generations against a free-text query, best match first.
// @Tags        Assets
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       q          query   string  true  "Search query"           example(red fox)
//
// @Success     200  {object} handlers.SearchAssetsResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /assets/search [get]
func (h *Handlers) SearchAssets(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))

	results, err := h.libSvc.Search(c.Request.Context(), userID(c), query)
	if err != nil {
		if err == services.ErrEmptyQuery {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "query required")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeSearchFailed, err.Error())
		return
	}
	if results == nil {
		results = []domain.Generation{}
	}
	ok(c, http.StatusOK, SearchAssetsResponse{Query: query, Results: results})
}
