// Profile and status HTTP handlers.
//
// This file exposes:
//   - GET /profile  (display name and point balance)
//   - GET /status   (whether a generation is currently resolving)
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mkaran/go-studio-backend/internal/services"
)

// StatusResponse reports the processing gate state. Clients use it to disable
// submission controls while a generation is in flight.
type StatusResponse struct {
	Busy bool `json:"busy"`
}

// GetProfile godoc
// @ID          getProfile
// @Summary     Fetch the session profile
// @Description Returns the display name and remaining point balance.
// @Tags        Profile
// @Produce     json
//
// @Success     200  {object} domain.Profile
// @Failure     404  {object} handlers.ErrorResponse "Profile not seeded"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /profile [get]
func (h *Handlers) GetProfile(c *gin.Context) {
	p, err := h.profSvc.Get(c.Request.Context())
	if err != nil {
		if errors.Is(err, services.ErrProfileNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "profile not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, p)
}

// GetStatus godoc
// @ID          getStatus
// @Summary     Report processing status
// @Description Returns whether a generation is currently in flight.
// @Tags        Profile
// @Produce     json
//
// @Success     200  {object} handlers.StatusResponse
// @Router      /status [get]
func (h *Handlers) GetStatus(c *gin.Context) {
	ok(c, http.StatusOK, StatusResponse{Busy: h.genSvc.InFlight()})
}
