// README: Technician location handler; records where the last job finished.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"slotwise/internal/modules/location"
	"slotwise/internal/types"
)

type lastJobRecorder interface {
	RecordLastJob(ctx context.Context, u location.Update) error
}

type LocationHandler struct {
	location lastJobRecorder
}

func NewLocationHandler(svc lastJobRecorder) *LocationHandler {
	return &LocationHandler{location: svc}
}

type locationReq struct {
	Lat        *float64   `json:"lat"`
	Lng        *float64   `json:"lng"`
	RecordedAt *time.Time `json:"recorded_at"`
}

func (h *LocationHandler) Update(c *gin.Context) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "missing id")
		return
	}
	// Only the technician themself or a dispatcher may move a technician.
	if !canActFor(c, id) {
		writeError(c, http.StatusForbidden, "forbidden: id does not match authenticated user")
		return
	}
	var req locationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Lat == nil || req.Lng == nil {
		writeError(c, http.StatusBadRequest, "missing lat/lng")
		return
	}
	u := location.Update{TechnicianID: types.ID(id), Position: types.Point{Lat: *req.Lat, Lng: *req.Lng}}
	if req.RecordedAt != nil {
		u.RecordedAt = *req.RecordedAt
	}
	if err := h.location.RecordLastJob(c.Request.Context(), u); err != nil {
		writeLocationError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"status": "ok"})
}
