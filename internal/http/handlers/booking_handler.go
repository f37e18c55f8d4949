// README: Booking handlers for confirm/get/cancel/list.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"slotwise/internal/http/middleware"
	"slotwise/internal/modules/booking"
	"slotwise/internal/modules/scheduling"
	"slotwise/internal/types"
)

type bookingService interface {
	Confirm(ctx context.Context, cmd booking.ConfirmCommand) (types.ID, error)
	Cancel(ctx context.Context, cmd booking.CancelCommand) error
	Get(ctx context.Context, id types.ID) (*booking.Booking, error)
	ListDay(ctx context.Context, orgID types.ID, day string) ([]booking.Booking, error)
}

type BookingHandler struct {
	bookings bookingService
}

func NewBookingHandler(svc bookingService) *BookingHandler {
	return &BookingHandler{bookings: svc}
}

type confirmReq struct {
	OrgID        string                   `json:"org_id"`
	TechnicianID string                   `json:"technician_id"`
	Target       types.Point              `json:"target"`
	Slot         scheduling.SlotCandidate `json:"slot"`
}

type cancelReq struct {
	Reason string `json:"reason"`
}

// canActFor allows dispatchers, the technician themself, and unauthenticated
// deployments.
func canActFor(c *gin.Context, technicianID string) bool {
	if !middleware.Authenticated(c) {
		return true
	}
	return middleware.CallerRole(c) == middleware.RoleDispatcher || middleware.CallerUID(c) == technicianID
}

// canActForOrg rejects callers bound to a different organization. Callers
// without an org claim are not bound.
func canActForOrg(c *gin.Context, orgID string) bool {
	if !middleware.Authenticated(c) {
		return true
	}
	org := middleware.CallerOrg(c)
	return org == "" || org == orgID
}

func (h *BookingHandler) Confirm(c *gin.Context) {
	var req confirmReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if !isValidID(req.OrgID) || !isValidID(req.TechnicianID) {
		writeError(c, http.StatusBadRequest, "missing or malformed ids")
		return
	}
	if !canActFor(c, req.TechnicianID) || !canActForOrg(c, req.OrgID) {
		writeError(c, http.StatusForbidden, "forbidden: cannot book for another technician")
		return
	}
	id, err := h.bookings.Confirm(c.Request.Context(), booking.ConfirmCommand{
		OrgID:        types.ID(req.OrgID),
		TechnicianID: types.ID(req.TechnicianID),
		Target:       req.Target,
		Slot:         req.Slot,
	})
	if err != nil {
		writeBookingError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, map[string]any{"booking_id": id, "status": booking.StatusConfirmed})
}

func (h *BookingHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid booking id")
		return
	}
	b, err := h.bookings.Get(c.Request.Context(), types.ID(id))
	if err != nil {
		writeBookingError(c, err)
		return
	}
	if !canActFor(c, string(b.TechnicianID)) || !canActForOrg(c, string(b.OrgID)) {
		writeError(c, http.StatusForbidden, "forbidden")
		return
	}
	writeJSON(c, http.StatusOK, b)
}

func (h *BookingHandler) Cancel(c *gin.Context) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid booking id")
		return
	}
	var req cancelReq
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, "invalid json")
			return
		}
	}

	ctx := c.Request.Context()
	b, err := h.bookings.Get(ctx, types.ID(id))
	if err != nil {
		writeBookingError(c, err)
		return
	}
	if !canActFor(c, string(b.TechnicianID)) || !canActForOrg(c, string(b.OrgID)) {
		writeError(c, http.StatusForbidden, "forbidden")
		return
	}

	cmd := booking.CancelCommand{BookingID: types.ID(id), ActorType: "system", Reason: req.Reason}
	if middleware.Authenticated(c) {
		uid := types.ID(middleware.CallerUID(c))
		cmd.ActorID = &uid
		cmd.ActorType = middleware.CallerRole(c)
	}
	if err := h.bookings.Cancel(ctx, cmd); err != nil {
		writeBookingError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"booking_id": id, "status": booking.StatusCancelled})
}

func (h *BookingHandler) ListByOrg(c *gin.Context) {
	if middleware.Authenticated(c) && middleware.CallerRole(c) != middleware.RoleDispatcher {
		writeError(c, http.StatusForbidden, "forbidden: dispatcher role required")
		return
	}
	orgID := c.Param("org_id")
	if !canActForOrg(c, orgID) {
		writeError(c, http.StatusForbidden, "forbidden: organization does not match authenticated user")
		return
	}
	day := c.Query("day")
	if day == "" {
		writeError(c, http.StatusBadRequest, "missing day")
		return
	}
	list, err := h.bookings.ListDay(c.Request.Context(), types.ID(orgID), day)
	if err != nil {
		writeBookingError(c, err)
		return
	}
	if list == nil {
		list = []booking.Booking{}
	}
	writeJSON(c, http.StatusOK, map[string]any{"bookings": list})
}
