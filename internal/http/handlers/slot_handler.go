// README: Slot suggestion handler; fills origin/target from location store and geocoder before calling the scheduler.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"slotwise/internal/modules/scheduling"
	"slotwise/internal/types"
)

type slotSuggester interface {
	SuggestSlots(req scheduling.Request) ([]scheduling.SlotCandidate, error)
}

// LastJobLookup resolves a technician to the position of their last job.
type LastJobLookup interface {
	LastJob(ctx context.Context, technicianID types.ID) (*types.Point, bool, error)
}

type AddressGeocoder interface {
	Geocode(ctx context.Context, address string) (types.Point, error)
}

type SlotHandler struct {
	slots     slotSuggester
	locations LastJobLookup
	geocoder  AddressGeocoder
}

// NewSlotHandler wires the handler; locations and geocoder may be nil.
func NewSlotHandler(slots slotSuggester, locations LastJobLookup, geocoder AddressGeocoder) *SlotHandler {
	return &SlotHandler{slots: slots, locations: locations, geocoder: geocoder}
}

type suggestReq struct {
	OrgID           string       `json:"org_id"`
	Day             string       `json:"day"`
	DurationMinutes int          `json:"duration_minutes"`
	Risk            string       `json:"risk"`
	Base            *types.Point `json:"base"`
	LastJob         *types.Point `json:"last_job"`
	Target          *types.Point `json:"target"`
	TargetAddress   string       `json:"target_address"`
	TechnicianID    string       `json:"technician_id"`
}

type suggestResp struct {
	Candidates []scheduling.SlotCandidate `json:"candidates"`
	Feasible   bool                       `json:"feasible"`
	Target     types.Point                `json:"target"`
}

func (h *SlotHandler) Suggest(c *gin.Context) {
	var req suggestReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if !canActForOrg(c, req.OrgID) {
		writeError(c, http.StatusForbidden, "forbidden: organization does not match authenticated user")
		return
	}
	if req.TechnicianID != "" {
		if !isValidID(req.TechnicianID) {
			writeJSON(c, http.StatusBadRequest, errorResponse{Error: "technician_id: malformed", Field: "technician_id"})
			return
		}
		// The stored last-job position belongs to the technician.
		if !canActFor(c, req.TechnicianID) {
			writeError(c, http.StatusForbidden, "forbidden: cannot suggest for another technician")
			return
		}
	}
	ctx := c.Request.Context()

	var target types.Point
	switch {
	case req.Target != nil:
		target = *req.Target
	case req.TargetAddress != "":
		if h.geocoder == nil {
			writeJSON(c, http.StatusBadRequest, errorResponse{Error: "target_address is not supported: geocoding disabled", Field: "target_address"})
			return
		}
		p, err := h.geocoder.Geocode(ctx, req.TargetAddress)
		if err != nil {
			writeGeocodeError(c, err)
			return
		}
		target = p
	default:
		writeJSON(c, http.StatusBadRequest, errorResponse{Error: "target: required", Field: "target"})
		return
	}

	lastJob := req.LastJob
	if lastJob == nil && req.TechnicianID != "" && h.locations != nil {
		p, ok, err := h.locations.LastJob(ctx, types.ID(req.TechnicianID))
		if err != nil {
			// Fall back to the base or unknown origin rather than failing the request.
			_ = c.Error(err)
		} else if ok {
			lastJob = p
		}
	}

	candidates, err := h.slots.SuggestSlots(scheduling.Request{
		OrgID:           types.ID(req.OrgID),
		Day:             req.Day,
		DurationMinutes: req.DurationMinutes,
		Risk:            scheduling.RiskTier(req.Risk),
		Base:            req.Base,
		LastJob:         lastJob,
		Target:          target,
	})
	if err != nil {
		if !writeValidationError(c, err) {
			_ = c.Error(err)
			writeError(c, http.StatusInternalServerError, "internal error")
		}
		return
	}
	writeJSON(c, http.StatusOK, suggestResp{Candidates: candidates, Feasible: len(candidates) > 0, Target: target})
}
