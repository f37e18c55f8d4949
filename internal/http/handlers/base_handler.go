// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"slotwise/internal/maps"
	"slotwise/internal/modules/booking"
	"slotwise/internal/modules/location"
	"slotwise/internal/modules/scheduling"
	"slotwise/internal/types"
)

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// isValidID accepts the same character set as organization ids.
func isValidID(v string) bool {
	return scheduling.IsValidOrgID(types.ID(v))
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

func writeValidationError(c *gin.Context, err error) bool {
	var verr *scheduling.ValidationError
	if !errors.As(err, &verr) {
		return false
	}
	writeJSON(c, http.StatusBadRequest, errorResponse{Error: verr.Error(), Field: verr.Field})
	return true
}

func writeBookingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, booking.ErrBadRequest):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, booking.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, booking.ErrInvalidState), errors.Is(err, booking.ErrConflict), errors.Is(err, booking.ErrOverlap):
		writeError(c, http.StatusConflict, err.Error())
	default:
		_ = c.Error(err)
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func writeGeocodeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, maps.ErrNoResult):
		writeJSON(c, http.StatusBadRequest, errorResponse{Error: err.Error(), Field: "target_address"})
	case errors.Is(err, maps.ErrDisabled):
		writeJSON(c, http.StatusBadRequest, errorResponse{Error: "target_address is not supported: geocoding disabled", Field: "target_address"})
	default:
		_ = c.Error(err)
		writeError(c, http.StatusBadGateway, "geocoding failed")
	}
}

func writeLocationError(c *gin.Context, err error) {
	if errors.Is(err, location.ErrBadRequest) {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	_ = c.Error(err)
	writeError(c, http.StatusInternalServerError, "internal error")
}
