// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"slotwise/internal/http/handlers"
	"slotwise/internal/http/middleware"
	"slotwise/internal/infra"
	"slotwise/internal/maps"
	"slotwise/internal/modules/booking"
	"slotwise/internal/modules/location"
	"slotwise/internal/modules/scheduling"
)

// RouterDeps lists the services exposed over HTTP. Only Slots is required;
// routes for nil services are not registered.
type RouterDeps struct {
	Slots     *scheduling.Service
	Bookings  *booking.Service
	Locations *location.Service
	Geocoder  *maps.Geocoder
	// Verifier enables Firebase auth on /api routes when set.
	Verifier    infra.TokenVerifier
	Metrics     http.Handler
	MetricsPath string
	Logger      zerolog.Logger
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(deps.Logger), middleware.Logging(deps.Logger))

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	if deps.Metrics != nil {
		path := deps.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(deps.Metrics))
	}

	api := r.Group("/api/v1")
	if deps.Verifier != nil {
		api.Use(middleware.Auth(deps.Verifier))
	}

	var locations handlers.LastJobLookup
	if deps.Locations != nil {
		locations = deps.Locations
	}
	var geocoder handlers.AddressGeocoder
	if deps.Geocoder != nil && deps.Geocoder.Enabled() {
		geocoder = deps.Geocoder
	}
	slotHandler := handlers.NewSlotHandler(deps.Slots, locations, geocoder)
	api.POST("/slots/suggest", slotHandler.Suggest)

	if deps.Bookings != nil {
		bookingHandler := handlers.NewBookingHandler(deps.Bookings)
		api.POST("/bookings", bookingHandler.Confirm)
		api.GET("/bookings/:id", bookingHandler.Get)
		api.POST("/bookings/:id/cancel", bookingHandler.Cancel)
		api.GET("/orgs/:org_id/bookings", bookingHandler.ListByOrg)
	}

	if deps.Locations != nil {
		locationHandler := handlers.NewLocationHandler(deps.Locations)
		api.PUT("/technicians/:id/location", locationHandler.Update)
	}

	return r
}
