// README: Handler tests for slot suggestion, bookings and technician location.
package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slotwise/internal/http/handlers"
	httpmiddleware "slotwise/internal/http/middleware"
	"slotwise/internal/infra"
	"slotwise/internal/maps"
	"slotwise/internal/modules/booking"
	"slotwise/internal/modules/location"
	"slotwise/internal/modules/scheduling"
	"slotwise/internal/types"
)

var (
	base    = types.Point{Lat: 52.3702, Lng: 4.8952}
	near    = types.Point{Lat: 52.3720, Lng: 4.9000}
	paris   = types.Point{Lat: 48.8566, Lng: 2.3522}
	errBoom = errors.New("boom")
)

type stubTokenVerifier struct {
	token *infra.FirebaseToken
}

func (s *stubTokenVerifier) VerifyIDToken(_ context.Context, _ string) (*infra.FirebaseToken, error) {
	return s.token, nil
}

func makeVerifier(uid, role string) *stubTokenVerifier {
	return makeOrgVerifier(uid, role, "")
}

func makeOrgVerifier(uid, role, org string) *stubTokenVerifier {
	claims := map[string]interface{}{}
	if role != "" {
		claims["role"] = role
	}
	if org != "" {
		claims["org_id"] = org
	}
	return &stubTokenVerifier{token: infra.NewFirebaseToken(uid, claims)}
}

type fakeLocations struct {
	points   map[types.ID]types.Point
	err      error
	recorded []location.Update
}

func (f *fakeLocations) LastJob(_ context.Context, id types.ID) (*types.Point, bool, error) {
	if f.err != nil {
		return nil, false, f.err
	}
	p, ok := f.points[id]
	if !ok {
		return nil, false, nil
	}
	return &p, true, nil
}

func (f *fakeLocations) RecordLastJob(_ context.Context, u location.Update) error {
	if u.Position.Validate() != nil {
		return location.ErrBadRequest
	}
	if f.err != nil {
		return f.err
	}
	f.recorded = append(f.recorded, u)
	return nil
}

type fakeGeocoder struct {
	points map[string]types.Point
	err    error
}

func (f *fakeGeocoder) Geocode(_ context.Context, address string) (types.Point, error) {
	if f.err != nil {
		return types.Point{}, f.err
	}
	p, ok := f.points[address]
	if !ok {
		return types.Point{}, maps.ErrNoResult
	}
	return p, nil
}

type fakeBookings struct {
	items     map[types.ID]*booking.Booking
	confirmed []booking.ConfirmCommand
	cancelled []booking.CancelCommand
	err       error
}

func (f *fakeBookings) Confirm(_ context.Context, cmd booking.ConfirmCommand) (types.ID, error) {
	if f.err != nil {
		return "", f.err
	}
	f.confirmed = append(f.confirmed, cmd)
	return "b1", nil
}

func (f *fakeBookings) Cancel(_ context.Context, cmd booking.CancelCommand) error {
	if f.err != nil {
		return f.err
	}
	f.cancelled = append(f.cancelled, cmd)
	return nil
}

func (f *fakeBookings) Get(_ context.Context, id types.ID) (*booking.Booking, error) {
	b, ok := f.items[id]
	if !ok {
		return nil, booking.ErrNotFound
	}
	return b, nil
}

func (f *fakeBookings) ListDay(_ context.Context, orgID types.ID, day string) ([]booking.Booking, error) {
	if day == "bad" {
		return nil, booking.ErrBadRequest
	}
	var out []booking.Booking
	for _, b := range f.items {
		if b.OrgID == orgID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func newSlotRouter(t *testing.T, locations handlers.LastJobLookup, geocoder handlers.AddressGeocoder) *gin.Engine {
	t.Helper()
	return newAuthedSlotRouter(t, locations, geocoder, nil)
}

func newAuthedSlotRouter(t *testing.T, locations handlers.LastJobLookup, geocoder handlers.AddressGeocoder, verifier infra.TokenVerifier) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc, err := scheduling.NewService(scheduling.DefaultPolicy())
	require.NoError(t, err)
	r := gin.New()
	if verifier != nil {
		r.Use(httpmiddleware.Auth(verifier))
	}
	r.POST("/slots/suggest", handlers.NewSlotHandler(svc, locations, geocoder).Suggest)
	return r
}

func newBookingRouter(svc *fakeBookings, loc *fakeLocations, verifier infra.TokenVerifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if verifier != nil {
		r.Use(httpmiddleware.Auth(verifier))
	}
	h := handlers.NewBookingHandler(svc)
	r.POST("/bookings", h.Confirm)
	r.GET("/bookings/:id", h.Get)
	r.POST("/bookings/:id/cancel", h.Cancel)
	r.GET("/orgs/:org_id/bookings", h.ListByOrg)
	r.PUT("/technicians/:id/location", handlers.NewLocationHandler(loc).Update)
	return r
}

func doRequest(r *gin.Engine, method, path string, body interface{}, authHeader string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type suggestResp struct {
	Candidates []scheduling.SlotCandidate `json:"candidates"`
	Feasible   bool                       `json:"feasible"`
	Target     types.Point                `json:"target"`
	Error      string                     `json:"error"`
	Field      string                     `json:"field"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) suggestResp {
	t.Helper()
	var resp suggestResp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func suggestReq(overrides map[string]any) map[string]any {
	req := map[string]any{
		"org_id":           "acme",
		"day":              "2025-09-15",
		"duration_minutes": 60,
		"risk":             "low",
		"base":             base,
		"target":           near,
	}
	for k, v := range overrides {
		if v == nil {
			delete(req, k)
			continue
		}
		req[k] = v
	}
	return req
}

func TestSuggest_ReturnsCandidates(t *testing.T) {
	r := newSlotRouter(t, nil, nil)
	w := doRequest(r, http.MethodPost, "/slots/suggest", suggestReq(nil), "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode(t, w)
	assert.True(t, resp.Feasible)
	require.Len(t, resp.Candidates, 4)
	assert.Equal(t, 3, resp.Candidates[0].BufferMinutes)
	assert.Contains(t, resp.Candidates[0].Rationale, "origin=base")
	assert.Contains(t, w.Body.String(), `"bufferMinutes":3`)
}

func TestSuggest_EmptyIsFeasibleFalse(t *testing.T) {
	r := newSlotRouter(t, nil, nil)
	w := doRequest(r, http.MethodPost, "/slots/suggest", suggestReq(map[string]any{"duration_minutes": 600}), "")
	require.Equal(t, http.StatusOK, w.Code)

	assert.False(t, decode(t, w).Feasible)
	assert.Contains(t, w.Body.String(), `"candidates":[]`)
}

func TestSuggest_ValidationErrorsNameTheField(t *testing.T) {
	r := newSlotRouter(t, nil, nil)
	tests := []struct {
		name      string
		overrides map[string]any
		field     string
	}{
		{"bad risk", map[string]any{"risk": "extreme"}, "risk"},
		{"bad day", map[string]any{"day": "2025-13-01"}, "day"},
		{"zero duration", map[string]any{"duration_minutes": 0}, "duration_minutes"},
		{"bad org", map[string]any{"org_id": "acme corp"}, "org_id"},
		{"bad target", map[string]any{"target": types.Point{Lat: 100}}, "target"},
		{"missing target", map[string]any{"target": nil}, "target"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(r, http.MethodPost, "/slots/suggest", suggestReq(tc.overrides), "")
			require.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tc.field, decode(t, w).Field)
		})
	}
}

func TestSuggest_InvalidJSON(t *testing.T) {
	r := newSlotRouter(t, nil, nil)
	w := doRequest(r, http.MethodPost, "/slots/suggest", "not an object", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSuggest_LooksUpTechnicianLastJob(t *testing.T) {
	locs := &fakeLocations{points: map[types.ID]types.Point{"tech1": near}}
	r := newSlotRouter(t, locs, nil)

	w := doRequest(r, http.MethodPost, "/slots/suggest", suggestReq(map[string]any{"base": paris, "technician_id": "tech1"}), "")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	require.NotEmpty(t, resp.Candidates)
	assert.Contains(t, resp.Candidates[0].Rationale, "origin=last_job")
	assert.Contains(t, resp.Candidates[0].Rationale, "distance=0.00km")
}

func TestSuggest_LocationLookupFailureFallsBackToBase(t *testing.T) {
	r := newSlotRouter(t, &fakeLocations{err: errBoom}, nil)

	w := doRequest(r, http.MethodPost, "/slots/suggest", suggestReq(map[string]any{"technician_id": "tech1"}), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decode(t, w).Candidates[0].Rationale, "origin=base")
}

func TestSuggest_GeocodesTargetAddress(t *testing.T) {
	geo := &fakeGeocoder{points: map[string]types.Point{"Dam 1, Amsterdam": near}}
	r := newSlotRouter(t, nil, geo)

	w := doRequest(r, http.MethodPost, "/slots/suggest", suggestReq(map[string]any{"target": nil, "target_address": "Dam 1, Amsterdam"}), "")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, near, resp.Target)
	assert.Len(t, resp.Candidates, 4)

	w = doRequest(r, http.MethodPost, "/slots/suggest", suggestReq(map[string]any{"target": nil, "target_address": "Atlantis"}), "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "target_address", decode(t, w).Field)
}

func TestSuggest_GeocoderFailures(t *testing.T) {
	body := suggestReq(map[string]any{"target": nil, "target_address": "Dam 1"})

	w := doRequest(newSlotRouter(t, nil, nil), http.MethodPost, "/slots/suggest", body, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(newSlotRouter(t, nil, &fakeGeocoder{err: errBoom}), http.MethodPost, "/slots/suggest", body, "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func confirmBody(techID string) map[string]any {
	start := time.Date(2025, 9, 15, 8, 0, 0, 0, time.UTC)
	return map[string]any{
		"org_id":        "acme",
		"technician_id": techID,
		"target":        near,
		"slot": scheduling.SlotCandidate{
			Start: start, End: start.Add(63 * time.Minute), BufferMinutes: 3, Confidence: 0.98, Rationale: "r",
		},
	}
}

func TestConfirm_CreatesBooking(t *testing.T) {
	svc := &fakeBookings{}
	r := newBookingRouter(svc, nil, nil)

	w := doRequest(r, http.MethodPost, "/bookings", confirmBody("tech1"), "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Len(t, svc.confirmed, 1)
	assert.Equal(t, types.ID("tech1"), svc.confirmed[0].TechnicianID)
	assert.Equal(t, 3, svc.confirmed[0].Slot.BufferMinutes)
	assert.Contains(t, w.Body.String(), `"status":"confirmed"`)
}

func TestConfirm_ErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{booking.ErrOverlap, http.StatusConflict},
		{booking.ErrBadRequest, http.StatusBadRequest},
		{errBoom, http.StatusInternalServerError},
	}
	for _, tc := range tests {
		r := newBookingRouter(&fakeBookings{err: tc.err}, nil, nil)
		w := doRequest(r, http.MethodPost, "/bookings", confirmBody("tech1"), "")
		assert.Equal(t, tc.want, w.Code, tc.err.Error())
	}

	r := newBookingRouter(&fakeBookings{}, nil, nil)
	w := doRequest(r, http.MethodPost, "/bookings", confirmBody(""), "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConfirm_TechnicianCannotBookForOthers(t *testing.T) {
	svc := &fakeBookings{}
	r := newBookingRouter(svc, nil, makeVerifier("tech2", httpmiddleware.RoleTechnician))
	w := doRequest(r, http.MethodPost, "/bookings", confirmBody("tech1"), "Bearer x")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, svc.confirmed)

	r = newBookingRouter(svc, nil, makeVerifier("disp1", httpmiddleware.RoleDispatcher))
	w = doRequest(r, http.MethodPost, "/bookings", confirmBody("tech1"), "Bearer x")
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestGetAndCancel(t *testing.T) {
	svc := &fakeBookings{items: map[types.ID]*booking.Booking{
		"b1": {ID: "b1", OrgID: "acme", TechnicianID: "tech1", Status: booking.StatusConfirmed},
	}}
	r := newBookingRouter(svc, nil, makeVerifier("tech1", httpmiddleware.RoleTechnician))

	w := doRequest(r, http.MethodGet, "/bookings/b1", nil, "Bearer x")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"technician_id":"tech1"`)

	w = doRequest(r, http.MethodGet, "/bookings/missing", nil, "Bearer x")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(r, http.MethodPost, "/bookings/b1/cancel", map[string]any{"reason": "customer"}, "Bearer x")
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, svc.cancelled, 1)
	assert.Equal(t, "customer", svc.cancelled[0].Reason)
	assert.Equal(t, httpmiddleware.RoleTechnician, svc.cancelled[0].ActorType)
	require.NotNil(t, svc.cancelled[0].ActorID)
	assert.Equal(t, types.ID("tech1"), *svc.cancelled[0].ActorID)

	other := newBookingRouter(svc, nil, makeVerifier("tech2", httpmiddleware.RoleTechnician))
	w = doRequest(other, http.MethodPost, "/bookings/b1/cancel", nil, "Bearer x")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestListByOrg(t *testing.T) {
	svc := &fakeBookings{items: map[types.ID]*booking.Booking{
		"b1": {ID: "b1", OrgID: "acme", TechnicianID: "tech1"},
		"b2": {ID: "b2", OrgID: "other", TechnicianID: "tech2"},
	}}

	r := newBookingRouter(svc, nil, makeVerifier("disp", httpmiddleware.RoleDispatcher))
	w := doRequest(r, http.MethodGet, "/orgs/acme/bookings?day=2025-09-15", nil, "Bearer x")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Bookings []booking.Booking `json:"bookings"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Bookings, 1)
	assert.Equal(t, types.ID("b1"), resp.Bookings[0].ID)

	w = doRequest(r, http.MethodGet, "/orgs/nobody/bookings?day=2025-09-15", nil, "Bearer x")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"bookings":[]}`, w.Body.String())

	w = doRequest(r, http.MethodGet, "/orgs/acme/bookings?day=bad", nil, "Bearer x")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = doRequest(r, http.MethodGet, "/orgs/acme/bookings", nil, "Bearer x")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	tech := newBookingRouter(svc, nil, makeVerifier("tech1", httpmiddleware.RoleTechnician))
	w = doRequest(tech, http.MethodGet, "/orgs/acme/bookings?day=2025-09-15", nil, "Bearer x")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestLocationUpdate(t *testing.T) {
	loc := &fakeLocations{}
	r := newBookingRouter(&fakeBookings{}, loc, makeVerifier("tech1", httpmiddleware.RoleTechnician))

	w := doRequest(r, http.MethodPut, "/technicians/tech1/location", map[string]any{"lat": 52.37, "lng": 4.89}, "Bearer x")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Len(t, loc.recorded, 1)
	assert.Equal(t, types.Point{Lat: 52.37, Lng: 4.89}, loc.recorded[0].Position)

	w = doRequest(r, http.MethodPut, "/technicians/tech2/location", map[string]any{"lat": 52.37, "lng": 4.89}, "Bearer x")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(r, http.MethodPut, "/technicians/tech1/location", map[string]any{"lat": 52.37}, "Bearer x")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(r, http.MethodPut, "/technicians/tech1/location", map[string]any{"lat": 95, "lng": 4.89}, "Bearer x")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	failing := newBookingRouter(&fakeBookings{}, &fakeLocations{err: errBoom}, nil)
	w = doRequest(failing, http.MethodPut, "/technicians/tech1/location", map[string]any{"lat": 1, "lng": 1}, "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestSuggest_TechnicianCannotUseAnotherTechniciansLocation(t *testing.T) {
	locs := &fakeLocations{points: map[types.ID]types.Point{"tech-a": near, "tech-b": paris}}
	body := suggestReq(map[string]any{"technician_id": "tech-b"})

	r := newAuthedSlotRouter(t, locs, nil, makeVerifier("tech-a", httpmiddleware.RoleTechnician))
	w := doRequest(r, http.MethodPost, "/slots/suggest", body, "Bearer x")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.NotContains(t, w.Body.String(), "origin=last_job")

	w = doRequest(r, http.MethodPost, "/slots/suggest", suggestReq(map[string]any{"technician_id": "tech-a"}), "Bearer x")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decode(t, w).Candidates[0].Rationale, "origin=last_job")

	disp := newAuthedSlotRouter(t, locs, nil, makeVerifier("disp1", httpmiddleware.RoleDispatcher))
	w = doRequest(disp, http.MethodPost, "/slots/suggest", body, "Bearer x")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decode(t, w).Candidates[0].Rationale, "origin=last_job")
}

func TestSuggest_OrgBoundCallerLimitedToOwnOrg(t *testing.T) {
	r := newAuthedSlotRouter(t, nil, nil, makeOrgVerifier("disp1", httpmiddleware.RoleDispatcher, "other"))
	w := doRequest(r, http.MethodPost, "/slots/suggest", suggestReq(nil), "Bearer x")
	assert.Equal(t, http.StatusForbidden, w.Code)

	r = newAuthedSlotRouter(t, nil, nil, makeOrgVerifier("disp1", httpmiddleware.RoleDispatcher, "acme"))
	w = doRequest(r, http.MethodPost, "/slots/suggest", suggestReq(nil), "Bearer x")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBookings_OrgBoundDispatcher(t *testing.T) {
	svc := &fakeBookings{items: map[types.ID]*booking.Booking{
		"b1": {ID: "b1", OrgID: "acme", TechnicianID: "tech1", Status: booking.StatusConfirmed},
		"b2": {ID: "b2", OrgID: "other", TechnicianID: "tech2", Status: booking.StatusConfirmed},
	}}
	r := newBookingRouter(svc, nil, makeOrgVerifier("disp1", httpmiddleware.RoleDispatcher, "acme"))

	w := doRequest(r, http.MethodGet, "/orgs/acme/bookings?day=2025-09-15", nil, "Bearer x")
	assert.Equal(t, http.StatusOK, w.Code)
	w = doRequest(r, http.MethodGet, "/orgs/other/bookings?day=2025-09-15", nil, "Bearer x")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(r, http.MethodGet, "/bookings/b1", nil, "Bearer x")
	assert.Equal(t, http.StatusOK, w.Code)
	w = doRequest(r, http.MethodGet, "/bookings/b2", nil, "Bearer x")
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = doRequest(r, http.MethodPost, "/bookings/b2/cancel", nil, "Bearer x")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, svc.cancelled)

	body := confirmBody("tech2")
	body["org_id"] = "other"
	w = doRequest(r, http.MethodPost, "/bookings", body, "Bearer x")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, svc.confirmed)
}
