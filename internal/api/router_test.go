package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
	"vehicle_parking/internal/api/middleware"
	"vehicle_parking/internal/cache"
	"vehicle_parking/internal/repository/memory"
	"vehicle_parking/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type apiFixture struct {
	router *gin.Engine
	store  *memory.Store
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	tokens := service.NewTokenService("test-secret", 24*time.Hour)
	sessions := service.NewSessionService(cache.NewMemorySessionStore(), time.Hour)
	auth := service.NewAuthService(store, tokens)
	lots := service.NewLotService(store)
	reservations := service.NewReservationService(store)

	require.NoError(t, auth.EnsureAdminAccount(context.Background(), "admin", "admin123"))

	mw := middleware.NewAuthMiddleware(tokens, sessions, store)
	return &apiFixture{
		router: SetupRouter(auth, sessions, lots, reservations, mw),
		store:  store,
	}
}

func (f *apiFixture) request(t *testing.T, method, path string, body any, decorate func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if decorate != nil {
		decorate(req)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// register + login, returning the bearer token and the session cookie.
func (f *apiFixture) loginAs(t *testing.T, username, password string, register bool) (string, *http.Cookie) {
	t.Helper()
	if register {
		rec := f.request(t, http.MethodPost, "/auth/register",
			gin.H{"username": username, "password": password}, nil)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := f.request(t, http.MethodPost, "/auth/login",
		gin.H{"username": username, "password": password}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	token, _ := body["access_token"].(string)
	require.NotEmpty(t, token)

	var sessionCookie *http.Cookie
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == middleware.SessionCookieName {
			sessionCookie = cookie
		}
	}
	require.NotNil(t, sessionCookie)
	return token, sessionCookie
}

func bearer(token string) func(*http.Request) {
	return func(req *http.Request) {
		req.Header.Set(middleware.AuthorizationHeaderKey, "Bearer "+token)
	}
}

func TestFullReservationFlow(t *testing.T) {
	f := newAPIFixture(t)

	adminToken, _ := f.loginAs(t, "admin", "admin123", false)
	userToken, _ := f.loginAs(t, "alice", "password1", true)

	// Admin sets up a lot with two spots.
	rec := f.request(t, http.MethodPost, "/admin/lots",
		gin.H{"name": "Central", "price": 20, "max_spots": 2}, bearer(adminToken))
	require.Equal(t, http.StatusOK, rec.Code)
	lotID := int(decodeBody(t, rec)["lot_id"].(float64))

	// User books a spot.
	rec = f.request(t, http.MethodPost, "/user/book/1", nil, bearer(userToken))
	require.Equal(t, http.StatusOK, rec.Code)
	booked := decodeBody(t, rec)
	reservationID := int(booked["reservation_id"].(float64))
	require.Equal(t, 1, int(booked["spot_id"].(float64)))

	// Occupancy shows up in the public listing.
	rec = f.request(t, http.MethodGet, "/api/lots", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var summaries []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summaries))
	require.Len(t, summaries, 1)
	require.Equal(t, float64(lotID), summaries[0]["id"])
	require.Equal(t, 1.0, summaries[0]["occupied"])
	require.Equal(t, 1.0, summaries[0]["available"])

	// Release settles the flat rate.
	rec = f.request(t, http.MethodPost, "/user/release/1", nil, bearer(userToken))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 20.0, decodeBody(t, rec)["cost"])

	// History records the settled reservation.
	rec = f.request(t, http.MethodGet, "/user/history", nil, bearer(userToken))
	require.Equal(t, http.StatusOK, rec.Code)
	var history []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history, 1)
	require.Equal(t, float64(reservationID), history[0]["id"])

	// Releasing twice is rejected.
	rec = f.request(t, http.MethodPost, "/user/release/1", nil, bearer(userToken))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBookingFullLot(t *testing.T) {
	f := newAPIFixture(t)
	adminToken, _ := f.loginAs(t, "admin", "admin123", false)
	userToken, _ := f.loginAs(t, "alice", "password1", true)

	rec := f.request(t, http.MethodPost, "/admin/lots",
		gin.H{"name": "Tiny", "price": 10, "max_spots": 1}, bearer(adminToken))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.request(t, http.MethodPost, "/user/book/1", nil, bearer(userToken))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.request(t, http.MethodPost, "/user/book/1", nil, bearer(userToken))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "No spots available in this lot!", decodeBody(t, rec)["error"])
}

func TestRoleGates(t *testing.T) {
	f := newAPIFixture(t)
	adminToken, _ := f.loginAs(t, "admin", "admin123", false)
	userToken, _ := f.loginAs(t, "alice", "password1", true)

	// No credential at all: coarse gate.
	rec := f.request(t, http.MethodPost, "/admin/lots",
		gin.H{"name": "X", "price": 1, "max_spots": 1}, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// Valid user token on an admin route: fine gate.
	rec = f.request(t, http.MethodPost, "/admin/lots",
		gin.H{"name": "X", "price": 1, "max_spots": 1}, bearer(userToken))
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "Unauthorized access!", decodeBody(t, rec)["error"])

	// Admin token on a user route is rejected the same way.
	rec = f.request(t, http.MethodGet, "/user/dashboard", nil, bearer(adminToken))
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSessionLoginAndLogout(t *testing.T) {
	f := newAPIFixture(t)
	_, cookie := f.loginAs(t, "alice", "password1", true)
	withCookie := func(req *http.Request) { req.AddCookie(cookie) }

	rec := f.request(t, http.MethodGet, "/user/dashboard", nil, withCookie)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.request(t, http.MethodPost, "/auth/logout", nil, withCookie)
	require.Equal(t, http.StatusOK, rec.Code)

	// The destroyed session no longer authenticates.
	rec = f.request(t, http.MethodGet, "/user/dashboard", nil, withCookie)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.request(t, http.MethodPost, "/auth/register",
		gin.H{"username": "alice", "password": "password1"}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.request(t, http.MethodPost, "/auth/register",
		gin.H{"username": "alice", "password": "password2"}, nil)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestLoginBadPassword(t *testing.T) {
	f := newAPIFixture(t)
	f.loginAs(t, "alice", "password1", true)

	rec := f.request(t, http.MethodPost, "/auth/login",
		gin.H{"username": "alice", "password": "wrong"}, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLotDetailAndSpotInspection(t *testing.T) {
	f := newAPIFixture(t)
	adminToken, _ := f.loginAs(t, "admin", "admin123", false)
	userToken, _ := f.loginAs(t, "alice", "password1", true)

	rec := f.request(t, http.MethodPost, "/admin/lots",
		gin.H{"name": "Central", "price": 20, "max_spots": 2}, bearer(adminToken))
	require.Equal(t, http.StatusOK, rec.Code)

	// Lot detail is public.
	rec = f.request(t, http.MethodGet, "/api/lots/1", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.request(t, http.MethodGet, "/api/lots/99", nil, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	// Spot inspection passes the coarse gate for any caller but the handler
	// only serves admins.
	rec = f.request(t, http.MethodGet, "/api/spots/1", nil, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.request(t, http.MethodGet, "/api/spots/1", nil, bearer(userToken))
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.request(t, http.MethodGet, "/api/spots/1", nil, bearer(adminToken))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestUserReservationsOwnershipCheck(t *testing.T) {
	f := newAPIFixture(t)
	adminToken, _ := f.loginAs(t, "admin", "admin123", false)
	aliceToken, _ := f.loginAs(t, "alice", "password1", true)
	bobToken, _ := f.loginAs(t, "bob", "password2", true)

	rec := f.request(t, http.MethodPost, "/admin/lots",
		gin.H{"name": "Central", "price": 20, "max_spots": 2}, bearer(adminToken))
	require.Equal(t, http.StatusOK, rec.Code)
	rec = f.request(t, http.MethodPost, "/user/book/1", nil, bearer(aliceToken))
	require.Equal(t, http.StatusOK, rec.Code)

	// alice is user id 2 (admin is 1).
	rec = f.request(t, http.MethodGet, "/api/users/2/reservations", nil, bearer(aliceToken))
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)

	rec = f.request(t, http.MethodGet, "/api/users/2/reservations", nil, bearer(bobToken))
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.request(t, http.MethodGet, "/api/users/2/reservations", nil, bearer(adminToken))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminDashboardRoute(t *testing.T) {
	f := newAPIFixture(t)
	adminToken, _ := f.loginAs(t, "admin", "admin123", false)

	rec := f.request(t, http.MethodPost, "/admin/lots",
		gin.H{"name": "Central", "price": 20, "max_spots": 3}, bearer(adminToken))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.request(t, http.MethodGet, "/admin/dashboard", nil, bearer(adminToken))
	require.Equal(t, http.StatusOK, rec.Code)
	dash := decodeBody(t, rec)
	require.Equal(t, 3.0, dash["total_spots"])
	require.Equal(t, 0.0, dash["occupied"])
	require.Equal(t, 3.0, dash["available"])
}
