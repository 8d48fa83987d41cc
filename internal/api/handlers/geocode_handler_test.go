package handlers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"greendrake/estates/internal/api/handlers"
	"greendrake/estates/internal/geocode"
)

func setupGeocodeRouter() (http.Handler, *MockGeocoder) {
	g := new(MockGeocoder)
	h := handlers.NewGeocodeHandler(g, testLogger())
	r := newEngine()
	r.GET("/api/geocode/search", h.Search)
	r.GET("/api/geocode/reverse", h.Reverse)
	return r, g
}

func TestGeocodeHandler_Search(t *testing.T) {
	r, g := setupGeocodeRouter()
	g.On("Search", mock.Anything, "Kaloum").Return([]geocode.Place{{DisplayName: "Kaloum, Conakry", Lat: 9.5, Lng: -13.7}}, nil)

	w := doJSON(r, http.MethodGet, "/api/geocode/search?q=+Kaloum+", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"displayName":"Kaloum, Conakry","lat":9.5,"lng":-13.7}]`, string(decode(t, w).Data))

	w = doJSON(r, http.MethodGet, "/api/geocode/search", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []string{"q is required"}, errorList(t, decode(t, w)))
}

func TestGeocodeHandler_ProviderFailureIsBadGateway(t *testing.T) {
	r, g := setupGeocodeRouter()
	g.On("Search", mock.Anything, "x").Return(nil, fmt.Errorf("%w: status 503", geocode.ErrUnavailable))

	w := doJSON(r, http.MethodGet, "/api/geocode/search?q=x", "")

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "Geocoding provider unavailable", errorString(t, decode(t, w)))
}

func TestGeocodeHandler_Reverse(t *testing.T) {
	r, g := setupGeocodeRouter()
	g.On("Reverse", mock.Anything, 9.5, -13.7).Return(&geocode.Place{DisplayName: "Kaloum", Lat: 9.5, Lng: -13.7}, nil)
	g.On("Reverse", mock.Anything, 0.0, 0.0).Return(nil, geocode.ErrNoResult)

	assert.Equal(t, http.StatusOK, doJSON(r, http.MethodGet, "/api/geocode/reverse?lat=9.5&lng=-13.7", "").Code)
	assert.Equal(t, http.StatusNotFound, doJSON(r, http.MethodGet, "/api/geocode/reverse?lat=0&lng=0", "").Code)

	w := doJSON(r, http.MethodGet, "/api/geocode/reverse?lat=91&lng=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Len(t, errorList(t, decode(t, w)), 2)
}
