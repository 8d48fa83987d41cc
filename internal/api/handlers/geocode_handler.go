package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"greendrake/estates/internal/geocode"
	"greendrake/estates/internal/validation"
)

type GeocodeHandler struct {
	geocoder geocode.IGeocoder
	logger   *zap.Logger
}

func NewGeocodeHandler(geocoder geocode.IGeocoder, logger *zap.Logger) *GeocodeHandler {
	return &GeocodeHandler{geocoder: geocoder, logger: logger}
}

// Search handles GET /api/geocode/search?q=.
func (h *GeocodeHandler) Search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		respondError(c, h.logger, validation.Errors{{Field: "q", Message: "q is required"}})
		return
	}
	places, err := h.geocoder.Search(c.Request.Context(), q)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, places)
}

// Reverse handles GET /api/geocode/reverse?lat=&lng=.
func (h *GeocodeHandler) Reverse(c *gin.Context) {
	var errs validation.Errors
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil || lat < -90 || lat > 90 {
		errs = append(errs, validation.FieldError{Field: "lat", Message: "lat must be a number between -90 and 90"})
	}
	lng, err := strconv.ParseFloat(c.Query("lng"), 64)
	if err != nil || lng < -180 || lng > 180 {
		errs = append(errs, validation.FieldError{Field: "lng", Message: "lng must be a number between -180 and 180"})
	}
	if len(errs) > 0 {
		respondError(c, h.logger, errs)
		return
	}

	place, err := h.geocoder.Reverse(c.Request.Context(), lat, lng)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, place)
}
