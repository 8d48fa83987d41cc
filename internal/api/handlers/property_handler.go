package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"greendrake/estates/internal/api/middleware"
	"greendrake/estates/internal/models"
	"greendrake/estates/internal/services"
	"greendrake/estates/internal/validation"
)

// PropertyHandler serves /api/properties.
type PropertyHandler struct {
	propertyService services.IPropertyService
	logger          *zap.Logger
}

func NewPropertyHandler(propertyService services.IPropertyService, logger *zap.Logger) *PropertyHandler {
	return &PropertyHandler{propertyService: propertyService, logger: logger}
}

// queryParser collects every malformed search parameter instead of stopping at the first.
type queryParser struct {
	c    *gin.Context
	errs validation.Errors
}

func (p *queryParser) fail(field, msg string) {
	p.errs = append(p.errs, validation.FieldError{Field: field, Message: msg})
}

func (p *queryParser) intParam(name string) *int {
	raw := p.c.Query(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.fail(name, name+" must be an integer")
		return nil
	}
	return &v
}

func (p *queryParser) floatParam(name string) *float64 {
	raw := p.c.Query(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.fail(name, name+" must be a number")
		return nil
	}
	return &v
}

func (p *queryParser) boolParam(name string) *bool {
	raw := p.c.Query(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		p.fail(name, name+" must be true or false")
		return nil
	}
	return &v
}

// list accepts both repeated parameters and comma-separated values.
func (p *queryParser) listParam(name string) []string {
	var out []string
	for _, raw := range p.c.QueryArray(name) {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func parsePropertyQuery(c *gin.Context) (services.PropertyQuery, error) {
	p := &queryParser{c: c}
	q := services.PropertyQuery{
		ListingType:   c.Query("listingType"),
		PropertyTypes: p.listParam("propertyType"),
		BedroomsMin:   p.intParam("bedroomsMin"),
		BedroomsMax:   p.intParam("bedroomsMax"),
		BathroomsMin:  p.intParam("bathroomsMin"),
		BathroomsMax:  p.intParam("bathroomsMax"),
		PriceMin:      p.floatParam("priceMin"),
		PriceMax:      p.floatParam("priceMax"),
		Keyword:       c.Query("keyword"),
		Available:     p.boolParam("available"),
	}

	if raw := c.Query("agent"); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			p.fail("agent", "agent must be a valid id")
		} else {
			q.Agent = &id
		}
	}

	lat, lng, radius := p.floatParam("lat"), p.floatParam("lng"), p.floatParam("radiusKm")
	switch {
	case lat != nil && lng != nil && radius != nil:
		if *radius <= 0 {
			p.fail("radiusKm", "radiusKm must be positive")
		}
		q.Near = models.NewPoint(*lat, *lng)
		q.RadiusKm = *radius
	case lat != nil || lng != nil || radius != nil:
		p.fail("lat", "lat, lng and radiusKm must be given together")
	}

	if limit := p.intParam("limit"); limit != nil {
		q.Limit = *limit
	}
	if page := p.intParam("page"); page != nil {
		q.Page = *page
	}

	if len(p.errs) > 0 {
		return q, p.errs
	}
	return q, nil
}

// List handles GET /api/properties.
func (h *PropertyHandler) List(c *gin.Context) {
	q, err := parsePropertyQuery(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	page, err := h.propertyService.List(c.Request.Context(), q)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, page)
}

func (h *PropertyHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	property, err := h.propertyService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, property)
}

// Create handles POST /api/properties; guests may create unowned listings.
func (h *PropertyHandler) Create(c *gin.Context) {
	var in services.PropertyInput
	if !bindJSON(c, &in) {
		return
	}
	property, err := h.propertyService.Create(c.Request.Context(), middleware.Actor(c), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusCreated, property)
}

func (h *PropertyHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var patch services.PropertyPatch
	if !bindJSON(c, &patch) {
		return
	}
	property, err := h.propertyService.Update(c.Request.Context(), middleware.Actor(c), id, patch)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, property)
}

func (h *PropertyHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.propertyService.Delete(c.Request.Context(), middleware.Actor(c), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Property deleted"})
}
