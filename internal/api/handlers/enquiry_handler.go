package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"greendrake/estates/internal/api/middleware"
	"greendrake/estates/internal/services"
	"greendrake/estates/internal/validation"
)

// EnquiryHandler serves /api/enquiries. Every route runs behind middleware.Auth.
type EnquiryHandler struct {
	enquiryService services.IEnquiryService
	logger         *zap.Logger
}

func NewEnquiryHandler(enquiryService services.IEnquiryService, logger *zap.Logger) *EnquiryHandler {
	return &EnquiryHandler{enquiryService: enquiryService, logger: logger}
}

func (h *EnquiryHandler) Create(c *gin.Context) {
	var in validation.Enquiry
	if !bindJSON(c, &in) {
		return
	}
	enquiry, err := h.enquiryService.Create(c.Request.Context(), middleware.Actor(c), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusCreated, enquiry)
}

// MySent handles GET /api/enquiries/my-sent.
func (h *EnquiryHandler) MySent(c *gin.Context) {
	views, err := h.enquiryService.ListSent(c.Request.Context(), middleware.Actor(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, views)
}

// MyReceived handles GET /api/enquiries/my-received.
func (h *EnquiryHandler) MyReceived(c *gin.Context) {
	views, err := h.enquiryService.ListReceived(c.Request.Context(), middleware.Actor(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, views)
}

func (h *EnquiryHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	view, err := h.enquiryService.Get(c.Request.Context(), middleware.Actor(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, view)
}

func (h *EnquiryHandler) MarkRead(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	enquiry, err := h.enquiryService.MarkRead(c.Request.Context(), middleware.Actor(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, enquiry)
}

func (h *EnquiryHandler) AppendMessage(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in validation.Message
	if !bindJSON(c, &in) {
		return
	}
	enquiry, err := h.enquiryService.AppendMessage(c.Request.Context(), middleware.Actor(c), id, in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, enquiry)
}

func (h *EnquiryHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.enquiryService.Delete(c.Request.Context(), middleware.Actor(c), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Enquiry deleted"})
}
