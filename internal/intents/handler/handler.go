package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"booking_engine/internal/intents/service"
	"booking_engine/internal/intents/transport"
	"booking_engine/platform/httpkit"
	"booking_engine/platform/validator"
)

// Handler handles the public booking collaborator endpoints.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidTenant    = "invalid tenant ID"
	msgInvalidBot       = "invalid bot ID"
	msgInvalidIntent    = "invalid intent ID"
)

// New creates a new intents handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// GetConfig returns the booking configuration of a bot.
// GET /api/v1/public/booking/:tenantId/:botId/config
func (h *Handler) GetConfig(c *gin.Context) {
	tenantID, botID, ok := scope(c)
	if !ok {
		return
	}

	result, err := h.svc.GetConfig(c.Request.Context(), tenantID, botID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// StartIntent creates a booking intent for a selected service.
// POST /api/v1/public/booking/:tenantId/:botId/intents
func (h *Handler) StartIntent(c *gin.Context) {
	tenantID, botID, ok := scope(c)
	if !ok {
		return
	}
	var req transport.StartIntentRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.svc.StartIntent(c.Request.Context(), tenantID, botID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

// AttachLead attaches contact details to an intent.
// POST /api/v1/public/booking/:tenantId/:botId/intents/:intentId/lead
func (h *Handler) AttachLead(c *gin.Context) {
	tenantID, botID, intentID, ok := intentScope(c)
	if !ok {
		return
	}
	var req transport.AttachLeadRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.svc.AttachLead(c.Request.Context(), tenantID, botID, intentID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// CommitClick resolves the redirect for "book now".
// POST /api/v1/public/booking/:tenantId/:botId/intents/:intentId/click
func (h *Handler) CommitClick(c *gin.Context) {
	tenantID, botID, intentID, ok := intentScope(c)
	if !ok {
		return
	}

	result, err := h.svc.CommitClick(c.Request.Context(), tenantID, botID, intentID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Abandon marks an intent as abandoned.
// POST /api/v1/public/booking/:tenantId/:botId/intents/:intentId/abandon
func (h *Handler) Abandon(c *gin.Context) {
	tenantID, botID, intentID, ok := intentScope(c)
	if !ok {
		return
	}

	if err := h.svc.Abandon(c.Request.Context(), tenantID, botID, intentID); httpkit.HandleError(c, err) {
		return
	}
	httpkit.Accepted(c, transport.AckResponse{Status: "accepted"})
}

func (h *Handler) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return false
	}
	return true
}

func scope(c *gin.Context) (uuid.UUID, string, bool) {
	tenantID, err := uuid.Parse(c.Param("tenantId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidTenant, nil)
		return uuid.UUID{}, "", false
	}
	botID := strings.TrimSpace(c.Param("botId"))
	if botID == "" || len(botID) > 128 {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidBot, nil)
		return uuid.UUID{}, "", false
	}
	return tenantID, botID, true
}

func intentScope(c *gin.Context) (uuid.UUID, string, uuid.UUID, bool) {
	tenantID, botID, ok := scope(c)
	if !ok {
		return uuid.UUID{}, "", uuid.UUID{}, false
	}
	intentID, err := uuid.Parse(c.Param("intentId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidIntent, nil)
		return uuid.UUID{}, "", uuid.UUID{}, false
	}
	return tenantID, botID, intentID, true
}
