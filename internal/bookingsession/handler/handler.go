package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"booking_engine/internal/bookingsession/session"
	"booking_engine/internal/bookingsession/transport"
	"booking_engine/platform/httpkit"
	"booking_engine/platform/sanitize"
	"booking_engine/platform/validator"
)

// Handler exposes the booking session machine to the chat surface.
type Handler struct {
	machine *session.Machine
	val     *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidSession   = "invalid session"
)

// New creates a new booking session handler.
func New(machine *session.Machine, val *validator.Validator) *Handler {
	return &Handler{machine: machine, val: val}
}

// Get returns the current session.
// GET /api/v1/public/booking/:tenantId/:botId/sessions/:sessionId
func (h *Handler) Get(c *gin.Context) {
	key, ok := sessionKey(c)
	if !ok {
		return
	}

	s, err := h.machine.Get(c.Request.Context(), key)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToSessionResponse(s))
}

// Start loads the bot configuration into the session.
// POST /api/v1/public/booking/:tenantId/:botId/sessions/:sessionId/start
func (h *Handler) Start(c *gin.Context) {
	key, ok := sessionKey(c)
	if !ok {
		return
	}

	s, err := h.machine.LoadConfig(c.Request.Context(), key)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToSessionResponse(s))
}

// SelectService opens a booking intent for the chosen service.
// POST /api/v1/public/booking/:tenantId/:botId/sessions/:sessionId/select
func (h *Handler) SelectService(c *gin.Context) {
	key, ok := sessionKey(c)
	if !ok {
		return
	}
	var req transport.SelectServiceRequest
	if !h.bind(c, &req) {
		return
	}

	svc := session.Service{ID: strings.TrimSpace(req.ServiceID), Name: sanitize.Line(req.ServiceName)}
	s, err := h.machine.SelectService(c.Request.Context(), key, svc)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToSessionResponse(s))
}

// SubmitContact attaches contact details to the active intent.
// POST /api/v1/public/booking/:tenantId/:botId/sessions/:sessionId/contact
func (h *Handler) SubmitContact(c *gin.Context) {
	key, ok := sessionKey(c)
	if !ok {
		return
	}
	var req transport.SubmitContactRequest
	if !h.bind(c, &req) {
		return
	}

	contact := session.Contact{
		Name:  sanitize.Line(req.Name),
		Phone: sanitize.LinePtr(req.Phone),
		Email: sanitize.LinePtr(req.Email),
	}
	s, err := h.machine.SubmitContact(c.Request.Context(), key, contact)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToSessionResponse(s))
}

// Book commits the booking and returns where to send the user.
// POST /api/v1/public/booking/:tenantId/:botId/sessions/:sessionId/book
func (h *Handler) Book(c *gin.Context) {
	key, ok := sessionKey(c)
	if !ok {
		return
	}

	res, s, err := h.machine.ClickBookNow(c.Request.Context(), key)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.BookResponse{Resolution: res, Session: transport.ToSessionResponse(s)})
}

// Abandon reports that the user left the flow. It always succeeds.
// POST /api/v1/public/booking/:tenantId/:botId/sessions/:sessionId/abandon
func (h *Handler) Abandon(c *gin.Context) {
	key, ok := sessionKey(c)
	if !ok {
		return
	}

	h.machine.AbandonBooking(c.Request.Context(), key)
	httpkit.Accepted(c, transport.AckResponse{Status: "accepted"})
}

// Reset starts the flow over.
// POST /api/v1/public/booking/:tenantId/:botId/sessions/:sessionId/reset
func (h *Handler) Reset(c *gin.Context) {
	key, ok := sessionKey(c)
	if !ok {
		return
	}

	s, err := h.machine.Reset(c.Request.Context(), key)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToSessionResponse(s))
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

func sessionKey(c *gin.Context) (session.Key, bool) {
	tenantID, err := uuid.Parse(c.Param("tenantId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidSession, "invalid tenant ID")
		return session.Key{}, false
	}
	key := session.Key{
		TenantID:  tenantID,
		BotID:     strings.TrimSpace(c.Param("botId")),
		SessionID: strings.TrimSpace(c.Param("sessionId")),
	}
	if !key.Valid() || len(key.BotID) > 128 || len(key.SessionID) > 128 {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidSession, nil)
		return session.Key{}, false
	}
	return key, true
}
