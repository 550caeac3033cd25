package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"booking_engine/internal/profiles/service"
	"booking_engine/internal/profiles/transport"
	"booking_engine/platform/httpkit"
	"booking_engine/platform/validator"
)

// Handler handles booking profile endpoints.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgMissingKey       = "business type is required"
)

// New creates a new profiles handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// Get returns the profile served for a business type.
// GET /api/v1/booking-profiles/:businessType
func (h *Handler) Get(c *gin.Context) {
	actor, ok := mustGetActor(c)
	if !ok {
		return
	}
	businessType := strings.TrimSpace(c.Param("businessType"))
	if businessType == "" {
		httpkit.Error(c, http.StatusBadRequest, msgMissingKey, nil)
		return
	}

	result, err := h.svc.Get(c.Request.Context(), actor, businessType)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// List returns every live profile.
// GET /api/v1/admin/booking-profiles
func (h *Handler) List(c *gin.Context) {
	actor, ok := mustGetActor(c)
	if !ok {
		return
	}

	result, err := h.svc.List(c.Request.Context(), actor)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": result})
}

// Validate dry-runs every check on a profile.
// POST /api/v1/admin/booking-profiles/validate
func (h *Handler) Validate(c *gin.Context) {
	actor, ok := mustGetActor(c)
	if !ok {
		return
	}
	var req transport.ProfileRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.svc.Validate(c.Request.Context(), actor, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Put validates, stores and publishes a profile.
// PUT /api/v1/admin/booking-profiles/:key
func (h *Handler) Put(c *gin.Context) {
	actor, ok := mustGetActor(c)
	if !ok {
		return
	}
	var req transport.ProfileRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.svc.Put(c.Request.Context(), actor, c.Param("key"), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
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

func mustGetActor(c *gin.Context) (service.Actor, bool) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return service.Actor{}, false
	}
	return service.Actor{UserID: id.UserID(), TenantID: id.TenantID(), Roles: id.Roles()}, true
}
