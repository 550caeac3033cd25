// Package intents provides the booking intent bounded context module.
// It serves the collaborator endpoints the booking session machine calls:
// config lookup, start intent, attach lead, commit click and abandon.
package intents

import (
	"booking_engine/internal/events"
	apphttp "booking_engine/internal/http"
	"booking_engine/internal/intents/handler"
	"booking_engine/internal/intents/repository"
	"booking_engine/internal/intents/service"
	"booking_engine/internal/pivot"
	"booking_engine/platform/config"
	"booking_engine/platform/logger"
	"booking_engine/platform/metrics"
	"booking_engine/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the intents bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the intents module with all its dependencies.
func NewModule(
	pool *pgxpool.Pool,
	profiles service.ProfileSource,
	resolver *pivot.Resolver,
	bus events.Bus,
	m *metrics.Booking,
	cfg config.BookingConfig,
	val *validator.Validator,
	log *logger.Logger,
) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, profiles, resolver, bus, m, cfg, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "intents"
}

// Service returns the service layer for in-process collaborators.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts the public booking collaborator routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	booking := ctx.Public.Group("/booking/:tenantId/:botId")
	booking.GET("/config", m.handler.GetConfig)
	booking.POST("/intents", m.handler.StartIntent)
	booking.POST("/intents/:intentId/lead", m.handler.AttachLead)
	booking.POST("/intents/:intentId/click", m.handler.CommitClick)
	booking.POST("/intents/:intentId/abandon", m.handler.Abandon)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
