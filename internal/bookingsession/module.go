// Package bookingsession provides the booking session bounded context module.
// It drives one booking conversation per session through the funnel
// IDLE → SELECT_SERVICE → COLLECT_CONTACT → READY_TO_BOOK → DONE.
package bookingsession

import (
	"booking_engine/internal/bookingsession/handler"
	"booking_engine/internal/bookingsession/session"
	apphttp "booking_engine/internal/http"
	"booking_engine/platform/logger"
	"booking_engine/platform/metrics"
	"booking_engine/platform/validator"
)

// Module is the booking session module implementing http.Module.
type Module struct {
	handler *handler.Handler
	machine *session.Machine
}

// NewModule wires the state machine over the intent api and session store.
func NewModule(
	api session.BookingAPI,
	store session.Store,
	m *metrics.Booking,
	val *validator.Validator,
	log *logger.Logger,
) *Module {
	machine := session.NewMachine(api, store, log, m)
	return &Module{
		handler: handler.New(machine, val),
		machine: machine,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "bookingsession"
}

// Machine returns the state machine for in-process callers.
func (m *Module) Machine() *session.Machine {
	return m.machine
}

// RegisterRoutes mounts the public session routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	sessions := ctx.Public.Group("/booking/:tenantId/:botId/sessions/:sessionId")
	sessions.GET("", m.handler.Get)
	sessions.POST("/start", m.handler.Start)
	sessions.POST("/select", m.handler.SelectService)
	sessions.POST("/contact", m.handler.SubmitContact)
	sessions.POST("/book", m.handler.Book)
	sessions.POST("/abandon", m.handler.Abandon)
	sessions.POST("/reset", m.handler.Reset)
}

var _ apphttp.Module = (*Module)(nil)
