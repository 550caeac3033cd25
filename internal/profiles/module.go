// Package profiles provides the booking profile bounded context module.
// It owns the live industry catalog: lookups by business type, the
// validator that gates every change, and the admin endpoints that publish
// a new profile.
package profiles

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"booking_engine/internal/events"
	apphttp "booking_engine/internal/http"
	"booking_engine/internal/profiles/catalog"
	"booking_engine/internal/profiles/handler"
	"booking_engine/internal/profiles/repository"
	"booking_engine/internal/profiles/service"
	"booking_engine/platform/config"
	"booking_engine/platform/logger"
	"booking_engine/platform/validator"
)

// Module is the profiles bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	store   *catalog.Store
}

// NewModule creates the profiles module serving store. base is the catalog
// stored overrides are layered on.
func NewModule(
	pool *pgxpool.Pool,
	base *catalog.Catalog,
	store *catalog.Store,
	policy service.AccessPolicy,
	bus events.Bus,
	val *validator.Validator,
	log *logger.Logger,
) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, store, base, policy, bus, log)

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
		store:   store,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "profiles"
}

// Service returns the service layer.
func (m *Module) Service() *service.Service {
	return m.service
}

// Store returns the live catalog.
func (m *Module) Store() *catalog.Store {
	return m.store
}

// Reload applies stored overrides to the live catalog.
func (m *Module) Reload(ctx context.Context) error {
	return m.service.Reload(ctx)
}

// RegisterRoutes mounts the profile routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/booking-profiles/:businessType", m.handler.Get)

	admin := ctx.Admin.Group("/booking-profiles")
	admin.GET("", m.handler.List)
	admin.POST("/validate", m.handler.Validate)
	admin.PUT("/:key", m.handler.Put)
}

var _ apphttp.Module = (*Module)(nil)

// LoadBaseCatalog returns the catalog from the configured YAML file, or the
// built-in catalog when none is configured.
func LoadBaseCatalog(cfg config.CatalogConfig) (*catalog.Catalog, error) {
	if path := cfg.GetCatalogFile(); path != "" {
		return catalog.LoadFile(path)
	}
	return catalog.Default(), nil
}

// ProfileForBusinessType resolves businessType against the built-in catalog.
func ProfileForBusinessType(businessType string) catalog.BookingProfile {
	return catalog.ProfileForBusinessType(businessType)
}

// Validate runs every check on p.
func Validate(p catalog.BookingProfile) catalog.ValidationResult {
	return catalog.Validate(p)
}

// ValidateCatalog checks every profile and alias of c.
func ValidateCatalog(c *catalog.Catalog) catalog.Report {
	return catalog.ValidateSet(c.Profiles(), c.Aliases())
}
