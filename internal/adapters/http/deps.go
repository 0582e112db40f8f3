package http

import (
	"context"
	"time"

	"github.com/facebookgo/clock"
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/cragtopo/internal/core/usecases"
	"github.com/samirrijal/cragtopo/internal/pkg/i18n"
)

// Pinger is a backing service the readiness probe can check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Cities  *usecases.CityService
	Crags   *usecases.CragService
	Routes  *usecases.RouteService
	Topo    *usecases.TopoService
	Offline *usecases.OfflineService
	Auth    *usecases.AuthService
	I18n    *i18n.Catalog
	NATS    *nats.Conn
	DB      Pinger
	Cache   Pinger

	// AutoPlay is the draw-in delay for live topo sessions; 0 disables auto-play.
	AutoPlay time.Duration
	// Clock drives draw-in timers; nil means the wall clock.
	Clock clock.Clock
	// RateLimit is requests per minute per IP; 0 uses the default of 120.
	RateLimit int
}

func (d *Dependencies) catalog() *i18n.Catalog {
	if d.I18n == nil {
		return i18n.Default()
	}
	return d.I18n
}
