package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/cragtopo/internal/core/domain"
	"github.com/samirrijal/cragtopo/internal/pkg/metrics"
)

const requestTimeout = 15 * time.Second

// legacyTopoSunset is when /v1/crags/:slug/topo goes away.
var legacyTopoSunset = time.Date(2027, time.June, 30, 0, 0, 0, 0, time.UTC)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())
	app.Use(LanguageMiddleware(deps.catalog()))

	rate := deps.RateLimit
	if rate <= 0 {
		rate = 120
	}
	app.Use(limiter.New(limiter.Config{
		Max:        rate,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", msg(c, "error.rate_limited"))
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())
	app.Use(DeprecationMiddleware([]DeprecatedRoute{{
		Path:        "/v1/crags/:slug/topo",
		SunsetDate:  legacyTopoSunset,
		Alternative: "/v1/crags/:slug/topo.svg",
	}}))

	// Health & readiness (no timeout)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	get := func(h fiber.Handler) fiber.Handler { return timeout.NewWithContext(h, requestTimeout) }

	v1 := app.Group("/v1")
	v1.Get("/cities", get(ListCitiesHandler(deps)))
	v1.Get("/cities/:slug", get(GetCityHandler(deps)))
	v1.Get("/cities/:slug/crags", get(CityCragsHandler(deps)))

	v1.Get("/crags/nearby", get(NearbyCragsHandler(deps)))
	v1.Get("/crags/search", get(SearchHandler(deps)))
	v1.Get("/crags/:slug", get(GetCragHandler(deps)))
	v1.Get("/crags/:slug/routes", get(CragRoutesHandler(deps)))
	v1.Get("/crags/:slug/topo.svg", get(CragTopoHandler(deps)))
	v1.Get("/crags/:slug/topo", get(CragTopoHandler(deps)))
	v1.Get("/crags/:slug/offline", get(CragOfflineHandler(deps)))

	v1.Get("/routes/:id", get(GetRouteHandler(deps)))
	v1.Get("/routes/:id/topo.svg", get(RouteTopoHandler(deps)))
	v1.Get("/routes/:id/topo.png", get(RouteTopoPNGHandler(deps)))

	// Writes
	v1.Post("/crags", RequirePermission(deps, domain.PermCragWrite), get(CreateCragHandler(deps)))
	v1.Post("/crags/:slug/routes", RequirePermission(deps, domain.PermRouteWrite), get(CreateRouteHandler(deps)))
	v1.Put("/routes/:id/topo", RequirePermission(deps, domain.PermTopoWrite), get(UpdateTopoHandler(deps)))
	v1.Delete("/routes/:id", RequirePermission(deps, domain.PermRouteAdmin), get(DeleteRouteHandler(deps)))

	app.Post("/graphql", GraphQLHandler(deps))

	SetupDocs(app)

	// Live topo sessions
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/topo/:slug", websocket.New(TopoSessionHandler(deps)))
}
