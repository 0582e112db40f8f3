package http

import (
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v2"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/samirrijal/cragtopo/internal/core/domain"
	"github.com/samirrijal/cragtopo/internal/core/usecases"
	"github.com/samirrijal/cragtopo/internal/pkg/geospatial"
)

// ListCitiesHandler returns all cities.
func ListCitiesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cities, err := deps.Cities.List(c.UserContext())
		if err != nil {
			return errInternal(c, err)
		}
		return c.JSON(paginate(c, cities, 100, 200))
	}
}

// GetCityHandler returns a city by slug.
func GetCityHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		city, err := deps.Cities.GetBySlug(c.UserContext(), c.Params("slug"))
		if err != nil {
			return errFromDomain(c, err, "city")
		}
		return c.JSON(city)
	}
}

// CityCragsHandler lists the crags of a city.
func CityCragsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		city, err := deps.Cities.GetBySlug(c.UserContext(), c.Params("slug"))
		if err != nil {
			return errFromDomain(c, err, "city")
		}
		crags, err := deps.Crags.ListByCity(c.UserContext(), city.ID)
		if err != nil {
			return errInternal(c, err)
		}
		return c.JSON(paginate(c, crags, 50, 200))
	}
}

// NearbyCragsHandler returns crags within a radius of a point, nearest first.
func NearbyCragsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lat := c.QueryFloat("lat", 0)
		lon := c.QueryFloat("lon", 0)
		radius := c.QueryFloat("radius", 25000)
		limit := c.QueryInt("limit", 20)

		if lat == 0 || lon == 0 {
			return errBadRequest(c, "lat and lon are required")
		}
		if radius <= 0 || radius > 200000 {
			return errBadRequest(c, "radius must be between 1 and 200000 meters")
		}

		crags, err := deps.Crags.FindNearby(c.UserContext(), lat, lon, radius, limit)
		if err != nil {
			return errInternal(c, err)
		}

		type nearbyCrag struct {
			domain.Crag
			WalkMinutes int `json:"walk_minutes"`
		}
		out := make([]nearbyCrag, 0, len(crags))
		for _, cr := range crags {
			n := nearbyCrag{Crag: cr}
			if cr.Distance != nil {
				n.WalkMinutes = geospatial.WalkingMinutes(*cr.Distance)
			}
			out = append(out, n)
		}

		c.Set("Cache-Control", "public, max-age=300")
		return c.JSON(out)
	}
}

// GetCragHandler returns a crag by slug.
func GetCragHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		crag, err := deps.Crags.GetBySlug(c.UserContext(), c.Params("slug"))
		if err != nil {
			return errFromDomain(c, err, "crag")
		}
		return c.JSON(crag)
	}
}

// CragRoutesHandler lists the routes at a crag.
func CragRoutesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		crag, err := deps.Crags.GetBySlug(c.UserContext(), c.Params("slug"))
		if err != nil {
			return errFromDomain(c, err, "crag")
		}
		routes, err := deps.Routes.ListByCrag(c.UserContext(), crag.ID)
		if err != nil {
			return errInternal(c, err)
		}
		return c.JSON(paginate(c, routes, 100, 500))
	}
}

// CragTopoHandler renders every annotated route of a crag over its photo.
func CragTopoHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		svg, err := deps.Topo.CragSVG(c.UserContext(), c.Params("slug"), renderRequest(c))
		if err != nil {
			return errFromDomain(c, err, "crag")
		}
		return sendSVG(c, svg)
	}
}

// CragOfflineHandler returns the offline bundle of a crag as JSON, or as a
// protobuf Struct with ?format=proto.
func CragOfflineHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		bundle, err := deps.Offline.Bundle(c.UserContext(), c.Params("slug"))
		if err != nil {
			return errFromDomain(c, err, "crag")
		}

		c.Set(fiber.HeaderETag, `"`+bundle.Version+`"`)
		c.Set("Cache-Control", "public, max-age=60, must-revalidate")

		if c.Query("format") != "proto" {
			return c.JSON(bundle)
		}
		data, err := bundleProto(bundle)
		if err != nil {
			return errInternal(c, err)
		}
		c.Set(fiber.HeaderContentType, "application/x-protobuf")
		return c.Send(data)
	}
}

// bundleProto encodes a bundle as a google.protobuf.Struct.
func bundleProto(b *domain.OfflineBundle) ([]byte, error) {
	raw, err := json.Marshal(b)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	st, err := structpb.NewStruct(m)
	if err != nil {
		return nil, err
	}
	return proto.MarshalOptions{Deterministic: true}.Marshal(st)
}

// GetRouteHandler returns a route by ID.
func GetRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		route, err := deps.Routes.GetByID(c.UserContext(), c.Params("id"))
		if err != nil {
			return errFromDomain(c, err, "route")
		}
		return c.JSON(route)
	}
}

// RouteTopoHandler renders one route's topo as SVG.
func RouteTopoHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		svg, err := deps.Topo.RouteSVG(c.UserContext(), c.Params("id"), renderRequest(c))
		if err != nil {
			return errFromDomain(c, err, "route")
		}
		return sendSVG(c, svg)
	}
}

// RouteTopoPNGHandler rasterizes one route's topo. ?scale= is the pixel scale (0.25-4).
func RouteTopoPNGHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		scale := c.QueryFloat("scale", 0)
		if scale < 0 || scale > 4 || (scale > 0 && scale < 0.25) {
			return errBadRequest(c, "scale must be between 0.25 and 4")
		}
		data, err := deps.Topo.RoutePNG(c.UserContext(), c.Params("id"), scale)
		if err != nil {
			return errFromDomain(c, err, "route")
		}
		c.Set(fiber.HeaderContentType, "image/png")
		c.Set("Cache-Control", "public, max-age=3600")
		return c.Send(data)
	}
}

// SearchHandler matches crags by name in any language.
func SearchHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := strings.TrimSpace(c.Query("q"))
		if query == "" {
			return errBadRequest(c, msg(c, "error.empty_query"))
		}
		if len(query) > 200 {
			return errBadRequest(c, "query too long (max 200 characters)")
		}
		crags, err := deps.Crags.Search(c.UserContext(), query, c.QueryInt("limit", 20))
		if err != nil {
			return errFromDomain(c, err, "crag")
		}
		if crags == nil {
			crags = []domain.Crag{}
		}
		return c.JSON(crags)
	}
}

type createCragRequest struct {
	Slug            string           `json:"slug"`
	CitySlug        string           `json:"city_slug"`
	Name            domain.Localized `json:"name"`
	Description     domain.Localized `json:"description"`
	Location        domain.GeoPoint  `json:"location"`
	ApproachMinutes int              `json:"approach_minutes"`
	Photo           *domain.Photo    `json:"photo"`
}

// CreateCragHandler creates or updates a crag.
func CreateCragHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createCragRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "")
		}
		city, err := deps.Cities.GetBySlug(c.UserContext(), req.CitySlug)
		if err != nil {
			return errFromDomain(c, err, "city")
		}
		crag := &domain.Crag{
			Slug:            req.Slug,
			CityID:          city.ID,
			Name:            req.Name,
			Description:     req.Description,
			Location:        req.Location,
			ApproachMinutes: req.ApproachMinutes,
			Photo:           req.Photo,
		}
		if err := deps.Crags.Upsert(c.UserContext(), crag); err != nil {
			return errFromDomain(c, err, "crag")
		}
		logAudit(c, "crag upserted", "crag_id", crag.ID)
		return c.Status(fiber.StatusCreated).JSON(crag)
	}
}

type createRouteRequest struct {
	Slug        string           `json:"slug"`
	Name        string           `json:"name"`
	Grade       string           `json:"grade"`
	Description domain.Localized `json:"description"`
	Photo       *domain.Photo    `json:"photo"`
	TopoLine    domain.TopoLine  `json:"topo_line"`
}

// CreateRouteHandler adds a route to a crag.
func CreateRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		crag, err := deps.Crags.GetBySlug(c.UserContext(), c.Params("slug"))
		if err != nil {
			return errFromDomain(c, err, "crag")
		}
		var req createRouteRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "")
		}
		route := &domain.Route{
			CragID:      crag.ID,
			Slug:        req.Slug,
			Name:        req.Name,
			Grade:       req.Grade,
			Description: req.Description,
			Photo:       req.Photo,
			TopoLine:    req.TopoLine,
		}
		if err := deps.Routes.Create(c.UserContext(), route); err != nil {
			return errFromDomain(c, err, "route")
		}
		logAudit(c, "route created", "route_id", route.ID, "crag_id", crag.ID)
		return c.Status(fiber.StatusCreated).JSON(route)
	}
}

type updateTopoRequest struct {
	Points domain.TopoLine `json:"points"`
}

// UpdateTopoHandler replaces a route's topo line. An empty list clears it.
func UpdateTopoHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req updateTopoRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "")
		}
		route, err := deps.Routes.UpdateTopoLine(c.UserContext(), c.Params("id"), req.Points)
		if err != nil {
			return errFromDomain(c, err, "route")
		}
		logAudit(c, "topo line updated", "route_id", route.ID, "points", len(route.TopoLine))
		return c.JSON(route)
	}
}

// DeleteRouteHandler removes a route.
func DeleteRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Routes.Delete(c.UserContext(), c.Params("id")); err != nil {
			return errFromDomain(c, err, "route")
		}
		logAudit(c, "route deleted", "route_id", c.Params("id"))
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func renderRequest(c *fiber.Ctx) usecases.RenderRequest {
	return usecases.RenderRequest{
		ObjectFit: c.Query("object_fit", "contain"),
		Animate:   c.QueryBool("animate", false),
	}
}

func sendSVG(c *fiber.Ctx, svg []byte) error {
	c.Set(fiber.HeaderContentType, "image/svg+xml; charset=utf-8")
	c.Set("Cache-Control", "public, max-age=300")
	return c.Send(svg)
}

func logAudit(c *fiber.Ctx, event string, args ...any) {
	if u := currentUser(c); u != nil {
		args = append(args, "user_id", u.ID)
	}
	LoggerFromCtx(c.UserContext()).Info(event, args...)
}
