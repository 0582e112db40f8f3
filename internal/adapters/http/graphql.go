package http

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/cragtopo/internal/core/domain"
	"github.com/samirrijal/cragtopo/internal/topo"
)

// localizedField resolves a Localized struct field in the language given by
// the lang argument, or the request language.
func localizedField(get func(any) domain.Localized) *graphql.Field {
	return &graphql.Field{
		Type: graphql.String,
		Args: graphql.FieldConfigArgument{
			"lang": &graphql.ArgumentConfig{Type: graphql.String},
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			lang, _ := p.Args["lang"].(string)
			if lang == "" {
				lang, _ = p.Context.Value(langKey).(string)
			}
			return get(p.Source).Get(lang), nil
		},
	}
}

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	photoType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Photo",
		Fields: graphql.Fields{
			"url":    &graphql.Field{Type: graphql.String},
			"width":  &graphql.Field{Type: graphql.Int},
			"height": &graphql.Field{Type: graphql.Int},
		},
	})

	topoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "TopoPoint",
		Fields: graphql.Fields{
			"x": &graphql.Field{Type: graphql.Float},
			"y": &graphql.Field{Type: graphql.Float},
		},
	})

	cityType := graphql.NewObject(graphql.ObjectConfig{
		Name: "City",
		Fields: graphql.Fields{
			"id":       &graphql.Field{Type: graphql.String},
			"slug":     &graphql.Field{Type: graphql.String},
			"name":     localizedField(func(s any) domain.Localized { return asCity(s).Name }),
			"country":  &graphql.Field{Type: graphql.String},
			"location": &graphql.Field{Type: geoPointType},
		},
	})

	routeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Route",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.String},
			"crag_id":     &graphql.Field{Type: graphql.String},
			"slug":        &graphql.Field{Type: graphql.String},
			"name":        &graphql.Field{Type: graphql.String},
			"grade":       &graphql.Field{Type: graphql.String},
			"description": localizedField(func(s any) domain.Localized { return asRoute(s).Description }),
			"photo":       &graphql.Field{Type: photoType},
			"topo_line":   &graphql.Field{Type: graphql.NewList(topoPointType)},
			"color": &graphql.Field{
				Type:        graphql.String,
				Description: "Grade colour band used to draw the line",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return topo.GradeColor(asRoute(p.Source).Grade), nil
				},
			},
			"topo_path": &graphql.Field{
				Type:        graphql.String,
				Description: "SVG path data of the line in the photo viewBox; null when not annotated",
				Args: graphql.FieldConfigArgument{
					"tension": &graphql.ArgumentConfig{Type: graphql.Float},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					r := asRoute(p.Source)
					if !r.TopoLine.Annotated() {
						return nil, nil
					}
					tension := 0.5
					if deps.Topo != nil {
						tension = deps.Topo.Settings().Tension
					}
					if t, ok := p.Args["tension"].(float64); ok {
						tension = t
					}
					vb := topo.ViewBoxFor(topo.PhotoAspect(r.Photo))
					return topo.BuildPath(topo.Scale(r.TopoLine, vb), tension), nil
				},
			},
		},
	})

	cragType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Crag",
		Fields: graphql.Fields{
			"id":               &graphql.Field{Type: graphql.String},
			"slug":             &graphql.Field{Type: graphql.String},
			"city_id":          &graphql.Field{Type: graphql.String},
			"name":             localizedField(func(s any) domain.Localized { return asCrag(s).Name }),
			"description":      localizedField(func(s any) domain.Localized { return asCrag(s).Description }),
			"location":         &graphql.Field{Type: geoPointType},
			"approach_minutes": &graphql.Field{Type: graphql.Int},
			"photo":            &graphql.Field{Type: photoType},
			"distance":         &graphql.Field{Type: graphql.Float},
			"routes": &graphql.Field{
				Type: graphql.NewList(routeType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Routes.ListByCrag(p.Context, asCrag(p.Source).ID)
				},
			},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"cities": &graphql.Field{
				Type:        graphql.NewList(cityType),
				Description: "List all cities",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Cities.List(p.Context)
				},
			},
			"crags": &graphql.Field{
				Type:        graphql.NewList(cragType),
				Description: "List the crags of a city",
				Args: graphql.FieldConfigArgument{
					"city": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					city, err := deps.Cities.GetBySlug(p.Context, p.Args["city"].(string))
					if err != nil {
						return nil, err
					}
					return deps.Crags.ListByCity(p.Context, city.ID)
				},
			},
			"crag": &graphql.Field{
				Type:        cragType,
				Description: "Get a crag by slug",
				Args: graphql.FieldConfigArgument{
					"slug": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Crags.GetBySlug(p.Context, p.Args["slug"].(string))
				},
			},
			"cragsNearby": &graphql.Field{
				Type:        graphql.NewList(cragType),
				Description: "Find crags near a location",
				Args: graphql.FieldConfigArgument{
					"lat":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"radius": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 25000.0},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					lat := p.Args["lat"].(float64)
					lon := p.Args["lon"].(float64)
					radius := p.Args["radius"].(float64)
					limit := p.Args["limit"].(int)
					return deps.Crags.FindNearby(p.Context, lat, lon, radius, limit)
				},
			},
			"searchCrags": &graphql.Field{
				Type:        graphql.NewList(cragType),
				Description: "Search crags by name in any language",
				Args: graphql.FieldConfigArgument{
					"query": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Crags.Search(p.Context, p.Args["query"].(string), p.Args["limit"].(int))
				},
			},
			"route": &graphql.Field{
				Type:        routeType,
				Description: "Get a route by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Routes.GetByID(p.Context, p.Args["id"].(string))
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

func asCity(src any) *domain.City {
	switch v := src.(type) {
	case *domain.City:
		return v
	case domain.City:
		return &v
	}
	return &domain.City{}
}

func asCrag(src any) *domain.Crag {
	switch v := src.(type) {
	case *domain.Crag:
		return v
	case domain.Crag:
		return &v
	}
	return &domain.Crag{}
}

func asRoute(src any) *domain.Route {
	switch v := src.(type) {
	case *domain.Route:
		return v
	case domain.Route:
		return &v
	}
	return &domain.Route{}
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		ctx := context.WithValue(c.UserContext(), langKey, requestLang(c))
		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        ctx,
		})

		return c.JSON(result)
	}
}
