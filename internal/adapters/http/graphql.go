package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/sacredsites/internal/core/domain"
)

// facetArgs are the facet arguments accepted by list queries.
var facetArgs = graphql.FieldConfigArgument{
	"category":  &graphql.ArgumentConfig{Type: graphql.String},
	"site_type": &graphql.ArgumentConfig{Type: graphql.String},
	"province":  &graphql.ArgumentConfig{Type: graphql.String},
	"county":    &graphql.ArgumentConfig{Type: graphql.String},
	"saint":     &graphql.ArgumentConfig{Type: graphql.String},
	"century":   &graphql.ArgumentConfig{Type: graphql.String},
}

func stateFromArgs(args map[string]any) domain.FilterState {
	state := domain.FilterState{}
	for name, v := range args {
		s, ok := v.(string)
		if !ok || s == "" {
			continue
		}
		if f, ok := domain.ParseFacetName(name); ok {
			state[f] = s
		}
	}
	return state
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

	siteType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Site",
		Fields: graphql.Fields{
			"id":    &graphql.Field{Type: graphql.String},
			"title": &graphql.Field{Type: graphql.String},
			"category": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return string(p.Source.(domain.Site).Category), nil
				},
			},
			"category_label": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return p.Source.(domain.Site).Category.Label(), nil
				},
			},
			"counties":   &graphql.Field{Type: graphql.NewList(graphql.String)},
			"saints":     &graphql.Field{Type: graphql.NewList(graphql.String)},
			"centuries":  &graphql.Field{Type: graphql.NewList(graphql.String)},
			"location":   &graphql.Field{Type: geoPointType},
			"permalink":  &graphql.Field{Type: graphql.String},
			"excerpt":    &graphql.Field{Type: graphql.String},
			"thumbnail":  &graphql.Field{Type: graphql.String},
			"provenance": &graphql.Field{Type: graphql.String},
			"distance":   &graphql.Field{Type: graphql.Float},
		},
	})

	facetOptionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "FacetOption",
		Fields: graphql.Fields{
			"value": &graphql.Field{Type: graphql.String},
			"label": &graphql.Field{Type: graphql.String},
			"count": &graphql.Field{Type: graphql.Int},
		},
	})

	provinceType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Province",
		Fields: graphql.Fields{
			"slug":     &graphql.Field{Type: graphql.String},
			"name":     &graphql.Field{Type: graphql.String},
			"counties": &graphql.Field{Type: graphql.NewList(graphql.String)},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"sites": &graphql.Field{
				Type:        graphql.NewList(siteType),
				Description: "Sites matching every given facet",
				Args:        facetArgs,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return deps.Sites.List(p.Context, stateFromArgs(p.Args))
				},
			},
			"site": &graphql.Field{
				Type:        siteType,
				Description: "Get a site by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					site, err := deps.Sites.Get(p.Context, p.Args["id"].(string))
					if err != nil {
						return nil, err
					}
					return *site, nil
				},
			},
			"sitesNearby": &graphql.Field{
				Type:        graphql.NewList(siteType),
				Description: "Find sites near a location",
				Args: graphql.FieldConfigArgument{
					"lat":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"radius": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 5000.0},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					lat := p.Args["lat"].(float64)
					lon := p.Args["lon"].(float64)
					radius := p.Args["radius"].(float64)
					limit := p.Args["limit"].(int)
					return deps.Sites.FindNearby(p.Context, lat, lon, radius, limit)
				},
			},
			"facetOptions": &graphql.Field{
				Type:        graphql.NewList(facetOptionType),
				Description: "Selectable values of a facet with site counts",
				Args: graphql.FieldConfigArgument{
					"facet": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					facet, _ := domain.ParseFacetName(p.Args["facet"].(string))
					return deps.Facets.FetchFacetOptions(p.Context, facet)
				},
			},
			"provinces": &graphql.Field{
				Type:        graphql.NewList(provinceType),
				Description: "The province table",
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return domain.Provinces, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string         `json:"query"`
		OperationName string         `json:"operationName"`
		Variables     map[string]any `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
