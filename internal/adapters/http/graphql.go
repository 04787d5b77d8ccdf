package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/wayfinder/internal/core/domain"
	"github.com/samirrijal/wayfinder/internal/core/ports"
	"github.com/samirrijal/wayfinder/internal/core/usecases"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	locationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Location",
		Fields: graphql.Fields{
			"lat":          &graphql.Field{Type: graphql.Float},
			"lng":          &graphql.Field{Type: graphql.Float},
			"display_name": &graphql.Field{Type: graphql.String},
		},
	})

	poiType := graphql.NewObject(graphql.ObjectConfig{
		Name: "POI",
		Fields: graphql.Fields{
			"id":                      &graphql.Field{Type: graphql.String},
			"name":                    &graphql.Field{Type: graphql.String},
			"category":                &graphql.Field{Type: graphql.String},
			"lat":                     &graphql.Field{Type: graphql.Float},
			"lng":                     &graphql.Field{Type: graphql.Float},
			"distance":                &graphql.Field{Type: graphql.Float},
			"travel_time_from_anchor": &graphql.Field{Type: graphql.Float},
			"distance_from_anchor":    &graphql.Field{Type: graphql.Float},
		},
	})

	entitiesType := graphql.NewObject(graphql.ObjectConfig{
		Name: "QueryEntities",
		Fields: graphql.Fields{
			"primary_poi":     &graphql.Field{Type: graphql.String},
			"secondary_poi":   &graphql.Field{Type: graphql.String},
			"transport":       &graphql.Field{Type: graphql.String},
			"time_constraint": &graphql.Field{Type: graphql.Int},
			"cuisine":         &graphql.Field{Type: graphql.String},
			"destination":     &graphql.Field{Type: graphql.String},
			"keywords":        &graphql.Field{Type: graphql.NewList(graphql.String)},
		},
	})

	classificationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Classification",
		Fields: graphql.Fields{
			"intent":           &graphql.Field{Type: graphql.String},
			"complexity":       &graphql.Field{Type: graphql.String},
			"entities":         &graphql.Field{Type: entitiesType},
			"requires_context": &graphql.Field{Type: graphql.Boolean},
			"confidence":       &graphql.Field{Type: graphql.Float},
			"source":           &graphql.Field{Type: graphql.String},
		},
	})

	nearestType := graphql.NewObject(graphql.ObjectConfig{
		Name: "NearestPOIResult",
		Fields: graphql.Fields{
			"best":         &graphql.Field{Type: poiType},
			"alternatives": &graphql.Field{Type: graphql.NewList(poiType)},
			"strategy":     &graphql.Field{Type: graphql.String},
		},
	})

	withinTimeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "WithinTimeResult",
		Fields: graphql.Fields{
			"pois":     &graphql.Field{Type: graphql.NewList(poiType)},
			"warnings": &graphql.Field{Type: graphql.NewList(graphql.String)},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"classify": &graphql.Field{
				Type:        classificationType,
				Description: "Classify a natural-language query",
				Args: graphql.FieldConfigArgument{
					"query": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					q := p.Args["query"].(string)
					return deps.Classifier.Classify(p.Context, q, nil)
				},
			},
			"nearestPoi": &graphql.Field{
				Type:        nearestType,
				Description: "Find the closest place of a category",
				Args: graphql.FieldConfigArgument{
					"lat":      &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lng":      &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"category": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"cuisine":  &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.POIs.FindNearest(p.Context, usecases.NearestPOIInput{
						Origin: domain.Location{
							Lat: p.Args["lat"].(float64),
							Lng: p.Args["lng"].(float64),
						},
						Category: domain.POICategory(p.Args["category"].(string)),
						Cuisine:  p.Args["cuisine"].(string),
					})
				},
			},
			"poisWithinTime": &graphql.Field{
				Type:        withinTimeType,
				Description: "Find places reachable within a travel-time budget",
				Args: graphql.FieldConfigArgument{
					"lat":       &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lng":       &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"category":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"minutes":   &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 15},
					"transport": &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: "walking"},
					"cuisine":   &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
					"limit":     &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.POIs.FindWithinTime(p.Context, usecases.WithinTimeInput{
						Origin: domain.Location{
							Lat: p.Args["lat"].(float64),
							Lng: p.Args["lng"].(float64),
						},
						Category:   domain.POICategory(p.Args["category"].(string)),
						Transport:  domain.TransportMode(p.Args["transport"].(string)),
						Minutes:    p.Args["minutes"].(int),
						Cuisine:    p.Args["cuisine"].(string),
						MaxResults: p.Args["limit"].(int),
					})
				},
			},
			"geocode": &graphql.Field{
				Type:        graphql.NewList(locationType),
				Description: "Resolve free text to coordinates",
				Args: graphql.FieldConfigArgument{
					"query": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 1},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Geocoder.Geocode(p.Context, p.Args["query"].(string), ports.GeocodeOptions{
						Limit: p.Args["limit"].(int),
					})
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
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.Context(),
		})

		return c.JSON(result)
	}
}
