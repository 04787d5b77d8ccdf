package http

import (
	"github.com/nats-io/nats.go"
	"github.com/samirrijal/wayfinder/internal/adapters/postgres"
	"github.com/samirrijal/wayfinder/internal/adapters/valkey"
	"github.com/samirrijal/wayfinder/internal/core/agents"
	"github.com/samirrijal/wayfinder/internal/core/classify"
	"github.com/samirrijal/wayfinder/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Orchestrator *agents.Orchestrator
	Classifier   *classify.Classifier
	POIs         *usecases.POIService
	Enroute      *usecases.EnrouteService
	Routes       *usecases.RouteService
	Geocoder     *usecases.GeocodeService
	NATS         *nats.Conn
	DB           *postgres.DB
	Cache        *valkey.Cache
}
