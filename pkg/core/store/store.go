// Package store persists securities and saved valuation scenarios.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"reverse_dcf/pkg/models"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// Scenario is a saved set of overrides with the report it produced.
// Report is kept as opaque JSON.
type Scenario struct {
	ID        string           `json:"id"`
	Ticker    string           `json:"ticker"`
	Name      string           `json:"name"`
	Overrides models.Overrides `json:"overrides"`
	Report    json.RawMessage  `json:"report,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// Store is the persistence boundary used by the transport and ingest layers.
type Store interface {
	UpsertSecurity(ctx context.Context, sec models.Security) error
	GetSecurity(ctx context.Context, ticker string) (models.Security, error)
	ListSecurities(ctx context.Context) ([]models.Security, error)

	// SaveScenario assigns ID and CreatedAt when empty and returns the
	// stored record.
	SaveScenario(ctx context.Context, sc Scenario) (Scenario, error)
	GetScenario(ctx context.Context, id string) (Scenario, error)
	// ListScenarios returns newest first; an empty ticker lists all.
	ListScenarios(ctx context.Context, ticker string) ([]Scenario, error)
	DeleteScenario(ctx context.Context, id string) error
}
