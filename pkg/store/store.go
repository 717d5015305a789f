// Package store persists named graph scenarios.
//
// A scenario is a saved resource allocation graph (as a graphio.Record)
// with an identifier and a display name, used as the library behind the
// HTTP API and the scenario CLI commands. Four backends are provided:
//   - MemoryStore: in-memory map for development and tests
//   - FileStore: one JSON file per scenario, for local CLI use
//   - RedisStore: Redis-backed storage for server deployments
//   - MongoStore: MongoDB-backed storage for server deployments
//
// All backends implement [Store] and report a missing scenario with
// [ErrNotFound].
package store

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/deadlocklab/ragsim/pkg/graphio"
)

// ErrNotFound is returned when a scenario does not exist in the store.
var ErrNotFound = errors.New("scenario not found")

// Scenario is a saved graph with identity and timestamps.
type Scenario struct {
	ID        string         `json:"id" bson:"_id"`
	Name      string         `json:"name" bson:"name"`
	Record    graphio.Record `json:"record" bson:"record"`
	CreatedAt time.Time      `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" bson:"updated_at"`
}

// Store is the interface all scenario backends implement.
type Store interface {
	// Get retrieves a scenario by ID. Returns ErrNotFound if absent.
	Get(ctx context.Context, id string) (*Scenario, error)

	// Put stores a scenario, overwriting any existing one with the same ID.
	// An empty ID is assigned a fresh UUID; timestamps are maintained by
	// the store. The scenario is updated in place with the assigned values.
	Put(ctx context.Context, sc *Scenario) error

	// Delete removes a scenario. Returns ErrNotFound if absent.
	Delete(ctx context.Context, id string) error

	// List returns all scenarios sorted by name then ID.
	List(ctx context.Context) ([]Scenario, error)

	// Close releases any backend connections.
	Close() error
}

// stamp fills in identity and timestamps before a Put.
func stamp(sc *Scenario) {
	now := time.Now().UTC()
	if sc.ID == "" {
		sc.ID = uuid.NewString()
		sc.CreatedAt = now
	}
	if sc.CreatedAt.IsZero() {
		sc.CreatedAt = now
	}
	sc.UpdatedAt = now
}

// sortScenarios orders scenarios by name, falling back to ID.
func sortScenarios(scs []Scenario) {
	slices.SortFunc(scs, func(a, b Scenario) int {
		if a.Name != b.Name {
			return strings.Compare(a.Name, b.Name)
		}
		return strings.Compare(a.ID, b.ID)
	})
}
