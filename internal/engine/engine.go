// Package engine holds the decision-tracks core: the synchronous recorder
// that observes each tool call, the background pattern analyzer that turns
// a completed run's observations into graph and workflow knowledge, and
// the read-only query service.
package engine

import (
	"github.com/lazypower/tracks/internal/store"
)

// Engine orchestrates track recording, pattern analysis, and queries.
type Engine struct {
	DB *store.DB
}

// New creates a new Engine over the given store.
func New(db *store.DB) *Engine {
	return &Engine{DB: db}
}
