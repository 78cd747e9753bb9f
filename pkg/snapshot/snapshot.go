// Package snapshot persists the most recently rendered viewer page.
//
// A [Snapshot] pairs the HTML page with the graph and source it was built
// from. The viewer server reads the latest snapshot on every page request,
// so a re-render is visible as soon as it is stored.
//
// Backends:
//   - [MemoryStore]: process memory, for tests and one-shot servers
//   - [FileStore]: index.html and graph.json in an output directory
//   - [MongoStore]: a MongoDB collection keeping every snapshot as history
package snapshot

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/hdlviz/pkg/graph"
)

// ErrNotFound is returned when no snapshot is stored.
var ErrNotFound = errors.New("no snapshot")

// Snapshot is one rendered module.
type Snapshot struct {
	ID        string       `json:"id" bson:"_id"`
	Module    string       `json:"module" bson:"module"`
	Source    string       `json:"source,omitempty" bson:"source,omitempty"`
	HTML      []byte       `json:"-" bson:"html"`
	Graph     *graph.Graph `json:"graph,omitempty" bson:"graph,omitempty"`
	CreatedAt time.Time    `json:"created_at" bson:"created_at"`
}

// New creates a snapshot with a fresh ID and the current time.
func New(module string, source, html []byte, g *graph.Graph) *Snapshot {
	return &Snapshot{
		ID:        uuid.NewString(),
		Module:    module,
		Source:    string(source),
		HTML:      html,
		Graph:     g,
		CreatedAt: time.Now().UTC(),
	}
}

// Store persists snapshots.
type Store interface {
	// Put stores s as the latest snapshot.
	Put(ctx context.Context, s *Snapshot) error

	// Latest returns the newest snapshot, or ErrNotFound.
	Latest(ctx context.Context) (*Snapshot, error)

	// Clear withdraws the latest page so viewers see nothing.
	Clear(ctx context.Context) error

	// Close releases the store's resources.
	Close() error
}
