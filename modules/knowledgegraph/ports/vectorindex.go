// Package ports defines the dependency-inversion boundary the knowledge
// graph service is built against: the vector index (Component B) and the
// embedding adapter (Component A) it drives.
package ports

import (
	"context"
	"encoding/json"
)

// VectorRecord is one row of a vector collection: exactly one embedding per
// (class, profile_id, tenant_id), keyed by the deterministic uuid5 of
// class+":"+profile_id.
type VectorRecord struct {
	ID         string
	Class      string
	ProfileID  string
	TenantID   string
	Vector     []float32
	MetadataJSON json.RawMessage
}

// SearchResult is one hit from a similarity search.
type SearchResult struct {
	ProfileID    string
	TenantID     string
	MetadataJSON json.RawMessage
	Distance     float64
	Similarity   float64
}

// VectorIndex is the Component B contract: one implementation backs all
// four entity classes (candidate, team, interviewer, position).
type VectorIndex interface {
	// Upsert idempotently writes a vector for (class, profileID). Concurrent
	// upserts with the same id converge to one record.
	Upsert(ctx context.Context, class, profileID, tenantID string, vector []float32, metadata json.RawMessage) error

	// Replace overwrites the vector for an existing (class, profileID),
	// used by update_X (§4.D) which re-embeds on every field update.
	Replace(ctx context.Context, class, profileID, tenantID string, vector []float32, metadata json.RawMessage) error

	// FetchByID returns the record, or a NotFound *kgerrors.Error.
	FetchByID(ctx context.Context, class, profileID string, withVector bool) (*VectorRecord, error)

	// Search returns the k nearest neighbours of queryVector within class,
	// ordered by descending similarity. Returns a Timeout *kgerrors.Error if
	// the configured deadline elapses.
	Search(ctx context.Context, class string, queryVector []float32, k int) ([]SearchResult, error)

	// Scan iterates up to limit records of class in insertion order.
	Scan(ctx context.Context, class string, limit int) ([]VectorRecord, error)

	// Delete removes a record, or returns NotFound.
	Delete(ctx context.Context, class, profileID string) error

	// SimilarAcrossTypes returns, for every class (the source's own
	// included), the top
	// kPerClass neighbours of the source record's vector, excluding the
	// source id from its own class's results.
	SimilarAcrossTypes(ctx context.Context, class, profileID string, kPerClass int) (map[string][]SearchResult, error)
}

// EmbeddingAdapter is the Component A contract.
type EmbeddingAdapter interface {
	// Embed returns a unit-norm vector of the adapter's fixed dimension for
	// the given entity class and JSON-encoded record. Identical normalized
	// input produces an identical vector.
	Embed(class string, record json.RawMessage) ([]float32, error)

	// Dim returns the fixed vector dimension this adapter produces.
	Dim() int
}
