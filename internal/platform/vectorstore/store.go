// Package vectorstore implements the Component B vector index on top of
// SQLite: a plain table holds every vector as the source of truth (and the
// brute-force cosine fallback), and, when the sqlite-vec extension loads
// successfully, a parallel vec0 virtual table per entity class gives
// approximate-nearest-neighbour search. The two paths always agree because
// every write goes through both.
package vectorstore

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/andreypavlenko/talentgraph/internal/kgerrors"
	"github.com/andreypavlenko/talentgraph/modules/knowledgegraph/ports"
	"github.com/google/uuid"

	_ "github.com/mattn/go-sqlite3"
)

// namespace is the fixed UUID namespace embedding records are derived from,
// so uuid5(class+":"+profile_id) is deterministic across processes.
var namespace = uuid.MustParse("5b6a6c0a-6f2a-4a9a-9a0a-2f6e0f3a9c11")

// classes enumerates the four entity classes this store indexes.
var classes = []string{"candidate", "team", "interviewer", "position"}

// Store is a sqlite-backed VectorIndex. It is safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	db        *sql.DB
	dim       int
	vecExt    bool
}

// Open opens (or creates) the sqlite database at path and prepares the base
// table plus, if the sqlite-vec extension is available, one vec0 table per
// class. dim is the fixed embedding dimension for this process.
func Open(path string, dim int) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &Store{db: db, dim: dim}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS vectors (
			id TEXT PRIMARY KEY,
			class TEXT NOT NULL,
			profile_id TEXT NOT NULL,
			tenant_id TEXT NOT NULL,
			vector BLOB NOT NULL,
			metadata TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			UNIQUE(class, profile_id)
		)
	`); err != nil {
		return nil, fmt.Errorf("create vectors table: %w", err)
	}
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_vectors_class_tenant ON vectors(class, tenant_id)`); err != nil {
		return nil, fmt.Errorf("create vectors index: %w", err)
	}

	s.initVecTables(dim)

	return s, nil
}

// initVecTables attempts to create one vec0 virtual table per class. If the
// sqlite-vec extension isn't registered (no cgo build tag, or the binding
// wasn't linked), each CREATE fails and the store silently stays on the
// brute-force path — the documented degraded-index behavior.
func (s *Store) initVecTables(dim int) {
	ok := true
	for _, class := range classes {
		stmt := fmt.Sprintf(
			"CREATE VIRTUAL TABLE IF NOT EXISTS vec_%s USING vec0(embedding float[%d], profile_id TEXT, tenant_id TEXT)",
			class, dim,
		)
		if _, err := s.db.Exec(stmt); err != nil {
			ok = false
		}
	}
	s.vecExt = ok
}

func (s *Store) Close() error {
	return s.db.Close()
}

func recordID(class, profileID string) string {
	return uuid.NewSHA1(namespace, []byte(class+":"+profileID)).String()
}

func encodeVector(v []float32) []byte {
	buf := &bytes.Buffer{}
	_ = binary.Write(buf, binary.LittleEndian, v)
	return buf.Bytes()
}

func decodeVector(b []byte) []float32 {
	v := make([]float32, len(b)/4)
	_ = binary.Read(bytes.NewReader(b), binary.LittleEndian, &v)
	return v
}

func cosineSimilarity(a, b []float32) float64 {
	var dot, na, nb float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Upsert is a skip-on-exists idempotent write: racing inserts for the same
// (class, profile_id) collapse into one row.
func (s *Store) Upsert(ctx context.Context, class, profileID, tenantID string, vector []float32, metadata json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := recordID(class, profileID)
	metaStr := "{}"
	if len(metadata) > 0 {
		metaStr = string(metadata)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO vectors (id, class, profile_id, tenant_id, vector, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(class, profile_id) DO NOTHING
	`, id, class, profileID, tenantID, encodeVector(vector), metaStr, time.Now().UTC())
	if err != nil {
		return kgerrors.Wrap(kgerrors.TransportError, "vector upsert failed", err)
	}

	if s.vecExt {
		_, _ = s.db.ExecContext(ctx, fmt.Sprintf(
			"INSERT OR IGNORE INTO vec_%s (rowid, embedding, profile_id, tenant_id) VALUES ((SELECT rowid FROM vectors WHERE id = ?), ?, ?, ?)",
			class,
		), id, encodeVector(vector), profileID, tenantID)
	}

	return nil
}

// Replace overwrites the vector and metadata for an existing record,
// used by update_X which must re-embed on every field update.
func (s *Store) Replace(ctx context.Context, class, profileID, tenantID string, vector []float32, metadata json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := recordID(class, profileID)
	metaStr := "{}"
	if len(metadata) > 0 {
		metaStr = string(metadata)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO vectors (id, class, profile_id, tenant_id, vector, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(class, profile_id) DO UPDATE SET vector = excluded.vector, metadata = excluded.metadata
	`, id, class, profileID, tenantID, encodeVector(vector), metaStr, time.Now().UTC())
	if err != nil {
		return kgerrors.Wrap(kgerrors.TransportError, "vector replace failed", err)
	}

	if s.vecExt {
		_, _ = s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM vec_%s WHERE profile_id = ? AND tenant_id = ?", class), profileID, tenantID)
		_, _ = s.db.ExecContext(ctx, fmt.Sprintf(
			"INSERT INTO vec_%s (rowid, embedding, profile_id, tenant_id) VALUES ((SELECT rowid FROM vectors WHERE id = ?), ?, ?, ?)",
			class,
		), id, encodeVector(vector), profileID, tenantID)
	}

	return nil
}

func (s *Store) FetchByID(ctx context.Context, class, profileID string, withVector bool) (*ports.VectorRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, class, profile_id, tenant_id, vector, metadata FROM vectors
		WHERE class = ? AND profile_id = ?
	`, class, profileID)

	var rec ports.VectorRecord
	var vecBlob []byte
	var metaStr string
	if err := row.Scan(&rec.ID, &rec.Class, &rec.ProfileID, &rec.TenantID, &vecBlob, &metaStr); err != nil {
		if err == sql.ErrNoRows {
			return nil, kgerrors.New(kgerrors.NotFound, "vector record not found")
		}
		return nil, kgerrors.Wrap(kgerrors.TransportError, "vector fetch failed", err)
	}
	rec.MetadataJSON = json.RawMessage(metaStr)
	if withVector {
		rec.Vector = decodeVector(vecBlob)
	}
	return &rec, nil
}

func (s *Store) Delete(ctx context.Context, class, profileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM vectors WHERE class = ? AND profile_id = ?`, class, profileID)
	if err != nil {
		return kgerrors.Wrap(kgerrors.TransportError, "vector delete failed", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return kgerrors.New(kgerrors.NotFound, "vector record not found")
	}
	if s.vecExt {
		_, _ = s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM vec_%s WHERE profile_id = ?", class), profileID)
	}
	return nil
}

func (s *Store) Scan(ctx context.Context, class string, limit int) ([]ports.VectorRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, class, profile_id, tenant_id, vector, metadata FROM vectors
		WHERE class = ? ORDER BY created_at ASC LIMIT ?
	`, class, limit)
	if err != nil {
		return nil, kgerrors.Wrap(kgerrors.TransportError, "vector scan failed", err)
	}
	defer rows.Close()

	var out []ports.VectorRecord
	for rows.Next() {
		var rec ports.VectorRecord
		var vecBlob []byte
		var metaStr string
		if err := rows.Scan(&rec.ID, &rec.Class, &rec.ProfileID, &rec.TenantID, &vecBlob, &metaStr); err != nil {
			return nil, kgerrors.Wrap(kgerrors.TransportError, "vector scan row failed", err)
		}
		rec.Vector = decodeVector(vecBlob)
		rec.MetadataJSON = json.RawMessage(metaStr)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Search returns the k nearest neighbours of queryVector in class, using
// the sqlite-vec ANN index when available and a brute-force scan otherwise.
// Both paths respect ctx's deadline; an elapsed deadline surfaces as a
// Timeout error so callers (notably the hybrid query engine) can fall back.
func (s *Store) Search(ctx context.Context, class string, queryVector []float32, k int) ([]ports.SearchResult, error) {
	if s.vecExt {
		res, err := s.searchVec(ctx, class, queryVector, k)
		if err == nil {
			return res, nil
		}
		if kgerrors.Is(err, kgerrors.Timeout) {
			return nil, err
		}
		// ANN path failed for a non-timeout reason: degrade to brute force.
	}
	return s.searchBruteForce(ctx, class, queryVector, k)
}

func (s *Store) searchVec(ctx context.Context, class string, queryVector []float32, k int) ([]ports.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if ctx.Err() != nil {
		return nil, kgerrors.New(kgerrors.Timeout, "vector search deadline exceeded")
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		"SELECT v.profile_id, v.tenant_id, vv.embedding, vec_distance_cosine(vv.embedding, ?) AS dist, v.metadata FROM vec_%s vv JOIN vectors v ON v.id = (SELECT id FROM vectors WHERE profile_id = vv.profile_id AND class = ? LIMIT 1) ORDER BY dist ASC LIMIT ?",
		class,
	), encodeVector(queryVector), class, k)
	if err != nil {
		if ctx.Err() != nil {
			return nil, kgerrors.New(kgerrors.Timeout, "vector search deadline exceeded")
		}
		return nil, kgerrors.Wrap(kgerrors.TransportError, "sqlite-vec search failed", err)
	}
	defer rows.Close()

	var out []ports.SearchResult
	for rows.Next() {
		var r ports.SearchResult
		var embedding []byte
		var metaStr string
		if err := rows.Scan(&r.ProfileID, &r.TenantID, &embedding, &r.Distance, &metaStr); err != nil {
			return nil, kgerrors.Wrap(kgerrors.TransportError, "sqlite-vec row scan failed", err)
		}
		r.MetadataJSON = json.RawMessage(metaStr)
		r.Similarity = 1 - r.Distance
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) searchBruteForce(ctx context.Context, class string, queryVector []float32, k int) ([]ports.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if ctx.Err() != nil {
		return nil, kgerrors.New(kgerrors.Timeout, "vector search deadline exceeded")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT profile_id, tenant_id, vector, metadata FROM vectors WHERE class = ?
	`, class)
	if err != nil {
		return nil, kgerrors.Wrap(kgerrors.TransportError, "brute-force search failed", err)
	}
	defer rows.Close()

	var candidates []ports.SearchResult
	for rows.Next() {
		if ctx.Err() != nil {
			rows.Close()
			return nil, kgerrors.New(kgerrors.Timeout, "vector search deadline exceeded")
		}
		var profileID, tenantID, metaStr string
		var vecBlob []byte
		if err := rows.Scan(&profileID, &tenantID, &vecBlob, &metaStr); err != nil {
			return nil, kgerrors.Wrap(kgerrors.TransportError, "brute-force row scan failed", err)
		}
		sim := cosineSimilarity(queryVector, decodeVector(vecBlob))
		candidates = append(candidates, ports.SearchResult{
			ProfileID:    profileID,
			TenantID:     tenantID,
			MetadataJSON: json.RawMessage(metaStr),
			Distance:     1 - sim,
			Similarity:   sim,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, kgerrors.Wrap(kgerrors.TransportError, "brute-force rows iteration failed", err)
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Similarity > candidates[j].Similarity })
	if k < len(candidates) {
		candidates = candidates[:k]
	}
	return candidates, nil
}

// SimilarAcrossTypes searches every class, the source's own included, for
// neighbours of the source record's vector, excluding the source id from
// its own class.
func (s *Store) SimilarAcrossTypes(ctx context.Context, class, profileID string, kPerClass int) (map[string][]ports.SearchResult, error) {
	src, err := s.FetchByID(ctx, class, profileID, true)
	if err != nil {
		return nil, err
	}

	out := make(map[string][]ports.SearchResult, len(classes))
	for _, other := range classes {
		res, err := s.Search(ctx, other, src.Vector, kPerClass+1)
		if err != nil {
			return nil, err
		}
		if other == class {
			filtered := make([]ports.SearchResult, 0, len(res))
			for _, r := range res {
				if r.ProfileID != profileID {
					filtered = append(filtered, r)
				}
			}
			if len(filtered) > kPerClass {
				filtered = filtered[:kPerClass]
			}
			res = filtered
		} else if len(res) > kPerClass {
			res = res[:kPerClass]
		}
		out[other] = res
	}
	return out, nil
}

var _ ports.VectorIndex = (*Store)(nil)
