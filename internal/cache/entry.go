package cache

import (
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/blake2b"
)

// Entry is the cbor-encoded payload stored per (kind, path): which Vars a
// source produced the last time it was analyzed and evaluated under a
// given content hash. Re-deriving a live Var's root (a closure, an atom, a
// multimethod table) from a serialized form would mean a second general
// Value serializer, so this cache stores names only. A hit lets a caller
// know a source is unchanged; no caller skips reading, parsing or
// evaluating on a hit (see DESIGN.md).
type Entry struct {
	VarNames   []string
	AnalyzedAt int64
}

// Fingerprint hashes data with blake2b-256, used to validate or invalidate
// a cached entry against the embedded core library or a load-path source
// file's current bytes.
func Fingerprint(data []byte) string {
	sum := blake2b.Sum256(data)
	return fmt.Sprintf("%x", sum)
}

// Get returns the cached Entry for (kind, path) if its stored content hash
// still matches contentHash, and ok=false on any miss (absent, hash
// mismatch, or a decode error treated as a miss rather than a failure).
func (s *Store) Get(kind, path, contentHash string) (*Entry, bool) {
	var storedHash string
	var payload []byte
	row := s.db.QueryRow("SELECT content_hash, payload FROM cache_entries WHERE kind = ? AND path = ?", kind, path)
	if err := row.Scan(&storedHash, &payload); err != nil {
		return nil, false
	}
	if storedHash != contentHash {
		return nil, false
	}
	var e Entry
	if err := cbor.Unmarshal(payload, &e); err != nil {
		return nil, false
	}
	return &e, true
}

// Put records (or replaces) the cache entry for (kind, path).
func (s *Store) Put(kind, path, contentHash string, e *Entry) error {
	e.AnalyzedAt = time.Now().Unix()
	payload, err := cbor.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	_, err = s.db.Exec(`INSERT INTO cache_entries (kind, path, content_hash, payload, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(kind, path) DO UPDATE SET content_hash=excluded.content_hash, payload=excluded.payload, updated_at=excluded.updated_at`,
		kind, path, contentHash, payload, e.AnalyzedAt)
	if err != nil {
		return fmt.Errorf("store cache entry: %w", err)
	}
	return nil
}
