// Package cache provides the in-memory store for lexicon embedding
// snapshots. A snapshot is keyed by the lexicon generation plus a hash of
// the sorted term set, so a lexicon mutation makes the old snapshot
// unreachable without synchronous invalidation.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Embeddings maps a lexicon term to its embedding vector
type Embeddings map[string][]float32

// EmbeddingCache stores lexicon embedding snapshots
type EmbeddingCache interface {
	Get(key string) (Embeddings, bool)
	Set(key string, value Embeddings)
	Clear()
}

// SnapshotKey derives the cache key for a lexicon snapshot from its
// generation counter and sorted term set.
func SnapshotKey(generation uint64, sortedTerms []string) string {
	hash := sha256.Sum256([]byte(strings.Join(sortedTerms, ",")))
	return fmt.Sprintf("lexicon:%d:%s", generation, hex.EncodeToString(hash[:8]))
}
