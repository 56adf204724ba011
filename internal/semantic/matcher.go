// Package semantic extends detection beyond exact lexicon matches: words
// whose embedding is close enough to any lexicon term are flagged as
// semantic candidates. The feature degrades to an empty result set when no
// embedding backend is available; it never fails an analysis run.
package semantic

import (
	"context"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/reqclarity/reqclarity/internal/cache"
	"github.com/reqclarity/reqclarity/internal/detect"
	"github.com/reqclarity/reqclarity/internal/lexicon"
	"github.com/reqclarity/reqclarity/internal/model"
)

// DefaultThreshold is the cosine similarity cutoff for a semantic match
const DefaultThreshold = 0.85

// minTokenLength: tokens of this length or shorter are skipped to reduce
// noise. Short ambiguous terms ("ok") are therefore never semantic
// candidates; they can still match exactly via the lexicon.
const minTokenLength = 2

// Embedder is the embedding capability the matcher needs
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	SupportsEmbeddings() bool
}

// Matcher finds words semantically similar to lexicon terms
type Matcher struct {
	embedder  Embedder
	lexicon   *lexicon.Manager
	cache     cache.EmbeddingCache
	threshold float64
	verbose   bool
}

// NewMatcher creates a matcher. embedder may be nil; the matcher then
// reports Available() == false and returns empty results for every call.
func NewMatcher(embedder Embedder, lex *lexicon.Manager, threshold float64, cacheTTL time.Duration) *Matcher {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Matcher{
		embedder:  embedder,
		lexicon:   lex,
		cache:     cache.NewMemoryCache(cacheTTL),
		threshold: threshold,
	}
}

// SetVerbose enables progress output to stderr
func (m *Matcher) SetVerbose(v bool) {
	m.verbose = v
}

// Available reports whether the embedding backend is usable. Callers can
// proceed in lexicon-only mode when it is not.
func (m *Matcher) Available() bool {
	return m.embedder != nil && m.embedder.SupportsEmbeddings()
}

// FindSimilar scans text for words semantically similar to the effective
// lexicon of the owner scope. threshold <= 0 uses the matcher default.
// Exact lexicon matches are skipped unless includeExact is set.
func (m *Matcher) FindSimilar(ctx context.Context, text, owner string, threshold float64, includeExact bool) ([]model.CandidateTerm, error) {
	if !m.Available() {
		return nil, nil
	}
	if threshold <= 0 {
		threshold = m.threshold
	}

	terms, err := m.lexicon.Effective(owner)
	if err != nil {
		return nil, fmt.Errorf("load lexicon: %w", err)
	}
	if len(terms) == 0 {
		return nil, nil
	}

	embeddings, err := m.lexiconEmbeddings(ctx, terms)
	if err != nil {
		return nil, fmt.Errorf("lexicon embeddings: %w", err)
	}

	inLexicon := make(map[string]bool, len(terms))
	for _, t := range terms {
		inLexicon[t] = true
	}

	var results []model.CandidateTerm
	for _, token := range detect.Tokenize(text, minTokenLength) {
		word := strings.ToLower(token.Term)

		if inLexicon[word] {
			if includeExact {
				results = append(results, model.CandidateTerm{
					Term:               token.Term,
					PositionStart:      token.PositionStart,
					PositionEnd:        token.PositionEnd,
					DetectionMethod:    model.DetectionLexiconExact,
					MatchedLexiconTerm: word,
					SimilarityScore:    1.0,
				})
			}
			continue
		}

		bestTerm, bestScore, err := m.mostSimilar(ctx, word, terms, embeddings)
		if err != nil {
			// Skip this word if its embedding fails; the rest of the scan continues
			if m.verbose {
				fmt.Fprintf(os.Stderr, "Warning: similarity for %q failed: %v\n", word, err)
			}
			continue
		}

		if bestTerm != "" && bestScore >= threshold {
			results = append(results, model.CandidateTerm{
				Term:               token.Term,
				PositionStart:      token.PositionStart,
				PositionEnd:        token.PositionEnd,
				DetectionMethod:    model.DetectionSemanticSimilarity,
				MatchedLexiconTerm: bestTerm,
				SimilarityScore:    bestScore,
			})
		}
	}

	return results, nil
}

// ClearCache drops all cached lexicon embedding snapshots
func (m *Matcher) ClearCache() {
	m.cache.Clear()
}

// lexiconEmbeddings returns the embedding snapshot for the given (already
// sorted) term set, computing and caching it on first use. The key includes
// the lexicon generation, so a mutated lexicon gets a fresh snapshot.
func (m *Matcher) lexiconEmbeddings(ctx context.Context, sortedTerms []string) (cache.Embeddings, error) {
	key := cache.SnapshotKey(m.lexicon.Generation(), sortedTerms)
	if snapshot, ok := m.cache.Get(key); ok {
		return snapshot, nil
	}

	if m.verbose {
		fmt.Fprintf(os.Stderr, "Computing embeddings for %d lexicon terms...\n", len(sortedTerms))
	}

	snapshot := make(cache.Embeddings, len(sortedTerms))
	for _, term := range sortedTerms {
		vec, err := m.embedder.Embed(ctx, term)
		if err != nil {
			if m.verbose {
				fmt.Fprintf(os.Stderr, "Warning: could not embed term %q: %v\n", term, err)
			}
			continue
		}
		snapshot[term] = vec
	}
	if len(snapshot) == 0 {
		return nil, fmt.Errorf("no lexicon term could be embedded")
	}

	m.cache.Set(key, snapshot)
	return snapshot, nil
}

// mostSimilar returns the lexicon term with the highest cosine similarity to
// word. Terms are compared in sorted order, and only a strictly greater
// score replaces the best match, so ties resolve deterministically to the
// first term in sort order.
func (m *Matcher) mostSimilar(ctx context.Context, word string, sortedTerms []string, embeddings cache.Embeddings) (string, float64, error) {
	wordVec, err := m.embedder.Embed(ctx, word)
	if err != nil {
		return "", 0, err
	}

	bestTerm := ""
	bestScore := 0.0
	for _, term := range sortedTerms {
		termVec, ok := embeddings[term]
		if !ok {
			continue
		}
		if score := CosineSimilarity(wordVec, termVec); score > bestScore {
			bestScore = score
			bestTerm = term
		}
	}
	return bestTerm, bestScore, nil
}

// CosineSimilarity computes dot(a,b) / (||a|| * ||b||). Mismatched lengths
// or a zero-norm vector yield 0.0, never a division by zero.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
