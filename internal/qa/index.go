package qa

import (
	"encoding/gob"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
)

type chunk struct {
	Source string
	Text   string
	Vector []float32
}

// index is the searchable embedding store. The whole corpus fits in memory,
// so it is persisted as a single gob file under the cache directory.
type index struct {
	Model  string
	Hashes map[string]string
	Chunks []chunk
}

func newIndex(model string) *index {
	return &index{
		Model:  model,
		Hashes: make(map[string]string),
	}
}

func (ix *index) ready() bool {
	return ix != nil && len(ix.Chunks) > 0
}

func (ix *index) hasSource(source string) bool {
	for _, c := range ix.Chunks {
		if c.Source == source {
			return true
		}
	}
	return false
}

// clone returns a copy with its own hash map and chunk slice, safe to
// mutate while readers keep searching the original snapshot.
func (ix *index) clone() *index {
	c := &index{
		Model:  ix.Model,
		Hashes: make(map[string]string, len(ix.Hashes)),
		Chunks: make([]chunk, len(ix.Chunks)),
	}
	for path, hash := range ix.Hashes {
		c.Hashes[path] = hash
	}
	copy(c.Chunks, ix.Chunks)
	return c
}

func (ix *index) removeSource(source string) {
	kept := ix.Chunks[:0]
	for _, c := range ix.Chunks {
		if c.Source != source {
			kept = append(kept, c)
		}
	}
	ix.Chunks = kept
}

type scoredChunk struct {
	chunk
	Score float64
}

// search returns the k chunks most similar to the query vector, best first.
func (ix *index) search(vector []float32, k int) []scoredChunk {
	scored := make([]scoredChunk, 0, len(ix.Chunks))
	for _, c := range ix.Chunks {
		scored = append(scored, scoredChunk{chunk: c, Score: cosine(vector, c.Vector)})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if k > 0 && len(scored) > k {
		scored = scored[:k]
	}
	return scored
}

func cosine(a, b []float32) float64 {
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

func saveIndex(path string, ix *index) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("error creating cache directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating index file: %w", err)
	}
	defer f.Close()

	if err := gob.NewEncoder(f).Encode(ix); err != nil {
		return fmt.Errorf("error encoding index: %w", err)
	}
	return nil
}

func loadIndex(path string) (*index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ix := &index{}
	if err := gob.NewDecoder(f).Decode(ix); err != nil {
		return nil, fmt.Errorf("error decoding index: %w", err)
	}
	if ix.Hashes == nil {
		ix.Hashes = make(map[string]string)
	}
	return ix, nil
}
