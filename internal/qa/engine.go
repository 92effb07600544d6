// Package qa answers customer questions from the store's documents using
// an embedding index and a chat completion model.
package qa

import (
	"context"
	"errors"
)

// ErrNotReady is returned by Answer when no document index has been built
// or loaded yet.
var ErrNotReady = errors.New("no document index available")

// Engine is the question-answering boundary. Implementations wrap the
// external embedding and completion services so tests can substitute fakes.
type Engine interface {
	// Ingest extracts text from the given documents and folds them into the
	// embedding index. A failing document is recorded and skipped; it never
	// aborts the batch.
	Ingest(ctx context.Context, paths []string) (*IngestResult, error)

	// Answer retrieves the most similar passages and asks the language model
	// for a grounded reply. Fails with ErrNotReady before any ingestion.
	Answer(ctx context.Context, question string) (*Answer, error)

	// Reset discards the in-memory and on-disk index.
	Reset() error
}

// IngestResult reports the outcome of one ingestion batch.
type IngestResult struct {
	Ingested []string
	// Skipped lists documents whose content hash was unchanged; they are
	// served from the cached index without new embedding calls.
	Skipped []string
	Failed  []IngestFailure
}

type IngestFailure struct {
	Path   string
	Reason string
}

// Answer is one generated reply with its retrieval metadata.
type Answer struct {
	Text    string
	Score   float64
	Sources []string
	// Suggestions holds follow-up questions, populated when Score falls
	// below the configured quality threshold.
	Suggestions []string
}
