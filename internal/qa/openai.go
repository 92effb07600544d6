package qa

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const indexFileName = "index.gob"

const answerPrompt = `Eres un asistente virtual amigable de un supermercado.
Usa la siguiente información para responder la pregunta del cliente de manera natural y conversacional.

Información disponible:
%s

Pregunta del cliente: %s

Instrucciones:
- Responde de manera amigable y natural
- Si la información no está disponible, indica que no cuentas con esa información
- Sugiere contactar al servicio al cliente si no puedes ayudar
- Mantén un tono profesional pero cercano

Respuesta:`

const serviceUnavailableText = "Lo siento, no puedo procesar tu consulta en este momento. " +
	"Por favor intenta de nuevo o contacta al servicio al cliente."

// Narrow views of the OpenAI client so tests can substitute fakes without
// network access.
type embeddingClient interface {
	CreateEmbeddings(ctx context.Context, conv openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
}

type completionClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Options configures the OpenAI-backed engine.
type Options struct {
	ChatModel        string
	EmbeddingModel   string
	MaxTokens        int
	Temperature      float64
	TopK             int
	QualityThreshold float64
	ChunkSize        int
	ChunkOverlap     int
	CacheDir         string
	RequestTimeout   time.Duration
}

func (o *Options) applyDefaults() {
	if o.ChatModel == "" {
		o.ChatModel = openai.GPT3Dot5Turbo
	}
	if o.EmbeddingModel == "" {
		o.EmbeddingModel = string(openai.SmallEmbedding3)
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = 1000
	}
	if o.TopK <= 0 {
		o.TopK = 3
	}
	if o.QualityThreshold <= 0 {
		o.QualityThreshold = 0.6
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = 1000
	}
	if o.ChunkOverlap <= 0 {
		o.ChunkOverlap = 200
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = 30 * time.Second
	}
}

// OpenAIEngine implements Engine on top of the OpenAI embeddings and chat
// completion APIs, with the index persisted under the cache directory.
type OpenAIEngine struct {
	embedder embeddingClient
	chat     completionClient
	opts     Options
	logger   *zap.Logger

	mu  sync.RWMutex
	idx *index
}

func NewOpenAIEngine(apiKey string, opts Options, logger *zap.Logger) *OpenAIEngine {
	opts.applyDefaults()
	client := openai.NewClient(apiKey)

	e := &OpenAIEngine{
		embedder: client,
		chat:     client,
		opts:     opts,
		logger:   logger,
	}

	if ix, err := loadIndex(e.indexPath()); err == nil {
		e.idx = ix
		logger.Info("Loaded cached document index",
			zap.Int("chunks", len(ix.Chunks)),
			zap.String("model", ix.Model))
	} else if !os.IsNotExist(err) {
		logger.Warn("Failed to load cached document index", zap.Error(err))
	}

	return e
}

func (e *OpenAIEngine) indexPath() string {
	return filepath.Join(e.opts.CacheDir, indexFileName)
}

func (e *OpenAIEngine) Ingest(ctx context.Context, paths []string) (*IngestResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	// Mutate a private copy and swap it in at the end. Answer works on the
	// snapshot it grabbed, which never changes underneath it.
	var next *index
	if e.idx == nil || e.idx.Model != e.opts.EmbeddingModel {
		next = newIndex(e.opts.EmbeddingModel)
	} else {
		next = e.idx.clone()
	}

	result := &IngestResult{}
	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			result.Failed = append(result.Failed, IngestFailure{Path: path, Reason: err.Error()})
			continue
		}

		source := filepath.Base(path)
		sum := sha256.Sum256(raw)
		hash := hex.EncodeToString(sum[:])
		if next.Hashes[path] == hash && next.hasSource(source) {
			result.Skipped = append(result.Skipped, path)
			continue
		}

		text, err := extractText(path)
		if err != nil {
			result.Failed = append(result.Failed, IngestFailure{Path: path, Reason: err.Error()})
			continue
		}

		chunks := splitChunks(text, e.opts.ChunkSize, e.opts.ChunkOverlap)
		if len(chunks) == 0 {
			result.Failed = append(result.Failed, IngestFailure{Path: path, Reason: "no text extracted"})
			continue
		}

		vectors, err := e.embed(ctx, chunks)
		if err != nil {
			result.Failed = append(result.Failed, IngestFailure{Path: path, Reason: err.Error()})
			continue
		}

		next.removeSource(source)
		for i, c := range chunks {
			next.Chunks = append(next.Chunks, chunk{Source: source, Text: c, Vector: vectors[i]})
		}
		next.Hashes[path] = hash
		result.Ingested = append(result.Ingested, path)

		e.logger.Info("Ingested document",
			zap.String("path", path),
			zap.Int("chunks", len(chunks)))
	}

	e.idx = next

	if len(result.Ingested) > 0 {
		if err := saveIndex(e.indexPath(), next); err != nil {
			e.logger.Warn("Failed to persist document index", zap.Error(err))
		}
	}

	return result, nil
}

func (e *OpenAIEngine) Answer(ctx context.Context, question string) (*Answer, error) {
	// The snapshot is immutable: Ingest swaps in a fresh index instead of
	// mutating this one, so searching outside the lock is safe.
	e.mu.RLock()
	idx := e.idx
	e.mu.RUnlock()

	if !idx.ready() {
		return nil, ErrNotReady
	}

	vectors, err := e.embed(ctx, []string{question})
	if err != nil {
		e.logger.Error("Failed to embed question", zap.Error(err))
		return serviceUnavailable(), nil
	}

	hits := idx.search(vectors[0], e.opts.TopK)

	var passages strings.Builder
	for _, hit := range hits {
		passages.WriteString(hit.Text)
		passages.WriteString("\n\n")
	}

	resp, err := e.chat.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.opts.ChatModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf(answerPrompt, passages.String(), question),
			},
		},
		MaxTokens:   e.opts.MaxTokens,
		Temperature: float32(e.opts.Temperature),
	})
	if err != nil {
		e.logger.Error("Failed to get completion", zap.Error(err))
		return serviceUnavailable(), nil
	}
	if len(resp.Choices) == 0 {
		e.logger.Error("Completion returned no choices")
		return serviceUnavailable(), nil
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	score := qualityScore(hits, text)

	answer := &Answer{
		Text:    text,
		Score:   score,
		Sources: uniqueSources(hits),
	}
	if score < e.opts.QualityThreshold {
		answer.Suggestions = suggestionsFor(question)
	}
	return answer, nil
}

func (e *OpenAIEngine) Reset() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.idx = nil
	if err := os.Remove(e.indexPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("error removing index cache: %w", err)
	}
	return nil
}

func (e *OpenAIEngine) embed(ctx context.Context, inputs []string) ([][]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, e.opts.RequestTimeout)
	defer cancel()

	resp, err := e.embedder.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: inputs,
		Model: openai.EmbeddingModel(e.opts.EmbeddingModel),
	})
	if err != nil {
		return nil, fmt.Errorf("error creating embeddings: %w", err)
	}
	if len(resp.Data) != len(inputs) {
		return nil, fmt.Errorf("embedding response size mismatch: got %d, want %d", len(resp.Data), len(inputs))
	}

	vectors := make([][]float32, len(inputs))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= len(vectors) {
			return nil, fmt.Errorf("embedding response index out of range: %d", item.Index)
		}
		vectors[item.Index] = item.Embedding
	}
	return vectors, nil
}

func serviceUnavailable() *Answer {
	return &Answer{Text: serviceUnavailableText}
}

// qualityScore blends retrieval similarity with a coarse confidence signal
// from the completion itself. Very short answers usually mean the model had
// nothing to ground on.
func qualityScore(hits []scoredChunk, answer string) float64 {
	if len(hits) == 0 {
		return 0
	}

	top := hits[0].Score
	var sum float64
	for _, hit := range hits {
		sum += hit.Score
	}
	avg := sum / float64(len(hits))

	score := 0.6*top + 0.3*avg
	if utf8.RuneCountInString(answer) >= 40 {
		score += 0.1
	}

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func uniqueSources(hits []scoredChunk) []string {
	var sources []string
	seen := make(map[string]struct{}, len(hits))
	for _, hit := range hits {
		if _, ok := seen[hit.Source]; ok {
			continue
		}
		seen[hit.Source] = struct{}{}
		sources = append(sources, hit.Source)
	}
	return sources
}
