package gemini

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/hh-matcher/internal/logger"
	"github.com/spigell/hh-matcher/internal/utils"
)

const (
	ModeEmbedding = "embedding"
	ModePrompt    = "prompt"

	ProviderName = "gemini"
)

const defaultMaxLogLength = 200

//go:embed prompt.md
var promptTemplate string

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

type embedder interface {
	Embed(ctx context.Context, texts ...string) ([][]float32, error)
}

// Backend is what a Similarity needs from a Gemini client.
type Backend interface {
	contentGenerator
	embedder
}

// Similarity scores text pairs with Gemini, either by cosine similarity of
// embeddings or by asking the model for a score.
type Similarity struct {
	backend   Backend
	mode      string
	logger    *zap.Logger
	maxLogLen int
}

func NewSimilarity(backend Backend, mode string, log *zap.Logger, maxLogLength int) (*Similarity, error) {
	if backend == nil {
		return nil, errors.New("gemini backend is required")
	}

	switch mode = strings.ToLower(strings.TrimSpace(mode)); mode {
	case "":
		mode = ModeEmbedding
	case ModeEmbedding, ModePrompt:
	default:
		return nil, fmt.Errorf("unknown gemini similarity mode %q", mode)
	}

	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Similarity{
		backend:   backend,
		mode:      mode,
		logger:    logger.WithProvider(log, ProviderName, mode),
		maxLogLen: maxLogLength,
	}, nil
}

func (s *Similarity) Name() string {
	return ProviderName + "-" + s.mode
}

func (s *Similarity) Similarity(ctx context.Context, a, b string) (float64, error) {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == "" || b == "" {
		return 0, nil
	}

	if s.mode == ModePrompt {
		return s.promptScore(ctx, a, b)
	}
	return s.embeddingScore(ctx, a, b)
}

func (s *Similarity) embeddingScore(ctx context.Context, a, b string) (float64, error) {
	vectors, err := s.backend.Embed(ctx, a, b)
	if err != nil {
		return 0, err
	}
	if len(vectors) != 2 {
		return 0, fmt.Errorf("expected 2 embeddings, got %d", len(vectors))
	}

	score, err := cosine(vectors[0], vectors[1])
	if err != nil {
		return 0, err
	}

	s.logger.Debug("gemini embedding similarity",
		zap.String("text_a", utils.TruncateForLog(a, s.maxLogLen)),
		zap.String("text_b", utils.TruncateForLog(b, s.maxLogLen)),
		zap.Float64("score", score),
	)

	return score, nil
}

func (s *Similarity) promptScore(ctx context.Context, a, b string) (float64, error) {
	prompt := buildPrompt(a, b)

	s.logger.Debug("gemini generate content request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, s.maxLogLen)),
	)

	raw, err := s.backend.GenerateContent(ctx, prompt)
	if err != nil {
		return 0, err
	}

	s.logger.Debug("gemini generate content response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, s.maxLogLen)),
	)

	return parseScore(raw)
}

func buildPrompt(a, b string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Text A:\n{{TEXT_A}}\n\nText B:\n{{TEXT_B}}\n\nJSON Response:"
	}
	prompt := strings.ReplaceAll(template, "{{TEXT_A}}", a)
	prompt = strings.ReplaceAll(prompt, "{{TEXT_B}}", b)
	return prompt
}

// cosine maps cosine similarity onto [0,1]; negative similarity counts as unrelated.
func cosine(a, b []float32) (float64, error) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, fmt.Errorf("embedding dimensions differ: %d vs %d", len(a), len(b))
	}

	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0, errors.New("zero-length embedding")
	}

	sim := dot / (math.Sqrt(na) * math.Sqrt(nb))
	return math.Max(0, math.Min(1, sim)), nil
}

func parseScore(raw string) (float64, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return 0, fmt.Errorf("parse gemini response: %w", err)
	}

	score := coerceFloat(data["score"])
	if math.IsNaN(score) {
		return 0, errors.New("gemini response has no numeric score")
	}
	if score > 1 && score <= 100 {
		// Some responses use a percentage scale.
		score /= 100
	}

	return math.Max(0, math.Min(1, score)), nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	if start, end := strings.Index(raw, "{"), strings.LastIndex(raw, "}"); start >= 0 && end > start {
		raw = raw[start : end+1]
	}
	return strings.TrimSpace(raw)
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case string:
		trimmed := strings.TrimSuffix(strings.TrimSpace(val), "%")
		if trimmed == "" {
			return math.NaN()
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}
