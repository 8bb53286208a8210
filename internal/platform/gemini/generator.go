package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"text/template"
	"time"

	"google.golang.org/genai"

	"github.com/lexiday/lexiday-api/internal/config"
	"github.com/lexiday/lexiday-api/internal/generation"
)

// defaultPromptTemplate asks the model for strict JSON so the response can
// be unmarshaled directly into responseSchema.
const defaultPromptTemplate = `You are a vocabulary curator. Generate {{.TermCount}} {{.Complexity}} vocabulary terms for the topic "{{.Topic}}", plus {{.FactCount}} interesting facts spread across those terms.

Respond with JSON only, no prose, matching exactly this shape:
{
  "terms": [
    {"word": "...", "definition": "...", "examples": ["..."], "synonyms": ["..."], "antonyms": ["..."], "confidence": 0.0}
  ],
  "facts": [
    {"word": "...", "type": "etymology|cultural|historical|usage", "content": "..."}
  ]
}

Each fact's "word" must match one of the generated terms. Confidence is your 0-1 estimate that the definition is accurate.`

// responseSchema mirrors the JSON shape requested by the prompt.
type responseSchema struct {
	Terms []generation.TermDraft `json:"terms"`
	Facts []generation.FactDraft `json:"facts"`
}

// promptData carries the template inputs.
type promptData struct {
	Topic      string
	TermCount  int
	FactCount  int
	Complexity string
}

// Generator implements generation.Generator using the Gemini API.
type Generator struct {
	logger         *slog.Logger
	config         config.LLMConfig
	promptTemplate *template.Template
	client         *genai.Client
	model          string
}

// NewGenerator creates a Gemini-backed Generator.
// Returns generation.ErrInvalidConfig if required settings are missing.
func NewGenerator(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*Generator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}

	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	promptTemplate, err := template.New("vocabulary").Parse(defaultPromptTemplate)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt template: %v",
			generation.ErrInvalidConfig, err)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v",
			generation.ErrInvalidConfig, err)
	}

	return &Generator{
		logger:         logger.With(slog.String("component", "gemini_generator")),
		config:         cfg,
		promptTemplate: promptTemplate,
		client:         client,
		model:          cfg.ModelName,
	}, nil
}

// GenerateVocabulary implements generation.Generator.
func (g *Generator) GenerateVocabulary(
	ctx context.Context,
	req generation.Request,
) (*generation.Result, error) {
	prompt, err := g.createPrompt(req)
	if err != nil {
		return nil, err
	}

	schema, usage, err := g.callWithRetry(ctx, prompt, req.MaxTokens)
	if err != nil {
		return nil, err
	}

	if len(schema.Terms) == 0 {
		return nil, fmt.Errorf("%w: model returned no terms", generation.ErrInvalidResponse)
	}

	return &generation.Result{
		Terms: schema.Terms,
		Facts: schema.Facts,
		Usage: *usage,
	}, nil
}

// createPrompt renders the prompt template for a request.
func (g *Generator) createPrompt(req generation.Request) (string, error) {
	if req.Topic == "" {
		return "", fmt.Errorf("%w: topic cannot be empty", generation.ErrInvalidConfig)
	}

	data := promptData{
		Topic:      req.Topic,
		TermCount:  req.TermCount,
		FactCount:  req.FactCount,
		Complexity: string(req.Complexity),
	}

	var buf bytes.Buffer
	if err := g.promptTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}

	return buf.String(), nil
}

// callWithRetry calls the Gemini API with exponential backoff and jitter for
// transient errors. Permanent errors (blocked content, malformed responses)
// are returned immediately.
func (g *Generator) callWithRetry(
	ctx context.Context,
	prompt string,
	maxTokens int,
) (*responseSchema, *generation.Usage, error) {
	maxRetries := g.config.MaxRetries
	if maxRetries < 0 {
		maxRetries = 3
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		schema, usage, err := g.callOnce(ctx, prompt, maxTokens)
		if err == nil {
			return schema, usage, nil
		}
		lastErr = err

		if errors.Is(err, generation.ErrContentBlocked) ||
			errors.Is(err, generation.ErrInvalidResponse) {
			return nil, nil, err
		}

		if attempt == maxRetries {
			break
		}

		// delay = 2^attempt seconds scaled by jitter in [0.5, 1.0)
		backoff := math.Pow(2, float64(attempt))
		jitter := 0.5 + rng.Float64()*0.5
		delay := time.Duration(backoff * jitter * float64(time.Second))

		g.logger.WarnContext(ctx, "Gemini call failed, retrying",
			"attempt", attempt+1,
			"max_attempts", maxRetries+1,
			"delay", delay,
			"error", err)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, nil, fmt.Errorf("%w: %v", generation.ErrTransientFailure, ctx.Err())
		}
	}

	return nil, nil, fmt.Errorf("%w: exceeded %d attempts: %v",
		generation.ErrGenerationUnavailable, maxRetries+1, lastErr)
}

// callOnce performs a single Gemini request and parses the response.
func (g *Generator) callOnce(
	ctx context.Context,
	prompt string,
	maxTokens int,
) (*responseSchema, *generation.Usage, error) {
	genConfig := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}
	if maxTokens > 0 {
		genConfig.MaxOutputTokens = int32(maxTokens)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), genConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return nil, nil, fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	}

	if resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
		return nil, nil, generation.ErrContentBlocked
	}

	text := resp.Text()
	if text == "" {
		return nil, nil, fmt.Errorf("%w: empty response text", generation.ErrInvalidResponse)
	}

	var schema responseSchema
	if err := json.Unmarshal([]byte(text), &schema); err != nil {
		return nil, nil, fmt.Errorf("%w: failed to parse JSON response: %v",
			generation.ErrInvalidResponse, err)
	}

	usage := &generation.Usage{Model: g.model}
	if resp.UsageMetadata != nil {
		usage.InputTokens = int64(resp.UsageMetadata.PromptTokenCount)
		usage.OutputTokens = int64(resp.UsageMetadata.CandidatesTokenCount)
	}

	return &schema, usage, nil
}
