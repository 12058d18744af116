package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/jamesbell/askjames/internal/domain"
	"github.com/jamesbell/askjames/internal/metrics"
)

// groundingInstruction pins the model to the provided answer text. The
// composer still runs a containment check on the output; this constraint is
// the first line of defense, not the only one.
const groundingInstruction = `Answer using ONLY the facts in the [ANSWER SOURCE] block below.
Rephrase for tone and brevity if you like, but do not add names, dates,
numbers, or claims that are not in the source. If the source does not cover
something, leave it out.`

var _ domain.HealthChecker = (*Phraser)(nil)

// Phraser rephrases a stored answer via an OpenAI chat completion.
type Phraser struct {
	client       *openai.Client
	model        string
	systemPrompt string
	temperature  float32
	topP         float32
	maxTokens    int
	logger       *zap.Logger
}

// PhraserConfig holds the phrasing provider settings.
type PhraserConfig struct {
	APIKey       string
	BaseURL      string
	Model        string
	SystemPrompt string
	Temperature  float32
	TopP         float32
	MaxTokens    int
	Logger       *zap.Logger
}

// NewPhraser creates an OpenAI-compatible phrasing provider.
func NewPhraser(cfg *PhraserConfig) *Phraser {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Phraser{
		client:       openai.NewClientWithConfig(clientCfg),
		model:        cfg.Model,
		systemPrompt: cfg.SystemPrompt,
		temperature:  cfg.Temperature,
		topP:         cfg.TopP,
		maxTokens:    cfg.MaxTokens,
		logger:       cfg.Logger,
	}
}

// Phrase rewrites grounding as an answer to question, constrained to the
// grounding text.
func (p *Phraser) Phrase(ctx context.Context, question, grounding string) (string, error) {
	system := fmt.Sprintf("%s\n\n%s\n\n[ANSWER SOURCE]\n%s",
		p.systemPrompt, groundingInstruction, grounding)

	req := openai.ChatCompletionRequest{
		Model:       p.model,
		Temperature: p.temperature,
		TopP:        p.topP,
		MaxTokens:   p.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: question},
		},
	}

	start := time.Now()

	resp, err := p.client.CreateChatCompletion(ctx, req)

	duration := time.Since(start)

	if err != nil {
		metrics.PhrasingRequestsTotal.WithLabelValues(p.model, "error").Inc()
		return "", parseAPIError(err, domain.ErrPhrasingProvider, "phrasing")
	}

	if len(resp.Choices) == 0 {
		metrics.PhrasingRequestsTotal.WithLabelValues(p.model, "error").Inc()
		return "", fmt.Errorf("%w: empty chat completion response", domain.ErrPhrasingProvider)
	}

	metrics.PhrasingRequestsTotal.WithLabelValues(p.model, "success").Inc()
	metrics.PhrasingRequestDuration.WithLabelValues(p.model).Observe(duration.Seconds())

	text := strings.TrimSpace(resp.Choices[0].Message.Content)

	p.logger.Debug("Phrasing request completed",
		zap.String("model", p.model),
		zap.Duration("duration", duration),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	)

	return text, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (p *Phraser) HealthCheck(ctx context.Context) error {
	if _, err := p.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}
