// Package answer orchestrates the guarded retrieval flow: validate, embed,
// match, compose. It is the sole entry point the transport layer calls.
package answer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jamesbell/askjames/internal/domain"
	"github.com/jamesbell/askjames/internal/domain/query"
	"github.com/jamesbell/askjames/internal/domain/response"
	"github.com/jamesbell/askjames/internal/metrics"
)

// Config holds the composer and guard settings.
type Config struct {
	// RedirectMessage is returned verbatim for unmatched queries. It never
	// varies with the query content.
	RedirectMessage string
	// MaxQueryLen caps query length in runes; 0 means query.DefaultMaxLen.
	MaxQueryLen int
	// EmbedTimeout bounds the embedding call.
	EmbedTimeout time.Duration
	// PhraseTimeout bounds the phrasing call.
	PhraseTimeout time.Duration
}

// Service answers a single question per call. Every request is stateless and
// independent: no state is shared across calls beyond the read-only store
// behind the Matcher.
type Service struct {
	embed   Embedder
	matcher Matcher
	phraser Phraser // nil disables phrasing: stored answers returned verbatim
	cfg     Config
	logger  *zap.Logger
}

// New creates the answering service. phraser may be nil, in which case
// accepted matches return the stored answer verbatim.
func New(embed Embedder, matcher Matcher, phraser Phraser, cfg Config, logger *zap.Logger) (*Service, error) {
	if embed == nil || matcher == nil {
		return nil, fmt.Errorf("%w: embedder and matcher are required", domain.ErrConfig)
	}
	if cfg.RedirectMessage == "" {
		return nil, fmt.Errorf("%w: redirect message is required", domain.ErrConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{embed: embed, matcher: matcher, phraser: phraser, cfg: cfg, logger: logger}, nil
}

// Answer maps a free-text question to a Response. Dataset-attributed text is
// always grounded in the matched entry's stored answer; unmatched queries get
// the fixed redirect message. Upstream timeouts fail with
// domain.ErrServiceUnavailable instead of degrading into an answer.
func (s *Service) Answer(ctx context.Context, raw string) (response.Response, error) {
	q, err := query.New(raw, s.cfg.MaxQueryLen)
	if err != nil {
		return response.Response{}, err
	}

	emb, err := s.embedQuery(ctx, q.Normalized())
	if err != nil {
		return response.Response{}, err
	}

	res, err := s.matcher.Match(emb.Embedding)
	if err != nil {
		return response.Response{}, fmt.Errorf("match query: %w", err)
	}

	if !res.Accepted() {
		s.logger.Debug("query redirected",
			zap.String("best_entry", res.Entry().ID()),
			zap.Float64("score", res.Score()),
		)
		metrics.AnswersTotal.WithLabelValues(string(response.SourceRedirect)).Inc()
		return response.Redirect(s.cfg.RedirectMessage), nil
	}

	text, err := s.composeAccepted(ctx, q.Normalized(), res.Entry().Answer(), res.Entry().ID())
	if err != nil {
		return response.Response{}, err
	}

	metrics.AnswersTotal.WithLabelValues(string(response.SourceDataset)).Inc()
	return response.Dataset(text), nil
}

func (s *Service) embedQuery(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if s.cfg.EmbedTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.EmbedTimeout)
		defer cancel()
	}

	emb, err := s.embed.Embed(ctx, text)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return domain.EmbeddingResult{}, fmt.Errorf(
				"%w: embedding call timed out", domain.ErrServiceUnavailable)
		}
		return domain.EmbeddingResult{}, fmt.Errorf("embed query: %w", err)
	}
	return emb, nil
}

// composeAccepted produces the dataset-attributed text for an accepted match.
// The stored answer verbatim is always the safe fallback: phrasing only runs
// when configured, its output is downgraded when the containment check finds
// content outside the grounding answer, and provider failures fall back to
// verbatim rather than surfacing an error for a question we can answer.
// A phrasing timeout is the exception: per the resource policy, timed-out
// upstream calls fail the request rather than silently degrading.
func (s *Service) composeAccepted(ctx context.Context, question, grounding, entryID string) (string, error) {
	if s.phraser == nil {
		return grounding, nil
	}

	if s.cfg.PhraseTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.PhraseTimeout)
		defer cancel()
	}

	phrased, err := s.phraser.Phrase(ctx, question, grounding)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: phrasing call timed out", domain.ErrServiceUnavailable)
		}
		s.logger.Warn("phrasing failed, returning stored answer",
			zap.String("entry", entryID),
			zap.Error(err),
		)
		metrics.GuardDowngradesTotal.WithLabelValues("phrase_error").Inc()
		return grounding, nil
	}

	if phrased == "" || !grounded(phrased, grounding) {
		s.logger.Warn("phrased answer failed containment check, returning stored answer",
			zap.String("entry", entryID),
		)
		metrics.GuardDowngradesTotal.WithLabelValues("ungrounded").Inc()
		return grounding, nil
	}

	return phrased, nil
}
