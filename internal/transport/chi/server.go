package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/jamesbell/askjames/internal/domain"
	logpkg "github.com/jamesbell/askjames/internal/logger"
	answeruc "github.com/jamesbell/askjames/internal/usecase/answer"
	healthuc "github.com/jamesbell/askjames/internal/usecase/health"
)

// maxBodyBytes caps the request body. Queries are short; anything larger is
// rejected before it reaches the embedding provider.
const maxBodyBytes = 64 * 1024

// ErrorCode identifies the error class in JSON error responses.
type ErrorCode string

const (
	ErrorCodeBadRequest         ErrorCode = "bad_request"
	ErrorCodeValidationFailed   ErrorCode = "validation_failed"
	ErrorCodeServiceUnavailable ErrorCode = "service_unavailable"
	ErrorCodeProviderError      ErrorCode = "provider_error"
	ErrorCodeInternalError      ErrorCode = "internal_error"
)

// ErrorResponse is the JSON body for all error statuses.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the body of a successful POST /chat. Source is "dataset"
// when the reply is grounded in a knowledge base entry and "redirect" when
// the query matched nothing.
type ChatResponse struct {
	Reply  string `json:"reply"`
	Source string `json:"source"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status          string            `json:"status"`
	Checks          map[string]string `json:"checks"`
	QAPairsLoaded   int               `json:"qa_pairs_loaded"`
	EmbeddingsReady bool              `json:"embeddings_ready"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes the answering service over HTTP.
type Server struct {
	answer         *answeruc.Service
	health         *healthuc.Service
	logger         *zap.Logger
	unavailableMsg string
	errorHandlers  []errorHandler
}

// NewServer creates an HTTP API server. unavailableMsg is returned with 503
// when an upstream call times out; it is a "try again" message, never the
// redirect text.
func NewServer(
	answer *answeruc.Service,
	health *healthuc.Service,
	unavailableMsg string,
	logger *zap.Logger,
) *Server {
	s := &Server{
		answer:         answer,
		health:         health,
		logger:         logger,
		unavailableMsg: unavailableMsg,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrValidation, http.StatusBadRequest, ErrorCodeValidationFailed),
		s.unavailableHandler,
		sentinelHandler(domain.ErrEmbeddingProvider, http.StatusBadGateway, ErrorCodeProviderError),
		sentinelHandler(domain.ErrPhrasingProvider, http.StatusBadGateway, ErrorCodeProviderError),
	}
	return s
}

// Routes registers the API endpoints on r.
func (s *Server) Routes(r chi.Router) {
	r.Post("/chat", s.Chat)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// Chat handles POST /chat.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if !utf8.ValidString(req.Message) {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "message must be valid UTF-8")
		return
	}

	resp, err := s.answer.Answer(r.Context(), req.Message)
	if err != nil {
		s.handleDomainError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		Reply:  resp.Text(),
		Source: string(resp.Source()),
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:          string(report.Status),
		Checks:          checks,
		QAPairsLoaded:   report.QAEntriesLoaded,
		EmbeddingsReady: report.EmbeddingsReady,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// handleDomainError logs with the request-scoped logger so the entry carries
// the request id from the canonical log line middleware.
func (s *Server) handleDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	reqLogger := logpkg.FromContext(ctx)
	reqLogger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	reqLogger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}

// unavailableHandler maps upstream timeouts to 503 with the configured
// try-again message so callers can retry instead of treating it as a redirect.
func (s *Server) unavailableHandler(w http.ResponseWriter, err error, _ string) bool {
	if !errors.Is(err, domain.ErrServiceUnavailable) {
		return false
	}
	writeError(w, http.StatusServiceUnavailable, ErrorCodeServiceUnavailable, s.unavailableMsg)
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrValidation,
		domain.ErrServiceUnavailable,
		domain.ErrEmbeddingProvider,
		domain.ErrPhrasingProvider,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}
