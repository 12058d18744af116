package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status          Status
	Checks          map[string]CheckResult
	QAEntriesLoaded int
	EmbeddingsReady bool
}

// Service coordinates health checks.
type Service struct {
	knowledge KnowledgeReader
	provider  ProviderChecker
}

// New creates a Service. provider can be nil.
func New(knowledge KnowledgeReader, provider ProviderChecker) *Service {
	return &Service{knowledge: knowledge, provider: provider}
}

// Check runs health checks against all components. The knowledge base is
// loaded at startup or the process refuses to serve, so its check reflects
// the frozen store; the provider check is a live round-trip.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	entries := s.knowledge.Len()
	ready := s.knowledge.Dimensions() > 0
	if entries > 0 && ready {
		checks["knowledge"] = CheckOK
	} else {
		checks["knowledge"] = CheckError
	}

	if s.provider != nil {
		if err := s.provider.HealthCheck(ctx); err != nil {
			checks["provider"] = CheckError
		} else {
			checks["provider"] = CheckOK
		}
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{
		Status:          status,
		Checks:          checks,
		QAEntriesLoaded: entries,
		EmbeddingsReady: ready,
	}
}
