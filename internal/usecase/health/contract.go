package health

import "context"

// KnowledgeReader exposes the loaded knowledge base for readiness reporting.
type KnowledgeReader interface {
	Len() int
	Dimensions() int
}

// ProviderChecker checks upstream provider availability.
type ProviderChecker interface {
	HealthCheck(ctx context.Context) error
}
