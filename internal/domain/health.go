package domain

import "context"

// HealthUsecase reports service status for GET /api/health.
type HealthUsecase interface {
	Check(ctx context.Context) map[string]string
}
