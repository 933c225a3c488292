// Package health provides health check implementations for external
// dependencies.
package health

import "context"

// Checker is implemented by anything the readiness probe can verify.
type Checker interface {
	HealthCheck(ctx context.Context) error
}
