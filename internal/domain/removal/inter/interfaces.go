package inter

import (
	"context"

	"photopipe-server-go/internal/domain/artifact"
)

// Remover is a background-removal backend. Implementations receive an
// opaque product photo and return a cutout with a transparent
// background. Implementations must honour context cancellation.
type Remover interface {
	RemoveBackground(ctx context.Context, in *artifact.Artifact) (*artifact.Artifact, error)
}

// Closer is implemented by removers holding releasable resources.
type Closer interface {
	Close() error
}

// Descriptor identifies one backend slot in the fallback chain.
type Descriptor struct {
	Name string
	Type string
}

// HealthState is the operational state of a backend.
type HealthState string

const (
	StateUnknown     HealthState = "unknown"
	StateHealthy     HealthState = "healthy"
	StateDegraded    HealthState = "degraded"
	StateUnavailable HealthState = "unavailable"
)
