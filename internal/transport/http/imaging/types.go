package imaging

import (
	"photopipe-server-go/internal/domain/metrics"
	"photopipe-server-go/internal/domain/removal/inter"
)

// BackendStatus reports one backend's current health.
type BackendStatus struct {
	Name        string            `json:"name"`
	Type        string            `json:"type"`
	State       inter.HealthState `json:"state"`
	FailureRate float64           `json:"failure_rate"`
}

// SystemStatus is the payload of GET /api/v1/status.
type SystemStatus struct {
	CPUPercent float64                  `json:"cpu_percent"`
	MemPercent float64                  `json:"mem_percent"`
	Goroutines int                      `json:"goroutines"`
	Backends   []BackendStatus          `json:"backends"`
	Telemetry  []metrics.SeriesSnapshot `json:"telemetry"`
}

// AnalyzeResponse is the payload of POST /api/v1/analyze.
type AnalyzeResponse struct {
	Description string `json:"description"`
}
