package eventbus

import (
	"context"

	"photopipe-server-go/internal/platform/observability"
)

// AttachMetricSink subscribes handlers that turn stage completions,
// health transitions, and job outcomes into metric datapoints. The
// handlers run asynchronously so publishers never wait on them.
func AttachMetricSink(bus *Bus) error {
	if err := bus.Subscribe(TopicStageCompleted, func(e StageCompletedEvent) {
		labels := map[string]string{
			"stage":   e.Stage,
			"outcome": outcomeLabel(e.Err == nil),
		}
		if e.Backend != "" {
			labels["backend"] = e.Backend
		}
		observability.RecordMetric(context.Background(), "stage_duration_ms",
			float64(e.Duration.Milliseconds()), labels)
	}); err != nil {
		return err
	}

	if err := bus.Subscribe(TopicHealthChanged, func(e HealthChangedEvent) {
		observability.RecordMetric(context.Background(), "backend_health_transition", 1,
			map[string]string{
				"backend": e.Backend,
				"from":    string(e.From),
				"to":      string(e.To),
			})
	}); err != nil {
		return err
	}

	return bus.Subscribe(TopicJobFinished, func(e JobFinishedEvent) {
		observability.RecordMetric(context.Background(), "job_duration_ms",
			float64(e.Duration.Milliseconds()),
			map[string]string{
				"style":   e.Style,
				"outcome": outcomeLabel(e.Success),
			})
	})
}

func outcomeLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
