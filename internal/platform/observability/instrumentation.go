package observability

import (
	"context"
	"log/slog"
	"sort"
	"time"
)

// Enabled reports whether instrumentation has been toggled on.
func Enabled() bool {
	_, cfg := currentLogger()
	return cfg.Enabled
}

// StartSpan times one operation and logs its outcome through the
// instrumentation logger. The returned func closes the span.
func StartSpan(ctx context.Context, component, operation string) (context.Context, func(error)) {
	logger, cfg := currentLogger()
	if logger == nil || !cfg.Enabled {
		return ctx, func(error) {}
	}

	start := time.Now()
	logger.LogAttrs(ctx, slog.LevelDebug, "span open",
		slog.String("component", component),
		slog.String("op", operation),
	)

	return ctx, func(err error) {
		attrs := []slog.Attr{
			slog.String("component", component),
			slog.String("op", operation),
			slog.Duration("elapsed", time.Since(start)),
		}
		level := slog.LevelDebug
		if err != nil {
			level = slog.LevelWarn
			attrs = append(attrs, slog.Any("error", err))
		}
		logger.LogAttrs(ctx, level, "span close", attrs...)
	}
}

// RecordMetric logs one datapoint. The event bus sink feeds it stage
// durations, backend health transitions, and job outcomes.
func RecordMetric(ctx context.Context, name string, value float64, labels map[string]string) {
	logger, cfg := currentLogger()
	if logger == nil || !cfg.Enabled {
		return
	}

	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]slog.Attr, 0, len(labels)+2)
	attrs = append(attrs,
		slog.String("metric", name),
		slog.Float64("value", value),
	)
	for _, k := range keys {
		attrs = append(attrs, slog.String(k, labels[k]))
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "metric", attrs...)
}
