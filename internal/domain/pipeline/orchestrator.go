package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"photopipe-server-go/internal/domain/artifact"
	"photopipe-server-go/internal/domain/eventbus"
	"photopipe-server-go/internal/domain/metrics"
	"photopipe-server-go/internal/domain/removal"
	"photopipe-server-go/internal/domain/removal/inter"
	"photopipe-server-go/internal/domain/stage"
	"photopipe-server-go/internal/platform/config"
	"photopipe-server-go/internal/platform/errors"
	"photopipe-server-go/internal/platform/logging"
)

// Stage is a deterministic post-processing step. Implementations read
// the input artifact and return a new one.
type Stage interface {
	Name() string
	Apply(a *artifact.Artifact, style string) (*artifact.Artifact, error)
}

// Orchestrator drives one photo through background removal and the
// sequenced post-processing stages.
//
// Backend selection walks the fallback chain in configuration order.
// Each backend gets up to 1+RetryLimit bounded attempts; an
// unavailable backend in cooldown is skipped without consuming an
// attempt. Only when every backend has been exhausted does the run
// fail as a whole.
type Orchestrator struct {
	cfg      config.PipelineConfig
	chain    []*removal.Backend
	color    Stage
	wrinkle  Stage
	finisher Stage
	table    *stage.Table
	metrics  *metrics.Collector
	bus      *eventbus.Bus
	logger   *logging.Logger
}

func NewOrchestrator(
	cfg config.PipelineConfig,
	chain []*removal.Backend,
	table *stage.Table,
	collector *metrics.Collector,
	bus *eventbus.Bus,
	logger *logging.Logger,
) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		chain:    chain,
		color:    stage.NewColorCorrector(table),
		wrinkle:  stage.NewWrinkleSmoother(table),
		finisher: stage.NewStyleFinisher(table),
		table:    table,
		metrics:  collector,
		bus:      bus,
		logger:   logger,
	}
}

// Chain exposes the backend chain for health reporting.
func (o *Orchestrator) Chain() []*removal.Backend { return o.chain }

// Styles lists the accepted style names.
func (o *Orchestrator) Styles() []string { return o.table.Styles() }

// stagesFor assembles the stage sequence for one request. Colour
// correction and wrinkle smoothing are opt-in; style finishing always
// runs last.
func (o *Orchestrator) stagesFor(opts Options) []Stage {
	stages := make([]Stage, 0, 3)
	if opts.EnhanceColor {
		stages = append(stages, o.color)
	}
	if opts.RemoveWrinkles {
		stages = append(stages, o.wrinkle)
	}
	return append(stages, o.finisher)
}

// Process runs the full pipeline on one image.
func (o *Orchestrator) Process(ctx context.Context, in *artifact.Artifact, opts Options) (*Result, error) {
	if err := validateRequest(in, opts, o.table); err != nil {
		return nil, err
	}
	if opts.JobID == "" {
		opts.JobID = uuid.New().String()
	}

	start := time.Now()
	result := &Result{JobID: opts.JobID, Style: opts.Style}

	cutout, err := o.removeBackground(ctx, in, opts, result)
	if err != nil {
		o.finish(result, start, false)
		return result, err
	}

	// stage failures are not retried and not chained; the last good
	// artifact stays on the result for diagnostics
	current := cutout
	for _, s := range o.stagesFor(opts) {
		stageStart := time.Now()
		next, err := s.Apply(current, opts.Style)
		elapsed := time.Since(stageStart)

		key := metrics.Key{Stage: s.Name()}
		if err != nil {
			o.metrics.RecordFailure(key, errors.KindOf(err), elapsed)
			o.publishStage(opts.JobID, s.Name(), "", elapsed, err)
			result.Stages = append(result.Stages, StageResult{
				Stage:     s.Name(),
				ErrorKind: errors.KindOf(err),
				Duration:  elapsed,
			})
			result.Output = current
			o.finish(result, start, false)
			return result, errors.Wrap(errors.KindStage, "pipeline.stage",
				fmt.Sprintf("stage %s failed", s.Name()), err)
		}
		o.metrics.RecordSuccess(key, elapsed)
		o.publishStage(opts.JobID, s.Name(), "", elapsed, nil)
		result.Stages = append(result.Stages, StageResult{
			Stage:    s.Name(),
			Success:  true,
			Duration: elapsed,
		})
		current = next

		if ctx.Err() != nil {
			result.Output = current
			o.finish(result, start, false)
			return result, errors.Wrap(errors.KindStage, "pipeline.stage", "run cancelled", ctx.Err())
		}
	}

	result.Output = current
	o.finish(result, start, true)
	return result, nil
}

// removeBackground walks the fallback chain per the retry protocol,
// appending one stage entry per invocation attempt.
func (o *Orchestrator) removeBackground(ctx context.Context, in *artifact.Artifact, opts Options, result *Result) (*artifact.Artifact, error) {
	var failures []string

	for _, backend := range o.chain {
		name := backend.Descriptor().Name
		health := backend.Health()
		if !health.Eligible() {
			o.logger.Debug("skipping cooling backend", "backend", name)
			failures = append(failures, name+": skipped (cooling down)")
			continue
		}
		// an admitted probe leaves the backend unavailable until it
		// reports; it gets exactly one attempt, never the retry loop
		probe := health.State() == inter.StateUnavailable

		out, err := o.attemptBackend(ctx, backend, in, opts, result, probe)
		if err == nil {
			result.Backend = name
			return out, nil
		}
		if ctx.Err() != nil {
			return nil, errors.Wrap(errors.KindBackendTimeout, "pipeline.removal", "run cancelled", ctx.Err())
		}
		failures = append(failures, fmt.Sprintf("%s: %v", name, err))
	}

	return nil, errors.New(errors.KindTotalFailure, "pipeline.removal",
		"all backends exhausted: "+strings.Join(failures, "; "))
}

// attemptBackend runs up to 1+RetryLimit bounded attempts against one
// backend, backing off between attempts. A probe is a single attempt.
func (o *Orchestrator) attemptBackend(ctx context.Context, backend *removal.Backend, in *artifact.Artifact, opts Options, result *Result, probe bool) (*artifact.Artifact, error) {
	name := backend.Descriptor().Name
	var lastErr error

	maxAttempts := 1 + o.cfg.RetryLimit
	if probe {
		maxAttempts = 1
	}
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleepCtx(ctx, o.cfg.RetryBackoff); err != nil {
				return nil, err
			}
		}

		out, elapsed, err := o.invokeOnce(ctx, backend, in, opts)
		entry := StageResult{
			Stage:    StageRemoval,
			Backend:  name,
			Success:  err == nil,
			Duration: elapsed,
		}
		if err != nil {
			entry.ErrorKind = errors.KindOf(err)
		}
		result.Stages = append(result.Stages, entry)

		if err == nil {
			return out, nil
		}
		lastErr = err

		if ctx.Err() != nil || !errors.Retryable(err) {
			return nil, err
		}
		o.logger.Warn("backend attempt failed",
			"backend", name, "attempt", attempt, "error", err)
	}
	return nil, lastErr
}

// invokeOnce performs a single bounded invocation and keeps the health
// tracker and telemetry in step with its outcome.
func (o *Orchestrator) invokeOnce(ctx context.Context, backend *removal.Backend, in *artifact.Artifact, opts Options) (*artifact.Artifact, time.Duration, error) {
	name := backend.Descriptor().Name
	tracker := backend.Health()
	before := tracker.State()
	start := time.Now()

	out, err := o.callBackend(ctx, backend, in)
	elapsed := time.Since(start)

	key := metrics.Key{Stage: StageRemoval, Backend: name}
	if err != nil {
		tracker.RecordFailure()
		o.metrics.RecordFailure(key, errors.KindOf(err), elapsed)
	} else {
		tracker.RecordSuccess()
		o.metrics.RecordSuccess(key, elapsed)
	}
	o.publishStage(opts.JobID, StageRemoval, name, elapsed, err)

	if after := tracker.State(); after != before {
		o.logger.Info("backend health changed", "backend", name, "from", before, "to", after)
		if o.bus != nil {
			o.bus.Publish(eventbus.TopicHealthChanged, eventbus.HealthChangedEvent{
				Backend: name,
				From:    before,
				To:      after,
				At:      time.Now(),
			})
		}
	}
	return out, elapsed, err
}

func (o *Orchestrator) callBackend(ctx context.Context, backend *removal.Backend, in *artifact.Artifact) (*artifact.Artifact, error) {
	remover, err := backend.Remover()
	if err != nil {
		return nil, err
	}

	attemptCtx := ctx
	var cancel context.CancelFunc
	if o.cfg.AttemptTimeout > 0 {
		attemptCtx, cancel = context.WithTimeout(ctx, o.cfg.AttemptTimeout)
		defer cancel()
	}

	out, err := remover.RemoveBackground(attemptCtx, in)
	if err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) || (attemptCtx.Err() != nil && ctx.Err() == nil) {
			return nil, errors.Wrap(errors.KindBackendTimeout, "pipeline.removal",
				fmt.Sprintf("backend %s exceeded attempt timeout", backend.Descriptor().Name), err)
		}
		if errors.KindOf(err) == errors.KindUnknown {
			return nil, errors.Wrap(errors.KindBackendError, "pipeline.removal",
				fmt.Sprintf("backend %s failed", backend.Descriptor().Name), err)
		}
		return nil, err
	}
	if out == nil || !out.Valid() {
		return nil, errors.New(errors.KindBackendError, "pipeline.removal",
			fmt.Sprintf("backend %s returned a malformed artifact", backend.Descriptor().Name))
	}
	return out, nil
}

func (o *Orchestrator) publishStage(jobID, stageName, backend string, d time.Duration, err error) {
	if o.bus == nil {
		return
	}
	o.bus.Publish(eventbus.TopicStageCompleted, eventbus.StageCompletedEvent{
		JobID:    jobID,
		Stage:    stageName,
		Backend:  backend,
		Duration: d,
		Err:      err,
	})
}

func (o *Orchestrator) finish(result *Result, start time.Time, success bool) {
	result.Success = success
	result.Duration = time.Since(start)
	if o.bus != nil {
		o.bus.Publish(eventbus.TopicJobFinished, eventbus.JobFinishedEvent{
			JobID:    result.JobID,
			Style:    result.Style,
			Success:  success,
			Duration: result.Duration,
		})
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return errors.Wrap(errors.KindBackendTimeout, "pipeline.removal", "run cancelled", ctx.Err())
	case <-timer.C:
		return nil
	}
}
