package services

import (
	"context"
	"fmt"
	"image/color"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"photopipe-server-go/internal/domain/artifact"
	"photopipe-server-go/internal/domain/pipeline"
	"photopipe-server-go/internal/domain/store"
	"photopipe-server-go/internal/platform/config"
	"photopipe-server-go/internal/platform/errors"
	"photopipe-server-go/internal/platform/logging"
	"photopipe-server-go/internal/platform/observability"
	"photopipe-server-go/internal/platform/storage"
)

const jpegQuality = 92

// ProcessRequest is one photo to run through the pipeline.
type ProcessRequest struct {
	Data            []byte
	Style           string
	Ratio           string
	BackgroundColor string
	OutputFormat    string
	EnhanceColor    bool
	RemoveWrinkles  bool
}

// ProcessResult is what the transport layer returns to clients.
type ProcessResult struct {
	JobID     string                 `json:"job_id"`
	OutputURL string                 `json:"output_url"`
	Width     int                    `json:"width"`
	Height    int                    `json:"height"`
	Backend   string                 `json:"backend"`
	Stages    []pipeline.StageResult `json:"stages"`
	Duration  time.Duration          `json:"duration"`
}

// BatchItem pairs one batch entry with its outcome. A failed item
// never aborts its siblings.
type BatchItem struct {
	Index  int            `json:"index"`
	Result *ProcessResult `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// Processing coordinates a full request: decode, pipeline run, canvas
// fitting, optional background fill, persistence.
type Processing struct {
	cfg    config.PipelineConfig
	orch   *pipeline.Orchestrator
	outs   store.Store
	jobs   *storage.JobRepository
	logger *logging.Logger
}

func NewProcessing(
	cfg config.PipelineConfig,
	orch *pipeline.Orchestrator,
	outs store.Store,
	jobs *storage.JobRepository,
	logger *logging.Logger,
) *Processing {
	return &Processing{cfg: cfg, orch: orch, outs: outs, jobs: jobs, logger: logger}
}

// Styles lists the accepted style names.
func (p *Processing) Styles() []string { return p.orch.Styles() }

// Process runs one photo end to end.
func (p *Processing) Process(ctx context.Context, req ProcessRequest) (result *ProcessResult, err error) {
	ctx, end := observability.StartSpan(ctx, "services.processing", "process")
	defer func() { end(err) }()

	if len(req.Data) == 0 {
		return nil, errors.New(errors.KindValidation, "services.processing", "image payload is empty")
	}
	if p.cfg.MaxImageSize > 0 && len(req.Data) > p.cfg.MaxImageSize {
		return nil, errors.New(errors.KindValidation, "services.processing",
			fmt.Sprintf("image exceeds %d byte limit", p.cfg.MaxImageSize))
	}

	ratio := req.Ratio
	if ratio == "" {
		ratio = p.cfg.DefaultRatio
	}
	if _, ok := artifact.RatioPresets[ratio]; !ok {
		return nil, errors.New(errors.KindValidation, "services.processing", "unknown ratio: "+ratio)
	}

	var background *color.NRGBA
	if req.BackgroundColor != "" {
		c, err := artifact.ParseHexColor(req.BackgroundColor)
		if err != nil {
			return nil, errors.Wrap(errors.KindValidation, "services.processing", "invalid background colour", err)
		}
		background = &c
	}

	format := req.OutputFormat
	if format == "" {
		format = "png"
	}
	if format != "png" && format != "jpeg" {
		return nil, errors.New(errors.KindValidation, "services.processing", "unsupported output format: "+format)
	}
	if format == "jpeg" && background == nil {
		return nil, errors.New(errors.KindValidation, "services.processing",
			"jpeg output requires a background colour")
	}

	in, err := artifact.Decode(req.Data)
	if err != nil {
		return nil, errors.Wrap(errors.KindValidation, "services.processing", "decode image", err)
	}

	res, err := p.orch.Process(ctx, in, pipeline.Options{
		Style:          req.Style,
		EnhanceColor:   req.EnhanceColor,
		RemoveWrinkles: req.RemoveWrinkles,
	})
	if err != nil {
		p.recordFailure(ctx, res, req.Style, err)
		return partialResult(res), err
	}

	fitted, err := artifact.FitToRatio(res.Output, ratio)
	if err != nil {
		return nil, errors.Wrap(errors.KindStage, "services.processing", "fit to ratio", err)
	}
	final := fitted
	if background != nil {
		final = artifact.CompositeBackground(fitted, *background)
	}

	var encoded []byte
	key := res.JobID + "." + extFor(format)
	if format == "jpeg" {
		encoded, err = final.EncodeJPEG(jpegQuality)
	} else {
		encoded, err = final.EncodePNG()
	}
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, "services.processing", "encode output", err)
	}

	url, err := p.outs.Save(ctx, key, encoded, "image/"+format)
	if err != nil {
		return nil, err
	}

	result = &ProcessResult{
		JobID:     res.JobID,
		OutputURL: url,
		Width:     final.Width,
		Height:    final.Height,
		Backend:   res.Backend,
		Stages:    res.Stages,
		Duration:  res.Duration,
	}
	p.recordSuccess(ctx, res, key, url)
	p.logger.Info("photo processed",
		"job_id", res.JobID, "style", req.Style, "backend", result.Backend,
		"duration", res.Duration)
	return result, nil
}

// ProcessBatch runs several photos with bounded parallelism. Items
// fail independently.
func (p *Processing) ProcessBatch(ctx context.Context, reqs []ProcessRequest) []BatchItem {
	items := make([]BatchItem, len(reqs))

	limit := p.cfg.BatchLimit
	if limit < 1 {
		limit = 2
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			res, err := p.Process(gctx, req)
			items[i] = BatchItem{Index: i, Result: res}
			if err != nil {
				items[i].Error = err.Error()
			}
			return nil
		})
	}
	g.Wait()
	return items
}

// partialResult surfaces the attempt trail of a failed run so callers
// can see which backends were tried and why each failed.
func partialResult(res *pipeline.Result) *ProcessResult {
	if res == nil {
		return nil
	}
	return &ProcessResult{
		JobID:    res.JobID,
		Backend:  res.Backend,
		Stages:   res.Stages,
		Duration: res.Duration,
	}
}

func extFor(format string) string {
	if format == "jpeg" {
		return "jpg"
	}
	return "png"
}

func (p *Processing) recordSuccess(ctx context.Context, res *pipeline.Result, key, url string) {
	if p.jobs == nil {
		return
	}
	stages, _ := sonic.Marshal(res.Stages)
	job := &storage.JobRecord{
		ID:         res.JobID,
		Style:      res.Style,
		Status:     storage.JobStatusCompleted,
		Backend:    res.Backend,
		OutputKey:  key,
		OutputURL:  url,
		Stages:     stages,
		DurationMS: res.Duration.Milliseconds(),
	}
	if err := p.jobs.Create(ctx, job); err != nil {
		p.logger.Warn("job history write failed", "job_id", res.JobID, "error", err)
	}
}

func newJobID() string { return uuid.New().String() }

func (p *Processing) recordFailure(ctx context.Context, res *pipeline.Result, style string, cause error) {
	if p.jobs == nil {
		return
	}
	job := &storage.JobRecord{
		ID:        newJobID(),
		Style:     style,
		Status:    storage.JobStatusFailed,
		ErrorKind: string(errors.KindOf(cause)),
		Error:     cause.Error(),
	}
	if res != nil {
		job.ID = res.JobID
		job.Backend = res.Backend
		job.Stages, _ = sonic.Marshal(res.Stages)
		job.DurationMS = res.Duration.Milliseconds()
	}
	if err := p.jobs.Create(ctx, job); err != nil {
		p.logger.Warn("job history write failed", "error", err)
	}
}
