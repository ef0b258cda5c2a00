package imaging

import (
	"io"
	"mime/multipart"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"photopipe-server-go/internal/app/services"
	"photopipe-server-go/internal/domain/artifact"
	"photopipe-server-go/internal/domain/metrics"
	"photopipe-server-go/internal/domain/pipeline"
	"photopipe-server-go/internal/domain/vision"
	"photopipe-server-go/internal/platform/errors"
	"photopipe-server-go/internal/platform/logging"
	"photopipe-server-go/internal/platform/storage"
	transport "photopipe-server-go/internal/transport/http"
)

const maxBatchSize = 10

// Service exposes the pipeline over HTTP.
type Service struct {
	processing *services.Processing
	orch       *pipeline.Orchestrator
	collector  *metrics.Collector
	analyzer   *vision.Analyzer
	jobs       *storage.JobRepository
	logger     *logging.Logger
}

func NewService(
	processing *services.Processing,
	orch *pipeline.Orchestrator,
	collector *metrics.Collector,
	analyzer *vision.Analyzer,
	jobs *storage.JobRepository,
	logger *logging.Logger,
) *Service {
	return &Service{
		processing: processing,
		orch:       orch,
		collector:  collector,
		analyzer:   analyzer,
		jobs:       jobs,
		logger:     logger,
	}
}

// RegisterRoutes mounts the API under the given group.
func (s *Service) RegisterRoutes(api *gin.RouterGroup) {
	api.POST("/remove-background", s.handleProcess)
	api.POST("/batch", s.handleBatch)
	api.POST("/analyze", s.handleAnalyze)
	api.GET("/styles", s.handleStyles)
	api.GET("/status", s.handleStatus)
	api.GET("/health", s.handleHealth)
	api.GET("/jobs", s.handleJobs)
	api.GET("/jobs/:id", s.handleJob)
}

func (s *Service) handleProcess(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		transport.Fail(c, http.StatusBadRequest, "image file is required")
		return
	}
	data, err := readUpload(file)
	if err != nil {
		transport.Fail(c, http.StatusBadRequest, "read uploaded image: "+err.Error())
		return
	}

	res, err := s.processing.Process(c.Request.Context(), services.ProcessRequest{
		Data:            data,
		Style:           c.PostForm("style"),
		Ratio:           c.PostForm("ratio"),
		BackgroundColor: c.PostForm("background_color"),
		OutputFormat:    c.PostForm("output_format"),
		EnhanceColor:    formToggle(c, "enhance_color"),
		RemoveWrinkles:  formToggle(c, "remove_wrinkles"),
	})
	if err != nil {
		if res != nil {
			transport.FailErrData(c, err, res)
			return
		}
		transport.FailErr(c, err)
		return
	}
	transport.Success(c, res)
}

func (s *Service) handleBatch(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		transport.Fail(c, http.StatusBadRequest, "multipart form is required")
		return
	}
	files := form.File["images"]
	if len(files) == 0 {
		transport.Fail(c, http.StatusBadRequest, "at least one image is required")
		return
	}
	if len(files) > maxBatchSize {
		transport.Fail(c, http.StatusBadRequest, "batch size limit exceeded")
		return
	}

	style := c.PostForm("style")
	reqs := make([]services.ProcessRequest, 0, len(files))
	for _, f := range files {
		data, err := readUpload(f)
		if err != nil {
			transport.Fail(c, http.StatusBadRequest, "read uploaded image: "+err.Error())
			return
		}
		reqs = append(reqs, services.ProcessRequest{
			Data:            data,
			Style:           style,
			Ratio:           c.PostForm("ratio"),
			BackgroundColor: c.PostForm("background_color"),
			OutputFormat:    c.PostForm("output_format"),
			EnhanceColor:    formToggle(c, "enhance_color"),
			RemoveWrinkles:  formToggle(c, "remove_wrinkles"),
		})
	}

	items := s.processing.ProcessBatch(c.Request.Context(), reqs)
	transport.Success(c, items)
}

func (s *Service) handleAnalyze(c *gin.Context) {
	if s.analyzer == nil {
		transport.Fail(c, http.StatusServiceUnavailable, "vision analysis is not enabled")
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		transport.Fail(c, http.StatusBadRequest, "image file is required")
		return
	}
	data, err := readUpload(file)
	if err != nil {
		transport.Fail(c, http.StatusBadRequest, "read uploaded image: "+err.Error())
		return
	}
	img, err := decodeImage(data)
	if err != nil {
		transport.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	desc, err := s.analyzer.Describe(c.Request.Context(), img, c.PostForm("prompt"))
	if err != nil {
		transport.FailErr(c, err)
		return
	}
	transport.Success(c, AnalyzeResponse{Description: desc})
}

func (s *Service) handleStyles(c *gin.Context) {
	transport.Success(c, gin.H{"styles": s.processing.Styles()})
}

func (s *Service) handleStatus(c *gin.Context) {
	status := SystemStatus{
		Goroutines: runtime.NumGoroutine(),
		Telemetry:  s.collector.Snapshot(),
	}

	if percents, err := cpu.Percent(100*time.Millisecond, false); err == nil && len(percents) > 0 {
		status.CPUPercent = percents[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		status.MemPercent = vm.UsedPercent
	}

	for _, backend := range s.orch.Chain() {
		desc := backend.Descriptor()
		status.Backends = append(status.Backends, BackendStatus{
			Name:        desc.Name,
			Type:        desc.Type,
			State:       backend.Health().State(),
			FailureRate: backend.Health().FailureRate(),
		})
	}
	transport.Success(c, status)
}

func (s *Service) handleHealth(c *gin.Context) {
	transport.Success(c, gin.H{"status": "ok"})
}

func (s *Service) handleJobs(c *gin.Context) {
	if s.jobs == nil {
		transport.Fail(c, http.StatusServiceUnavailable, "job history is not enabled")
		return
	}
	jobs, err := s.jobs.Recent(c.Request.Context(), 50)
	if err != nil {
		transport.FailErr(c, err)
		return
	}
	transport.Success(c, jobs)
}

func (s *Service) handleJob(c *gin.Context) {
	if s.jobs == nil {
		transport.Fail(c, http.StatusServiceUnavailable, "job history is not enabled")
		return
	}
	job, err := s.jobs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.IsKind(err, errors.KindStorage) {
			transport.Fail(c, http.StatusNotFound, err.Error())
			return
		}
		transport.FailErr(c, err)
		return
	}
	transport.Success(c, job)
}

func decodeImage(data []byte) (*artifact.Artifact, error) {
	img, err := artifact.Decode(data)
	if err != nil {
		return nil, errors.Wrap(errors.KindValidation, "transport.imaging", "decode image", err)
	}
	return img, nil
}

// formToggle reads an optional boolean form field that defaults to on.
func formToggle(c *gin.Context, field string) bool {
	v, ok := c.GetPostForm(field)
	if !ok || v == "" {
		return true
	}
	on, err := strconv.ParseBool(v)
	if err != nil {
		return true
	}
	return on
}

func readUpload(file *multipart.FileHeader) ([]byte, error) {
	f, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
