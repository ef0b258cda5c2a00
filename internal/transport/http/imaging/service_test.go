package imaging

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photopipe-server-go/internal/app/services"
	"photopipe-server-go/internal/domain/artifact"
	"photopipe-server-go/internal/domain/eventbus"
	"photopipe-server-go/internal/domain/metrics"
	"photopipe-server-go/internal/domain/pipeline"
	"photopipe-server-go/internal/domain/removal"
	"photopipe-server-go/internal/domain/removal/adapters/legacy"
	"photopipe-server-go/internal/domain/removal/inter"
	"photopipe-server-go/internal/domain/stage"
	"photopipe-server-go/internal/domain/store"
	"photopipe-server-go/internal/platform/config"
	"photopipe-server-go/internal/platform/errors"
	"photopipe-server-go/internal/platform/logging"
	"photopipe-server-go/internal/platform/storage"
	transport "photopipe-server-go/internal/transport/http"
)

func newTestRouter(t *testing.T) (*gin.Engine, *storage.JobRepository) {
	t.Helper()

	reg := removal.NewRegistry()
	require.NoError(t, legacy.RegisterWith(reg))
	return routerWithChain(t, reg,
		[]config.ModelConfig{{Name: "legacy", Type: config.ModelLegacyLocal}})
}

// downRemover refuses every invocation.
type downRemover struct{}

func (downRemover) RemoveBackground(ctx context.Context, in *artifact.Artifact) (*artifact.Artifact, error) {
	return nil, errors.New(errors.KindBackendUnavailable, "test", "endpoint down")
}

func newFailingRouter(t *testing.T) (*gin.Engine, *storage.JobRepository) {
	t.Helper()

	reg := removal.NewRegistry()
	require.NoError(t, reg.Register("fake", func(cfg config.ModelConfig, l *logging.Logger) (inter.Remover, error) {
		return downRemover{}, nil
	}))
	return routerWithChain(t, reg,
		[]config.ModelConfig{{Name: "down", Type: "fake"}})
}

func routerWithChain(t *testing.T, reg *removal.Registry, models []config.ModelConfig) (*gin.Engine, *storage.JobRepository) {
	t.Helper()

	logger, err := logging.New(logging.Config{Level: "error"})
	require.NoError(t, err)

	chain, err := removal.BuildChain(models,
		config.HealthConfig{DegradedAfter: 2, FailureRateThreshold: 0.5, WindowSize: 20, CoolDown: time.Minute},
		reg, logger)
	require.NoError(t, err)

	pipeCfg := config.PipelineConfig{
		AttemptTimeout: 5 * time.Second,
		DefaultRatio:   "1:1",
		MaxImageSize:   1 << 20,
	}
	table := stage.NewTable(config.DefaultConfig().Styles)
	collector := metrics.NewCollector()
	orch := pipeline.NewOrchestrator(pipeCfg, chain, table, collector, eventbus.New(), logger)

	db, err := storage.InitDB(config.DatabaseConfig{DSN: filepath.Join(t.TempDir(), "jobs.db")}, logger)
	require.NoError(t, err)
	jobs := storage.NewJobRepository(db)

	processing := services.NewProcessing(pipeCfg, orch, store.NewMemoryStore(config.StorageConfig{}), jobs, logger)
	svc := NewService(processing, orch, collector, nil, jobs, logger)
	return transport.NewRouter(logger, "", "", svc), jobs
}

func multipartImage(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	a := artifact.New(30, 30, artifact.ModeRGB)
	for i := 0; i < len(a.Pix); i += 4 {
		a.Pix[i], a.Pix[i+1], a.Pix[i+2], a.Pix[i+3] = 245, 245, 245, 255
	}
	for y := 8; y < 22; y++ {
		for x := 8; x < 22; x++ {
			i := (y*30 + x) * 4
			a.Pix[i], a.Pix[i+1], a.Pix[i+2] = 40, 40, 70
		}
	}
	png, err := a.EncodePNG()
	require.NoError(t, err)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("image", "product.png")
	require.NoError(t, err)
	_, err = part.Write(png)
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestHandleProcess(t *testing.T) {
	router, _ := newTestRouter(t)

	body, contentType := multipartImage(t, map[string]string{"style": "minimal"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/remove-background", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Code int                    `json:"code"`
		Data services.ProcessResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Code)
	assert.Equal(t, 1080, resp.Data.Width)
	assert.NotEmpty(t, resp.Data.JobID)
}

func TestHandleProcessUnknownStyle(t *testing.T) {
	router, _ := newTestRouter(t)

	body, contentType := multipartImage(t, map[string]string{"style": "vaporwave"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/remove-background", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleProcessFailureCarriesAttemptTrail(t *testing.T) {
	router, _ := newFailingRouter(t)

	body, contentType := multipartImage(t, map[string]string{"style": "minimal"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/remove-background", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadGateway, rec.Code, rec.Body.String())

	var resp struct {
		Message string                 `json:"message"`
		Data    services.ProcessResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Message, "all backends exhausted")
	assert.NotEmpty(t, resp.Data.JobID)
	require.NotEmpty(t, resp.Data.Stages, "failure payload must carry the attempt trail")
	assert.False(t, resp.Data.Stages[0].Success)
}

func TestHandleProcessMissingFile(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/remove-background", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleStyles(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/styles", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "minimal")
	assert.Contains(t, rec.Body.String(), "street")
}

func TestHandleStatus(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data SystemStatus `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Backends, 1)
	assert.Equal(t, "legacy", resp.Data.Backends[0].Name)
}

func TestHandleJobNotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/missing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleJobAfterProcess(t *testing.T) {
	router, jobs := newTestRouter(t)

	body, contentType := multipartImage(t, map[string]string{"style": "mood"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/remove-background", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	recent, err := jobs.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+recent[0].ID, nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleAnalyzeDisabled(t *testing.T) {
	router, _ := newTestRouter(t)

	body, contentType := multipartImage(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
