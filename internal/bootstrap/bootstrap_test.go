package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAppWiresEverything(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	cfg := `
server:
  ip: "127.0.0.1"
  port: 0
log:
  log_level: error
  log_dir: ""
storage:
  driver: memory
database:
  dsn: "` + filepath.Join(dir, "jobs.db") + `"
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	app, err := NewApp(context.Background(), cfgPath)
	require.NoError(t, err)
	require.NotNil(t, app.Handler())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/styles", nil)
	rec = httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "minimal")
}

func TestNewAppMissingConfigUsesDefaults(t *testing.T) {
	t.Setenv("PHOTOPIPE_LOG_LEVEL", "error")

	dir := t.TempDir()
	oldWD, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(oldWD) })

	app, err := NewApp(context.Background(), filepath.Join(dir, "absent.yaml"))
	require.NoError(t, err)
	assert.NotNil(t, app.Handler())
}
