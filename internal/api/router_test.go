package api

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/highscan/internal/api/handlers"
	"github.com/wonny/highscan/pkg/logger"
)

func TestRouter(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "result_2024-06-03.json"), []byte("[]\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stock_info_2024-06-03.json"), []byte("[]\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "error_log.txt"), []byte("600000 failed\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".tmp-result_2024-06-03.json"), []byte("["), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "result_2024-06-03.json"), []byte("[]\n"), 0o644))

	router := NewRouter(Handlers{
		Days:  handlers.NewDaysHandler(dir, nil),
		Files: http.FileServer(http.Dir(dir)),
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}),
	}, nil)

	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusTeapot},
		{http.MethodGet, "/api/days", http.StatusOK},
		{http.MethodGet, "/api/results/2024-06-03", http.StatusOK},
		{http.MethodGet, "/api/results/2024-06-04", http.StatusNotFound},
		{http.MethodGet, "/data/result_2024-06-03.json", http.StatusOK},
		{http.MethodGet, "/data/result_2024-06-04.json", http.StatusNotFound},
		{http.MethodGet, "/data/stock_info_2024-06-03.json", http.StatusOK},
		{http.MethodGet, "/data/error_log.txt", http.StatusNotFound},
		{http.MethodGet, "/data/.tmp-result_2024-06-03.json", http.StatusNotFound},
		{http.MethodGet, "/data/sub/result_2024-06-03.json", http.StatusNotFound},
		{http.MethodGet, "/data/", http.StatusNotFound},
		{http.MethodGet, "/api/results/yesterday", http.StatusBadRequest},
		{http.MethodPost, "/api/days", http.StatusMethodNotAllowed},
		{http.MethodPost, "/api/runs", http.StatusNotFound}, // not wired
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	h := recoveryMiddleware(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Internal server error")
}
