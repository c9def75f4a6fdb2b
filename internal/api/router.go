package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/highscan/internal/api/handlers"
	"github.com/wonny/highscan/internal/daycache"
	"github.com/wonny/highscan/pkg/logger"
)

// Handlers groups everything the router serves. Nil members are not routed.
type Handlers struct {
	Days     *handlers.DaysHandler
	Runs     *handlers.RunsHandler
	Jobs     *handlers.JobsHandler
	Progress *handlers.ProgressHub
	Metrics  http.Handler
	Files    http.Handler // DATA_DIR, read-only; only day files are reachable
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(h Handlers, log *logger.Logger) http.Handler {
	if log == nil {
		log = logger.Nop()
	}
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	if h.Metrics != nil {
		r.Handle("/metrics", h.Metrics).Methods("GET")
	}
	if h.Files != nil {
		r.PathPrefix("/data/").Handler(http.StripPrefix("/data/", dayFilesOnly(h.Files))).Methods("GET", "HEAD")
	}
	if h.Progress != nil {
		r.HandleFunc("/ws/progress", h.Progress.Serve).Methods("GET")
	}

	api := r.PathPrefix("/api").Subrouter()

	if h.Days != nil {
		api.HandleFunc("/days", h.Days.List).Methods("GET")
		api.HandleFunc("/results/{date}", h.Days.GetResults).Methods("GET")
		api.HandleFunc("/universe/{date}", h.Days.GetUniverse).Methods("GET")
	}
	if h.Runs != nil {
		api.HandleFunc("/runs/today", h.Runs.Today).Methods("GET")
		api.HandleFunc("/runs", h.Runs.Trigger).Methods("POST")
	}
	if h.Jobs != nil {
		api.HandleFunc("/jobs", h.Jobs.List).Methods("GET")
		api.HandleFunc("/jobs/{name}/run", h.Jobs.Run).Methods("POST")
	}

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// dayFilesOnly passes stock_info_<date>.json and result_<date>.json through
// and answers 404 for anything else in DATA_DIR (error log, temp files, listing)
func dayFilesOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Path
		if strings.Contains(name, "/") || !daycache.IsDayFile(name) {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "highscan",
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
