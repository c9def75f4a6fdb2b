package handlers

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/highscan/internal/contracts"
	"github.com/wonny/highscan/internal/daycache"
	"github.com/wonny/highscan/pkg/logger"
)

// DaysHandler serves the per-day universe and result files
// ⭐ SSOT: 일별 파일 조회 API는 이 구조체에서만
type DaysHandler struct {
	dataDir string
	logger  *logger.Logger
}

// NewDaysHandler creates a new days handler
func NewDaysHandler(dataDir string, log *logger.Logger) *DaysHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &DaysHandler{dataDir: dataDir, logger: log}
}

// List returns every day with files on disk, newest first
// GET /api/days
func (h *DaysHandler) List(w http.ResponseWriter, r *http.Request) {
	days, err := daycache.ListDays(h.dataDir)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list day files")
		respondError(w, http.StatusInternalServerError, "Failed to list days")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(days),
		"days":  days,
	})
}

// GetResults returns the passing tickers of one day
// GET /api/results/{date}
func (h *DaysHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	dateKey, ok := dateParam(w, r)
	if !ok {
		return
	}

	results, err := daycache.LoadResults(contracts.ResultPath(h.dataDir, dateKey))
	if err != nil {
		h.fileError(w, err, "result", dateKey)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"date":    dateKey,
		"count":   len(results),
		"results": results,
	})
}

// GetUniverse returns the universe snapshot of one day
// GET /api/universe/{date}
func (h *DaysHandler) GetUniverse(w http.ResponseWriter, r *http.Request) {
	dateKey, ok := dateParam(w, r)
	if !ok {
		return
	}

	u, err := daycache.LoadUniverse(contracts.UniversePath(h.dataDir, dateKey), dateKey)
	if err != nil {
		h.fileError(w, err, "universe", dateKey)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"date":        dateKey,
		"count":       u.Count(),
		"by_exchange": u.CountByExchange(),
		"tickers":     u.Tickers,
	})
}

func (h *DaysHandler) fileError(w http.ResponseWriter, err error, kind, dateKey string) {
	if errors.Is(err, fs.ErrNotExist) {
		respondError(w, http.StatusNotFound, "No "+kind+" file for "+dateKey)
		return
	}
	h.logger.WithError(err).WithField("date_key", dateKey).Error(fmt.Sprintf("Failed to read %s file", kind))
	respondError(w, http.StatusInternalServerError, "Failed to read "+kind+" file")
}

func dateParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	dateKey := mux.Vars(r)["date"]
	if err := contracts.ValidateDateKey(dateKey); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid date format (expected YYYY-MM-DD)")
		return "", false
	}
	return dateKey, true
}
