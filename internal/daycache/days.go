package daycache

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wonny/highscan/internal/contracts"
)

const (
	universePrefix = "stock_info_"
	resultPrefix   = "result_"
	dayFileSuffix  = ".json"
)

// DayFiles reports which day files exist for a date
type DayFiles struct {
	DateKey     string `json:"date_key"`
	HasUniverse bool   `json:"has_universe"`
	HasResult   bool   `json:"has_result"`
}

// parseDayFile returns the date key and kind of a day file name
func parseDayFile(name string) (dateKey string, universe bool, ok bool) {
	if !strings.HasSuffix(name, dayFileSuffix) {
		return "", false, false
	}
	base := strings.TrimSuffix(name, dayFileSuffix)
	switch {
	case strings.HasPrefix(base, universePrefix):
		dateKey, universe = strings.TrimPrefix(base, universePrefix), true
	case strings.HasPrefix(base, resultPrefix):
		dateKey = strings.TrimPrefix(base, resultPrefix)
	default:
		return "", false, false
	}
	if contracts.ValidateDateKey(dateKey) != nil {
		return "", false, false
	}
	return dateKey, universe, true
}

// IsDayFile reports whether name is a universe or result file of a valid date
func IsDayFile(name string) bool {
	_, _, ok := parseDayFile(name)
	return ok
}

// ListDays returns the dates with day files in dataDir, newest first.
// A missing directory yields no days.
func ListDays(dataDir string) ([]DayFiles, error) {
	entries, err := os.ReadDir(dataDir)
	if os.IsNotExist(err) {
		return []DayFiles{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list data dir: %w", err)
	}

	byDate := make(map[string]*DayFiles)
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		dateKey, universe, ok := parseDayFile(e.Name())
		if !ok {
			continue
		}
		d, exists := byDate[dateKey]
		if !exists {
			d = &DayFiles{DateKey: dateKey}
			byDate[dateKey] = d
		}
		if universe {
			d.HasUniverse = true
		} else {
			d.HasResult = true
		}
	}

	days := make([]DayFiles, 0, len(byDate))
	for _, d := range byDate {
		days = append(days, *d)
	}
	// YYYY-MM-DD sorts lexically
	sort.Slice(days, func(i, j int) bool { return days[i].DateKey > days[j].DateKey })
	return days, nil
}

// Prune removes universe and result files dated before cutoff (YYYY-MM-DD)
// and returns the removed paths. The error log is never touched.
func Prune(dataDir, cutoff string) ([]string, error) {
	if err := contracts.ValidateDateKey(cutoff); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dataDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list data dir: %w", err)
	}

	var removed []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		dateKey, _, ok := parseDayFile(e.Name())
		if !ok || dateKey >= cutoff {
			continue
		}
		path := filepath.Join(dataDir, e.Name())
		if err := os.Remove(path); err != nil {
			return removed, fmt.Errorf("remove %s: %w", path, err)
		}
		removed = append(removed, path)
	}
	return removed, nil
}
