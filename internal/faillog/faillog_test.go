package faillog

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	require.NoError(t, sc.Err())
	return lines
}

func TestLog_RecordsOneLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "error_log.txt")
	log := New(path)
	defer log.Close()

	err := log.Record(Entry{
		Ticker:    "000001",
		Operation: "get_market",
		StartDate: "2024-03-01",
		KType:     1,
		Attempts:  3,
		Err:       errors.New("dial tcp: i/o timeout\nsecond line"),
	})
	require.NoError(t, err)

	lines := readLines(t, path)
	require.Len(t, lines, 1)
	line := lines[0]
	assert.Contains(t, line, "retries exhausted")
	assert.Contains(t, line, "ticker=000001")
	assert.Contains(t, line, "start_date=2024-03-01")
	assert.Contains(t, line, "k_type=1")
	assert.Contains(t, line, "attempts=3")
	assert.Contains(t, line, "second line")
	assert.Equal(t, 1, log.Count())
}

func TestLog_NoFileUntilFirstRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "error_log.txt")
	log := New(path)
	require.NoError(t, log.Close())

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestLog_AppendsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "error_log.txt")

	first := New(path)
	require.NoError(t, first.Record(Entry{Ticker: "600000", Attempts: 3, Err: errors.New("a")}))
	require.NoError(t, first.Close())

	second := New(path)
	require.NoError(t, second.Record(Entry{Ticker: "600001", Attempts: 3, Err: errors.New("b")}))
	require.NoError(t, second.Close())

	assert.Len(t, readLines(t, path), 2)
}

func TestLog_ConcurrentAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "error_log.txt")
	log := New(path)
	defer log.Close()

	const writers = 64
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = log.Record(Entry{
				Ticker:    fmt.Sprintf("%06d", i),
				Operation: "get_market",
				StartDate: "2024-03-01",
				KType:     1,
				Attempts:  3,
				Err:       errors.New(strings.Repeat("x", 512)),
			})
		}(i)
	}
	wg.Wait()

	lines := readLines(t, path)
	require.Len(t, lines, writers)

	seen := make(map[string]bool)
	for _, line := range lines {
		assert.Contains(t, line, "retries exhausted")
		assert.Contains(t, line, strings.Repeat("x", 512), "line was split or interleaved")
		for i := 0; i < writers; i++ {
			code := fmt.Sprintf("ticker=%06d", i)
			if strings.Contains(line, code) {
				seen[code] = true
			}
		}
	}
	assert.Len(t, seen, writers)
	assert.Equal(t, writers, log.Count())
}

func TestLog_OpenFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	log := New(filepath.Join(blocker, "error_log.txt"))
	assert.Error(t, log.Record(Entry{Ticker: "000001"}))
}
