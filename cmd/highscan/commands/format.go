package commands

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/wonny/highscan/internal/contracts"
	"github.com/wonny/highscan/internal/pipeline"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

// PrintHeader prints a titled block header
func PrintHeader(title string) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  %s\n", title)
	PrintSeparator()
}

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Println()
	fmt.Printf("⚠️  %s\n", message)
	fmt.Println()
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Printf("❌ %s\n", message)
}

// PrintInfo prints an info message
func PrintInfo(message string) {
	fmt.Printf("ℹ️  %s\n", message)
}

// PrintTableHeader prints a table header
func PrintTableHeader(columns []string, widths []int) {
	PrintTableRow(columns, widths)

	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	fmt.Println(strings.Repeat("─", totalWidth))
}

// PrintTableRow prints a table row
func PrintTableRow(values []string, widths []int) {
	for i, val := range values {
		fmt.Printf("%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Print("  ")
		}
	}
	fmt.Println()
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(key string, value string, keyWidth int) {
	fmt.Printf("   %-*s : %s\n", keyWidth, key, value)
}

// PrintRunSummary prints the outcome of one daily run
func PrintRunSummary(res *pipeline.RunResult) {
	PrintHeader("Daily screen " + res.DateKey)
	PrintKeyValue("Run ID", res.RunID, 12)
	PrintKeyValue("Outcome", res.Outcome(), 12)
	if res.StrategyID != "" {
		PrintKeyValue("Strategy", res.StrategyID, 12)
	}
	if !res.Skipped {
		PrintKeyValue("Universe", fmt.Sprintf("%d", res.UniverseCount), 12)
		PrintKeyValue("Rejected", fmt.Sprintf("%d", res.Summary.Rejected), 12)
		PrintKeyValue("Failed", fmt.Sprintf("%d", res.Summary.Failed), 12)
		PrintKeyValue("Workers", fmt.Sprintf("%d", res.Summary.Workers), 12)
	}
	PrintKeyValue("Passed", fmt.Sprintf("%d", len(res.Results)), 12)
	PrintKeyValue("Duration", res.Duration.Round(time.Millisecond).String(), 12)
	if len(res.Summary.RejectedBy) > 0 {
		fmt.Println()
		fmt.Println("   Rejected by:")
		for _, name := range sortedKeys(res.Summary.RejectedBy) {
			fmt.Printf("     %-28s %6d\n", name, res.Summary.RejectedBy[name])
		}
	}
	PrintSeparator()
}

// PrintResults prints passing tickers as a table
func PrintResults(results []contracts.ScreeningResult, limit int) {
	widths := []int{8, 4, 14, 12}
	PrintTableHeader([]string{"Code", "Exch", "Name", "Listed"}, widths)
	for i, r := range results {
		if limit > 0 && i >= limit {
			fmt.Printf("… %d more\n", len(results)-limit)
			break
		}
		PrintTableRow([]string{r.StockCode, string(r.Exchange), r.ShortName, r.ListDate}, widths)
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
