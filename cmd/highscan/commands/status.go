package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/highscan/internal/contracts"
	"github.com/wonny/highscan/internal/daycache"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "일별 파일 상태 조회",
	Long: `날짜별 스냅샷/결과 파일 상태를 표시합니다.
외부 호출이나 Redis 연결 없이 DATA_DIR 만 읽습니다.

Example:
  go run ./cmd/highscan status
  go run ./cmd/highscan status --date 2024-06-03
  go run ./cmd/highscan status --all`,
	RunE: runStatus,
}

var (
	statusDate string
	statusAll  bool
)

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVar(&statusDate, "date", "", "date key YYYY-MM-DD (default today)")
	statusCmd.Flags().BoolVar(&statusAll, "all", false, "list every day in DATA_DIR")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if statusAll {
		days, err := daycache.ListDays(cfg.DataDir)
		if err != nil {
			return err
		}
		PrintHeader("Days in " + cfg.DataDir)
		widths := []int{12, 10, 8}
		PrintTableHeader([]string{"Date", "Universe", "Result"}, widths)
		for _, d := range days {
			PrintTableRow([]string{d.DateKey, yesNo(d.HasUniverse), yesNo(d.HasResult)}, widths)
		}
		return nil
	}

	dateKey := statusDate
	if dateKey == "" {
		loc, err := cfg.Location()
		if err != nil {
			return err
		}
		dateKey = time.Now().In(loc).Format(contracts.DateKeyLayout)
	}
	if err := contracts.ValidateDateKey(dateKey); err != nil {
		return err
	}

	rc := contracts.ForDate(cfg.DataDir, dateKey)
	PrintHeader("Status " + dateKey)

	if u, err := daycache.LoadUniverse(rc.UniversePath, dateKey); err == nil {
		PrintKeyValue("Universe", fmt.Sprintf("%d tickers (%s)", u.Count(), rc.UniversePath), 10)
	} else {
		PrintKeyValue("Universe", "missing", 10)
	}

	if results, err := daycache.LoadResults(rc.ResultPath); err == nil {
		PrintKeyValue("Result", fmt.Sprintf("%d passed (%s)", len(results), rc.ResultPath), 10)
	} else {
		PrintKeyValue("Result", "missing", 10)
	}
	PrintSeparator()
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "-"
}
