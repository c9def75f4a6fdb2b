package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "오늘 스크리닝 1회 실행",
	Long: `오늘 날짜의 스크리닝을 실행합니다.

흐름:
  1. result_<today>.json 이 있으면 그대로 출력 (외부 호출 없음)
  2. stock_info_<today>.json 확보 (없으면 전 종목 조회 후 저장)
  3. 종목별 일봉 조회 + 조건 체인 평가 (동시 실행)
  4. 통과 종목을 result_<today>.json 에 원자적으로 저장

Ctrl+C 시 진행 중인 조회를 취소하고 결과 파일은 쓰지 않습니다.

Example:
  go run ./cmd/highscan run
  go run ./cmd/highscan run --show 50`,
	RunE: runScreen,
}

var runShow int

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().IntVar(&runShow, "show", 20, "print up to N passing tickers (0 = all)")
}

func runScreen(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rc := a.today()
	res, err := a.runner.Run(ctx, rc)
	if res != nil {
		PrintRunSummary(res)
	}
	if err != nil {
		PrintError(err.Error())
		return fmt.Errorf("run %s: %w", rc.DateKey, err)
	}

	if res.Skipped {
		PrintInfo("Today's result file already existed; provider was not called")
	}
	if len(res.Results) > 0 {
		fmt.Println()
		PrintResults(res.Results, runShow)
	}
	fmt.Println()
	PrintSuccess("Results: " + rc.ResultPath)
	if n := a.failures.Count(); n > 0 {
		PrintWarning(fmt.Sprintf("%d tickers exhausted retries, see %s", n, rc.ErrorLogPath))
	}
	return nil
}
