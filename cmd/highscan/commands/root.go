package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	dataDir      string
	strategyFile string
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "highscan",
	Short: "highscan - A주 신고가 패턴 일별 스크리너",
	Long: `highscan CLI

전 종목 일봉을 받아 조건 체인(PeakPosition 등)으로 걸러
하루 한 번 result_<date>.json 에 저장합니다.
같은 날 두 번째 실행은 외부 호출 없이 저장된 결과를 돌려줍니다.

Usage:
  go run ./cmd/highscan [command]

Examples:
  go run ./cmd/highscan run
  go run ./cmd/highscan universe
  go run ./cmd/highscan status --all
  go run ./cmd/highscan serve
  go run ./cmd/highscan predicates`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "day file directory (default DATA_DIR)")
	rootCmd.PersistentFlags().StringVar(&strategyFile, "strategy", "", "strategy YAML (default STRATEGY_FILE, built-in chain if empty)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
