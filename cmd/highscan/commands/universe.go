package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/highscan/internal/contracts"
)

// universeCmd represents the universe command
var universeCmd = &cobra.Command{
	Use:   "universe",
	Short: "오늘 종목 스냅샷 확보",
	Long: `stock_info_<today>.json 을 확보합니다.

파일이 있으면 읽기만 하고, 없으면 전 종목 목록을 조회해
정규화(6자리 코드, YYYY-MM-DD 상장일) 후 저장합니다.

Example:
  go run ./cmd/highscan universe`,
	RunE: runUniverse,
}

func init() {
	rootCmd.AddCommand(universeCmd)
}

func runUniverse(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rc := a.today()
	u, err := a.universe.Ensure(ctx, rc)
	if err != nil {
		PrintError(err.Error())
		return fmt.Errorf("universe %s: %w", rc.DateKey, err)
	}

	PrintHeader("Universe " + rc.DateKey)
	PrintKeyValue("Total", fmt.Sprintf("%d", u.Count()), 8)
	counts := u.CountByExchange()
	for _, ex := range []contracts.Exchange{contracts.ExchangeSH, contracts.ExchangeSZ, contracts.ExchangeBJ} {
		PrintKeyValue(string(ex), fmt.Sprintf("%d", counts[ex]), 8)
	}
	PrintSeparator()
	PrintSuccess("Snapshot: " + rc.UniversePath)
	return nil
}
