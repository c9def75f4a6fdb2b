package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/highscan/internal/selection"
)

// predicatesCmd represents the predicates command
var predicatesCmd = &cobra.Command{
	Use:   "predicates",
	Short: "등록된 조건과 현재 체인 표시",
	Long: `등록된 조건(predicate) 목록과 현재 전략의 체인 순서를 표시합니다.
--strategy 로 지정한 YAML 을 검증하는 용도로도 씁니다.

Example:
  go run ./cmd/highscan predicates
  go run ./cmd/highscan predicates --strategy config/strategy/default.yaml`,
	RunE: runPredicates,
}

func init() {
	rootCmd.AddCommand(predicatesCmd)
}

func runPredicates(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	strategy, hash, err := loadStrategy(cfg)
	if err != nil {
		PrintError(err.Error())
		return err
	}
	if _, err := strategy.BuildChain(); err != nil {
		PrintError(err.Error())
		return err
	}

	PrintHeader("Registered predicates")
	for _, name := range selection.Available() {
		fmt.Printf("   • %s\n", name)
	}

	PrintHeader("Active chain: " + strategy.Meta.StrategyID)
	PrintKeyValue("Version", strategy.Meta.Version, 8)
	PrintKeyValue("Hash", hash[:12], 8)
	if strategy.Meta.Description != "" {
		PrintKeyValue("About", strategy.Meta.Description, 8)
	}
	fmt.Println()
	for i, p := range strategy.Chain {
		fmt.Printf("   %d. %s%s\n", i+1, p.Name, formatParams(p.Params))
	}
	PrintSeparator()
	return nil
}

func formatParams(params map[string]int) string {
	if len(params) == 0 {
		return ""
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%d", k, params[k])
	}
	return " (" + strings.Join(parts, ", ") + ")"
}
