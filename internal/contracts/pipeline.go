package contracts

// Pipeline Stage 정의 (SSOT)
// 모든 로그와 메트릭 라벨에서 이 상수를 사용해야 함
//
// 파이프라인 흐름:
//   Universe → Screen → Persist

// Stage represents a daily run stage
type Stage string

const (
	// StageUniverse: 당일 종목 스냅샷 확보 (stock_info_<date>.json)
	// 위치: internal/daycache/universe.go
	StageUniverse Stage = "UNIVERSE"

	// StageScreen: 종목별 시세 조회 + 조건 체인 평가
	// 위치: internal/screening/
	StageScreen Stage = "SCREEN"

	// StagePersist: 결과 파일 원자적 저장 (result_<date>.json)
	// 위치: internal/daycache/result.go
	StagePersist Stage = "PERSIST"
)

// String returns the stage name
func (s Stage) String() string {
	return string(s)
}

// TickerState is the per-ticker screening state.
//
//	Pending → Fetching → Evaluating → Passed | Rejected
//	                   ↘ Failed
type TickerState string

const (
	StatePending    TickerState = "pending"
	StateFetching   TickerState = "fetching"
	StateEvaluating TickerState = "evaluating"
	StatePassed     TickerState = "passed"
	StateRejected   TickerState = "rejected"
	StateFailed     TickerState = "failed"
)

// IsTerminal reports whether no further transition is possible
func (s TickerState) IsTerminal() bool {
	return s == StatePassed || s == StateRejected || s == StateFailed
}

// CanTransition validates a state change
func (s TickerState) CanTransition(next TickerState) bool {
	switch s {
	case StatePending:
		return next == StateFetching || next == StateFailed
	case StateFetching:
		return next == StateEvaluating || next == StateRejected || next == StateFailed
	case StateEvaluating:
		return next == StatePassed || next == StateRejected || next == StateFailed
	}
	return false
}

// ScreeningResult is the persisted projection of a passing ticker
// ⭐ SSOT: result_<date>.json 레코드 형식
type ScreeningResult struct {
	StockCode string   `json:"stock_code"`
	ShortName string   `json:"short_name"`
	Exchange  Exchange `json:"exchange"`
	ListDate  string   `json:"list_date"`
}

// ResultFromTicker lifts ticker metadata into a result record
func ResultFromTicker(t Ticker) ScreeningResult {
	return ScreeningResult{
		StockCode: t.Code,
		ShortName: t.ShortName,
		Exchange:  t.Exchange,
		ListDate:  t.ListDate,
	}
}
