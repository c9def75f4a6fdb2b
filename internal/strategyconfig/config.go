package strategyconfig

import "github.com/wonny/highscan/internal/selection"

// Config는 스크리닝 전략의 전체 설정
type Config struct {
	Meta  Meta        `yaml:"meta" json:"meta"`
	Fetch Fetch       `yaml:"fetch" json:"fetch"`
	Chain []Predicate `yaml:"chain" json:"chain" validate:"required,min=1,dive"`
}

// Meta 메타 정보
type Meta struct {
	StrategyID  string `yaml:"strategy_id" json:"strategy_id" validate:"required"`
	Version     string `yaml:"version" json:"version" default:"1"`
	Description string `yaml:"description" json:"description"`
}

// Fetch overrides the history window; empty start_date keeps START_DATE
type Fetch struct {
	StartDate string `yaml:"start_date" json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	KType     int    `yaml:"k_type" json:"k_type" default:"1" validate:"oneof=1 2 3"`
}

// Predicate is one chain entry
type Predicate struct {
	Name   string         `yaml:"name" json:"name" validate:"required"`
	Params map[string]int `yaml:"params,omitempty" json:"params,omitempty"`
}

// Specs converts the chain to selection specs in order
func (c *Config) Specs() []selection.Spec {
	specs := make([]selection.Spec, len(c.Chain))
	for i, p := range c.Chain {
		specs[i] = selection.Spec{Name: p.Name, Params: selection.Params(p.Params)}
	}
	return specs
}

// BuildChain builds the predicate chain
func (c *Config) BuildChain() (*selection.Chain, error) {
	return selection.BuildChain(c.Specs())
}

// Default returns the built-in strategy used when no file is configured
func Default() *Config {
	return &Config{
		Meta: Meta{
			StrategyID:  "peak_position_default",
			Version:     "1",
			Description: "2nd and 3rd highest highs fall before the peak",
		},
		Fetch: Fetch{KType: 1},
		Chain: []Predicate{{Name: selection.NamePeakPosition}},
	}
}
