package model

// DefaultUSDPer1KTokens is the per-1k-token price used for estimates.
const DefaultUSDPer1KTokens = 0.002

// CostReport is the running token total and its dollar estimate.
type CostReport struct {
	Tokens int64
	USD    float64
}

func NewCostReport(tokens int64, usdPer1K float64) CostReport {
	return CostReport{
		Tokens: tokens,
		USD:    (float64(tokens) / 1000) * usdPer1K,
	}
}
