package model

// LiquidityTier names which filter tier an option pick passed.
type LiquidityTier string

const (
	TierStrict  LiquidityTier = "strict"
	TierRelaxed LiquidityTier = "relaxed"
	TierNone    LiquidityTier = "none"
)

// ChainRow is one row of a provider option chain.
type ChainRow struct {
	ContractSymbol string
	Strike         float64
	Bid            float64
	Ask            float64
	Volume         int64
	OpenInterest   int64
}

// OptionChain is the call and put side for one expiration.
type OptionChain struct {
	Expiration string
	Calls      []ChainRow
	Puts       []ChainRow
}

// OptionContract is the selected contract with its liquidity figures.
type OptionContract struct {
	Symbol       string
	Strike       float64
	Bid          float64
	Ask          float64
	Mid          float64
	SpreadPct    float64
	Volume       int64
	OpenInterest int64
}

// Risk derives a risk tier from spread and open interest.
func (c *OptionContract) Risk() RiskLevel {
	switch {
	case c.SpreadPct <= 5 && c.OpenInterest >= 1000:
		return RiskLow
	case c.SpreadPct <= 10 && c.OpenInterest >= 300:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// OptionPick is the selector result. Contract is nil when Tier is TierNone,
// in which case Note explains why.
type OptionPick struct {
	Side       Bias
	Expiration string
	DTE        int
	Tier       LiquidityTier
	Contract   *OptionContract
	Note       string
}

// OK reports whether a contract was selected.
func (p OptionPick) OK() bool { return p.Contract != nil && p.Tier != TierNone }
