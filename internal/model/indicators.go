package model

// IndicatorSnapshot holds last-row indicator values for one symbol.
// A nil field means the series was too short for that indicator.
type IndicatorSnapshot struct {
	EMA20       *float64
	EMA50       *float64
	RSI14       *float64
	MACDHist    *float64
	ATRPercent  *float64
	VolumeRatio *float64
	Bars        int
	Policy      string
}

// Empty reports whether no indicator could be computed.
func (s IndicatorSnapshot) Empty() bool {
	return s.EMA20 == nil && s.EMA50 == nil && s.RSI14 == nil &&
		s.MACDHist == nil && s.ATRPercent == nil && s.VolumeRatio == nil
}

// Float returns a pointer to v. Handy for building snapshots in tests.
func Float(v float64) *float64 { return &v }
