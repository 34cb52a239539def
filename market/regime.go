package market

// Regime buckets a volatility figure for reporting.
type Regime int

const (
	RegimeLow Regime = iota
	RegimeNormal
	RegimeHigh
	RegimeExtreme
)

func (r Regime) String() string {
	switch r {
	case RegimeLow:
		return "low"
	case RegimeNormal:
		return "normal"
	case RegimeHigh:
		return "high"
	case RegimeExtreme:
		return "extreme"
	default:
		return "unknown"
	}
}

// RegimeThresholds are the lower bounds of the normal/high/extreme buckets.
type RegimeThresholds struct {
	Normal  float64
	High    float64
	Extreme float64
}

// DefaultRegimeThresholds returns 0.1/0.2/0.4.
func DefaultRegimeThresholds() RegimeThresholds {
	return RegimeThresholds{Normal: 0.1, High: 0.2, Extreme: 0.4}
}

// ClassifyRegime maps vol onto a Regime; zero thresholds use the defaults.
func ClassifyRegime(vol float64, th RegimeThresholds) Regime {
	if th == (RegimeThresholds{}) {
		th = DefaultRegimeThresholds()
	}
	switch {
	case vol >= th.Extreme:
		return RegimeExtreme
	case vol >= th.High:
		return RegimeHigh
	case vol >= th.Normal:
		return RegimeNormal
	default:
		return RegimeLow
	}
}

// IsHighVolatility reports high or extreme.
func (r Regime) IsHighVolatility() bool {
	return r == RegimeHigh || r == RegimeExtreme
}
