package models

// StatsResult is either a StatsSuccess or a StatsFailure. Callers branch with a type switch.
type StatsResult interface {
	statsResult()
	GetSymbol() string
	GetPeriod() Period
}

// StatsSuccess holds the summary statistics for one symbol over one window.
type StatsSuccess struct {
	Symbol       string  `json:"symbol"`
	Period       Period  `json:"period"`
	High         float64 `json:"high"`
	Low          float64 `json:"low"`
	AverageClose float64 `json:"average_close"`
	LastClose    float64 `json:"last_close"`
	CacheHit     bool    `json:"cache_hit"`
}

func (StatsSuccess) statsResult()        {}
func (s StatsSuccess) GetSymbol() string { return s.Symbol }
func (s StatsSuccess) GetPeriod() Period { return s.Period }

// FailureKind classifies why a stats request produced no numbers.
type FailureKind string

const (
	FailureValidation FailureKind = "validation"
	FailureRetrieval  FailureKind = "retrieval"
	FailureTimeout    FailureKind = "timeout"
	FailureEmptyData  FailureKind = "empty_data"
)

// StatsFailure carries the reason a symbol could not be summarised.
type StatsFailure struct {
	Symbol string      `json:"symbol"`
	Period Period      `json:"period"`
	Reason string      `json:"error"`
	Kind   FailureKind `json:"-"`
}

func (StatsFailure) statsResult()        {}
func (f StatsFailure) GetSymbol() string { return f.Symbol }
func (f StatsFailure) GetPeriod() Period { return f.Period }

// Error lets a failure travel through error-returning call sites.
func (f StatsFailure) Error() string { return f.Symbol + ": " + f.Reason }

// Unwrap maps the failure kind onto the domain sentinels.
func (f StatsFailure) Unwrap() error {
	switch f.Kind {
	case FailureValidation:
		return ErrValidation
	case FailureTimeout:
		return ErrTimeout
	case FailureEmptyData:
		return ErrEmptyData
	default:
		return ErrRetrieval
	}
}

// BatchStatsResponse is the outcome of a multi-symbol stats request.
type BatchStatsResponse struct {
	Results map[string]StatsResult `json:"results"`
	Count   int                    `json:"count"`
	Period  Period                 `json:"period"`
}

// CompareItem is a successful result ranked in a comparison.
type CompareItem struct {
	StatsSuccess
	RangePercent float64 `json:"range_percent"`
}

// CompareResponse ranks symbols by average close, highest first.
type CompareResponse struct {
	Period    Period        `json:"period"`
	Items     []CompareItem `json:"items"`
	TopSymbol string        `json:"top_symbol"`
	Count     int           `json:"count"`
	Skipped   []string      `json:"skipped,omitempty"`
}
