package models

// Requests for the HTTP endpoints. Defined in domain for consistency and reuse.

// MaxTimeoutSeconds is the largest per-request provider timeout; it matches
// the lte bound in the timeout validate tags below.
const MaxTimeoutSeconds = 120

type StatsRequest struct {
	Ticker       string  `query:"ticker" json:"ticker" validate:"required"`
	Start        string  `query:"start" json:"start" validate:"required,datetime=2006-01-02"`
	End          string  `query:"end" json:"end" validate:"required,datetime=2006-01-02"`
	Timeout      float64 `query:"timeout" json:"timeout" default:"15.0" validate:"gt=0,lte=120"`
	UseCache     bool    `query:"use_cache" json:"use_cache" default:"true"`
	RefreshCache bool    `query:"refresh_cache" json:"refresh_cache"`
	SampleFile   string  `query:"sample_file" json:"sample_file"`
}

type BatchStatsRequest struct {
	Tickers  []string `json:"tickers" validate:"required,min=1,dive,required"`
	Start    string   `json:"start" validate:"required,datetime=2006-01-02"`
	End      string   `json:"end" validate:"required,datetime=2006-01-02"`
	Timeout  float64  `json:"timeout" default:"15.0" validate:"gt=0,lte=120"`
	UseCache bool     `json:"use_cache" default:"true"`
}

type CompareRequest struct {
	Tickers string  `query:"tickers" json:"tickers" validate:"required"`
	Start   string  `query:"start" json:"start" validate:"required,datetime=2006-01-02"`
	End     string  `query:"end" json:"end" validate:"required,datetime=2006-01-02"`
	Timeout float64 `query:"timeout" json:"timeout" default:"15.0" validate:"gt=0,lte=120"`
}

type PredictRequest struct {
	Ticker   string `query:"ticker" json:"ticker" validate:"required"`
	Lookback int    `query:"lookback" json:"lookback" default:"60" validate:"gte=40,lte=365"`
}
