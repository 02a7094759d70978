package model

// Asset is a static catalog entry for a tradeable pair. Read-only
// configuration data — not derived from the feed.
type Asset struct {
	Symbol    string  `yaml:"symbol" json:"symbol"`
	Name      string  `yaml:"name" json:"name"`
	BasePrice float64 `yaml:"base_price" json:"base_price"`
	DayChange float64 `yaml:"day_change" json:"day_change"` // percent
}

// ChartType selects the chart rendering mode requested by the client.
type ChartType string

const (
	ChartCandles ChartType = "CANDLES"
	ChartLine    ChartType = "LINE"
)

// PriceLevel is a manual horizontal level drawn on the chart.
type PriceLevel struct {
	Price float64 `json:"price"`
	Label string  `json:"label,omitempty"`
}
