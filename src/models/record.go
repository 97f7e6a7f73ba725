package models

// MHistoryRecord represents one trading session for a publisher.
// All fields are kept as text: the source is semi-structured HTML and
// normalization is best-effort, so raw values must survive round trips.
type MHistoryRecord struct {
	PublisherCode string `json:"publisher_code"`
	Date          string `json:"date"`
	Price         string `json:"price"`
	Max           string `json:"max"`
	Min           string `json:"min"`
	Avg           string `json:"avg"`
	PercentChange string `json:"percent_change"`
	Quantity      string `json:"quantity"`
	BestTurnover  string `json:"best_turnover"`
	TotalTurnover string `json:"total_turnover"`
}
