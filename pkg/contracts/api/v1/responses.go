package api

import "time"

// HealthResponse is returned by the health endpoint
type HealthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// BanksResponse carries the rows of a ranking query
type BanksResponse struct {
	Table     string   `json:"table"`
	MinMetric float64  `json:"min_metric"`
	Columns   []string `json:"columns"`
	Rows      [][]any  `json:"rows"`
	Count     int      `json:"count"`
}
