// Package api contains the report server's request and response contracts.
// Version v1 represents the current stable API version.
package api

// BanksRequest selects ranking rows at or above a metric threshold
type BanksRequest struct {
	MinMetric float64 `json:"min_metric" query:"min_metric" validate:"gte=0"`
	Limit     int     `json:"limit" query:"limit" validate:"gte=0,lte=1000"`
}
