// Package report turns a validated historical-data request into an emailed
// CSV export: range bucketing, payload normalization, CSV rendering, dispatch
// and the pipeline that sequences them.
package report

import "time"

const dateFormat = "2006-01-02"

// Request is a validated ask for daily prices of Symbol between StartDate and
// EndDate (inclusive), delivered to Email.
type Request struct {
	Symbol    string    `json:"symbol"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	Email     string    `json:"email"`
}

// DailyRecord is one trading day. Nil numeric fields are values the provider
// reported as missing.
type DailyRecord struct {
	Date   time.Time
	Open   *float64
	High   *float64
	Low    *float64
	Close  *float64
	Volume *float64
}

// DeliveryResult is the outcome of a successful dispatch. MessageID is empty
// when the transport did not report one.
type DeliveryResult struct {
	Delivered bool   `json:"delivered"`
	MessageID string `json:"messageId,omitempty"`
}
