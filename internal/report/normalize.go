package report

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ahmethakanbesel/stockmailer/internal/apperror"
)

// chartPayload is the chart response of the provider. Pointers distinguish an
// absent key from an empty value so that a missing structure is reported
// instead of silently producing an empty export.
type chartPayload struct {
	Chart *struct {
		Result []struct {
			Timestamp  *[]int64 `json:"timestamp"`
			Indicators *struct {
				Quote []quote `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type quote struct {
	Open   *[]*float64 `json:"open"`
	High   *[]*float64 `json:"high"`
	Low    *[]*float64 `json:"low"`
	Close  *[]*float64 `json:"close"`
	Volume *[]*float64 `json:"volume"`
}

// Normalize converts a raw chart payload into one DailyRecord per timestamp,
// in provider order. Null values stay nil. A field array shorter than the
// timestamp array yields nil for the missing positions.
func Normalize(raw []byte) ([]DailyRecord, error) {
	var p chartPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, malformed("decode chart payload", err)
	}
	if p.Chart == nil {
		return nil, malformed("missing chart", nil)
	}
	if p.Chart.Error != nil {
		return nil, malformed(fmt.Sprintf("provider error %s: %s", p.Chart.Error.Code, p.Chart.Error.Description), nil)
	}
	if len(p.Chart.Result) == 0 {
		return nil, malformed("missing chart.result", nil)
	}

	result := p.Chart.Result[0]
	if result.Timestamp == nil {
		return nil, malformed("missing chart.result[0].timestamp", nil)
	}
	if result.Indicators == nil || len(result.Indicators.Quote) == 0 {
		return nil, malformed("missing chart.result[0].indicators.quote", nil)
	}

	q := result.Indicators.Quote[0]
	fields := map[string]*[]*float64{
		"open": q.Open, "high": q.High, "low": q.Low, "close": q.Close, "volume": q.Volume,
	}
	for name, arr := range fields {
		if arr == nil {
			return nil, malformed("missing quote field "+name, nil)
		}
	}

	timestamps := *result.Timestamp
	records := make([]DailyRecord, len(timestamps))
	for i, ts := range timestamps {
		records[i] = DailyRecord{
			Date:   epochDate(ts),
			Open:   at(*q.Open, i),
			High:   at(*q.High, i),
			Low:    at(*q.Low, i),
			Close:  at(*q.Close, i),
			Volume: at(*q.Volume, i),
		}
	}
	return records, nil
}

// epochDate returns the UTC calendar date of an epoch-seconds timestamp.
func epochDate(ts int64) time.Time {
	y, m, d := time.Unix(ts, 0).UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func at(values []*float64, i int) *float64 {
	if i >= len(values) {
		return nil
	}
	return values[i]
}

func malformed(msg string, cause error) *apperror.AppError {
	if cause == nil {
		return apperror.New(apperror.MalformedPayload, msg)
	}
	return apperror.Wrap(apperror.MalformedPayload, msg, cause)
}
