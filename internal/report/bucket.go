package report

import (
	"math"
	"time"
)

// RangeBucket is the coarse range token the chart provider accepts in place
// of exact date bounds.
type RangeBucket string

const (
	Range1mo RangeBucket = "1mo"
	Range3mo RangeBucket = "3mo"
	Range6mo RangeBucket = "6mo"
	Range1y  RangeBucket = "1y"
	Range5y  RangeBucket = "5y"
)

// Bucket maps the span between start and end to the smallest range that
// covers it. Spans are measured in whole days, rounded up.
func Bucket(start, end time.Time) RangeBucket {
	return BucketDays(int(math.Ceil(end.Sub(start).Hours() / 24)))
}

// BucketDays is Bucket for a span already expressed in days.
func BucketDays(days int) RangeBucket {
	switch {
	case days <= 30:
		return Range1mo
	case days <= 90:
		return Range3mo
	case days <= 180:
		return Range6mo
	case days <= 365:
		return Range1y
	default:
		return Range5y
	}
}
