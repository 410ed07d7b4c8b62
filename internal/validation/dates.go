package validation

import (
	"strings"
	"time"
)

const dateFormat = "2006-01-02"

// Reason is a user-facing rejection message for a single field.
type Reason string

const (
	ReasonInvalidDate    Reason = "Invalid date format"
	ReasonStartInFuture  Reason = "Start date cannot be in the future"
	ReasonEndInFuture    Reason = "End date cannot be in the future"
	ReasonStartAfterEnd  Reason = "Start date must be before end date"
	ReasonEndBeforeStart Reason = "End date must be after start date"
	ReasonInvalidSymbol  Reason = "Invalid company symbol"
	ReasonInvalidEmail   Reason = "Invalid email format"
)

// FieldError rejects one request field.
type FieldError struct {
	Field  string
	Reason Reason
}

func (e *FieldError) Error() string { return e.Field + ": " + string(e.Reason) }

// DateRangePolicy checks a start/end date pair: both must be real calendar
// dates, neither may be after today, and start may not be after end. Dates
// compare at calendar-day resolution in the policy's location.
type DateRangePolicy struct {
	now func() time.Time
	loc *time.Location
}

// PolicyOption configures a DateRangePolicy.
type PolicyOption func(*DateRangePolicy)

// WithClock sets the source of the current time.
func WithClock(now func() time.Time) PolicyOption {
	return func(p *DateRangePolicy) { p.now = now }
}

// WithLocation sets the location whose calendar defines "today". UTC by
// default.
func WithLocation(loc *time.Location) PolicyOption {
	return func(p *DateRangePolicy) { p.loc = loc }
}

func NewDateRangePolicy(opts ...PolicyOption) *DateRangePolicy {
	p := &DateRangePolicy{now: time.Now, loc: time.UTC}
	for _, o := range opts {
		o(p)
	}
	return p
}

// ParseDate interprets v as a calendar date in the policy's location. It
// accepts time.Time, *time.Time, and text in YYYY-MM-DD or RFC 3339 form.
func (p *DateRangePolicy) ParseDate(v any) (time.Time, bool) {
	switch d := v.(type) {
	case time.Time:
		if d.IsZero() {
			return time.Time{}, false
		}
		return p.day(d), true
	case *time.Time:
		if d == nil || d.IsZero() {
			return time.Time{}, false
		}
		return p.day(*d), true
	case string:
		s := strings.TrimSpace(d)
		if t, err := time.ParseInLocation(dateFormat, s, p.loc); err == nil {
			return t, true
		}
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return p.day(t), true
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

// ValidateStart checks value as a start date. end is only compared when it is
// itself a valid date.
func (p *DateRangePolicy) ValidateStart(value, end any) error {
	start, ok := p.ParseDate(value)
	if !ok {
		return &FieldError{Field: "startDate", Reason: ReasonInvalidDate}
	}
	if start.After(p.today()) {
		return &FieldError{Field: "startDate", Reason: ReasonStartInFuture}
	}
	if e, ok := p.ParseDate(end); ok && start.After(e) {
		return &FieldError{Field: "startDate", Reason: ReasonStartAfterEnd}
	}
	return nil
}

// ValidateEnd checks value as an end date. start is only compared when it is
// itself a valid date.
func (p *DateRangePolicy) ValidateEnd(value, start any) error {
	end, ok := p.ParseDate(value)
	if !ok {
		return &FieldError{Field: "endDate", Reason: ReasonInvalidDate}
	}
	if end.After(p.today()) {
		return &FieldError{Field: "endDate", Reason: ReasonEndInFuture}
	}
	if s, ok := p.ParseDate(start); ok && end.Before(s) {
		return &FieldError{Field: "endDate", Reason: ReasonEndBeforeStart}
	}
	return nil
}

func (p *DateRangePolicy) today() time.Time {
	return p.day(p.now())
}

func (p *DateRangePolicy) day(t time.Time) time.Time {
	y, m, d := t.In(p.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, p.loc)
}
