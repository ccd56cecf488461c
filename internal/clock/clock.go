package clock

import (
	"fmt"
	"time"
)

// Window identifies which statistics window a date boundary anchors.
type Window string

const (
	Daily   Window = "daily"
	Weekly  Window = "weekly"
	Monthly Window = "monthly"
)

// Windows lists every supported window kind.
var Windows = []Window{Daily, Weekly, Monthly}

// ParseWindow validates a window name coming from a query parameter.
func ParseWindow(s string) (Window, error) {
	switch Window(s) {
	case Daily, Weekly, Monthly:
		return Window(s), nil
	}
	return "", fmt.Errorf("unknown statistics window %q", s)
}

// Date is a calendar date in the observer's local calendar. It carries no
// time of day and no zone, so two components comparing dates can never
// disagree because of an offset.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// String formats the date as 2006-01-02, the format the backend expects.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Resolver is the single source of date boundaries. Business logic never
// asks the system clock what day it is; it asks the resolver, so the read
// path and the invalidation path always compute the same key.
type Resolver struct {
	now func() time.Time
}

// NewResolver returns a resolver backed by the local wall clock.
func NewResolver() *Resolver {
	return &Resolver{now: time.Now}
}

// NewResolverAt pins the wall clock. For tests.
func NewResolverAt(now func() time.Time) *Resolver {
	return &Resolver{now: now}
}

func dateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Today returns the current date in the clock's own location. At 7 PM local
// in a UTC-5 zone this is still the local day, even though UTC has already
// rolled over.
func (r *Resolver) Today() Date {
	return dateOf(r.now())
}

// StartOfWeek returns the Monday of the current local week.
func (r *Resolver) StartOfWeek() Date {
	t := r.now()
	offset := (int(t.Weekday()) + 6) % 7 // Monday = 0 .. Sunday = 6
	return dateOf(t.AddDate(0, 0, -offset))
}

// StartOfMonth returns the first day of the current local month.
func (r *Resolver) StartOfMonth() Date {
	t := r.now()
	return Date{Year: t.Year(), Month: t.Month(), Day: 1}
}

// Boundary returns the date boundary anchoring the given window.
func (r *Resolver) Boundary(w Window) Date {
	switch w {
	case Weekly:
		return r.StartOfWeek()
	case Monthly:
		return r.StartOfMonth()
	default:
		return r.Today()
	}
}
