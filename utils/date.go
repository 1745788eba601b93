package utils

import (
	"time"
)

// FormatDisplayDate is the dd/mm/yyyy form shown on invoices.
func FormatDisplayDate(date time.Time) string {
	return date.Format("02/01/2006")
}

// WithinWindow reports whether t falls inside [from, to], both ends included.
func WithinWindow(t, from, to time.Time) bool {
	return !t.Before(from) && !t.After(to)
}
