package hijri

import (
	"errors"
	"time"
)

// ErrConversionUnavailable is returned when the conversion oracle cannot
// produce a Hijri date (API unreachable, date outside the tabular range).
// Callers must surface the failure instead of substituting a default date.
var ErrConversionUnavailable = errors.New("hijri conversion unavailable")

// Date represents a date in the Hijri (Islamic lunar) calendar
type Date struct {
	Year  int
	Month int // 1-12
	Day   int // 1-30
}

// Hijri month names, transliterated (Umm al-Qura numbering)
var monthNames = [12]string{
	"Muharram",
	"Safar",
	"Rabi al-Awwal",
	"Rabi al-Thani",
	"Jumada al-Ula",
	"Jumada al-Akhirah",
	"Rajab",
	"Shaban",
	"Ramadan",
	"Shawwal",
	"Dhu al-Qadah",
	"Dhu al-Hijjah",
}

// MonthName returns the transliterated name of the Hijri month
func (d Date) MonthName() string {
	if d.Month < 1 || d.Month > 12 {
		return ""
	}
	return monthNames[d.Month-1]
}

// SameMonth reports whether two dates fall in the same Hijri month and year
func (d Date) SameMonth(other Date) bool {
	return d.Year == other.Year && d.Month == other.Month
}

// Converter interface for Gregorian to Hijri conversion
type Converter interface {
	// ToHijri converts the given Gregorian date to a Hijri date
	// per the Umm al-Qura calendrical scheme
	ToHijri(date time.Time) (Date, error)
}
