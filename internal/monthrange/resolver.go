package monthrange

import (
	"errors"
	"fmt"
	"time"

	"github.com/m2ndl/permissions-tracker/internal/hijri"
	"github.com/m2ndl/permissions-tracker/pkg/dateutil"
	"go.uber.org/zap"
)

// Hijri months are 29-30 days; a boundary search that probes more days
// than this indicates broken calendrical data.
const maxProbeDays = 35

// ErrBoundaryNotFound is returned when a month-boundary search exceeds
// maxProbeDays without finding the boundary
var ErrBoundaryNotFound = errors.New("hijri month boundary not found")

// Range represents the Gregorian bounds of a Hijri month
type Range struct {
	Start      time.Time
	End        time.Time
	HijriYear  int
	HijriMonth int
	MonthName  string
	Workdays   int
}

// Contains reports whether the given date falls inside the range
func (r *Range) Contains(date time.Time) bool {
	day := dateutil.StartOfDay(date)
	return !day.Before(r.Start) && !day.After(r.End)
}

// TotalDays returns the inclusive day count of the range (29 or 30)
func (r *Range) TotalDays() int {
	return dateutil.DaysBetween(r.Start, r.End)
}

// Resolver finds the Gregorian dates bounding the current Hijri month.
// Month lengths are not derivable by a closed-form rule, so boundaries
// are discovered by probing the converter one day at a time.
type Resolver struct {
	converter hijri.Converter
	logger    *zap.Logger
}

// NewResolver creates a new Resolver
func NewResolver(converter hijri.Converter, logger *zap.Logger) *Resolver {
	return &Resolver{
		converter: converter,
		logger:    logger,
	}
}

// FindMonthStart walks backward from referenceDate one day at a time
// until it reaches the first day of the Hijri month. Returns the date
// unchanged when referenceDate already is day 1.
func (r *Resolver) FindMonthStart(referenceDate time.Time) (time.Time, error) {
	date := dateutil.StartOfDay(referenceDate)

	for probes := 0; probes <= maxProbeDays; probes++ {
		hijriDate, err := r.converter.ToHijri(date)
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to convert %s: %w",
				date.Format("2006-01-02"), err)
		}

		if hijriDate.Day == 1 {
			return date, nil
		}

		date = date.AddDate(0, 0, -1)
	}

	return time.Time{}, fmt.Errorf("%w: no month start within %d days before %s",
		ErrBoundaryNotFound, maxProbeDays, referenceDate.Format("2006-01-02"))
}

// FindMonthEnd walks forward from monthStart one day at a time while the
// next day still belongs to the given Hijri (year, month); returns the
// last date inside the month.
func (r *Resolver) FindMonthEnd(monthStart time.Time, hijriYear, hijriMonth int) (time.Time, error) {
	date := dateutil.StartOfDay(monthStart)

	for probes := 0; probes <= maxProbeDays; probes++ {
		next := date.AddDate(0, 0, 1)

		nextHijri, err := r.converter.ToHijri(next)
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to convert %s: %w",
				next.Format("2006-01-02"), err)
		}

		if nextHijri.Year != hijriYear || nextHijri.Month != hijriMonth {
			return date, nil
		}

		date = next
	}

	return time.Time{}, fmt.Errorf("%w: month %d/%d did not end within %d days after %s",
		ErrBoundaryNotFound, hijriMonth, hijriYear, maxProbeDays,
		monthStart.Format("2006-01-02"))
}

// ComputeWorkdays counts the days from start to end inclusive whose
// weekday is not part of the weekend
func (r *Resolver) ComputeWorkdays(start, end time.Time, weekend Weekend) int {
	workdays := 0

	for date := dateutil.StartOfDay(start); !date.After(end); date = date.AddDate(0, 0, 1) {
		if !weekend.Contains(date.Weekday()) {
			workdays++
		}
	}

	return workdays
}

// ResolveCurrentMonth resolves the Gregorian bounds and workday count of
// the Hijri month containing today. No partial result is returned on
// failure; callers must render a degraded state instead of guessing.
func (r *Resolver) ResolveCurrentMonth(today time.Time, weekend Weekend) (*Range, error) {
	hijriToday, err := r.converter.ToHijri(today)
	if err != nil {
		return nil, fmt.Errorf("failed to convert today: %w", err)
	}

	start, err := r.FindMonthStart(today)
	if err != nil {
		return nil, err
	}

	end, err := r.FindMonthEnd(start, hijriToday.Year, hijriToday.Month)
	if err != nil {
		return nil, err
	}

	monthRange := &Range{
		Start:      start,
		End:        end,
		HijriYear:  hijriToday.Year,
		HijriMonth: hijriToday.Month,
		MonthName:  hijriToday.MonthName(),
		Workdays:   r.ComputeWorkdays(start, end, weekend),
	}

	r.logger.Debug("Resolved hijri month",
		zap.Int("hijri_year", monthRange.HijriYear),
		zap.Int("hijri_month", monthRange.HijriMonth),
		zap.String("start", start.Format("2006-01-02")),
		zap.String("end", end.Format("2006-01-02")),
		zap.Int("workdays", monthRange.Workdays))

	return monthRange, nil
}
