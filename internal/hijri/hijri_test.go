package hijri

import (
	"errors"
	"testing"
	"time"
)

func TestDate_MonthName(t *testing.T) {
	tests := []struct {
		name string
		date Date
		want string
	}{
		{
			name: "Muharram",
			date: Date{Year: 1446, Month: 1, Day: 1},
			want: "Muharram",
		},
		{
			name: "Ramadan",
			date: Date{Year: 1445, Month: 9, Day: 15},
			want: "Ramadan",
		},
		{
			name: "Dhu al-Hijjah",
			date: Date{Year: 1445, Month: 12, Day: 10},
			want: "Dhu al-Hijjah",
		},
		{
			name: "month out of range",
			date: Date{Year: 1445, Month: 13, Day: 1},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.date.MonthName(); got != tt.want {
				t.Errorf("MonthName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDate_SameMonth(t *testing.T) {
	a := Date{Year: 1446, Month: 3, Day: 5}

	if !a.SameMonth(Date{Year: 1446, Month: 3, Day: 29}) {
		t.Error("expected same month for equal (year, month)")
	}
	if a.SameMonth(Date{Year: 1446, Month: 4, Day: 5}) {
		t.Error("expected different month when month differs")
	}
	if a.SameMonth(Date{Year: 1447, Month: 3, Day: 5}) {
		t.Error("expected different month when year differs")
	}
}

func TestUmmAlQuraConverter_KnownDates(t *testing.T) {
	converter := NewUmmAlQuraConverter()

	tests := []struct {
		name      string
		gregorian time.Time
		want      Date
	}{
		{
			name:      "Hijri new year 1445",
			gregorian: time.Date(2023, 7, 19, 0, 0, 0, 0, time.UTC),
			want:      Date{Year: 1445, Month: 1, Day: 1},
		},
		{
			name:      "start of Ramadan 1445",
			gregorian: time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC),
			want:      Date{Year: 1445, Month: 9, Day: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := converter.ToHijri(tt.gregorian)
			if err != nil {
				t.Fatalf("ToHijri(%s) error = %v", tt.gregorian.Format("2006-01-02"), err)
			}
			if got != tt.want {
				t.Errorf("ToHijri(%s) = %+v, want %+v",
					tt.gregorian.Format("2006-01-02"), got, tt.want)
			}
		})
	}
}

// Every valid conversion must land inside the Hijri component ranges
func TestUmmAlQuraConverter_ComponentRanges(t *testing.T) {
	converter := NewUmmAlQuraConverter()

	// Sample one date per quarter across several decades
	for year := 1950; year <= 2070; year += 7 {
		for month := time.January; month <= time.December; month += 3 {
			date := time.Date(year, month, 17, 0, 0, 0, 0, time.UTC)

			got, err := converter.ToHijri(date)
			if err != nil {
				t.Fatalf("ToHijri(%s) error = %v", date.Format("2006-01-02"), err)
			}

			if got.Day < 1 || got.Day > 30 {
				t.Errorf("ToHijri(%s).Day = %d, want 1-30", date.Format("2006-01-02"), got.Day)
			}
			if got.Month < 1 || got.Month > 12 {
				t.Errorf("ToHijri(%s).Month = %d, want 1-12", date.Format("2006-01-02"), got.Month)
			}
			if got.Year <= 0 {
				t.Errorf("ToHijri(%s).Year = %d, want positive", date.Format("2006-01-02"), got.Year)
			}
		}
	}
}

// Consecutive Gregorian days must map to consecutive Hijri days: either
// the day increments within the month, or it resets to 1 of the next month
func TestUmmAlQuraConverter_ConsecutiveDays(t *testing.T) {
	converter := NewUmmAlQuraConverter()

	date := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	prev, err := converter.ToHijri(date)
	if err != nil {
		t.Fatalf("ToHijri(%s) error = %v", date.Format("2006-01-02"), err)
	}

	for i := 0; i < 400; i++ {
		date = date.AddDate(0, 0, 1)
		curr, err := converter.ToHijri(date)
		if err != nil {
			t.Fatalf("ToHijri(%s) error = %v", date.Format("2006-01-02"), err)
		}

		sameMonth := curr.SameMonth(prev) && curr.Day == prev.Day+1
		newMonth := !curr.SameMonth(prev) && curr.Day == 1 && (prev.Day == 29 || prev.Day == 30)

		if !sameMonth && !newMonth {
			t.Fatalf("non-consecutive hijri dates at %s: %+v -> %+v",
				date.Format("2006-01-02"), prev, curr)
		}

		prev = curr
	}
}

func TestUmmAlQuraConverter_OutOfRange(t *testing.T) {
	converter := NewUmmAlQuraConverter()

	// Umm al-Qura tables start in 1356 AH (1937 CE)
	_, err := converter.ToHijri(time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC))
	if err == nil {
		t.Fatal("expected error for date before tabular range")
	}
	if !errors.Is(err, ErrConversionUnavailable) {
		t.Errorf("error = %v, want ErrConversionUnavailable", err)
	}
}
