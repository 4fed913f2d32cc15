package permits

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/m2ndl/permissions-tracker/internal/config"
	"github.com/m2ndl/permissions-tracker/internal/hijri"
	"github.com/m2ndl/permissions-tracker/internal/monthrange"
	"github.com/m2ndl/permissions-tracker/internal/storage"
	"go.uber.org/zap"
)

// calendarStub maps Gregorian dates to Hijri dates by day offset from an
// anchor (day 1 of the anchor month), with fixed 30-day months
type calendarStub struct {
	anchor time.Time
	year   int
	month  int
}

func (s *calendarStub) ToHijri(date time.Time) (hijri.Date, error) {
	offset := int(date.Sub(s.anchor).Hours() / 24)
	if offset < 0 {
		return hijri.Date{}, hijri.ErrConversionUnavailable
	}

	year, month := s.year, s.month
	for offset >= 30 {
		offset -= 30
		month++
		if month > 12 {
			year, month = year+1, 1
		}
	}

	return hijri.Date{Year: year, Month: month, Day: offset + 1}, nil
}

// fakeArchive records archived months in memory
type fakeArchive struct {
	months  []storage.MonthRecord
	entries map[string][]storage.EntryRecord
}

func newFakeArchive() *fakeArchive {
	return &fakeArchive{entries: make(map[string][]storage.EntryRecord)}
}

func (f *fakeArchive) key(year, month int) string {
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).Format("2006-01")
}

func (f *fakeArchive) ArchiveMonth(month storage.MonthRecord, entries []storage.EntryRecord) error {
	f.months = append(f.months, month)
	f.entries[f.key(month.HijriYear, month.HijriMonth)] = entries
	return nil
}

func (f *fakeArchive) ListMonths(limit int) ([]storage.MonthRecord, error) {
	return f.months, nil
}

func (f *fakeArchive) EntriesForMonth(hijriYear, hijriMonth int) ([]storage.EntryRecord, error) {
	return f.entries[f.key(hijriYear, hijriMonth)], nil
}

func testConfig() *config.Config {
	return &config.Config{
		Quota: config.QuotaConfig{
			MonthlyAllowance: 2,
			MaxMinutes:       120,
			WeekendDays:      []string{"friday", "saturday"},
		},
	}
}

func newTestManager(t *testing.T, anchor time.Time) (*Manager, *fakeArchive) {
	t.Helper()

	logger := zap.NewNop()

	oracle := &calendarStub{anchor: anchor, year: 1447, month: 9}
	resolver := monthrange.NewResolver(oracle, logger)

	state := NewStateManager(filepath.Join(t.TempDir(), "month_state.json"), logger)
	if err := state.Load(); err != nil {
		t.Fatalf("state.Load() error = %v", err)
	}

	archive := newFakeArchive()
	manager := NewManager(testConfig(), resolver, state, archive, monthrange.Weekend{}, logger)

	return manager, archive
}

func TestManager_UseAndStatus(t *testing.T) {
	anchor := time.Date(2026, 2, 18, 0, 0, 0, 0, time.UTC)
	manager, _ := newTestManager(t, anchor)

	today := anchor.AddDate(0, 0, 10)

	entry, err := manager.Use(today, KindLateArrival, 45, "dentist")
	if err != nil {
		t.Fatalf("Use() error = %v", err)
	}
	if entry.Kind != KindLateArrival || entry.Minutes != 45 {
		t.Errorf("entry = %+v, want late_arrival of 45 minutes", entry)
	}

	if _, err := manager.Use(today.AddDate(0, 0, 1), KindEarlyDeparture, 60, ""); err != nil {
		t.Fatalf("Use() second error = %v", err)
	}

	status, err := manager.Status(today.AddDate(0, 0, 2))
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}

	if status.Used != 2 || status.Remaining != 0 {
		t.Errorf("Used/Remaining = %d/%d, want 2/0", status.Used, status.Remaining)
	}
	if status.Range.HijriYear != 1447 || status.Range.HijriMonth != 9 {
		t.Errorf("resolved month = %d/%d, want 9/1447",
			status.Range.HijriMonth, status.Range.HijriYear)
	}
	if len(status.Entries) != 2 {
		t.Errorf("entries = %d, want 2", len(status.Entries))
	}

	// Allowance exhausted
	_, err = manager.Use(today.AddDate(0, 0, 3), KindLateArrival, 30, "")
	if !errors.Is(err, ErrQuotaExhausted) {
		t.Errorf("error = %v, want ErrQuotaExhausted", err)
	}
}

func TestManager_Use_MinutesValidation(t *testing.T) {
	anchor := time.Date(2026, 2, 18, 0, 0, 0, 0, time.UTC)
	manager, _ := newTestManager(t, anchor)

	today := anchor.AddDate(0, 0, 5)

	if _, err := manager.Use(today, KindLateArrival, 180, ""); !errors.Is(err, ErrMinutesExceeded) {
		t.Errorf("error = %v, want ErrMinutesExceeded", err)
	}

	if _, err := manager.Use(today, KindLateArrival, 0, ""); err == nil {
		t.Error("expected error for zero minutes")
	}
}

func TestManager_Undo(t *testing.T) {
	anchor := time.Date(2026, 2, 18, 0, 0, 0, 0, time.UTC)
	manager, _ := newTestManager(t, anchor)

	today := anchor.AddDate(0, 0, 5)

	if _, err := manager.Undo(today); !errors.Is(err, ErrNoEntries) {
		t.Errorf("error = %v, want ErrNoEntries", err)
	}

	if _, err := manager.Use(today, KindEarlyDeparture, 90, ""); err != nil {
		t.Fatalf("Use() error = %v", err)
	}

	entry, err := manager.Undo(today)
	if err != nil {
		t.Fatalf("Undo() error = %v", err)
	}
	if entry.Kind != KindEarlyDeparture {
		t.Errorf("undone entry kind = %s, want %s", entry.Kind, KindEarlyDeparture)
	}

	status, err := manager.Status(today)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if status.Used != 0 {
		t.Errorf("Used = %d after undo, want 0", status.Used)
	}
}

func TestManager_Rollover(t *testing.T) {
	anchor := time.Date(2026, 2, 18, 0, 0, 0, 0, time.UTC)
	manager, archive := newTestManager(t, anchor)

	// Use a permission in month 9
	inMonthNine := anchor.AddDate(0, 0, 10)
	if _, err := manager.Use(inMonthNine, KindLateArrival, 30, "old month"); err != nil {
		t.Fatalf("Use() error = %v", err)
	}

	// Move into month 10: the old month must be archived and the log reset
	inMonthTen := anchor.AddDate(0, 0, 32)
	status, err := manager.Status(inMonthTen)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}

	if status.Range.HijriMonth != 10 {
		t.Errorf("resolved month = %d, want 10", status.Range.HijriMonth)
	}
	if status.Used != 0 {
		t.Errorf("Used = %d after rollover, want 0", status.Used)
	}

	if len(archive.months) != 1 {
		t.Fatalf("archived months = %d, want 1", len(archive.months))
	}

	archived := archive.months[0]
	if archived.HijriYear != 1447 || archived.HijriMonth != 9 {
		t.Errorf("archived month = %d/%d, want 9/1447", archived.HijriMonth, archived.HijriYear)
	}
	if archived.Used != 1 {
		t.Errorf("archived used = %d, want 1", archived.Used)
	}

	entries, err := manager.MonthEntries(1447, 9)
	if err != nil {
		t.Fatalf("MonthEntries() error = %v", err)
	}
	if len(entries) != 1 || entries[0].Note != "old month" {
		t.Errorf("archived entries = %+v, want the single old-month entry", entries)
	}
}

func TestManager_NoRolloverWithinMonth(t *testing.T) {
	anchor := time.Date(2026, 2, 18, 0, 0, 0, 0, time.UTC)
	manager, archive := newTestManager(t, anchor)

	if _, err := manager.Status(anchor.AddDate(0, 0, 3)); err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if _, err := manager.Status(anchor.AddDate(0, 0, 20)); err != nil {
		t.Fatalf("Status() error = %v", err)
	}

	if len(archive.months) != 0 {
		t.Errorf("archived months = %d within one month, want 0", len(archive.months))
	}
}

func TestParseKind(t *testing.T) {
	if _, err := ParseKind("late_arrival"); err != nil {
		t.Errorf("ParseKind(late_arrival) error = %v", err)
	}
	if _, err := ParseKind("early_departure"); err != nil {
		t.Errorf("ParseKind(early_departure) error = %v", err)
	}
	if _, err := ParseKind("vacation"); err == nil {
		t.Error("ParseKind(vacation) expected error")
	}
}
