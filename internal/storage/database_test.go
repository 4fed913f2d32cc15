package storage

import (
	"path/filepath"
	"testing"
)

func testDB(t *testing.T) *Database {
	t.Helper()

	db, err := New(filepath.Join(t.TempDir(), "archive.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}

func sampleMonth(hijriMonth int) (MonthRecord, []EntryRecord) {
	month := MonthRecord{
		HijriYear:  1447,
		HijriMonth: hijriMonth,
		MonthName:  "Ramadan",
		StartDate:  "2026-02-18",
		EndDate:    "2026-03-18",
		Workdays:   22,
		Allowance:  4,
		Used:       2,
		ArchivedAt: "2026-03-19T08:00:00Z",
	}

	entries := []EntryRecord{
		{HijriYear: 1447, HijriMonth: hijriMonth, Date: "2026-02-25", Kind: "late_arrival", Minutes: 45, Note: "traffic", RecordedAt: "2026-02-25T09:00:00Z"},
		{HijriYear: 1447, HijriMonth: hijriMonth, Date: "2026-03-02", Kind: "early_departure", Minutes: 60, RecordedAt: "2026-03-02T15:00:00Z"},
	}

	return month, entries
}

func TestDatabase_ArchiveAndList(t *testing.T) {
	db := testDB(t)

	for _, m := range []int{9, 10} {
		month, entries := sampleMonth(m)
		if err := db.ArchiveMonth(month, entries); err != nil {
			t.Fatalf("ArchiveMonth(%d) error = %v", m, err)
		}
	}

	months, err := db.ListMonths(12)
	if err != nil {
		t.Fatalf("ListMonths() error = %v", err)
	}

	if len(months) != 2 {
		t.Fatalf("ListMonths() = %d months, want 2", len(months))
	}

	// Most recent first
	if months[0].HijriMonth != 10 || months[1].HijriMonth != 9 {
		t.Errorf("month order = %d, %d; want 10, 9", months[0].HijriMonth, months[1].HijriMonth)
	}
	if months[0].Used != 2 || months[0].Allowance != 4 {
		t.Errorf("summary = %+v", months[0])
	}
}

func TestDatabase_EntriesForMonth(t *testing.T) {
	db := testDB(t)

	month, entries := sampleMonth(9)
	if err := db.ArchiveMonth(month, entries); err != nil {
		t.Fatalf("ArchiveMonth() error = %v", err)
	}

	got, err := db.EntriesForMonth(1447, 9)
	if err != nil {
		t.Fatalf("EntriesForMonth() error = %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("EntriesForMonth() = %d entries, want 2", len(got))
	}
	if got[0].Kind != "late_arrival" || got[0].Minutes != 45 || got[0].Note != "traffic" {
		t.Errorf("first entry = %+v", got[0])
	}
	if got[1].Note != "" {
		t.Errorf("second entry note = %q, want empty", got[1].Note)
	}

	if empty, err := db.EntriesForMonth(1447, 11); err != nil || len(empty) != 0 {
		t.Errorf("EntriesForMonth(unknown) = %v, %v; want empty", empty, err)
	}
}

func TestDatabase_ReArchiveReplaces(t *testing.T) {
	db := testDB(t)

	month, entries := sampleMonth(9)
	if err := db.ArchiveMonth(month, entries); err != nil {
		t.Fatalf("ArchiveMonth() error = %v", err)
	}

	// Archive again with a single entry; the old rows must be replaced
	month.Used = 1
	if err := db.ArchiveMonth(month, entries[:1]); err != nil {
		t.Fatalf("ArchiveMonth() re-archive error = %v", err)
	}

	months, err := db.ListMonths(12)
	if err != nil {
		t.Fatalf("ListMonths() error = %v", err)
	}
	if len(months) != 1 || months[0].Used != 1 {
		t.Errorf("months = %+v, want single summary with Used=1", months)
	}

	got, err := db.EntriesForMonth(1447, 9)
	if err != nil {
		t.Fatalf("EntriesForMonth() error = %v", err)
	}
	if len(got) != 1 {
		t.Errorf("entries after re-archive = %d, want 1", len(got))
	}
}
