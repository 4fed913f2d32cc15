package permits

import (
	"errors"
	"fmt"
	"time"

	"github.com/m2ndl/permissions-tracker/internal/config"
	"github.com/m2ndl/permissions-tracker/internal/monthrange"
	"github.com/m2ndl/permissions-tracker/internal/storage"
	"github.com/m2ndl/permissions-tracker/pkg/dateutil"
	"go.uber.org/zap"
)

var (
	// ErrQuotaExhausted is returned when the monthly allowance is used up
	ErrQuotaExhausted = errors.New("monthly permission quota exhausted")

	// ErrMinutesExceeded is returned when a permission is longer than the
	// configured per-permission maximum
	ErrMinutesExceeded = errors.New("permission exceeds maximum minutes")

	// ErrNoEntries is returned by Undo when the current month has no entries
	ErrNoEntries = errors.New("no permission entries this month")
)

// Archive stores finished months. Implemented by storage.Database.
type Archive interface {
	ArchiveMonth(month storage.MonthRecord, entries []storage.EntryRecord) error
	ListMonths(limit int) ([]storage.MonthRecord, error)
	EntriesForMonth(hijriYear, hijriMonth int) ([]storage.EntryRecord, error)
}

// Status reports the quota position within the current Hijri month
type Status struct {
	Range     *monthrange.Range
	Allowance int
	Used      int
	Remaining int
	Entries   []Entry
}

// Manager owns the permission quota logic: resolving the current Hijri
// month, detecting month rollover, and recording usage against the quota
type Manager struct {
	config   *config.Config
	resolver *monthrange.Resolver
	state    *StateManager
	archive  Archive
	weekend  monthrange.Weekend
	logger   *zap.Logger
}

// NewManager creates a new permission manager
func NewManager(
	cfg *config.Config,
	resolver *monthrange.Resolver,
	state *StateManager,
	archive Archive,
	weekend monthrange.Weekend,
	logger *zap.Logger,
) *Manager {
	return &Manager{
		config:   cfg,
		resolver: resolver,
		state:    state,
		archive:  archive,
		weekend:  weekend,
		logger:   logger,
	}
}

// EnsureCurrentMonth resolves the Hijri month containing today and syncs
// the persisted state to it. When the stored (hijriYear, hijriMonth) no
// longer matches, the old month is archived and the usage log reset.
func (m *Manager) EnsureCurrentMonth(today time.Time) (*monthrange.Range, error) {
	monthRange, err := m.resolver.ResolveCurrentMonth(today, m.weekend)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve current month: %w", err)
	}

	if !m.state.IsNewMonth(monthRange.HijriYear, monthRange.HijriMonth) {
		return monthRange, nil
	}

	old := m.state.Current()
	if old != nil && old.HijriYear != 0 {
		m.logger.Info("Hijri month rollover detected",
			zap.Int("old_year", old.HijriYear),
			zap.Int("old_month", old.HijriMonth),
			zap.Int("new_year", monthRange.HijriYear),
			zap.Int("new_month", monthRange.HijriMonth))

		if err := m.archiveMonth(old); err != nil {
			// Keep going: losing history is better than blocking the
			// quota reset on a broken archive
			m.logger.Error("Failed to archive finished month", zap.Error(err))
		}
	}

	if err := m.state.Reset(monthRange); err != nil {
		return nil, fmt.Errorf("failed to reset month state: %w", err)
	}

	return monthRange, nil
}

// archiveMonth writes a finished month state to the archive database
func (m *Manager) archiveMonth(old *MonthState) error {
	if m.archive == nil {
		return nil
	}

	month := storage.MonthRecord{
		HijriYear:  old.HijriYear,
		HijriMonth: old.HijriMonth,
		MonthName:  old.MonthName,
		StartDate:  old.StartDate,
		EndDate:    old.EndDate,
		Workdays:   old.Workdays,
		Allowance:  m.config.Quota.MonthlyAllowance,
		Used:       len(old.Entries),
		ArchivedAt: time.Now().Format(time.RFC3339),
	}

	entries := make([]storage.EntryRecord, 0, len(old.Entries))
	for _, e := range old.Entries {
		entries = append(entries, storage.EntryRecord{
			HijriYear:  old.HijriYear,
			HijriMonth: old.HijriMonth,
			Date:       e.Date,
			Kind:       string(e.Kind),
			Minutes:    e.Minutes,
			Note:       e.Note,
			RecordedAt: e.RecordedAt,
		})
	}

	return m.archive.ArchiveMonth(month, entries)
}

// Status reports the current month range and quota usage
func (m *Manager) Status(today time.Time) (*Status, error) {
	monthRange, err := m.EnsureCurrentMonth(today)
	if err != nil {
		return nil, err
	}

	used := len(m.state.Current().Entries)
	entries := make([]Entry, used)
	copy(entries, m.state.Current().Entries)

	return &Status{
		Range:     monthRange,
		Allowance: m.config.Quota.MonthlyAllowance,
		Used:      used,
		Remaining: m.config.Quota.MonthlyAllowance - used,
		Entries:   entries,
	}, nil
}

// Use records a permission for the given date
func (m *Manager) Use(today time.Time, kind Kind, minutes int, note string) (*Entry, error) {
	if minutes <= 0 {
		return nil, fmt.Errorf("minutes must be positive, got %d", minutes)
	}
	if minutes > m.config.Quota.MaxMinutes {
		return nil, fmt.Errorf("%w: %d > %d", ErrMinutesExceeded, minutes, m.config.Quota.MaxMinutes)
	}

	if _, err := m.EnsureCurrentMonth(today); err != nil {
		return nil, err
	}

	used := len(m.state.Current().Entries)
	if used >= m.config.Quota.MonthlyAllowance {
		return nil, fmt.Errorf("%w: %d of %d used", ErrQuotaExhausted, used, m.config.Quota.MonthlyAllowance)
	}

	entry := Entry{
		Date:       dateutil.FormatDate(today),
		Kind:       kind,
		Minutes:    minutes,
		Note:       note,
		RecordedAt: time.Now().Format(time.RFC3339),
	}

	if err := m.state.AddEntry(entry); err != nil {
		return nil, fmt.Errorf("failed to record permission: %w", err)
	}

	m.logger.Info("Permission recorded",
		zap.String("date", entry.Date),
		zap.String("kind", string(entry.Kind)),
		zap.Int("minutes", entry.Minutes),
		zap.Int("remaining", m.config.Quota.MonthlyAllowance-used-1))

	return &entry, nil
}

// Undo removes the most recent permission entry of the current month
func (m *Manager) Undo(today time.Time) (*Entry, error) {
	if _, err := m.EnsureCurrentMonth(today); err != nil {
		return nil, err
	}

	if len(m.state.Current().Entries) == 0 {
		return nil, ErrNoEntries
	}

	entry, err := m.state.RemoveLastEntry()
	if err != nil {
		return nil, fmt.Errorf("failed to undo permission: %w", err)
	}

	m.logger.Info("Permission undone",
		zap.String("date", entry.Date),
		zap.String("kind", string(entry.Kind)))

	return entry, nil
}

// History returns archived month summaries, most recent first
func (m *Manager) History(limit int) ([]storage.MonthRecord, error) {
	if m.archive == nil {
		return nil, fmt.Errorf("archive database not configured")
	}
	return m.archive.ListMonths(limit)
}

// MonthEntries returns the archived entries of one Hijri month
func (m *Manager) MonthEntries(hijriYear, hijriMonth int) ([]storage.EntryRecord, error) {
	if m.archive == nil {
		return nil, fmt.Errorf("archive database not configured")
	}
	return m.archive.EntriesForMonth(hijriYear, hijriMonth)
}
