package permits

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/m2ndl/permissions-tracker/internal/monthrange"
	"github.com/m2ndl/permissions-tracker/pkg/dateutil"
	"go.uber.org/zap"
)

// Kind distinguishes the two permission types
type Kind string

const (
	KindLateArrival    Kind = "late_arrival"
	KindEarlyDeparture Kind = "early_departure"
)

// ParseKind parses a permission kind from its string form
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindLateArrival, KindEarlyDeparture:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown permission kind: %q (want %q or %q)",
			s, KindLateArrival, KindEarlyDeparture)
	}
}

// Entry represents a single used permission
type Entry struct {
	Date       string `json:"date"` // Gregorian, YYYY-MM-DD
	Kind       Kind   `json:"kind"`
	Minutes    int    `json:"minutes"`
	Note       string `json:"note,omitempty"`
	RecordedAt string `json:"recorded_at"`
}

// MonthState represents the persisted usage log for one Hijri month
type MonthState struct {
	HijriYear  int     `json:"hijri_year"`
	HijriMonth int     `json:"hijri_month"`
	MonthName  string  `json:"month_name"`
	StartDate  string  `json:"start_date"` // Gregorian, YYYY-MM-DD
	EndDate    string  `json:"end_date"`
	Workdays   int     `json:"workdays"`
	Entries    []Entry `json:"entries"`
	CreatedAt  string  `json:"created_at"`
}

// StateManager manages the current-month usage log file
type StateManager struct {
	stateFile string
	state     *MonthState
	logger    *zap.Logger
}

// NewStateManager creates a new state manager
func NewStateManager(stateFile string, logger *zap.Logger) *StateManager {
	return &StateManager{
		stateFile: stateFile,
		logger:    logger,
	}
}

// Load loads the month state from file
func (sm *StateManager) Load() error {
	data, err := os.ReadFile(sm.stateFile)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist yet - will be created on first save
			sm.state = &MonthState{}
			return nil
		}
		return fmt.Errorf("failed to read state file: %w", err)
	}

	var state MonthState
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("failed to parse state file: %w", err)
	}

	sm.state = &state
	sm.logger.Info("Month state loaded",
		zap.Int("hijri_year", state.HijriYear),
		zap.Int("hijri_month", state.HijriMonth),
		zap.Int("entries", len(state.Entries)))

	return nil
}

// Save saves the month state to file
func (sm *StateManager) Save() error {
	data, err := json.MarshalIndent(sm.state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if err := os.WriteFile(sm.stateFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}

	sm.logger.Debug("Month state saved",
		zap.Int("hijri_year", sm.state.HijriYear),
		zap.Int("hijri_month", sm.state.HijriMonth))

	return nil
}

// IsNewMonth checks if the resolved Hijri month differs from the stored one
func (sm *StateManager) IsNewMonth(hijriYear, hijriMonth int) bool {
	if sm.state == nil || sm.state.HijriYear == 0 {
		return true
	}

	return hijriYear != sm.state.HijriYear || hijriMonth != sm.state.HijriMonth
}

// Reset replaces the state with a fresh log for the given month range
func (sm *StateManager) Reset(monthRange *monthrange.Range) error {
	sm.state = &MonthState{
		HijriYear:  monthRange.HijriYear,
		HijriMonth: monthRange.HijriMonth,
		MonthName:  monthRange.MonthName,
		StartDate:  dateutil.FormatDate(monthRange.Start),
		EndDate:    dateutil.FormatDate(monthRange.End),
		Workdays:   monthRange.Workdays,
		Entries:    []Entry{},
		CreatedAt:  time.Now().Format(time.RFC3339),
	}

	sm.logger.Info("Month state reset",
		zap.Int("hijri_year", sm.state.HijriYear),
		zap.Int("hijri_month", sm.state.HijriMonth),
		zap.String("month_name", sm.state.MonthName),
		zap.String("start", sm.state.StartDate),
		zap.String("end", sm.state.EndDate))

	return sm.Save()
}

// AddEntry appends a used permission and saves
func (sm *StateManager) AddEntry(entry Entry) error {
	sm.state.Entries = append(sm.state.Entries, entry)
	return sm.Save()
}

// RemoveLastEntry removes the most recent entry and saves.
// Returns the removed entry.
func (sm *StateManager) RemoveLastEntry() (*Entry, error) {
	if sm.state == nil || len(sm.state.Entries) == 0 {
		return nil, fmt.Errorf("no entries to remove")
	}

	last := sm.state.Entries[len(sm.state.Entries)-1]
	sm.state.Entries = sm.state.Entries[:len(sm.state.Entries)-1]

	if err := sm.Save(); err != nil {
		return nil, err
	}

	return &last, nil
}

// Current returns the current state
func (sm *StateManager) Current() *MonthState {
	return sm.state
}
