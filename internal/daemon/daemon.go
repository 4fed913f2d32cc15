package daemon

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/m2ndl/permissions-tracker/internal/permits"
	"github.com/m2ndl/permissions-tracker/pkg/dateutil"
	"go.uber.org/zap"
)

// Daemon runs a daily check: resolve the current Hijri month, archive and
// reset the usage log on rollover, and warn when the quota is running low
type Daemon struct {
	manager      *permits.Manager
	dailyHour    int // Hour to run daily check (0-23)
	dailyMinute  int // Minute to run daily check (0-59)
	systemTray   bool
	logger       *zap.Logger
	ctx          context.Context
	cancel       context.CancelFunc
	trayApp      *TrayApp
	lastRunDate  string // Track last successful run date to avoid duplicates
	mu           sync.Mutex
	checkRunning bool
}

// NewDaemon creates a new daemon instance with a daily schedule
func NewDaemon(manager *permits.Manager, dailyHour, dailyMinute int, systemTray bool, logger *zap.Logger) *Daemon {
	ctx, cancel := context.WithCancel(context.Background())

	return &Daemon{
		manager:     manager,
		dailyHour:   dailyHour,
		dailyMinute: dailyMinute,
		systemTray:  systemTray,
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start starts the daemon
func (d *Daemon) Start() error {
	// Initialize system tray if enabled (Windows only)
	if d.systemTray {
		d.logger.Info("Initializing system tray")
		trayApp, err := NewTrayApp(d, d.logger)
		if err != nil {
			d.logger.Warn("Failed to initialize system tray", zap.Error(err))
			// Fall back to non-tray mode
			d.runScheduledLogic()
			return nil
		}
		d.trayApp = trayApp
		// Run tray (blocks until Quit)
		d.trayApp.Run()
		return nil
	}

	d.logger.Info("Running without system tray")
	d.runScheduledLogic()
	return nil
}

// runScheduledLogic runs the daily check loop (called from tray or standalone)
func (d *Daemon) runScheduledLogic() {
	d.logger.Info("Daemon scheduled logic started",
		zap.Int("daily_hour", d.dailyHour),
		zap.Int("daily_minute", d.dailyMinute))

	// Check if we should run immediately (if scheduled time already passed today)
	now := time.Now()
	today := now.Format("2006-01-02")

	scheduledToday := time.Date(now.Year(), now.Month(), now.Day(),
		d.dailyHour, d.dailyMinute, 0, 0, now.Location())

	if now.After(scheduledToday) && d.lastRunDate != today {
		d.logger.Info("Scheduled time already passed today, running check now",
			zap.Time("scheduled_time", scheduledToday),
			zap.Time("current_time", now))
		d.CheckNow()
	}

	nextRun := d.calculateNextRun()
	d.logger.Info("Next check scheduled",
		zap.Time("next_run", nextRun),
		zap.Duration("wait_duration", time.Until(nextRun)))

	// Setup signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Check every minute if it's time to run
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			d.logger.Info("Daemon stopped")
			if d.trayApp != nil {
				d.trayApp.Stop()
			}
			return

		case sig := <-sigChan:
			d.logger.Info("Received signal, shutting down",
				zap.String("signal", sig.String()))
			if d.trayApp != nil {
				d.trayApp.Stop()
			}
			d.Stop()
			return

		case now := <-ticker.C:
			if !d.shouldRunAt(now) {
				continue
			}

			today := now.Format("2006-01-02")
			if d.lastRunDate == today {
				d.logger.Debug("Already ran today, skipping")
				continue
			}

			d.logger.Info("Starting scheduled check", zap.Time("time", now))
			d.CheckNow()

			nextRun = d.calculateNextRun()
			d.logger.Info("Next check scheduled",
				zap.Time("next_run", nextRun),
				zap.Duration("wait_duration", time.Until(nextRun)))
		}
	}
}

// Stop stops the daemon
func (d *Daemon) Stop() {
	d.cancel()
}

// calculateNextRun calculates the next scheduled run time
func (d *Daemon) calculateNextRun() time.Time {
	now := time.Now()

	today := time.Date(now.Year(), now.Month(), now.Day(),
		d.dailyHour, d.dailyMinute, 0, 0, now.Location())

	// If target time already passed today, schedule for tomorrow
	if now.After(today) || now.Equal(today) {
		return today.AddDate(0, 0, 1)
	}

	return today
}

// shouldRunAt checks if the daily check should run at the given time
func (d *Daemon) shouldRunAt(now time.Time) bool {
	// Within a 1 minute window of the scheduled time
	return now.Hour() == d.dailyHour &&
		now.Minute() == d.dailyMinute
}

// CheckNow runs the daily check immediately (also called from tray menu).
// Protected with a mutex to prevent concurrent runs.
func (d *Daemon) CheckNow() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.checkRunning {
		d.logger.Warn("Check already running, skipping concurrent execution")
		return
	}

	d.checkRunning = true
	defer func() {
		d.checkRunning = false
	}()

	today := dateutil.Today()

	status, err := d.manager.Status(today)
	if err != nil {
		d.logger.Error("Daily check failed", zap.Error(err))
		if d.trayApp != nil {
			d.trayApp.ShowNotification("Check Failed", fmt.Sprintf("Error: %v", err))
		}
		return
	}

	d.logger.Info("Daily check completed",
		zap.Int("hijri_year", status.Range.HijriYear),
		zap.Int("hijri_month", status.Range.HijriMonth),
		zap.String("month_name", status.Range.MonthName),
		zap.Int("used", status.Used),
		zap.Int("remaining", status.Remaining))

	if status.Remaining <= 0 {
		d.logger.Warn("Permission quota exhausted for this month",
			zap.Int("allowance", status.Allowance))
		if d.trayApp != nil {
			d.trayApp.ShowNotification("Quota Exhausted",
				fmt.Sprintf("All %d permissions used in %s", status.Allowance, status.Range.MonthName))
		}
	} else if d.trayApp != nil {
		d.trayApp.ShowNotification("Permissions Status",
			fmt.Sprintf("%d of %d remaining in %s", status.Remaining, status.Allowance, status.Range.MonthName))
	}

	d.lastRunDate = today.Format("2006-01-02")
}

// GetStatus returns daemon status (shown from the tray menu)
func (d *Daemon) GetStatus() map[string]interface{} {
	status := map[string]interface{}{
		"running":       true,
		"last_run_date": d.lastRunDate,
		"next_run":      d.calculateNextRun().Format("2006-01-02 15:04"),
	}

	quotaStatus, err := d.manager.Status(dateutil.Today())
	if err == nil {
		status["month"] = map[string]interface{}{
			"hijri_year":  quotaStatus.Range.HijriYear,
			"hijri_month": quotaStatus.Range.HijriMonth,
			"month_name":  quotaStatus.Range.MonthName,
			"start":       dateutil.FormatDate(quotaStatus.Range.Start),
			"end":         dateutil.FormatDate(quotaStatus.Range.End),
			"workdays":    quotaStatus.Range.Workdays,
			"used":        quotaStatus.Used,
			"remaining":   quotaStatus.Remaining,
		}
	}

	return status
}
