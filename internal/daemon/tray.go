//go:build windows
// +build windows

package daemon

import (
	"fmt"
	"syscall"
	"unsafe"

	"fyne.io/systray"
	"go.uber.org/zap"
)

var (
	user32      = syscall.NewLazyDLL("user32.dll")
	messageBoxW = user32.NewProc("MessageBoxW")
)

const (
	MB_OK              = 0x00000000
	MB_ICONINFORMATION = 0x00000040
)

// TrayApp represents system tray application
type TrayApp struct {
	daemon *Daemon
	logger *zap.Logger
	quit   chan struct{}
}

// NewTrayApp creates a new system tray application
func NewTrayApp(daemon *Daemon, logger *zap.Logger) (*TrayApp, error) {
	return &TrayApp{
		daemon: daemon,
		logger: logger,
		quit:   make(chan struct{}),
	}, nil
}

// Run starts the system tray application (blocks until Quit)
func (t *TrayApp) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *TrayApp) onReady() {
	systray.SetTitle("PT")
	systray.SetTooltip("Hijri Permissions Tracker")

	// Add menu items
	mCheckNow := systray.AddMenuItem("Check Now", "Run the daily check immediately")
	systray.AddSeparator()
	mStatus := systray.AddMenuItem("Status", "Show current quota status")
	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Exit the application")

	// Start daemon logic in background
	go t.daemon.runScheduledLogic()

	// Handle menu item clicks
	go func() {
		for {
			select {
			case <-mCheckNow.ClickedCh:
				t.logger.Info("Check Now clicked from tray")
				go t.daemon.CheckNow()
			case <-mStatus.ClickedCh:
				t.logger.Info("Status clicked from tray")
				t.showStatus()
			case <-mQuit.ClickedCh:
				t.logger.Info("Quit clicked from tray")
				t.daemon.Stop()
				systray.Quit()
				return
			case <-t.quit:
				systray.Quit()
				return
			}
		}
	}()
}

func (t *TrayApp) onExit() {
	t.logger.Info("System tray exited")
}

// Stop stops the system tray application
func (t *TrayApp) Stop() {
	close(t.quit)
}

// ShowNotification shows a notification
func (t *TrayApp) ShowNotification(title, message string) {
	// fyne.io/systray doesn't have built-in notification support
	// Just log for now
	t.logger.Info("Notification", zap.String("title", title), zap.String("message", message))
}

// showStatus shows the current quota status
func (t *TrayApp) showStatus() {
	status := t.daemon.GetStatus()
	t.logger.Info("Current status", zap.Any("status", status))

	var message string
	if monthData, ok := status["month"].(map[string]interface{}); ok {
		message = fmt.Sprintf(
			"Month: %v %v AH\nRange: %v .. %v\nWorkdays: %v\nUsed: %v\nRemaining: %v",
			monthData["month_name"],
			monthData["hijri_year"],
			monthData["start"],
			monthData["end"],
			monthData["workdays"],
			monthData["used"],
			monthData["remaining"],
		)
		systray.SetTooltip(message)
	} else {
		message = "No status available"
	}

	showMessageBox("Permissions Tracker Status", message)
}

func showMessageBox(title, message string) {
	titlePtr, _ := syscall.UTF16PtrFromString(title)
	messagePtr, _ := syscall.UTF16PtrFromString(message)
	messageBoxW.Call(
		0,
		uintptr(unsafe.Pointer(messagePtr)),
		uintptr(unsafe.Pointer(titlePtr)),
		uintptr(MB_OK|MB_ICONINFORMATION),
	)
}
