// Package tray provides a system tray interface for the driver safety monitor.
package tray

import (
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/vigil/internal/event"
)

// Tray represents the system tray application. It implements event.Listener
// so the menu follows alarm and pause changes made from anywhere.
type Tray struct {
	onToggle    func(enabled bool)
	onDashboard func()
	onQuit      func()
	enabled     bool
	alarming    bool
	lastAlarm   string
	mu          sync.RWMutex

	// Menu items stored for later updates
	menuToggle    *systray.MenuItem
	menuStatus    *systray.MenuItem
	menuLastAlarm *systray.MenuItem
}

// New creates a new Tray instance with enabled state set to true by default.
func New() *Tray {
	return &Tray{
		enabled: true,
	}
}

// OnToggle sets the callback function to be called when monitoring is paused or resumed.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnDashboard sets the callback function to be called when the dashboard menu item is clicked.
func (t *Tray) OnDashboard(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onDashboard = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application. It must be called from the main
// goroutine and blocks until Quit is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit stops the tray event loop.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("Vigil")
	systray.SetTooltip("Driver Safety Monitor")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Pause or resume monitoring")
	systray.AddSeparator()

	t.menuStatus = systray.AddMenuItem(statusTitle(t.enabled, t.alarming), "Current alarm state")
	t.menuStatus.Disable()
	t.menuLastAlarm = systray.AddMenuItem(lastAlarmTitle(t.lastAlarm), "Cause of the last alarm")
	t.menuLastAlarm.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuDashboard := systray.AddMenuItem("Open Dashboard...", "Open the live view in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Vigil")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuDashboard.ClickedCh:
				t.handleDashboard()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// onExit is called when the system tray is about to exit.
func (t *Tray) onExit() {}

// handleToggle handles the toggle menu item click.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if !enabled {
		t.alarming = false
	}
	t.refresh()

	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

// handleDashboard handles the dashboard menu item click.
func (t *Tray) handleDashboard() {
	t.mu.RLock()
	callback := t.onDashboard
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// HandleEvent updates the menu for alarm and pause events.
func (t *Tray) HandleEvent(e event.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch e.Type {
	case event.AlarmStart:
		t.alarming = true
		t.lastAlarm = e.Cause
	case event.AlarmStop:
		t.alarming = false
	case event.MonitorPaused:
		t.enabled = false
		t.alarming = false
	case event.MonitorResumed:
		t.enabled = true
	default:
		return
	}
	t.refresh()
}

// refresh updates menu titles from the current state. Callers hold t.mu.
func (t *Tray) refresh() {
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(t.enabled))
	}
	if t.menuStatus != nil {
		t.menuStatus.SetTitle(statusTitle(t.enabled, t.alarming))
	}
	if t.menuLastAlarm != nil {
		t.menuLastAlarm.SetTitle(lastAlarmTitle(t.lastAlarm))
	}
}

// SetEnabled sets the enabled state without invoking the toggle callback.
func (t *Tray) SetEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = enabled
	t.refresh()
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

// IsAlarming reports whether the last seen event left the alarm sounding.
func (t *Tray) IsAlarming() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.alarming
}

// LastAlarm returns the cause of the most recent alarm.
func (t *Tray) LastAlarm() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastAlarm
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Monitoring"
	}
	return "○ Paused"
}

func statusTitle(enabled, alarming bool) string {
	switch {
	case !enabled:
		return "Status: paused"
	case alarming:
		return "Status: ALERT"
	default:
		return "Status: ok"
	}
}

func lastAlarmTitle(cause string) string {
	if cause == "" {
		return "Last alarm: none"
	}
	return "Last alarm: " + cause
}
