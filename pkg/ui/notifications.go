package ui

import (
	"fmt"
	"os/exec"
	"runtime"
	"sync"
)

// notifID keys every desktop notification this tool sends, so updates
// replace the previous bubble instead of stacking new ones
const notifID = "zhihu_export_progress"

// NotificationSender interface for platform-specific notification implementations
type NotificationSender interface {
	Send(title, message string) error
}

// LinuxNotificationSender sends notifications on Linux using notify-send.
// The synchronous hint makes repeated sends replace the same bubble.
type LinuxNotificationSender struct{}

func (l *LinuxNotificationSender) Send(title, message string) error {
	cmd := exec.Command("notify-send",
		"-h", "string:x-canonical-private-synchronous:"+notifID,
		title, message)
	return cmd.Run()
}

// MacOSNotificationSender sends notifications on macOS using osascript
type MacOSNotificationSender struct{}

func (m *MacOSNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`display notification "%s" with title "%s"`, message, title)
	cmd := exec.Command("osascript", "-e", script)
	return cmd.Run()
}

// WindowsNotificationSender sends notifications on Windows using PowerShell
type WindowsNotificationSender struct{}

func (w *WindowsNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`
		[Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType = WindowsRuntime] | Out-Null
		[Windows.Data.Xml.Dom.XmlDocument, Windows.Data.Xml.Dom.XmlDocument, ContentType = WindowsRuntime] | Out-Null
		$xml = @"
<toast>
	<visual>
		<binding template="ToastText02">
			<text id="1">%s</text>
			<text id="2">%s</text>
		</binding>
	</visual>
</toast>
"@
		$doc = [Windows.Data.Xml.Dom.XmlDocument]::new()
		$doc.LoadXml($xml)
		$toast = [Windows.UI.Notifications.ToastNotification]::new($doc)
		[Windows.UI.Notifications.ToastNotificationManager]::CreateToastNotifier("Zhihu Exporter").Show($toast)
	`, title, message)

	cmd := exec.Command("powershell", "-NoProfile", "-NonInteractive", "-Command", script)
	return cmd.Run()
}

// DesktopNotifier shows cross-platform desktop notifications with
// replace-in-place semantics and mirrors them to the console.
type DesktopNotifier struct {
	mu      sync.Mutex
	sender  NotificationSender
	enabled bool
	console bool
}

// NewDesktopNotifier creates a notifier for the current platform. With
// enabled false every call is a no-op, satisfying callers that always
// notify unconditionally.
func NewDesktopNotifier(enabled bool) *DesktopNotifier {
	var sender NotificationSender

	switch runtime.GOOS {
	case "linux":
		sender = &LinuxNotificationSender{}
	case "darwin":
		sender = &MacOSNotificationSender{}
	case "windows":
		sender = &WindowsNotificationSender{}
	default:
		sender = nil
	}

	return &DesktopNotifier{sender: sender, enabled: enabled, console: true}
}

// ShowOrUpdate shows the notification, replacing any previous one
func (n *DesktopNotifier) ShowOrUpdate(title, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.enabled {
		return
	}

	if n.console {
		fmt.Printf("\n%s: %s\n", Cyan(title), Yellow(message))
	}
	if n.sender != nil {
		// Notifications are not critical; errors are ignored.
		_ = n.sender.Send(title, message)
	}
}

// Clear removes the notification where the platform allows it
func (n *DesktopNotifier) Clear() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.enabled {
		return
	}

	// notify-send can only replace, not retract: send a transient blank.
	if _, ok := n.sender.(*LinuxNotificationSender); ok {
		cmd := exec.Command("notify-send",
			"-h", "string:x-canonical-private-synchronous:"+notifID,
			"-t", "1", " ")
		_ = cmd.Run()
	}
}
