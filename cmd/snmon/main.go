// Command snmon is a thin reference consumer for the Session Manager's
// D-Bus session notifications: it subscribes to the system bus and prints
// each SessionNotification signal as it arrives.
package main

import (
	"fmt"
	"os"

	"github.com/godbus/dbus/v5"

	"github.com/ogon-project/sessionmgr/pkg/notify"
)

const (
	interfaceName = "ogon.SessionManager.session.notification"
	member        = "SessionNotification"
)

func main() {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		fmt.Fprintf(os.Stderr, "snmon: connection error: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()

	if err := conn.AddMatchSignal(
		dbus.WithMatchInterface(interfaceName),
		dbus.WithMatchMember(member),
	); err != nil {
		fmt.Fprintf(os.Stderr, "snmon: match error: %v\n", err)
		os.Exit(1)
	}

	signals := make(chan *dbus.Signal, 16)
	conn.Signal(signals)

	fmt.Println("Started listening for ogon session notifications")

	for sig := range signals {
		line, err := formatNotification(sig)
		if err != nil {
			fmt.Fprintf(os.Stderr, "snmon: %v\n", err)
			continue
		}
		if line != "" {
			fmt.Println(line)
		}
	}
}

// formatNotification renders a matching SessionNotification signal as a
// human-readable line, or returns an empty string for a signal that isn't
// ours (AddMatchSignal narrows the bus subscription, but every signal on
// the bus still passes through this channel).
func formatNotification(sig *dbus.Signal) (string, error) {
	if sig.Name != interfaceName+"."+member {
		return "", nil
	}
	if len(sig.Body) != 2 {
		return "", fmt.Errorf("signal has %d arguments, want 2", len(sig.Body))
	}

	notificationType, ok := sig.Body[0].(uint32)
	if !ok {
		return "", fmt.Errorf("argument 1 is not uint32")
	}
	sessionID, ok := sig.Body[1].(uint32)
	if !ok {
		return "", fmt.Errorf("argument 2 is not uint32")
	}

	return fmt.Sprintf("Got notification %s for session %d", notify.Type(notificationType), sessionID), nil
}
