package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/godbus/dbus/v5"
	"github.com/spf13/cobra"
)

var monitorInitialState bool

// MonitorCmd prints Wi-Fi state changes as they happen, mirroring
// command_monitor.cpp; it runs until interrupted.
var MonitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Monitor changes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(runMonitor)
	},
}

func init() {
	MonitorCmd.Flags().BoolVarP(&monitorInitialState, "initial-state", "i", false, "print initial state")
}

func runMonitor(c *client) error {
	if monitorInitialState {
		if err := printStatus(c); err != nil {
			return err
		}
	}

	sigCh := make(chan *dbus.Signal, 16)
	c.conn.Signal(sigCh)

	if err := c.conn.AddMatchSignal(
		dbus.WithMatchInterface("org.freedesktop.DBus.Properties"),
		dbus.WithMatchObjectPath(managerObjectPath),
		dbus.WithMatchMember("PropertiesChanged"),
	); err != nil {
		return fmt.Errorf("watch property changes: %w", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case sig := <-sigCh:
			printPropertiesChanged(sig)
		case <-stop:
			return nil
		}
	}
}

func printPropertiesChanged(sig *dbus.Signal) {
	if len(sig.Body) < 2 {
		return
	}
	changed, ok := sig.Body[1].(map[string]dbus.Variant)
	if !ok {
		return
	}

	for _, name := range []string{"WiFiAvailable", "WiFiEnabled", "WiFiHotspotEnabled", "WiFiHotspotSSID", "WiFiHotspotPassphrase"} {
		if v, ok := changed[name]; ok {
			fmt.Printf("%s: %v\n", name, v.Value())
		}
	}
}
