package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// connectTimeout bounds the Connect call end to end, including any
// credential prompts it triggers — matches CONNECT_TIMEOUT_MS in
// command_wifi.cpp.
const connectTimeout = 5 * time.Minute

var wifiSSID string
var wifiPassphrase string

// WiFiCmd is the "wifi" command group: enable/disable/status/connect/
// disconnect/enable-hotspot/disable-hotspot.
var WiFiCmd = &cobra.Command{
	Use:   "wifi",
	Short: "Wi-Fi operations",
}

func init() {
	WiFiCmd.PersistentFlags().StringVarP(&wifiSSID, "ssid", "s", "", "SSID for connect, disconnect or enable-hotspot")
	WiFiCmd.PersistentFlags().StringVarP(&wifiPassphrase, "passphrase", "p", "", "hotspot passphrase for enable-hotspot")

	WiFiCmd.AddCommand(wifiEnableCmd, wifiDisableCmd, wifiStatusCmd, wifiConnectCmd, wifiDisconnectCmd,
		wifiEnableHotspotCmd, wifiDisableHotspotCmd)
}

func withClient(f func(*client) error) error {
	c, err := dial(busFlag)
	if err != nil {
		return err
	}
	defer c.Close()
	return f(c)
}

var wifiEnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Enable Wi-Fi",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(c *client) error {
			if err := c.setProp("WiFiEnabled", true); err != nil {
				return fmt.Errorf("failed to enable Wi-Fi: %w", err)
			}
			return nil
		})
	},
}

var wifiDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Disable Wi-Fi",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(c *client) error {
			if err := c.setProp("WiFiEnabled", false); err != nil {
				return fmt.Errorf("failed to disable Wi-Fi: %w", err)
			}
			return nil
		})
	},
}

var wifiStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show Wi-Fi status and access points",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(printStatus)
	},
}

func printStatus(c *client) error {
	available, err := c.wifiAvailable()
	if err != nil {
		return err
	}
	enabled, err := c.wifiEnabled()
	if err != nil {
		return err
	}
	hotspotEnabled, err := c.hotspotEnabled()
	if err != nil {
		return err
	}
	hotspotSSID, err := c.hotspotSSID()
	if err != nil {
		return err
	}
	hotspotPassphrase, err := c.hotspotPassphrase()
	if err != nil {
		return err
	}

	fmt.Println("Wi-Fi Status:")
	fmt.Println()
	fmt.Printf("  Available: %s\n", yesNo(available))
	fmt.Printf("  Enabled  : %s\n", yesNo(enabled))
	fmt.Println()
	fmt.Printf("  Hotspot Enabled   : %s\n", yesNo(hotspotEnabled))
	fmt.Printf("  Hotspot Name/SSID : %q\n", hotspotSSID)
	fmt.Printf("  Hotspot Passphrase: %q\n", hotspotPassphrase)
	fmt.Println()
	fmt.Println("  Access Points (* = connected):")

	aps, err := c.accessPoints()
	if err != nil {
		return err
	}
	for _, ap := range aps {
		marker := " "
		if ap.Connected {
			marker = "*"
		}
		name := ap.SSID
		if name == "" {
			name = "<Hidden>"
		}
		details := fmt.Sprintf("Strength: %d", ap.Strength)
		if ap.Security != "" {
			details += ", Security: " + ap.Security
		}
		fmt.Printf("  %s  %s (%s)\n", marker, name, details)
	}
	fmt.Println()

	return nil
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

var wifiConnectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Connect to a Wi-Fi access point",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if wifiSSID == "" {
			return fmt.Errorf("SSID required for connect")
		}
		return withClient(connectTo)
	},
}

func connectTo(c *client) error {
	ap, ok, err := c.accessPointWithSSID(wifiSSID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no access point with name %s", wifiSSID)
	}

	if err := exportTerminalAgent(c.conn); err != nil {
		return fmt.Errorf("register user input agent: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	err = c.manager.CallWithContext(ctx, managerInterface+".Connect", 0, ap.Path, userInputAgentPath).Err
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", wifiSSID, err)
	}

	return nil
}

var wifiDisconnectCmd = &cobra.Command{
	Use:   "disconnect",
	Short: "Disconnect from a Wi-Fi access point",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if wifiSSID == "" {
			return fmt.Errorf("SSID required for disconnect")
		}
		return withClient(func(c *client) error {
			ap, ok, err := c.accessPointWithSSID(wifiSSID)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no access point with name %s", wifiSSID)
			}
			if err := c.manager.Call(managerInterface+".Disconnect", 0, ap.Path).Err; err != nil {
				return fmt.Errorf("failed to disconnect %s: %w", wifiSSID, err)
			}
			return nil
		})
	},
}

var wifiEnableHotspotCmd = &cobra.Command{
	Use:   "enable-hotspot",
	Short: "Enable Wi-Fi hotspot",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(c *client) error {
			if wifiSSID != "" {
				if err := c.setProp("WiFiHotspotSSID", wifiSSID); err != nil {
					return fmt.Errorf("failed to enable Wi-Fi hotspot: %w", err)
				}
			}
			if wifiPassphrase != "" {
				if err := c.setProp("WiFiHotspotPassphrase", wifiPassphrase); err != nil {
					return fmt.Errorf("failed to enable Wi-Fi hotspot: %w", err)
				}
			}
			if err := c.setProp("WiFiHotspotEnabled", true); err != nil {
				return fmt.Errorf("failed to enable Wi-Fi hotspot: %w", err)
			}
			return nil
		})
	},
}

var wifiDisableHotspotCmd = &cobra.Command{
	Use:   "disable-hotspot",
	Short: "Disable Wi-Fi hotspot",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(c *client) error {
			if err := c.setProp("WiFiHotspotEnabled", false); err != nil {
				return fmt.Errorf("failed to disable Wi-Fi hotspot: %w", err)
			}
			return nil
		})
	},
}
