// Package cli implements the connectivity-manager-cli commands: thin D-Bus
// clients of com.luxoft.ConnectivityManager, grounded on
// cli/command_wifi.cpp and cli/command_monitor.cpp.
package cli

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	serviceName      = "com.luxoft.ConnectivityManager"
	managerInterface = "com.luxoft.ConnectivityManager"
	apInterface      = "com.luxoft.ConnectivityManager.WiFiAccessPoint"

	managerObjectPath dbus.ObjectPath = "/com/luxoft/ConnectivityManager"
)

// client wraps the bus connection and manager proxy object used by every
// subcommand.
type client struct {
	conn    *dbus.Conn
	manager dbus.BusObject
}

func dial(bus string) (*client, error) {
	var conn *dbus.Conn
	var err error

	if bus == "session" {
		conn, err = dbus.ConnectSessionBus()
	} else {
		conn, err = dbus.ConnectSystemBus()
	}
	if err != nil {
		return nil, fmt.Errorf("connect to bus: %w", err)
	}

	return &client{
		conn:    conn,
		manager: conn.Object(serviceName, managerObjectPath),
	}, nil
}

func (c *client) Close() error { return c.conn.Close() }

func (c *client) getProp(name string) (dbus.Variant, error) {
	return c.manager.GetProperty(managerInterface + "." + name)
}

func (c *client) setProp(name string, value interface{}) error {
	return c.manager.Call("org.freedesktop.DBus.Properties.Set", 0,
		managerInterface, name, dbus.MakeVariant(value)).Err
}

func (c *client) wifiAvailable() (bool, error) {
	v, err := c.getProp("WiFiAvailable")
	if err != nil {
		return false, err
	}
	return v.Value().(bool), nil
}

func (c *client) wifiEnabled() (bool, error) {
	v, err := c.getProp("WiFiEnabled")
	if err != nil {
		return false, err
	}
	return v.Value().(bool), nil
}

func (c *client) hotspotEnabled() (bool, error) {
	v, err := c.getProp("WiFiHotspotEnabled")
	if err != nil {
		return false, err
	}
	return v.Value().(bool), nil
}

func (c *client) hotspotSSID() (string, error) {
	v, err := c.getProp("WiFiHotspotSSID")
	if err != nil {
		return "", err
	}
	return v.Value().(string), nil
}

func (c *client) hotspotPassphrase() (string, error) {
	v, err := c.getProp("WiFiHotspotPassphrase")
	if err != nil {
		return "", err
	}
	return v.Value().(string), nil
}

// accessPoint is the CLI's flattened view of a WiFiAccessPoint object, read
// in one round trip per access point via GetAll.
type accessPoint struct {
	Path      dbus.ObjectPath
	SSID      string
	Strength  uint8
	Connected bool
	Security  string
}

func (c *client) accessPoints() ([]accessPoint, error) {
	v, err := c.getProp("WiFiAccessPoints")
	if err != nil {
		return nil, err
	}
	paths, ok := v.Value().([]dbus.ObjectPath)
	if !ok {
		return nil, fmt.Errorf("unexpected WiFiAccessPoints value type")
	}

	aps := make([]accessPoint, 0, len(paths))
	for _, path := range paths {
		obj := c.conn.Object(serviceName, path)

		var props map[string]dbus.Variant
		if err := obj.Call("org.freedesktop.DBus.Properties.GetAll", 0, apInterface).Store(&props); err != nil {
			return nil, fmt.Errorf("read access point %s: %w", path, err)
		}

		ap := accessPoint{Path: path}
		if v, ok := props["SSID"]; ok {
			ap.SSID, _ = v.Value().(string)
		}
		if v, ok := props["Strength"]; ok {
			ap.Strength, _ = v.Value().(uint8)
		}
		if v, ok := props["Connected"]; ok {
			ap.Connected, _ = v.Value().(bool)
		}
		if v, ok := props["Security"]; ok {
			ap.Security, _ = v.Value().(string)
		}

		aps = append(aps, ap)
	}

	return aps, nil
}

func (c *client) accessPointWithSSID(ssid string) (accessPoint, bool, error) {
	aps, err := c.accessPoints()
	if err != nil {
		return accessPoint{}, false, err
	}
	for _, ap := range aps {
		if ap.SSID == ssid {
			return ap, true, nil
		}
	}
	return accessPoint{}, false, nil
}
