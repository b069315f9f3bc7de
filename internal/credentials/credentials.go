// Package credentials implements the wire representation of Wi-Fi and other
// network login credentials exchanged between the daemon and a client's
// com.luxoft.ConnectivityManager.UserInputAgent object.
package credentials

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

// PasswordType identifies the kind of secret carried by a Password.
type PasswordType int

const (
	PasswordPassphrase PasswordType = iota
	PasswordWPAPSK
	PasswordWEPKey
	PasswordWPSPin
)

const (
	passwordTypePassphrase = "passphrase"
	passwordTypeWPAPSK     = "wpa_psk"
	passwordTypeWEPKey     = "wep_key"
	passwordTypeWPSPin     = "wps_pin"
)

func (t PasswordType) String() string {
	switch t {
	case PasswordPassphrase:
		return passwordTypePassphrase
	case PasswordWPAPSK:
		return passwordTypeWPAPSK
	case PasswordWEPKey:
		return passwordTypeWEPKey
	case PasswordWPSPin:
		return passwordTypeWPSPin
	default:
		return "unknown"
	}
}

func passwordTypeFromString(s string) (PasswordType, bool) {
	switch s {
	case passwordTypePassphrase:
		return PasswordPassphrase, true
	case passwordTypeWPAPSK:
		return PasswordWPAPSK, true
	case passwordTypeWEPKey:
		return PasswordWEPKey, true
	case passwordTypeWPSPin:
		return PasswordWPSPin, true
	default:
		return 0, false
	}
}

// Password is a typed secret, e.g. a WPA passphrase or a WPS pin.
type Password struct {
	Type  PasswordType
	Value string
}

// passwordWire is the D-Bus struct shape a Password is sent as: (ss).
type passwordWire struct {
	Type  string
	Value string
}

func (p Password) toVariant() dbus.Variant {
	return dbus.MakeVariant(passwordWire{Type: p.Type.String(), Value: p.Value})
}

func passwordFromVariant(name string, v dbus.Variant) (Password, error) {
	var wire passwordWire
	if err := v.Store(&wire); err != nil {
		return Password{}, fmt.Errorf("credentials: %s: %w", name, err)
	}

	t, ok := passwordTypeFromString(wire.Type)
	if !ok {
		return Password{}, fmt.Errorf("credentials: %s: unknown password type %q", name, wire.Type)
	}

	return Password{Type: t, Value: wire.Value}, nil
}

// Credentials holds the fields a client may be asked to fill in, or is
// filling in, for a RequestCredentials round trip. Every field is optional:
// only the ones a request asked for, or a reply answers, are set.
type Credentials struct {
	SSID                *string
	Username            *string
	Password            *Password
	PasswordAlternative *Password
}

const (
	valueTypeSSID                = "ssid"
	valueTypeUsername            = "username"
	valueTypePassword            = "password"
	valueTypePasswordAlternative = "password_alternative"
)

// ToDBusValue renders c as the map[string]dbus.Variant used on the wire by
// the UserInputAgent interface. Unset fields are omitted.
func (c Credentials) ToDBusValue() map[string]dbus.Variant {
	v := make(map[string]dbus.Variant)

	if c.SSID != nil {
		v[valueTypeSSID] = dbus.MakeVariant(*c.SSID)
	}
	if c.Username != nil {
		v[valueTypeUsername] = dbus.MakeVariant(*c.Username)
	}
	if c.Password != nil {
		v[valueTypePassword] = c.Password.toVariant()
	}
	if c.PasswordAlternative != nil {
		v[valueTypePasswordAlternative] = c.PasswordAlternative.toVariant()
	}

	return v
}

// FromDBusValue parses the map[string]dbus.Variant wire shape used by the
// UserInputAgent interface. An empty map is rejected: a request or reply
// with nothing in it carries no information and is almost certainly a bug
// on one end of the call.
func FromDBusValue(dbusValue map[string]dbus.Variant) (Credentials, error) {
	if len(dbusValue) == 0 {
		return Credentials{}, fmt.Errorf("credentials: D-Bus value must contain at least one entry")
	}

	var c Credentials

	for key, variant := range dbusValue {
		switch key {
		case valueTypeSSID:
			var s string
			if err := variant.Store(&s); err != nil {
				return Credentials{}, fmt.Errorf("credentials: %s: %w", key, err)
			}
			c.SSID = &s

		case valueTypeUsername:
			var s string
			if err := variant.Store(&s); err != nil {
				return Credentials{}, fmt.Errorf("credentials: %s: %w", key, err)
			}
			c.Username = &s

		case valueTypePassword:
			p, err := passwordFromVariant(key, variant)
			if err != nil {
				return Credentials{}, err
			}
			c.Password = &p

		case valueTypePasswordAlternative:
			p, err := passwordFromVariant(key, variant)
			if err != nil {
				return Credentials{}, err
			}
			c.PasswordAlternative = &p

		default:
			return Credentials{}, fmt.Errorf("credentials: unknown value type %q", key)
		}
	}

	return c, nil
}

// RequestedType names what kind of thing credentials are being requested
// for. Values are meant to be presented (and translated) to a human.
type RequestedType string

const (
	RequestedTypeNetwork               RequestedType = "network"
	RequestedTypeWirelessNetwork       RequestedType = "wireless network"
	RequestedTypeHiddenWirelessNetwork RequestedType = "hidden wireless network"
)

// Requested pairs a Credentials request with a human-facing description of
// what it's for, as sent to RequestCredentials.
type Requested struct {
	DescriptionType RequestedType
	DescriptionID   string

	Credentials Credentials
}
