// Package connman implements the connectivity-managerd provider adapter:
// it talks to ConnMan over D-Bus (see doc/overview-api.txt, manager-api.txt,
// technology-api.txt, service-api.txt and agent-api.txt in the ConnMan
// source tree) and reconciles what it learns into an internal/state.Store.
package connman

import (
	"time"

	"github.com/godbus/dbus/v5"
)

const (
	serviceName = "net.connman"

	managerInterface    = "net.connman.Manager"
	technologyInterface = "net.connman.Technology"
	serviceInterface    = "net.connman.Service"
	agentInterface      = "net.connman.Agent"

	managerObjectPath dbus.ObjectPath = "/"

	// agentObjectPath is where our inbound net.connman.Agent object is
	// exported. It lives under the daemon's own well-known object tree
	// rather than ConnMan's, since we own it.
	agentObjectPath dbus.ObjectPath = "/com/luxoft/ConnectivityManager/ConnManAgent"
)

// technology property names.
const (
	propType                = "Type"
	propName                = "Name"
	propConnected           = "Connected"
	propPowered             = "Powered"
	propTethering           = "Tethering"
	propTetheringIdentifier = "TetheringIdentifier"
	propTetheringPassphrase = "TetheringPassphrase"
)

// service property names (Security/State/Strength only exist on services).
const (
	propSecurity = "Security"
	propState    = "State"
	propStrength = "Strength"
)

// technology/service Type values. ConnMan reuses connman_service_type for
// both; only a subset is meaningful here.
const (
	typeStrBluetooth = "bluetooth"
	typeStrEthernet  = "ethernet"
	typeStrWifi      = "wifi"
)

type techOrSvcType int

const (
	typeUnknown techOrSvcType = iota
	typeBluetooth
	typeEthernet
	typeWifi
)

func typeFromString(s string) techOrSvcType {
	switch s {
	case typeStrBluetooth:
		return typeBluetooth
	case typeStrEthernet:
		return typeEthernet
	case typeStrWifi:
		return typeWifi
	default:
		return typeUnknown
	}
}

// service Security strings.
const (
	securityStrNone   = "none"
	securityStrWEP    = "wep"
	securityStrWPAPSK = "psk"
	securityStrWPAEAP = "ieee8021x"
)

// service State strings.
const (
	stateStrIdle          = "idle"
	stateStrFailure       = "failure"
	stateStrAssociation   = "association"
	stateStrConfiguration = "configuration"
	stateStrReady         = "ready"
	stateStrDisconnect    = "disconnect"
	stateStrOnline        = "online"
)

type serviceState int

const (
	stateIdle serviceState = iota
	stateFailure
	stateAssociation
	stateConfiguration
	stateReady
	stateDisconnect
	stateOnline
)

func serviceStateFromString(s string) serviceState {
	switch s {
	case stateStrIdle:
		return stateIdle
	case stateStrFailure:
		return stateFailure
	case stateStrAssociation:
		return stateAssociation
	case stateStrConfiguration:
		return stateConfiguration
	case stateStrReady:
		return stateReady
	case stateStrDisconnect:
		return stateDisconnect
	case stateStrOnline:
		return stateOnline
	default:
		return stateIdle
	}
}

// connected mirrors ConnManService::state_to_connected(): "ready" and
// "online" count as connected.
func (s serviceState) connected() bool {
	return s == stateReady || s == stateOnline
}

// connectTimeout is the D-Bus call timeout used for Service.Connect: a
// pending WPA handshake or DHCP lease can legitimately take a while.
const connectTimeout = 5 * time.Minute
