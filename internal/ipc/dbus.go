// Package ipc mirrors an internal/state.Store, driven by an
// internal/backend.Backend, onto a com.luxoft.ConnectivityManager D-Bus
// object tree: see daemon/dbus_objects/manager.{h,cpp} and
// wifi_access_point.{h,cpp} in the ConnMan-daemon source this is adapted
// from.
package ipc

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/luxoft/connectivity-managerd/internal/state"
)

const (
	serviceName = "com.luxoft.ConnectivityManager"

	managerInterface        = "com.luxoft.ConnectivityManager"
	accessPointInterface    = "com.luxoft.ConnectivityManager.WiFiAccessPoint"
	userInputAgentInterface = "com.luxoft.ConnectivityManager.UserInputAgent"

	managerObjectPath dbus.ObjectPath = "/com/luxoft/ConnectivityManager"

	accessPointPathPrefix = string(managerObjectPath) + "/WiFiAccessPoints/"
)

// requestCredentialsTimeout bounds the call to a client's UserInputAgent,
// matching the daemon-to-provider Connect bound (spec: both are 5 minutes).
const requestCredentialsTimeout = 5 * time.Minute

func accessPointObjectPath(id state.AccessPointID) dbus.ObjectPath {
	return dbus.ObjectPath(accessPointPathPrefix + strconv.FormatUint(uint64(id), 10))
}

func accessPointIDFromObjectPath(path dbus.ObjectPath) (state.AccessPointID, bool) {
	s := string(path)
	if !strings.HasPrefix(s, accessPointPathPrefix) {
		return 0, false
	}
	id, err := strconv.ParseUint(s[len(accessPointPathPrefix):], 10, 64)
	if err != nil {
		return 0, false
	}
	return state.AccessPointID(id), true
}

func securityToString(s state.WiFiSecurity) string {
	switch s {
	case state.SecurityWEP:
		return "wep"
	case state.SecurityWPAPSK:
		return "wpa-psk"
	case state.SecurityWPAEAP:
		return "wpa-eap"
	default:
		return ""
	}
}

const (
	errInvalidArgs = "org.freedesktop.DBus.Error.InvalidArgs"
	errFailed      = "org.freedesktop.DBus.Error.Failed"
)

func invalidArgsError(format string, args ...interface{}) *dbus.Error {
	return dbus.NewError(errInvalidArgs, []interface{}{fmt.Sprintf(format, args...)})
}

func failedError(format string, args ...interface{}) *dbus.Error {
	return dbus.NewError(errFailed, []interface{}{fmt.Sprintf(format, args...)})
}
