package ipc

import (
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxoft/connectivity-managerd/internal/state"
)

func TestAccessPointObjectPathRoundTrip(t *testing.T) {
	path := accessPointObjectPath(42)
	assert.Equal(t, dbus.ObjectPath("/com/luxoft/ConnectivityManager/WiFiAccessPoints/42"), path)

	id, ok := accessPointIDFromObjectPath(path)
	require.True(t, ok)
	assert.Equal(t, state.AccessPointID(42), id)
}

func TestAccessPointIDFromObjectPathRejectsForeignPaths(t *testing.T) {
	cases := []dbus.ObjectPath{
		"/com/luxoft/ConnectivityManager",
		"/com/luxoft/ConnectivityManager/WiFiAccessPoints/",
		"/com/luxoft/ConnectivityManager/WiFiAccessPoints/not-a-number",
		"/org/freedesktop/DBus",
	}
	for _, path := range cases {
		_, ok := accessPointIDFromObjectPath(path)
		assert.False(t, ok, "path %s should not parse", path)
	}
}

func TestSecurityToString(t *testing.T) {
	cases := map[state.WiFiSecurity]string{
		state.SecurityNone:   "",
		state.SecurityWEP:    "wep",
		state.SecurityWPAPSK: "wpa-psk",
		state.SecurityWPAEAP: "wpa-eap",
	}
	for sec, want := range cases {
		assert.Equal(t, want, securityToString(sec))
	}
}

func TestErrorConstructors(t *testing.T) {
	err := invalidArgsError("bad: %s", "thing")
	assert.Equal(t, errInvalidArgs, err.Name)
	require.Len(t, err.Body, 1)
	assert.Equal(t, "bad: thing", err.Body[0])

	err = failedError("nope")
	assert.Equal(t, errFailed, err.Name)
}
