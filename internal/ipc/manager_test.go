package ipc

import (
	"testing"

	"github.com/godbus/dbus/v5/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxoft/connectivity-managerd/internal/backend"
	"github.com/luxoft/connectivity-managerd/internal/state"
)

// fakeBackend is a minimal backend.Backend for exercising Manager's
// property-write guards without a live D-Bus connection or ConnMan.
type fakeBackend struct {
	store *state.Store
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{store: state.New()}
}

func (f *fakeBackend) Store() *state.Store { return f.store }

func (f *fakeBackend) WiFiEnable()  {}
func (f *fakeBackend) WiFiDisable() {}

func (f *fakeBackend) WiFiConnect(ap state.AccessPoint, finished backend.ConnectFinishedFunc, requestCredentials backend.RequestCredentialsFunc) {
}
func (f *fakeBackend) WiFiDisconnect(ap state.AccessPoint) {}

func (f *fakeBackend) WiFiHotspotEnable()  {}
func (f *fakeBackend) WiFiHotspotDisable() {}

func (f *fakeBackend) WiFiHotspotChangeSSID(ssid string)             {}
func (f *fakeBackend) WiFiHotspotChangePassphrase(passphrase string) {}

var _ backend.Backend = (*fakeBackend)(nil)

// TestManagerHotspotGuardRejectsEnableWhileWiFiUnavailable covers spec.md
// §8 scenario 10: WiFiHotspotEnabled_set(true) while status == UNAVAILABLE
// fails with Failed. The store starts unavailable (no technology bound
// yet), matching that scenario directly.
func TestManagerHotspotGuardRejectsEnableWhileWiFiUnavailable(t *testing.T) {
	b := newFakeBackend()
	m := &Manager{backend: b}
	require.False(t, b.Store().WiFiAvailable())

	err := m.setWiFiHotspotEnabled(&prop.Change{Value: true})
	require.NotNil(t, err)
	assert.Equal(t, errFailed, err.Name)
}

func TestManagerHotspotGuardAllowsDisableWhileWiFiUnavailable(t *testing.T) {
	b := newFakeBackend()
	m := &Manager{backend: b}

	err := m.setWiFiHotspotEnabled(&prop.Change{Value: false})
	assert.Nil(t, err, "disabling the hotspot must never be blocked by unavailability")
}

func TestManagerSetWiFiEnabledRejectsWhileWiFiUnavailable(t *testing.T) {
	b := newFakeBackend()
	m := &Manager{backend: b}

	err := m.setWiFiEnabled(&prop.Change{Value: true})
	require.NotNil(t, err)
	assert.Equal(t, errFailed, err.Name)
}

func TestManagerSetWiFiEnabledRejectsWrongType(t *testing.T) {
	b := newFakeBackend()
	m := &Manager{backend: b}

	err := m.setWiFiEnabled(&prop.Change{Value: "yes"})
	require.NotNil(t, err)
	assert.Equal(t, errInvalidArgs, err.Name)
}

func TestManagerSetWiFiHotspotSSIDRejectsWhileWiFiUnavailable(t *testing.T) {
	b := newFakeBackend()
	m := &Manager{backend: b}

	err := m.setWiFiHotspotSSID(&prop.Change{Value: "my-hotspot"})
	require.NotNil(t, err)
	assert.Equal(t, errFailed, err.Name)
}
