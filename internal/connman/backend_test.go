package connman

import (
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"

	"github.com/luxoft/connectivity-managerd/internal/state"
)

func newTestBackend() *Backend {
	return New(nil, state.New(), logr.Discard())
}

// TestBackendManagerAvailabilityChangedFailsQueuedConnectsAndClearsState covers spec.md
// §8 scenario 8: with two queued connects and an enabled Wi-Fi, the provider
// disappearing fails both connects and empties the access point set.
func TestBackendManagerAvailabilityChangedFailsQueuedConnectsAndClearsState(t *testing.T) {
	b := newTestBackend()

	b.wifiTechnology = &technology{}
	svcA := &service{}
	svcB := &service{}

	idA := b.store.NextAccessPointID()
	idB := b.store.NextAccessPointID()
	b.wifiServiceToAPID[svcA] = idA
	b.wifiServiceToAPID[svcB] = idB
	b.store.AddAccessPointsAll([]state.AccessPoint{
		{ID: idA, SSID: "net-a"},
		{ID: idB, SSID: "net-b"},
	})
	b.store.SetWiFiStatus(state.WiFiEnabled)

	var resultsA, resultsB []bool
	enqueueForTest(b.connectQueue, svcA, func(success bool) { resultsA = append(resultsA, success) }, noopRequestCredentials, func() {})
	enqueueForTest(b.connectQueue, svcB, func(success bool) { resultsB = append(resultsB, success) }, noopRequestCredentials, func() {})

	b.managerAvailabilityChanged(false)

	assert.Equal(t, []bool{false}, resultsA, "queued connects must fail when the provider disappears")
	assert.Equal(t, []bool{false}, resultsB)
	assert.Empty(t, b.connectQueue.entries)

	st := b.store.State()
	assert.Equal(t, state.WiFiUnavailable, st.WiFi.Status)
	assert.Empty(t, st.WiFi.AccessPoints)
}

func TestBackendServiceFromAccessPointID(t *testing.T) {
	b := newTestBackend()
	svc := &service{}
	id := b.store.NextAccessPointID()
	b.wifiServiceToAPID[svc] = id

	assert.Same(t, svc, b.serviceFromAccessPointID(id))
	assert.Nil(t, b.serviceFromAccessPointID(id+1))
}
