package connman

import (
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxoft/connectivity-managerd/internal/credentials"
)

func noopRequestCredentials(requested credentials.Requested, reply func(*credentials.Credentials)) {
	reply(nil)
}

// enqueueForTest enqueues svc without letting the production connect-now
// path run svc.connect() (which needs a live backend); connectNow is always
// false, and the entry's connect func is then replaced with the caller's.
func enqueueForTest(q *connectQueue, svc *service, finished connectFinishedFunc, requestCredentials requestCredentialsFunc, connect func()) {
	q.enqueue(svc, finished, requestCredentials, false)
	q.entries[len(q.entries)-1].connect = connect
}

func TestConnectQueueOrdering(t *testing.T) {
	q := newConnectQueue(logr.Discard())

	svcA := &service{}
	svcB := &service{}

	var order []string
	var resultsA, resultsB []bool

	enqueueForTest(q, svcA, func(success bool) { resultsA = append(resultsA, success) }, noopRequestCredentials,
		func() { order = append(order, "A") })
	enqueueForTest(q, svcB, func(success bool) { resultsB = append(resultsB, success) }, noopRequestCredentials,
		func() { order = append(order, "B") })

	// Agent registers with both A and B backlogged: A, being first in,
	// connects first.
	q.connectIfNotEmpty()
	assert.Equal(t, []string{"A"}, order)
	assert.Empty(t, resultsB, "B must not be issued while A is still connecting")

	q.connectFinished(svcA, true)
	assert.Equal(t, []bool{true}, resultsA)
	assert.Equal(t, []string{"A", "B"}, order, "B's connect must be issued once A finishes")

	q.connectFinished(svcB, true)
	assert.Equal(t, []bool{true}, resultsB)
	assert.Empty(t, q.entries)
}

func TestConnectQueueFailAllAndClear(t *testing.T) {
	q := newConnectQueue(logr.Discard())

	svcA := &service{}
	svcB := &service{}

	var resultsA, resultsB []bool
	enqueueForTest(q, svcA, func(success bool) { resultsA = append(resultsA, success) }, noopRequestCredentials, func() {})
	enqueueForTest(q, svcB, func(success bool) { resultsB = append(resultsB, success) }, noopRequestCredentials, func() {})

	q.failAllAndClear()

	assert.Equal(t, []bool{false}, resultsA, "provider disappearing must fail every queued connect")
	assert.Equal(t, []bool{false}, resultsB)
	assert.Empty(t, q.entries)

	// Must be a no-op on an already-empty queue.
	q.failAllAndClear()
}

func TestConnectQueueRemoveServiceFailsOnlyThatServicesEntries(t *testing.T) {
	q := newConnectQueue(logr.Discard())

	svcA := &service{}
	svcB := &service{}

	var calledA bool
	var resultA bool
	enqueueForTest(q, svcA, func(success bool) { calledA = true; resultA = success }, noopRequestCredentials, func() {})
	enqueueForTest(q, svcB, func(success bool) { t.Fatal("B must not be failed when A is removed") }, noopRequestCredentials, func() {})

	q.removeService(svcA)

	assert.True(t, calledA)
	assert.False(t, resultA)
	require.Len(t, q.entries, 1)
	assert.Same(t, svcB, q.entries[0].svc)
}

func TestConnectQueueRequestCredentialsRoutesToHeadOnly(t *testing.T) {
	q := newConnectQueue(logr.Discard())

	svcA := &service{}
	svcB := &service{}

	var routedTo *credentials.Requested
	reqA := func(requested credentials.Requested, reply func(*credentials.Credentials)) {
		routedTo = &requested
		reply(nil)
	}
	reqB := func(requested credentials.Requested, reply func(*credentials.Credentials)) {
		t.Fatal("B must not receive a credentials request while A is head")
	}

	enqueueForTest(q, svcA, func(bool) {}, reqA, func() {})
	enqueueForTest(q, svcB, func(bool) {}, reqB, func() {})

	var replied *credentials.Credentials
	replyCalled := false
	q.requestCredentials(svcA, credentials.Requested{DescriptionID: "net1"}, func(c *credentials.Credentials) {
		replied = c
		replyCalled = true
	})

	require.NotNil(t, routedTo)
	assert.Equal(t, "net1", routedTo.DescriptionID)
	assert.True(t, replyCalled)
	assert.Nil(t, replied)
}

func TestConnectQueueRequestCredentialsForNonHeadServiceRepliesAbsent(t *testing.T) {
	q := newConnectQueue(logr.Discard())

	svcA := &service{}
	svcB := &service{}

	enqueueForTest(q, svcA, func(bool) {}, noopRequestCredentials, func() {})
	enqueueForTest(q, svcB, func(bool) {}, noopRequestCredentials, func() {})

	called := false
	q.requestCredentials(svcB, credentials.Requested{}, func(c *credentials.Credentials) {
		called = true
		assert.Nil(t, c)
	})
	assert.True(t, called)
}

func TestConnectQueueRequestCredentialsOnEmptyQueueRepliesAbsent(t *testing.T) {
	q := newConnectQueue(logr.Discard())

	called := false
	q.requestCredentials(&service{}, credentials.Requested{}, func(c *credentials.Credentials) {
		called = true
		assert.Nil(t, c)
	})
	assert.True(t, called)
}
