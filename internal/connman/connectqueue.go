package connman

import (
	"github.com/go-logr/logr"

	"github.com/luxoft/connectivity-managerd/internal/credentials"
)

// connectFinishedFunc reports the outcome of a queued connect request.
type connectFinishedFunc func(success bool)

// requestCredentialsFunc asks whoever initiated a connect for credentials.
// reply must eventually be called; a nil argument means the request failed
// or was abandoned.
type requestCredentialsFunc func(requested credentials.Requested, reply func(*credentials.Credentials))

type connectQueueEntry struct {
	svc                *service
	connect            func()
	connecting         bool
	finished           connectFinishedFunc
	requestCredentials requestCredentialsFunc
}

// connectQueue serializes Service.Connect calls. It exists because the
// inbound net.connman.Agent may not be registered with ConnMan yet when a
// connect is requested, and because ConnMan's Agent.Cancel gives no
// indication of which service it's for — so only one connect is ever
// outstanding at a time, and requests queue up in FIFO order behind it.
type connectQueue struct {
	log     logr.Logger
	entries []connectQueueEntry
}

func newConnectQueue(log logr.Logger) *connectQueue {
	return &connectQueue{log: log}
}

// enqueue adds svc to the back of the queue. If connectIfQueueEmpty is
// true and the queue was empty, svc connects immediately.
func (q *connectQueue) enqueue(svc *service, finished connectFinishedFunc, requestCredentials requestCredentialsFunc, connectIfQueueEmpty bool) {
	connectNow := connectIfQueueEmpty && len(q.entries) == 0

	q.entries = append(q.entries, connectQueueEntry{
		svc:                svc,
		connect:            svc.connect,
		finished:           finished,
		requestCredentials: requestCredentials,
	})

	if connectNow {
		q.entries[0].connecting = true
		q.entries[0].connect()
	}
}

// removeService drops every queued entry for svc, e.g. because ConnMan
// removed it from its inventory, and fails each one.
func (q *connectQueue) removeService(svc *service) {
	var toFail []connectFinishedFunc

	remaining := q.entries[:0]
	for _, e := range q.entries {
		if e.svc == svc {
			toFail = append(toFail, e.finished)
		} else {
			remaining = append(remaining, e)
		}
	}
	q.entries = remaining

	for _, finished := range toFail {
		finished(false)
	}
}

// failAllAndClear fails every queued entry, e.g. because the agent was
// deregistered or ConnMan disappeared from the bus.
func (q *connectQueue) failAllAndClear() {
	if len(q.entries) == 0 {
		return
	}

	toFail := q.entries
	q.entries = nil

	for _, e := range toFail {
		e.finished(false)
	}
}

// connectIfNotEmpty connects the head of the queue if it isn't already
// connecting. Called after a connect finishes (to advance the queue) and
// after the agent successfully (re-)registers (to drain a backlog that
// built up while it wasn't).
func (q *connectQueue) connectIfNotEmpty() {
	if len(q.entries) == 0 {
		return
	}

	head := &q.entries[0]
	if !head.connecting {
		head.connecting = true
		head.connect()
	}
}

// connectFinished reports that svc's Connect() call returned, and advances
// the queue.
func (q *connectQueue) connectFinished(svc *service, success bool) {
	if len(q.entries) == 0 {
		q.log.Info("service finished connecting but connect queue is empty")
		return
	}

	if q.entries[0].svc != svc {
		q.log.Info("service finished connecting but not first in queue")
		return
	}

	entry := q.entries[0]
	q.entries = q.entries[1:]

	entry.finished(success)

	q.connectIfNotEmpty()
}

// requestCredentials routes a credentials request from the agent to
// whoever queued the connect for svc.
func (q *connectQueue) requestCredentials(svc *service, requested credentials.Requested, reply func(*credentials.Credentials)) {
	if len(q.entries) == 0 {
		q.log.Info("received unexpected credentials request, queue empty")
		reply(nil)
		return
	}

	head := q.entries[0]
	if head.svc != svc {
		q.log.Info("received unexpected credentials request for service not first in queue")
		reply(nil)
		return
	}

	head.requestCredentials(requested, reply)
}
