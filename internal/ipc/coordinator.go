package ipc

import (
	"context"
	"sync"

	"github.com/go-logr/logr"
	"github.com/godbus/dbus/v5"

	"github.com/luxoft/connectivity-managerd/internal/backend"
	"github.com/luxoft/connectivity-managerd/internal/credentials"
	"github.com/luxoft/connectivity-managerd/internal/dbusutil"
	"github.com/luxoft/connectivity-managerd/internal/state"
)

// pendingConnect holds what's needed to keep a client's Connect call open
// and to broker credential prompts to that client's agent, mirroring
// Manager::PendingConnects::PendingConnect.
type pendingConnect struct {
	sender    string
	agentPath dbus.ObjectPath
	watcher   *dbusutil.NameWatcher

	resultCh chan backend.ConnectResult

	mu                sync.Mutex
	credentialsReply  backend.RequestCredentialsReplyFunc
	credentialsFired  bool
}

func (e *pendingConnect) startCredentialsRequest(reply backend.RequestCredentialsReplyFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.credentialsReply = reply
	e.credentialsFired = false
}

// fulfilCredentials calls the outstanding credentials reply exactly once,
// whichever of the live agent call or a connect finishing first gets here.
func (e *pendingConnect) fulfilCredentials(result *credentials.Credentials) {
	e.mu.Lock()
	if e.credentialsFired || e.credentialsReply == nil {
		e.mu.Unlock()
		return
	}
	e.credentialsFired = true
	reply := e.credentialsReply
	e.mu.Unlock()

	reply(result)
}

// coordinator is the pending-connect coordinator from spec.md §4.5: one
// entry per access point with an in-flight Connect call.
type coordinator struct {
	conn *dbus.Conn
	log  logr.Logger

	mu      sync.Mutex
	entries map[state.AccessPointID]*pendingConnect
}

func newCoordinator(conn *dbus.Conn, log logr.Logger) *coordinator {
	return &coordinator{
		conn:    conn,
		log:     log,
		entries: make(map[state.AccessPointID]*pendingConnect),
	}
}

// add registers a new pending connect for id. Returns false if one is
// already in flight for id — a second concurrent Connect on the same
// access point is rejected (spec.md §9 open question (a), decided: not
// relaxed).
func (c *coordinator) add(id state.AccessPointID, sender string, agentPath dbus.ObjectPath) (*pendingConnect, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[id]; exists {
		return nil, false
	}

	entry := &pendingConnect{
		sender:    sender,
		agentPath: agentPath,
		resultCh:  make(chan backend.ConnectResult, 1),
	}

	if agentPath != "" {
		watcher, err := dbusutil.WatchName(c.conn, sender, func() { c.clientVanished(id) })
		if err != nil {
			c.log.Info("failed to watch client agent bus name", "error", err.Error())
		} else {
			entry.watcher = watcher
		}
	}

	c.entries[id] = entry
	return entry, true
}

func (c *coordinator) clientVanished(id state.AccessPointID) {
	c.mu.Lock()
	entry, ok := c.entries[id]
	c.mu.Unlock()
	if !ok {
		return
	}

	entry.mu.Lock()
	entry.agentPath = ""
	entry.mu.Unlock()

	entry.fulfilCredentials(nil)
}

// finished resolves the held Connect call and, if a credentials reply is
// still outstanding, fulfils it with absent credentials before removing the
// entry.
func (c *coordinator) finished(id state.AccessPointID, result backend.ConnectResult) {
	c.mu.Lock()
	entry, ok := c.entries[id]
	if ok {
		delete(c.entries, id)
	}
	c.mu.Unlock()
	if !ok {
		return
	}

	if entry.watcher != nil {
		entry.watcher.Stop()
	}

	entry.fulfilCredentials(nil)
	entry.resultCh <- result
}

// requestCredentials routes a credentials request from the provider through
// to id's client agent, or replies absent if there's no live agent to ask.
func (c *coordinator) requestCredentials(id state.AccessPointID, requested credentials.Requested, reply backend.RequestCredentialsReplyFunc) {
	c.mu.Lock()
	entry, ok := c.entries[id]
	c.mu.Unlock()
	if !ok {
		reply(nil)
		return
	}

	entry.mu.Lock()
	agentPath := entry.agentPath
	entry.mu.Unlock()

	if agentPath == "" {
		reply(nil)
		return
	}

	entry.startCredentialsRequest(reply)
	go c.callClientAgent(entry, requested)
}

func (c *coordinator) callClientAgent(entry *pendingConnect, requested credentials.Requested) {
	ctx, cancel := context.WithTimeout(context.Background(), requestCredentialsTimeout)
	defer cancel()

	entry.mu.Lock()
	sender, agentPath := entry.sender, entry.agentPath
	entry.mu.Unlock()

	obj := c.conn.Object(sender, agentPath)

	var replyWire map[string]dbus.Variant
	err := obj.CallWithContext(ctx, userInputAgentInterface+".RequestCredentials", 0,
		string(requested.DescriptionType), requested.DescriptionID, requested.Credentials.ToDBusValue(),
	).Store(&replyWire)
	if err != nil {
		c.log.Info("RequestCredentials call to client agent failed", "error", err.Error())
		entry.fulfilCredentials(nil)
		return
	}

	creds, err := credentials.FromDBusValue(replyWire)
	if err != nil {
		c.log.Info("client agent returned invalid credentials", "error", err.Error())
		entry.fulfilCredentials(nil)
		return
	}

	entry.fulfilCredentials(&creds)
}
