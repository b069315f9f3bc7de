// Package dbusutil holds small D-Bus helpers shared by the provider adapter
// and the IPC object layer.
package dbusutil

import (
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"
)

// NameWatcher calls Vanished at most once when name drops off the bus,
// mirroring daemon/dbus_name_watcher.h's DBusNameWatcher (there built on
// g_bus_watch_name; godbus has no equivalent, so this watches
// NameOwnerChanged directly).
type NameWatcher struct {
	conn *dbus.Conn
	name string
	rule string

	ch chan *dbus.Signal

	once sync.Once
	done chan struct{}
}

// WatchName starts watching name on conn. vanished is called from a
// dedicated goroutine if and when name's owner goes away; it is never
// called after Stop returns.
func WatchName(conn *dbus.Conn, name string, vanished func()) (*NameWatcher, error) {
	rule := fmt.Sprintf(
		"type='signal',interface='org.freedesktop.DBus',member='NameOwnerChanged',arg0='%s'",
		name,
	)
	if err := conn.BusObject().Call("org.freedesktop.DBus.AddMatch", 0, rule).Err; err != nil {
		return nil, fmt.Errorf("dbusutil: watch name %q: %w", name, err)
	}

	w := &NameWatcher{
		conn: conn,
		name: name,
		rule: rule,
		ch:   make(chan *dbus.Signal, 4),
		done: make(chan struct{}),
	}
	conn.Signal(w.ch)

	go w.run(vanished)

	return w, nil
}

func (w *NameWatcher) run(vanished func()) {
	for {
		select {
		case sig, ok := <-w.ch:
			if !ok {
				return
			}
			if sig.Name != "org.freedesktop.DBus.NameOwnerChanged" || len(sig.Body) != 3 {
				continue
			}
			name, _ := sig.Body[0].(string)
			newOwner, _ := sig.Body[2].(string)
			if name == w.name && newOwner == "" {
				vanished()
				return
			}
		case <-w.done:
			return
		}
	}
}

// Stop stops watching. Safe to call more than once, and safe to call even
// if Vanished already fired.
func (w *NameWatcher) Stop() {
	w.once.Do(func() {
		close(w.done)
		w.conn.RemoveSignal(w.ch)
		w.conn.BusObject().Call("org.freedesktop.DBus.RemoveMatch", 0, w.rule)
	})
}

// BusOwnerPresent reports whether name currently has an owner on conn.
func BusOwnerPresent(conn *dbus.Conn, name string) bool {
	var owner string
	err := conn.BusObject().Call("org.freedesktop.DBus.GetNameOwner", 0, name).Store(&owner)
	return err == nil && owner != ""
}
