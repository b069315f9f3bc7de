package connman

import "github.com/godbus/dbus/v5"

// settableProperty mirrors ConnManTechnology::SettableProperty<V>: a local
// cache of a property ConnMan exposes through its own (non-standard)
// SetProperty method rather than org.freedesktop.DBus.Properties.
//
// value is the last value ConnMan confirmed. Set() records the new value
// as pending (or queued, if a SetProperty call is already in flight) and
// kicks off the SetProperty call, so Value() reports it optimistically. If
// ConnMan reports the call failed, Value() reverts to value. A property-changed signal
// received from ConnMan while a set is pending is parked in received and
// applied once the pending set settles, rather than overwriting the
// optimistic value out from under it.
type settableProperty[V comparable] struct {
	tech *technology
	name string

	value    V
	pending  *V
	queued   *V
	received *V

	onChanged func()
}

func newSettableProperty[V comparable](tech *technology, name string, initial V, onChanged func()) *settableProperty[V] {
	return &settableProperty[V]{tech: tech, name: name, value: initial, onChanged: onChanged}
}

// Value returns the most recent value: a queued set wins over a pending
// one, which wins over the last confirmed value.
func (p *settableProperty[V]) Value() V {
	if p.queued != nil {
		return *p.queued
	}
	if p.pending != nil {
		return *p.pending
	}
	return p.value
}

// Set requests ConnMan change the property to newValue. A no-op if it
// already holds (or is already about to hold) newValue.
func (p *settableProperty[V]) Set(newValue V) {
	if p.Value() == newValue {
		return
	}

	if p.pending == nil {
		v := newValue
		p.pending = &v
		go p.setProperty(v)
	} else {
		v := newValue
		p.queued = &v
	}

	p.onChanged()
}

// changed handles a PropertyChanged signal received from ConnMan for this
// property.
func (p *settableProperty[V]) changed(received V) {
	if p.pending != nil {
		p.received = &received
		return
	}

	if p.value != received {
		p.value = received
		p.onChanged()
	}
}

func (p *settableProperty[V]) setProperty(value V) {
	obj := p.tech.backend.conn.Object(serviceName, p.tech.path)
	err := obj.Call(technologyInterface+".SetProperty", 0, p.name, dbus.MakeVariant(value)).Err

	p.tech.backend.runLocked(func() {
		success := err == nil
		if success {
			p.value = *p.pending
		}
		p.pending = nil

		if p.queued != nil {
			v := *p.queued
			p.pending = &v
			p.queued = nil
			go p.setProperty(v)
		}

		if p.pending == nil {
			changedWhilePending := false
			if p.received != nil {
				if p.value != *p.received {
					p.value = *p.received
					changedWhilePending = true
				}
				p.received = nil
			}

			if !success || changedWhilePending {
				p.onChanged()
			}
		}
	})
}
