package connman

import (
	"github.com/godbus/dbus/v5"
)

// pathProperties mirrors one (oa{sv}) entry of the arrays returned by
// ConnMan's GetTechnologies/GetServices and sent with the ServicesChanged
// signal.
type pathProperties struct {
	Path  dbus.ObjectPath
	Props map[string]dbus.Variant
}

// watchManager subscribes to the net.connman.Manager signals the adapter
// cares about and to NameOwnerChanged for net.connman, then does the
// initial GetTechnologies/GetServices call if ConnMan is already on the
// bus. Everything it learns is delivered back into Backend through its
// runLocked-guarded handlers, so it is safe to call from any goroutine.
//
// Registering these match rules is this adapter's equivalent of the
// original's asynchronous manager proxy creation (connman_manager.cpp's
// ConnManManager ctor): it is how we bind to ConnMan's top-level Manager
// object. Failure here mirrors manager_proxy_creation_failed(), which the
// original turns into a critical, daemon-exiting error.
func (b *Backend) watchManager() error {
	rules := []string{
		"type='signal',sender='" + serviceName + "',interface='" + managerInterface + "',member='TechnologyAdded'",
		"type='signal',sender='" + serviceName + "',interface='" + managerInterface + "',member='TechnologyRemoved'",
		"type='signal',sender='" + serviceName + "',interface='" + managerInterface + "',member='ServicesChanged'",
		"type='signal',interface='org.freedesktop.DBus',member='NameOwnerChanged',arg0='" + serviceName + "'",
		"type='signal',interface='" + technologyInterface + "',member='PropertyChanged'",
		"type='signal',interface='" + serviceInterface + "',member='PropertyChanged'",
	}
	for _, rule := range rules {
		if call := b.conn.BusObject().Call("org.freedesktop.DBus.AddMatch", 0, rule); call.Err != nil {
			b.log.Error(call.Err, "failed to create D-Bus proxy for ConnMan manager")
			b.store.CriticalError()
			return call.Err
		}
	}

	ch := make(chan *dbus.Signal, 64)
	b.conn.Signal(ch)

	go func() {
		for sig := range ch {
			b.dispatchSignal(sig)
		}
	}()

	go b.refreshManagerAvailability()

	return nil
}

// decodePathPropertiesSlice unpacks a signal body element carrying
// a(oa{sv}): godbus decodes an undeclared STRUCT as []interface{}, not as
// pathProperties, since signal bodies have no destination type to guide
// reflection the way Call().Store() does.
func decodePathPropertiesSlice(body interface{}) []pathProperties {
	raw, ok := body.([][]interface{})
	if !ok {
		return nil
	}

	out := make([]pathProperties, 0, len(raw))
	for _, entry := range raw {
		if len(entry) != 2 {
			continue
		}
		path, ok := entry[0].(dbus.ObjectPath)
		if !ok {
			continue
		}
		props, ok := entry[1].(map[string]dbus.Variant)
		if !ok {
			continue
		}
		out = append(out, pathProperties{Path: path, Props: props})
	}
	return out
}

func (b *Backend) dispatchSignal(sig *dbus.Signal) {
	switch sig.Name {
	case managerInterface + ".TechnologyAdded":
		if len(sig.Body) != 2 {
			return
		}
		path, _ := sig.Body[0].(dbus.ObjectPath)
		props, _ := sig.Body[1].(map[string]dbus.Variant)
		b.runLocked(func() { b.managerTechnologyAdd(path, props) })

	case managerInterface + ".TechnologyRemoved":
		if len(sig.Body) != 1 {
			return
		}
		path, _ := sig.Body[0].(dbus.ObjectPath)
		b.runLocked(func() { b.managerTechnologyRemove(path) })

	case managerInterface + ".ServicesChanged":
		if len(sig.Body) != 2 {
			return
		}
		changed := decodePathPropertiesSlice(sig.Body[0])
		removed, _ := sig.Body[1].([]dbus.ObjectPath)

		b.runLocked(func() {
			for _, c := range changed {
				b.managerServiceAddOrChange(c.Path, c.Props)
			}
			for _, path := range removed {
				b.managerServiceRemove(path)
			}
		})

	case "org.freedesktop.DBus.NameOwnerChanged":
		b.runLocked(b.refreshManagerAvailabilityLocked)

	case technologyInterface + ".PropertyChanged":
		if len(sig.Body) != 2 {
			return
		}
		name, _ := sig.Body[0].(string)
		v, _ := sig.Body[1].(dbus.Variant)
		b.runLocked(func() {
			if t, ok := b.technologies[sig.Path]; ok {
				t.propertyChanged(name, v)
			}
		})

	case serviceInterface + ".PropertyChanged":
		if len(sig.Body) != 2 {
			return
		}
		name, _ := sig.Body[0].(string)
		v, _ := sig.Body[1].(dbus.Variant)
		b.runLocked(func() {
			if s, ok := b.services[sig.Path]; ok {
				s.propertyChanged(name, v)
			}
		})
	}
}

func (b *Backend) refreshManagerAvailability() {
	b.runLocked(b.refreshManagerAvailabilityLocked)
}

// refreshManagerAvailabilityLocked mirrors ConnManManager::name_owner_changed.
func (b *Backend) refreshManagerAvailabilityLocked() {
	var owner string
	_ = b.conn.BusObject().Call("org.freedesktop.DBus.GetNameOwner", 0, serviceName).Store(&owner)

	available := owner != ""
	b.managerAvailabilityChanged(available)

	if available {
		go b.getTechnologies()
		go b.getServices()
	}
}

func (b *Backend) getTechnologies() {
	var result []pathProperties
	err := b.manager().Call(managerInterface+".GetTechnologies", 0).Store(&result)
	if err != nil {
		b.log.Error(err, "failed to get ConnMan technologies")
		return
	}

	b.runLocked(func() {
		for _, r := range result {
			b.managerTechnologyAdd(r.Path, r.Props)
		}
	})
}

func (b *Backend) getServices() {
	var result []pathProperties
	err := b.manager().Call(managerInterface+".GetServices", 0).Store(&result)
	if err != nil {
		b.log.Error(err, "failed to get ConnMan services")
		return
	}

	b.runLocked(func() {
		for _, r := range result {
			b.managerServiceAddOrChange(r.Path, r.Props)
		}
	})
}

func (b *Backend) manager() dbus.BusObject {
	return b.conn.Object(serviceName, managerObjectPath)
}

// registerAgentWithManager calls net.connman.Manager.RegisterAgent for our exported
// agent object.
func (b *Backend) registerAgentWithManager() {
	go func() {
		err := b.manager().Call(managerInterface+".RegisterAgent", 0, agentObjectPath).Err
		b.runLocked(func() {
			b.managerRegisterAgentResult(err == nil)
		})
	}()
}
