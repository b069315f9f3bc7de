package ipc

import (
	"sort"
	"sync"

	"github.com/go-logr/logr"
	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/godbus/dbus/v5/prop"

	"github.com/luxoft/connectivity-managerd/internal/backend"
	"github.com/luxoft/connectivity-managerd/internal/credentials"
	"github.com/luxoft/connectivity-managerd/internal/state"
)

// Manager is com.luxoft.ConnectivityManager, exported at
// /com/luxoft/ConnectivityManager. It mirrors a backend.Backend's Store onto
// the bus and brokers Connect/Disconnect calls through a coordinator,
// mirroring daemon/dbus_objects/manager.{h,cpp}.
type Manager struct {
	conn    *dbus.Conn
	backend backend.Backend
	log     logr.Logger

	props       *prop.Properties
	coordinator *coordinator

	mu           sync.Mutex
	accessPoints map[state.AccessPointID]*accessPointObject
}

// Export builds and exports a Manager for backend on conn. The Manager
// subscribes to backend.Store() for its lifetime; there is no Close, since a
// Manager is meant to live as long as the daemon process.
func Export(conn *dbus.Conn, b backend.Backend, log logr.Logger) (*Manager, error) {
	st := b.Store().State()

	m := &Manager{
		conn:         conn,
		backend:      b,
		log:          log,
		coordinator:  newCoordinator(conn, log),
		accessPoints: make(map[state.AccessPointID]*accessPointObject),
	}

	props, err := prop.Export(conn, managerObjectPath, map[string]map[string]*prop.Prop{
		managerInterface: {
			"WiFiAvailable":         {Value: st.WiFi.Status != state.WiFiUnavailable, Writable: false, Emit: prop.EmitTrue},
			"WiFiEnabled":           {Value: st.WiFi.Status == state.WiFiEnabled, Writable: true, Emit: prop.EmitTrue, Callback: m.setWiFiEnabled},
			"WiFiAccessPoints":      {Value: []dbus.ObjectPath{}, Writable: false, Emit: prop.EmitTrue},
			"WiFiHotspotEnabled":    {Value: st.WiFi.HotspotStatus == state.HotspotEnabled, Writable: true, Emit: prop.EmitTrue, Callback: m.setWiFiHotspotEnabled},
			"WiFiHotspotSSID":       {Value: st.WiFi.HotspotSSID, Writable: true, Emit: prop.EmitTrue, Callback: m.setWiFiHotspotSSID},
			"WiFiHotspotPassphrase": {Value: st.WiFi.HotspotPassphrase, Writable: true, Emit: prop.EmitTrue, Callback: m.setWiFiHotspotPassphrase},
		},
	})
	if err != nil {
		return nil, err
	}
	m.props = props

	if err := conn.Export(m, managerObjectPath, managerInterface); err != nil {
		return nil, err
	}

	node := &introspect.Node{
		Name: string(managerObjectPath),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			prop.IntrospectData,
			{
				Name:       managerInterface,
				Methods:    introspectManagerMethods(),
				Properties: props.Introspection(managerInterface),
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), managerObjectPath, "org.freedesktop.DBus.Introspectable"); err != nil {
		return nil, err
	}

	for _, ap := range st.WiFi.AccessPoints {
		m.addAccessPointLocked(ap)
	}
	m.publishAccessPointList()

	b.Store().Subscribe(m.handleEvent)

	return m, nil
}

func introspectManagerMethods() []introspect.Method {
	return []introspect.Method{
		{
			Name: "Connect",
			Args: []introspect.Arg{
				{Name: "access_point", Type: "o", Direction: "in"},
				{Name: "user_input_agent", Type: "o", Direction: "in"},
			},
		},
		{
			Name: "Disconnect",
			Args: []introspect.Arg{
				{Name: "access_point", Type: "o", Direction: "in"},
			},
		},
	}
}

// Connect implements com.luxoft.ConnectivityManager.Connect(oo). sender is
// filled in by godbus from the caller's unique bus name, never from the
// wire: it does not appear in the method's D-Bus signature.
func (m *Manager) Connect(accessPoint, userInputAgent dbus.ObjectPath, sender dbus.Sender) *dbus.Error {
	id, ok := accessPointIDFromObjectPath(accessPoint)
	if !ok {
		return invalidArgsError("not a WiFiAccessPoint object path: %s", accessPoint)
	}

	ap, ok := m.backend.Store().AccessPoint(id)
	if !ok {
		return invalidArgsError("unknown access point: %s", accessPoint)
	}

	agentPath := userInputAgent
	if agentPath == "/" {
		agentPath = ""
	}

	entry, ok := m.coordinator.add(id, string(sender), agentPath)
	if !ok {
		return failedError("already connecting to %s", ap.SSID)
	}

	m.backend.WiFiConnect(ap,
		func(result backend.ConnectResult) { m.coordinator.finished(id, result) },
		func(requested credentials.Requested, reply backend.RequestCredentialsReplyFunc) {
			m.coordinator.requestCredentials(id, requested, reply)
		},
	)

	result := <-entry.resultCh
	if result != backend.ConnectSuccess {
		return failedError("failed to connect to %s", ap.SSID)
	}
	return nil
}

// Disconnect implements com.luxoft.ConnectivityManager.Disconnect(o).
func (m *Manager) Disconnect(accessPoint dbus.ObjectPath) *dbus.Error {
	id, ok := accessPointIDFromObjectPath(accessPoint)
	if !ok {
		return invalidArgsError("not a WiFiAccessPoint object path: %s", accessPoint)
	}

	ap, ok := m.backend.Store().AccessPoint(id)
	if !ok {
		return invalidArgsError("unknown access point: %s", accessPoint)
	}

	m.backend.WiFiDisconnect(ap)
	return nil
}

func (m *Manager) setWiFiEnabled(c *prop.Change) *dbus.Error {
	enabled, ok := c.Value.(bool)
	if !ok {
		return invalidArgsError("WiFiEnabled must be a boolean")
	}
	if !m.backend.Store().WiFiAvailable() {
		return failedError("Wi-Fi is not available")
	}
	if enabled {
		m.backend.WiFiEnable()
	} else {
		m.backend.WiFiDisable()
	}
	return nil
}

func (m *Manager) setWiFiHotspotEnabled(c *prop.Change) *dbus.Error {
	enabled, ok := c.Value.(bool)
	if !ok {
		return invalidArgsError("WiFiHotspotEnabled must be a boolean")
	}
	if enabled && !m.backend.Store().WiFiAvailable() {
		return failedError("Wi-Fi is not available")
	}
	if enabled {
		m.backend.WiFiHotspotEnable()
	} else {
		m.backend.WiFiHotspotDisable()
	}
	return nil
}

func (m *Manager) setWiFiHotspotSSID(c *prop.Change) *dbus.Error {
	ssid, ok := c.Value.(string)
	if !ok {
		return invalidArgsError("WiFiHotspotSSID must be a string")
	}
	if !m.backend.Store().WiFiAvailable() {
		return failedError("Wi-Fi is not available")
	}
	m.backend.WiFiHotspotChangeSSID(ssid)
	return nil
}

func (m *Manager) setWiFiHotspotPassphrase(c *prop.Change) *dbus.Error {
	passphrase, ok := c.Value.(string)
	if !ok {
		return invalidArgsError("WiFiHotspotPassphrase must be a string")
	}
	if !m.backend.Store().WiFiAvailable() {
		return failedError("Wi-Fi is not available")
	}
	m.backend.WiFiHotspotChangePassphrase(passphrase)
	return nil
}

func (m *Manager) handleEvent(e state.Event) {
	switch ev := e.(type) {
	case state.CriticalErrorEvent:
		// Nothing object-shaped to update here: cmd/connectivity-managerd
		// subscribes to this event itself to exit the process, so clients
		// observe it via the daemon leaving the bus, not a D-Bus signal.

	case state.WiFiStatusChangedEvent:
		m.props.SetMust(managerInterface, "WiFiAvailable", ev.Status != state.WiFiUnavailable)
		m.props.SetMust(managerInterface, "WiFiEnabled", ev.Status == state.WiFiEnabled)

	case state.WiFiAccessPointsChangedEvent:
		m.handleAccessPointsChanged(ev)

	case state.WiFiHotspotStatusChangedEvent:
		m.props.SetMust(managerInterface, "WiFiHotspotEnabled", ev.Status == state.HotspotEnabled)

	case state.WiFiHotspotSSIDChangedEvent:
		m.props.SetMust(managerInterface, "WiFiHotspotSSID", ev.SSID)

	case state.WiFiHotspotPassphraseChangedEvent:
		m.props.SetMust(managerInterface, "WiFiHotspotPassphrase", ev.Passphrase)
	}
}

func (m *Manager) handleAccessPointsChanged(ev state.WiFiAccessPointsChangedEvent) {
	switch ev.Kind {
	case state.AddedAll:
		m.mu.Lock()
		for _, ap := range m.backend.Store().State().WiFi.AccessPoints {
			m.addAccessPointLocked(ap)
		}
		m.mu.Unlock()
		m.publishAccessPointList()

	case state.RemovedAll:
		m.mu.Lock()
		for id, obj := range m.accessPoints {
			obj.unexport(m.conn)
			delete(m.accessPoints, id)
		}
		m.mu.Unlock()
		m.publishAccessPointList()

	case state.AddedOne:
		m.mu.Lock()
		m.addAccessPointLocked(*ev.AccessPoint)
		m.mu.Unlock()
		m.publishAccessPointList()

	case state.RemovedOne:
		m.mu.Lock()
		if obj, ok := m.accessPoints[ev.AccessPoint.ID]; ok {
			obj.unexport(m.conn)
			delete(m.accessPoints, ev.AccessPoint.ID)
		}
		m.mu.Unlock()
		m.publishAccessPointList()

	case state.SSIDChanged:
		m.withAccessPointObject(ev.AccessPoint.ID, func(obj *accessPointObject) { obj.setSSID(ev.AccessPoint.SSID) })

	case state.StrengthChanged:
		m.withAccessPointObject(ev.AccessPoint.ID, func(obj *accessPointObject) { obj.setStrength(ev.AccessPoint.Strength) })

	case state.ConnectedChanged:
		m.withAccessPointObject(ev.AccessPoint.ID, func(obj *accessPointObject) { obj.setConnected(ev.AccessPoint.Connected) })

	case state.SecurityChanged:
		m.withAccessPointObject(ev.AccessPoint.ID, func(obj *accessPointObject) { obj.setSecurity(ev.AccessPoint.Security) })
	}
}

func (m *Manager) withAccessPointObject(id state.AccessPointID, f func(*accessPointObject)) {
	m.mu.Lock()
	obj, ok := m.accessPoints[id]
	m.mu.Unlock()
	if ok {
		f(obj)
	}
}

// addAccessPointLocked exports ap if it isn't already exported. Caller holds
// m.mu.
func (m *Manager) addAccessPointLocked(ap state.AccessPoint) {
	if _, exists := m.accessPoints[ap.ID]; exists {
		return
	}
	obj, err := exportAccessPointObject(m.conn, ap)
	if err != nil {
		m.log.Info("failed to export access point object", "id", ap.ID, "error", err.Error())
		return
	}
	m.accessPoints[ap.ID] = obj
}

// publishAccessPointList recomputes WiFiAccessPoints, id-sorted (spec.md
// §4.6: clients must be able to rely on a stable order across calls to
// distinguish a reorder from an add/remove).
func (m *Manager) publishAccessPointList() {
	m.mu.Lock()
	ids := make([]state.AccessPointID, 0, len(m.accessPoints))
	for id := range m.accessPoints {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	paths := make([]dbus.ObjectPath, len(ids))
	for i, id := range ids {
		paths[i] = accessPointObjectPath(id)
	}

	m.props.SetMust(managerInterface, "WiFiAccessPoints", paths)
}
