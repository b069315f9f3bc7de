package connman

import (
	"sync"

	"github.com/go-logr/logr"
	"github.com/godbus/dbus/v5"

	"github.com/luxoft/connectivity-managerd/internal/backend"
	"github.com/luxoft/connectivity-managerd/internal/credentials"
	"github.com/luxoft/connectivity-managerd/internal/state"
)

// Backend implements internal/backend.Backend against a ConnMan daemon
// reached over the D-Bus connection passed to New. It binds to the most
// recently advertised Wi-Fi technology and reconciles Wi-Fi services into
// Store as access points. See doc/overview-api.txt, manager-api.txt, technology-api.txt,
// service-api.txt and agent-api.txt in the ConnMan source tree for the
// wire protocol this adapts.
type Backend struct {
	conn  *dbus.Conn
	store *state.Store
	log   logr.Logger

	mu sync.Mutex

	technologies map[dbus.ObjectPath]*technology
	services     map[dbus.ObjectPath]*service

	wifiTechnology    *technology
	wifiServiceToAPID map[*service]state.AccessPointID

	agent      *agent
	agentState agentState

	connectQueue *connectQueue
}

var _ backend.Backend = (*Backend)(nil)

// New constructs a Backend. Call Start to begin talking to ConnMan.
func New(conn *dbus.Conn, store *state.Store, log logr.Logger) *Backend {
	b := &Backend{
		conn:              conn,
		store:             store,
		log:               log,
		technologies:      make(map[dbus.ObjectPath]*technology),
		services:          make(map[dbus.ObjectPath]*service),
		wifiServiceToAPID: make(map[*service]state.AccessPointID),
	}
	b.agent = newAgent(b)
	b.connectQueue = newConnectQueue(log)
	return b
}

// Start exports the inbound agent object and begins watching ConnMan's
// Manager for technologies and services.
func (b *Backend) Start() error {
	if err := b.agent.export(b.conn); err != nil {
		return err
	}
	return b.watchManager()
}

func (b *Backend) runLocked(f func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	f()
}

// Store implements backend.Backend.
func (b *Backend) Store() *state.Store {
	return b.store
}

// WiFiEnable implements backend.Backend.
func (b *Backend) WiFiEnable() {
	b.runLocked(func() {
		if b.wifiTechnology == nil {
			return
		}
		b.wifiTechnology.powered.Set(true)
	})
}

// WiFiDisable implements backend.Backend.
func (b *Backend) WiFiDisable() {
	b.runLocked(func() {
		if b.wifiTechnology == nil {
			return
		}
		b.wifiTechnology.powered.Set(false)
	})
}

// WiFiConnect implements backend.Backend.
func (b *Backend) WiFiConnect(ap state.AccessPoint, finished backend.ConnectFinishedFunc, requestCredentials backend.RequestCredentialsFunc) {
	b.runLocked(func() {
		if b.wifiTechnology == nil {
			finished(backend.ConnectFailed)
			return
		}

		svc := b.serviceFromAccessPointID(ap.ID)
		if svc == nil {
			finished(backend.ConnectFailed)
			return
		}

		b.serviceConnect(svc, finished, requestCredentials)
	})
}

// WiFiDisconnect implements backend.Backend.
func (b *Backend) WiFiDisconnect(ap state.AccessPoint) {
	b.runLocked(func() {
		if b.wifiTechnology == nil {
			return
		}
		if svc := b.serviceFromAccessPointID(ap.ID); svc != nil {
			svc.disconnect()
		}
	})
}

// WiFiHotspotEnable implements backend.Backend.
func (b *Backend) WiFiHotspotEnable() {
	b.runLocked(func() {
		if b.wifiTechnology != nil {
			b.wifiTechnology.tethering.Set(true)
		}
	})
}

// WiFiHotspotDisable implements backend.Backend.
func (b *Backend) WiFiHotspotDisable() {
	b.runLocked(func() {
		if b.wifiTechnology != nil {
			b.wifiTechnology.tethering.Set(false)
		}
	})
}

// WiFiHotspotChangeSSID implements backend.Backend.
func (b *Backend) WiFiHotspotChangeSSID(ssid string) {
	b.runLocked(func() {
		if b.wifiTechnology != nil {
			b.wifiTechnology.tetheringIdentifier.Set(ssid)
		}
	})
}

// WiFiHotspotChangePassphrase implements backend.Backend.
func (b *Backend) WiFiHotspotChangePassphrase(passphrase string) {
	b.runLocked(func() {
		if b.wifiTechnology != nil {
			b.wifiTechnology.tetheringPassphrase.Set(passphrase)
		}
	})
}

func (b *Backend) serviceFromAccessPointID(id state.AccessPointID) *service {
	for svc, apID := range b.wifiServiceToAPID {
		if apID == id {
			return svc
		}
	}
	return nil
}

func (b *Backend) serviceToAccessPointID(svc *service) (state.AccessPointID, bool) {
	id, ok := b.wifiServiceToAPID[svc]
	return id, ok
}

// --- Manager plumbing -------------------------------------------------

func (b *Backend) managerAvailabilityChanged(available bool) {
	if available {
		b.agentRegister()
		return
	}

	b.wifiTechnologyRemoved()
	b.connectQueue.failAllAndClear()

	b.services = make(map[dbus.ObjectPath]*service)
	b.technologies = make(map[dbus.ObjectPath]*technology)

	b.agentState = agentNotRegistered
}

func (b *Backend) managerTechnologyAdd(path dbus.ObjectPath, props map[string]dbus.Variant) {
	b.managerTechnologyRemove(path)

	t := newTechnology(b, path, props)
	b.technologies[path] = t

	if t.techType == typeWifi {
		b.wifiTechnologyReady(t)
	}
}

func (b *Backend) managerTechnologyRemove(path dbus.ObjectPath) {
	t, ok := b.technologies[path]
	if !ok {
		return
	}

	if t == b.wifiTechnology {
		b.wifiTechnologyRemoved()
	}

	delete(b.technologies, path)
}

func (b *Backend) managerServiceAddOrChange(path dbus.ObjectPath, props map[string]dbus.Variant) {
	if existing, ok := b.services[path]; ok {
		existing.propertiesChanged(props)
		return
	}

	svc := newService(b, path, props)
	b.services[path] = svc

	if svc.svcType == typeWifi {
		id := b.store.NextAccessPointID()
		b.wifiServiceToAPID[svc] = id

		b.store.AddAccessPoint(state.AccessPoint{
			ID:        id,
			SSID:      svc.name,
			Strength:  svc.strength,
			Security:  svc.securityToWiFiSecurity(),
			Connected: svc.state.connected(),
		})
	}
}

func (b *Backend) managerServiceRemove(path dbus.ObjectPath) {
	svc, ok := b.services[path]
	if !ok {
		return
	}

	b.connectQueue.removeService(svc)

	if id, ok := b.serviceToAccessPointID(svc); ok {
		delete(b.wifiServiceToAPID, svc)
		if ap, ok := b.store.AccessPoint(id); ok {
			b.store.RemoveAccessPoint(ap)
		}
	}

	delete(b.services, path)
}

func (b *Backend) managerRegisterAgentResult(success bool) {
	if success {
		b.agentState = agentRegistered
		b.connectQueue.connectIfNotEmpty()
	} else {
		b.agentState = agentNotRegistered
		b.connectQueue.failAllAndClear()
	}
}

// --- Wi-Fi technology binding ------------------------------------------

func (b *Backend) wifiTechnologyReady(t *technology) {
	if b.wifiTechnology != nil {
		b.log.Info("received multiple Wi-Fi technologies from ConnMan, using latest")
		b.wifiTechnologyRemoved()
	}

	b.wifiTechnology = t

	var aps []state.AccessPoint
	for _, svc := range b.services {
		if svc.svcType != typeWifi {
			continue
		}
		id := b.store.NextAccessPointID()
		b.wifiServiceToAPID[svc] = id
		aps = append(aps, state.AccessPoint{
			ID:        id,
			SSID:      svc.name,
			Strength:  svc.strength,
			Security:  svc.securityToWiFiSecurity(),
			Connected: svc.state.connected(),
		})
	}

	if t.powered.Value() {
		b.store.SetWiFiStatus(state.WiFiEnabled)
	} else {
		b.store.SetWiFiStatus(state.WiFiDisabled)
	}
	b.store.AddAccessPointsAll(aps)

	if t.tethering.Value() {
		b.store.SetWiFiHotspotStatus(state.HotspotEnabled)
	} else {
		b.store.SetWiFiHotspotStatus(state.HotspotDisabled)
	}
	b.store.SetWiFiHotspotSSID(t.tetheringIdentifier.Value())
	b.store.SetWiFiHotspotPassphrase(t.tetheringPassphrase.Value())
}

func (b *Backend) wifiTechnologyRemoved() {
	if b.wifiTechnology == nil {
		return
	}

	b.wifiTechnology = nil
	b.wifiServiceToAPID = make(map[*service]state.AccessPointID)

	b.store.RemoveAccessPointsAll()
	b.store.SetWiFiHotspotStatus(state.HotspotDisabled)
	b.store.SetWiFiStatus(state.WiFiUnavailable)
}

func (b *Backend) technologyPropertyChanged(t *technology, id technologyPropertyID) {
	if t != b.wifiTechnology {
		return
	}

	switch id {
	case techPropPowered:
		if t.powered.Value() {
			b.store.SetWiFiStatus(state.WiFiEnabled)
			t.scan()
		} else {
			b.store.SetWiFiStatus(state.WiFiDisabled)
		}
	case techPropTethering:
		if t.tethering.Value() {
			b.store.SetWiFiHotspotStatus(state.HotspotEnabled)
		} else {
			b.store.SetWiFiHotspotStatus(state.HotspotDisabled)
		}
	case techPropTetheringIdentifier:
		b.store.SetWiFiHotspotSSID(t.tetheringIdentifier.Value())
	case techPropTetheringPassphrase:
		b.store.SetWiFiHotspotPassphrase(t.tetheringPassphrase.Value())
	}
}

func (b *Backend) servicePropertyChanged(svc *service, id servicePropertyID) {
	apID, ok := b.serviceToAccessPointID(svc)
	if !ok {
		return
	}

	switch id {
	case svcPropName:
		b.store.SetAccessPointSSID(apID, svc.name)
	case svcPropSecurity:
		b.store.SetAccessPointSecurity(apID, svc.securityToWiFiSecurity())
	case svcPropState:
		b.store.SetAccessPointConnected(apID, svc.state.connected())
	case svcPropStrength:
		b.store.SetAccessPointStrength(apID, svc.strength)
	}
}

func (b *Backend) serviceConnectFinished(svc *service, success bool) {
	b.connectQueue.connectFinished(svc, success)
}

func (b *Backend) serviceConnect(svc *service, finished backend.ConnectFinishedFunc, requestCredentials backend.RequestCredentialsFunc) {
	agentRegistered := b.agentState == agentRegistered

	b.connectQueue.enqueue(svc,
		func(success bool) {
			if success {
				finished(backend.ConnectSuccess)
			} else {
				finished(backend.ConnectFailed)
			}
		},
		func(requested credentials.Requested, reply func(*credentials.Credentials)) {
			requestCredentials(requested, func(result *credentials.Credentials) {
				reply(result)
			})
		},
		agentRegistered,
	)

	if !agentRegistered {
		b.agentRegister()
	}
}

// --- Agent plumbing ------------------------------------------------------

func (b *Backend) agentRegister() {
	if b.agentState == agentNotRegistered {
		b.agentState = agentRegistering
		b.registerAgentWithManager()
	}
}

func (b *Backend) agentReleased() {
	b.connectQueue.failAllAndClear()
}

func (b *Backend) agentRequestInput(servicePath dbus.ObjectPath, creds credentials.Credentials, reply func(*credentials.Credentials)) {
	svc, ok := b.services[servicePath]
	if !ok {
		b.log.Info("received ConnMan agent credentials request for non-existing service")
		reply(nil)
		return
	}

	var requested credentials.Requested
	if svc.svcType == typeWifi {
		if svc.name != "" {
			requested.DescriptionType = credentials.RequestedTypeWirelessNetwork
		} else {
			requested.DescriptionType = credentials.RequestedTypeHiddenWirelessNetwork
		}
	} else {
		requested.DescriptionType = credentials.RequestedTypeNetwork
	}
	requested.DescriptionID = svc.name
	requested.Credentials = creds

	b.connectQueue.requestCredentials(svc, requested, reply)
}
