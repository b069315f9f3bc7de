package connman

import (
	"context"

	"github.com/godbus/dbus/v5"

	"github.com/luxoft/connectivity-managerd/internal/state"
)

type servicePropertyID int

const (
	svcPropName servicePropertyID = iota
	svcPropSecurity
	svcPropState
	svcPropStrength
)

// service is the adapter's view of a single net.connman.Service object.
type service struct {
	backend *Backend
	path    dbus.ObjectPath

	svcType  techOrSvcType
	name     string
	security []string
	state    serviceState
	strength uint8
}

func newService(b *Backend, path dbus.ObjectPath, props map[string]dbus.Variant) *service {
	return &service{
		backend:  b,
		path:     path,
		svcType:  typeFromString(variantString(props[propType])),
		name:     variantString(props[propName]),
		security: variantStrings(props[propSecurity]),
		state:    serviceStateFromString(variantString(props[propState])),
		strength: clampStrength(variantByte(props[propStrength])),
	}
}

func clampStrength(v byte) uint8 {
	if v > 100 {
		return 100
	}
	return v
}

func variantStrings(v dbus.Variant) []string {
	s, _ := v.Value().([]string)
	return s
}

// propertiesChanged applies a batch of properties, as received via
// Manager.ServicesChanged, firing the same per-property notification as
// an individual PropertyChanged signal would.
func (s *service) propertiesChanged(props map[string]dbus.Variant) {
	for name, v := range props {
		s.propertyChanged(name, v)
	}
}

func (s *service) propertyChanged(name string, v dbus.Variant) {
	switch name {
	case propName:
		if newName := variantString(v); newName != s.name {
			s.name = newName
			s.backend.servicePropertyChanged(s, svcPropName)
		}
	case propSecurity:
		if newSecurity := variantStrings(v); !stringsEqual(newSecurity, s.security) {
			s.security = newSecurity
			s.backend.servicePropertyChanged(s, svcPropSecurity)
		}
	case propState:
		if newState := serviceStateFromString(variantString(v)); newState != s.state {
			s.state = newState
			s.backend.servicePropertyChanged(s, svcPropState)
		}
	case propStrength:
		if newStrength := clampStrength(variantByte(v)); newStrength != s.strength {
			s.strength = newStrength
			s.backend.servicePropertyChanged(s, svcPropStrength)
		}
	}
}

func stringsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// securityToWiFiSecurity mirrors ConnManService::security_to_wifi_security:
// the first recognized security string wins.
func (s *service) securityToWiFiSecurity() state.WiFiSecurity {
	for _, str := range s.security {
		switch str {
		case securityStrNone:
			return state.SecurityNone
		case securityStrWEP:
			return state.SecurityWEP
		case securityStrWPAPSK:
			return state.SecurityWPAPSK
		case securityStrWPAEAP:
			return state.SecurityWPAEAP
		}
	}
	s.backend.log.Info("service has no recognized security type, treating as open", "path", s.path, "security", s.security)
	return state.SecurityNone
}

func (s *service) connect() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		obj := s.backend.conn.Object(serviceName, s.path)
		call := obj.CallWithContext(ctx, serviceInterface+".Connect", 0)
		success := call.Err == nil

		s.backend.runLocked(func() {
			s.backend.serviceConnectFinished(s, success)
		})
	}()
}

func (s *service) disconnect() {
	go func() {
		obj := s.backend.conn.Object(serviceName, s.path)
		obj.Call(serviceInterface+".Disconnect", 0)
	}()
}
