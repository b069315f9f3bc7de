package ipc

import (
	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/godbus/dbus/v5/prop"

	"github.com/luxoft/connectivity-managerd/internal/state"
)

// accessPointObject is com.luxoft.ConnectivityManager.WiFiAccessPoint,
// exported at /com/luxoft/ConnectivityManager/WiFiAccessPoints/<id>. Its id
// is the only state it owns; all values live in the properties table
// godbus's prop package manages for us.
type accessPointObject struct {
	id    state.AccessPointID
	props *prop.Properties
}

func exportAccessPointObject(conn *dbus.Conn, ap state.AccessPoint) (*accessPointObject, error) {
	path := accessPointObjectPath(ap.ID)

	props, err := prop.Export(conn, path, map[string]map[string]*prop.Prop{
		accessPointInterface: {
			"SSID":      {Value: ap.SSID, Writable: false, Emit: prop.EmitTrue},
			"Strength":  {Value: ap.Strength, Writable: false, Emit: prop.EmitTrue},
			"Connected": {Value: ap.Connected, Writable: false, Emit: prop.EmitTrue},
			"Security":  {Value: securityToString(ap.Security), Writable: false, Emit: prop.EmitTrue},
		},
	})
	if err != nil {
		return nil, err
	}

	node := &introspect.Node{
		Name: string(path),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			prop.IntrospectData,
			{
				Name:       accessPointInterface,
				Properties: props.Introspection(accessPointInterface),
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), path, "org.freedesktop.DBus.Introspectable"); err != nil {
		return nil, err
	}

	return &accessPointObject{id: ap.ID, props: props}, nil
}

func (o *accessPointObject) unexport(conn *dbus.Conn) {
	path := accessPointObjectPath(o.id)
	conn.Export(nil, path, accessPointInterface)
	conn.Export(nil, path, "org.freedesktop.DBus.Properties")
	conn.Export(nil, path, "org.freedesktop.DBus.Introspectable")
}

func (o *accessPointObject) setSSID(ssid string) {
	o.props.SetMust(accessPointInterface, "SSID", ssid)
}

func (o *accessPointObject) setStrength(strength uint8) {
	o.props.SetMust(accessPointInterface, "Strength", strength)
}

func (o *accessPointObject) setConnected(connected bool) {
	o.props.SetMust(accessPointInterface, "Connected", connected)
}

func (o *accessPointObject) setSecurity(security state.WiFiSecurity) {
	o.props.SetMust(accessPointInterface, "Security", securityToString(security))
}
