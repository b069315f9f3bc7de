package connman

import (
	"github.com/godbus/dbus/v5"
)

// technologyPropertyID identifies which settable/observable technology
// property changed, mirroring ConnManTechnology::PropertyId.
type technologyPropertyID int

const (
	techPropConnected technologyPropertyID = iota
	techPropPowered
	techPropTethering
	techPropTetheringIdentifier
	techPropTetheringPassphrase
)

// technology is the adapter's view of a single net.connman.Technology
// object. Only the Wi-Fi technology is ever bound to daemon state; others
// are tracked just enough to notice when Wi-Fi appears.
type technology struct {
	backend *Backend
	path    dbus.ObjectPath

	techType techOrSvcType
	name     string
	connected bool

	powered             *settableProperty[bool]
	tethering           *settableProperty[bool]
	tetheringIdentifier *settableProperty[string]
	tetheringPassphrase *settableProperty[string]
}

func newTechnology(b *Backend, path dbus.ObjectPath, props map[string]dbus.Variant) *technology {
	t := &technology{
		backend:   b,
		path:      path,
		techType:  typeFromString(variantString(props[propType])),
		name:      variantString(props[propName]),
		connected: variantBool(props[propConnected]),
	}

	t.powered = newSettableProperty(t, propPowered, variantBool(props[propPowered]), func() {
		b.technologyPropertyChanged(t, techPropPowered)
	})
	t.tethering = newSettableProperty(t, propTethering, variantBool(props[propTethering]), func() {
		b.technologyPropertyChanged(t, techPropTethering)
	})
	t.tetheringIdentifier = newSettableProperty(t, propTetheringIdentifier, variantString(props[propTetheringIdentifier]), func() {
		b.technologyPropertyChanged(t, techPropTetheringIdentifier)
	})
	t.tetheringPassphrase = newSettableProperty(t, propTetheringPassphrase, variantString(props[propTetheringPassphrase]), func() {
		b.technologyPropertyChanged(t, techPropTetheringPassphrase)
	})

	return t
}

// propertyChanged handles a net.connman.Technology.PropertyChanged signal.
func (t *technology) propertyChanged(name string, v dbus.Variant) {
	switch name {
	case propConnected:
		connected := variantBool(v)
		if t.connected != connected {
			t.connected = connected
			t.backend.technologyPropertyChanged(t, techPropConnected)
		}
	case propPowered:
		t.powered.changed(variantBool(v))
	case propTethering:
		t.tethering.changed(variantBool(v))
	case propTetheringIdentifier:
		t.tetheringIdentifier.changed(variantString(v))
	case propTetheringPassphrase:
		t.tetheringPassphrase.changed(variantString(v))
	}
}

func (t *technology) scan() {
	go func() {
		obj := t.backend.conn.Object(serviceName, t.path)
		obj.Call(technologyInterface+".Scan", 0)
	}()
}

func variantString(v dbus.Variant) string {
	s, _ := v.Value().(string)
	return s
}

func variantBool(v dbus.Variant) bool {
	b, _ := v.Value().(bool)
	return b
}

func variantByte(v dbus.Variant) byte {
	b, _ := v.Value().(byte)
	return b
}
