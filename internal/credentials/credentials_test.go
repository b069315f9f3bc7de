package credentials

import (
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strp(s string) *string { return &s }

func TestFromDBusValueRejectsEmptyMap(t *testing.T) {
	_, err := FromDBusValue(map[string]dbus.Variant{})
	require.Error(t, err)
}

func TestFromDBusValueRejectsUnknownKey(t *testing.T) {
	_, err := FromDBusValue(map[string]dbus.Variant{
		"bogus": dbus.MakeVariant("x"),
	})
	require.Error(t, err)
}

func TestCredentialsRoundTrip(t *testing.T) {
	original := Credentials{
		SSID:     strp("my network"),
		Username: strp("alice"),
		Password: &Password{Type: PasswordWPAPSK, Value: "s3cr3t"},
	}

	wire := original.ToDBusValue()
	assert.Len(t, wire, 3)

	restored, err := FromDBusValue(wire)
	require.NoError(t, err)
	require.NotNil(t, restored.SSID)
	require.NotNil(t, restored.Username)
	require.NotNil(t, restored.Password)

	assert.Equal(t, *original.SSID, *restored.SSID)
	assert.Equal(t, *original.Username, *restored.Username)
	assert.Equal(t, *original.Password, *restored.Password)
}

func TestPasswordAlternativeRoundTrip(t *testing.T) {
	original := Credentials{
		Password:            &Password{Type: PasswordWEPKey, Value: "abcd1234"},
		PasswordAlternative: &Password{Type: PasswordPassphrase, Value: "abcd1234"},
	}

	restored, err := FromDBusValue(original.ToDBusValue())
	require.NoError(t, err)
	require.NotNil(t, restored.PasswordAlternative)
	assert.Equal(t, *original.PasswordAlternative, *restored.PasswordAlternative)
}

func TestPasswordTypeStrings(t *testing.T) {
	cases := map[PasswordType]string{
		PasswordPassphrase: "passphrase",
		PasswordWPAPSK:     "wpa_psk",
		PasswordWEPKey:     "wep_key",
		PasswordWPSPin:     "wps_pin",
	}
	for typ, want := range cases {
		assert.Equal(t, want, typ.String())
	}
}

func TestFromDBusValueRejectsUnknownPasswordType(t *testing.T) {
	wire := map[string]dbus.Variant{
		"password": dbus.MakeVariant(passwordWire{Type: "bogus", Value: "x"}),
	}
	_, err := FromDBusValue(wire)
	require.Error(t, err)
}
