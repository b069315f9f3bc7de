package connman

import (
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxoft/connectivity-managerd/internal/credentials"
)

func argVariant(args map[string]dbus.Variant) dbus.Variant {
	return dbus.MakeVariant(args)
}

func TestReceivedFieldsToCredentialsPassphrase(t *testing.T) {
	fields := map[string]dbus.Variant{
		fieldPassphrase: argVariant(map[string]dbus.Variant{
			fieldArgType:  dbus.MakeVariant(fieldArgTypePSK),
			fieldArgValue: dbus.MakeVariant("secret"),
		}),
	}

	creds, err := receivedFieldsToCredentials(fields)
	require.NoError(t, err)
	require.NotNil(t, creds.Password)
	assert.Equal(t, credentials.PasswordWPAPSK, creds.Password.Type)
	assert.Equal(t, "secret", creds.Password.Value)
}

func TestReceivedFieldsToCredentialsHiddenSSID(t *testing.T) {
	fields := map[string]dbus.Variant{
		fieldHiddenSSIDUTF8: argVariant(map[string]dbus.Variant{
			fieldArgValue: dbus.MakeVariant("my-network"),
		}),
	}

	creds, err := receivedFieldsToCredentials(fields)
	require.NoError(t, err)
	require.NotNil(t, creds.SSID)
	assert.Equal(t, "my-network", *creds.SSID)
}

func TestReceivedFieldsToCredentialsRejectsBothUsernameFields(t *testing.T) {
	fields := map[string]dbus.Variant{
		fieldEAPUsername: argVariant(map[string]dbus.Variant{
			fieldArgValue: dbus.MakeVariant("a"),
		}),
		fieldWISPrUsername: argVariant(map[string]dbus.Variant{
			fieldArgValue: dbus.MakeVariant("b"),
		}),
	}

	_, err := receivedFieldsToCredentials(fields)
	assert.Error(t, err)
}

func TestReceivedFieldsToCredentialsRejectsUnknownField(t *testing.T) {
	fields := map[string]dbus.Variant{
		"Bogus": argVariant(map[string]dbus.Variant{
			fieldArgValue: dbus.MakeVariant("x"),
		}),
	}

	_, err := receivedFieldsToCredentials(fields)
	assert.Error(t, err)
}

func TestReceivedFieldsToCredentialsPreviousPassphraseFillsEmptyValue(t *testing.T) {
	fields := map[string]dbus.Variant{
		fieldPassphrase: argVariant(map[string]dbus.Variant{
			fieldArgType: dbus.MakeVariant(fieldArgTypePSK),
		}),
		fieldPreviousPassphrase: argVariant(map[string]dbus.Variant{
			fieldArgType:  dbus.MakeVariant(fieldArgTypePSK),
			fieldArgValue: dbus.MakeVariant("old-secret"),
		}),
	}

	creds, err := receivedFieldsToCredentials(fields)
	require.NoError(t, err)
	require.NotNil(t, creds.Password)
	assert.Equal(t, "old-secret", creds.Password.Value)
}

func TestReceivedFieldsToCredentialsRejectsPreviousPassphraseWithoutPassword(t *testing.T) {
	fields := map[string]dbus.Variant{
		fieldPreviousPassphrase: argVariant(map[string]dbus.Variant{
			fieldArgType:  dbus.MakeVariant(fieldArgTypePSK),
			fieldArgValue: dbus.MakeVariant("old-secret"),
		}),
	}

	_, err := receivedFieldsToCredentials(fields)
	assert.Error(t, err)
}

func TestArgsToPasswordRejectsMissingType(t *testing.T) {
	_, err := argsToPassword(map[string]dbus.Variant{
		fieldArgValue: dbus.MakeVariant("x"),
	})
	assert.Error(t, err)
}

func TestArgsToPasswordRejectsUnknownType(t *testing.T) {
	_, err := argsToPassword(map[string]dbus.Variant{
		fieldArgType:  dbus.MakeVariant("bogus"),
		fieldArgValue: dbus.MakeVariant("x"),
	})
	assert.Error(t, err)
}

func TestCredentialsToReplyFieldsPrefersUTF8SSID(t *testing.T) {
	ssid := "my-network"
	creds := credentials.Credentials{SSID: &ssid}
	received := map[string]dbus.Variant{
		fieldHiddenSSIDUTF8: argVariant(nil),
		fieldHiddenSSID:     argVariant(nil),
	}

	reply := credentialsToReplyFields(creds, received)
	require.Contains(t, reply, fieldHiddenSSIDUTF8)
	assert.NotContains(t, reply, fieldHiddenSSID)

	var got string
	require.NoError(t, reply[fieldHiddenSSIDUTF8].Store(&got))
	assert.Equal(t, ssid, got)
}

func TestCredentialsToReplyFieldsFallsBackToByteSSIDWhenNotUTF8(t *testing.T) {
	ssid := string([]byte{0xff, 0xfe, 0x80})
	creds := credentials.Credentials{SSID: &ssid}
	received := map[string]dbus.Variant{
		fieldHiddenSSIDUTF8: argVariant(nil),
		fieldHiddenSSID:     argVariant(nil),
	}

	reply := credentialsToReplyFields(creds, received)
	require.Contains(t, reply, fieldHiddenSSID)
	assert.NotContains(t, reply, fieldHiddenSSIDUTF8)

	var got []byte
	require.NoError(t, reply[fieldHiddenSSID].Store(&got))
	assert.Equal(t, []byte(ssid), got)
}

func TestCredentialsToReplyFieldsOmitsUnrequestedFields(t *testing.T) {
	ssid := "my-network"
	creds := credentials.Credentials{SSID: &ssid}

	reply := credentialsToReplyFields(creds, map[string]dbus.Variant{})
	assert.Empty(t, reply)
}

func TestCredentialsToReplyFieldsWPSPinGoesToWPSField(t *testing.T) {
	creds := credentials.Credentials{
		Password: &credentials.Password{Type: credentials.PasswordWPSPin, Value: "1234567"},
	}
	received := map[string]dbus.Variant{
		fieldWPS: argVariant(nil),
	}

	reply := credentialsToReplyFields(creds, received)
	require.Contains(t, reply, fieldWPS)

	var got string
	require.NoError(t, reply[fieldWPS].Store(&got))
	assert.Equal(t, "1234567", got)
}
