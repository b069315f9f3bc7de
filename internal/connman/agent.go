package connman

import (
	"errors"
	"unicode/utf8"

	"github.com/go-logr/logr"
	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/godbus/dbus/v5/prop"

	"github.com/luxoft/connectivity-managerd/internal/credentials"
)

// Field names ConnMan uses in RequestInput's "fields" argument and reply,
// see doc/agent-api.txt.
const (
	fieldHiddenSSIDUTF8      = "Name"
	fieldHiddenSSID          = "SSID"
	fieldEAPUsername         = "Identity"
	fieldPassphrase          = "Passphrase"
	fieldPreviousPassphrase  = "PreviousPassphrase"
	fieldWPS                 = "WPS"
	fieldWISPrUsername       = "Username"
	fieldWISPrPassword       = "Password"
)

// Field argument keys and the password-type strings carried in "Type".
const (
	fieldArgType  = "Type"
	fieldArgValue = "Value"

	fieldArgTypePSK        = "psk"
	fieldArgTypeWEP        = "wep"
	fieldArgTypePassphrase = "passphrase"
	fieldArgTypeResponse   = "response"
	fieldArgTypeWPSPin     = "wpspin"
	fieldArgTypeString     = "string"
)

// agent implements net.connman.Agent, exported by us and registered with
// ConnMan so it can ask us for credentials during Service.Connect.
type agent struct {
	backend *Backend
	log     logr.Logger
}

// agentState tracks registration with ConnMan's Manager, mirroring
// ConnManAgent::State.
type agentState int

const (
	agentNotRegistered agentState = iota
	agentRegistering
	agentRegistered
)

func newAgent(b *Backend) *agent {
	return &agent{backend: b, log: b.log}
}

// export registers the agent object on conn. Idempotent.
func (a *agent) export(conn *dbus.Conn) error {
	if err := conn.Export(a, agentObjectPath, agentInterface); err != nil {
		return err
	}

	node := &introspect.Node{
		Name: string(agentObjectPath),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			prop.IntrospectData,
			{
				Name: agentInterface,
				Methods: []introspect.Method{
					{Name: "Release"},
					{Name: "ReportError", Args: []introspect.Arg{
						{Name: "service", Type: "o", Direction: "in"},
						{Name: "error", Type: "s", Direction: "in"},
					}},
					{Name: "RequestBrowser", Args: []introspect.Arg{
						{Name: "service", Type: "o", Direction: "in"},
						{Name: "url", Type: "s", Direction: "in"},
					}},
					{Name: "RequestInput", Args: []introspect.Arg{
						{Name: "service", Type: "o", Direction: "in"},
						{Name: "fields", Type: "a{sv}", Direction: "in"},
						{Name: "fields", Type: "a{sv}", Direction: "out"},
					}},
					{Name: "Cancel"},
				},
			},
		},
	}
	return conn.Export(introspect.NewIntrospectable(node), agentObjectPath, "org.freedesktop.DBus.Introspectable")
}

// Release implements net.connman.Agent.Release.
func (a *agent) Release() *dbus.Error {
	a.backend.runLocked(func() {
		a.backend.agentState = agentNotRegistered
		a.backend.agentReleased()
	})
	return nil
}

// ReportError implements net.connman.Agent.ReportError. Deliberately a
// no-op: a failing Connect() call already reports failure through its own
// return value, which is what drives our credentials reply.
func (a *agent) ReportError(service dbus.ObjectPath, errorStr string) *dbus.Error {
	return nil
}

// RequestBrowser implements net.connman.Agent.RequestBrowser. Not
// supported: the daemon has no UI surface to open a browser on behalf of
// ConnMan (e.g. for WISPr portal logins).
func (a *agent) RequestBrowser(service dbus.ObjectPath, url string) *dbus.Error {
	return dbus.NewError("net.connman.Agent.Error.NotSupported", []interface{}{"RequestBrowser not implemented"})
}

// RequestInput implements net.connman.Agent.RequestInput.
func (a *agent) RequestInput(service dbus.ObjectPath, fields map[string]dbus.Variant) (map[string]dbus.Variant, *dbus.Error) {
	creds, err := receivedFieldsToCredentials(fields)
	if err != nil {
		return nil, dbus.NewError("org.freedesktop.DBus.Error.InvalidArgs", []interface{}{err.Error()})
	}

	resultCh := make(chan *credentials.Credentials, 1)

	a.backend.runLocked(func() {
		a.backend.agentRequestInput(service, *creds, func(result *credentials.Credentials) {
			resultCh <- result
		})
	})

	result := <-resultCh
	if result == nil {
		return nil, dbus.NewError("org.freedesktop.DBus.Error.Failed", []interface{}{"failed to request credentials"})
	}

	return credentialsToReplyFields(*result, fields), nil
}

// Cancel implements net.connman.Agent.Cancel.
//
// Deliberately a no-op. ConnMan canceling an agent request is expected to
// make the corresponding Service.Connect call fail, which unblocks the
// pending RequestInput call through the normal connect-finished path; there
// is nothing left here to cancel explicitly. This is also why connectQueue
// only ever runs one connect at a time: ConnMan's Cancel does not say which
// service it's for.
func (a *agent) Cancel() *dbus.Error {
	return nil
}

func receivedFieldsToCredentials(fields map[string]dbus.Variant) (*credentials.Credentials, error) {
	var creds credentials.Credentials
	var previousPassword *credentials.Password

	for name, variant := range fields {
		var args map[string]dbus.Variant
		if err := variant.Store(&args); err != nil {
			return nil, errors.New("received ConnMan agent field " + name + " with arguments of wrong type")
		}

		switch name {
		case fieldHiddenSSIDUTF8, fieldHiddenSSID:
			ssid := argLookup(args, fieldArgValue, "")
			creds.SSID = &ssid

		case fieldEAPUsername, fieldWISPrUsername:
			if creds.Username != nil {
				return nil, errors.New("received both EAP and WISPr username fields")
			}
			username := argLookup(args, fieldArgValue, "")
			creds.Username = &username

		case fieldPassphrase, fieldWISPrPassword:
			if creds.Password != nil {
				return nil, errors.New("received both Passphrase and WISPr password fields")
			}
			p, err := argsToPassword(args)
			if err != nil {
				return nil, err
			}
			creds.Password = p

		case fieldPreviousPassphrase:
			p, err := argsToPassword(args)
			if err != nil {
				return nil, err
			}
			previousPassword = p

		case fieldWPS:
			p, err := argsToPassword(args)
			if err != nil {
				return nil, err
			}
			if p.Type != credentials.PasswordWPSPin {
				return nil, errors.New("received WPS field with wrong type")
			}
			creds.PasswordAlternative = p

		default:
			return nil, errors.New("received unknown ConnMan agent field " + name)
		}
	}

	if creds.PasswordAlternative != nil {
		if creds.Password == nil {
			return nil, errors.New("received password alternative field with no password field")
		}
		if creds.Password.Type == creds.PasswordAlternative.Type {
			return nil, errors.New("received password and password alternative of same type")
		}
	}

	if previousPassword != nil {
		if creds.Password == nil {
			return nil, errors.New("received previous password field with no password field")
		}
		switch {
		case creds.Password.Type == previousPassword.Type:
			if creds.Password.Value == "" {
				creds.Password.Value = previousPassword.Value
			}
		case creds.PasswordAlternative != nil && creds.PasswordAlternative.Type == previousPassword.Type:
			if creds.PasswordAlternative.Value == "" {
				creds.Password.Value = previousPassword.Value
			}
		}
	}

	return &creds, nil
}

func argLookup(args map[string]dbus.Variant, name, defaultValue string) string {
	v, ok := args[name]
	if !ok {
		return defaultValue
	}
	s, ok := v.Value().(string)
	if !ok {
		return defaultValue
	}
	return s
}

func argsToPassword(args map[string]dbus.Variant) (*credentials.Password, error) {
	typeStr := argLookup(args, fieldArgType, "")
	if typeStr == "" {
		return nil, errors.New("received password field without type")
	}

	var t credentials.PasswordType
	switch typeStr {
	case fieldArgTypePassphrase, fieldArgTypeResponse, fieldArgTypeString:
		t = credentials.PasswordPassphrase
	case fieldArgTypePSK:
		t = credentials.PasswordWPAPSK
	case fieldArgTypeWEP:
		t = credentials.PasswordWEPKey
	case fieldArgTypeWPSPin:
		t = credentials.PasswordWPSPin
	default:
		return nil, errors.New("received password field with unknown type " + typeStr)
	}

	return &credentials.Password{Type: t, Value: argLookup(args, fieldArgValue, "")}, nil
}

// credentialsToReplyFields mirrors ConnManAgent's credentials_to_reply_fields:
// only echo back values for fields ConnMan actually asked about, preferring
// the UTF-8 SSID field when the SSID is valid UTF-8 and that field was
// requested.
func credentialsToReplyFields(creds credentials.Credentials, received map[string]dbus.Variant) map[string]dbus.Variant {
	fields := make(map[string]dbus.Variant)

	wasRequested := func(name string) bool {
		_, ok := received[name]
		return ok
	}

	if creds.SSID != nil {
		utf8Requested := wasRequested(fieldHiddenSSIDUTF8) && utf8.ValidString(*creds.SSID)
		nonUTF8Requested := wasRequested(fieldHiddenSSID)

		switch {
		case utf8Requested:
			fields[fieldHiddenSSIDUTF8] = dbus.MakeVariant(*creds.SSID)
		case nonUTF8Requested:
			fields[fieldHiddenSSID] = dbus.MakeVariant([]byte(*creds.SSID))
		}
	}

	if creds.Username != nil {
		switch {
		case wasRequested(fieldEAPUsername):
			fields[fieldEAPUsername] = dbus.MakeVariant(*creds.Username)
		case wasRequested(fieldWISPrUsername):
			fields[fieldWISPrUsername] = dbus.MakeVariant(*creds.Username)
		}
	}

	if creds.Password != nil {
		wpsReply := creds.Password.Type == credentials.PasswordWPSPin && wasRequested(fieldWPS)
		switch {
		case wpsReply:
			fields[fieldWPS] = dbus.MakeVariant(creds.Password.Value)
		case wasRequested(fieldPassphrase):
			fields[fieldPassphrase] = dbus.MakeVariant(creds.Password.Value)
		case wasRequested(fieldWISPrPassword):
			fields[fieldWISPrPassword] = dbus.MakeVariant(creds.Password.Value)
		}
	}

	return fields
}
