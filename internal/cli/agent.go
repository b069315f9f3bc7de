package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/luxoft/connectivity-managerd/internal/credentials"
)

const (
	userInputAgentInterface = "com.luxoft.ConnectivityManager.UserInputAgent"
	userInputAgentPath      dbus.ObjectPath = "/com/luxoft/ConnectivityManager/Cli/UserInputAgent"
)

// terminalAgent is a UserInputAgent that prompts the invoking terminal for
// whatever credentials the daemon asks for, mirroring InputHandler's
// register_user_input_agent/RequestCredentials handling.
type terminalAgent struct{}

func exportTerminalAgent(conn *dbus.Conn) error {
	a := &terminalAgent{}
	if err := conn.Export(a, userInputAgentPath, userInputAgentInterface); err != nil {
		return err
	}

	node := &introspect.Node{
		Name: string(userInputAgentPath),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name: userInputAgentInterface,
				Methods: []introspect.Method{
					{
						Name: "RequestCredentials",
						Args: []introspect.Arg{
							{Name: "description_type", Type: "s", Direction: "in"},
							{Name: "description_id", Type: "s", Direction: "in"},
							{Name: "requested", Type: "a{sv}", Direction: "in"},
							{Name: "reply", Type: "a{sv}", Direction: "out"},
						},
					},
				},
			},
		},
	}
	return conn.Export(introspect.NewIntrospectable(node), userInputAgentPath, "org.freedesktop.DBus.Introspectable")
}

// RequestCredentials implements com.luxoft.ConnectivityManager.UserInputAgent.
func (a *terminalAgent) RequestCredentials(descriptionType, descriptionID string, requested map[string]dbus.Variant) (map[string]dbus.Variant, *dbus.Error) {
	req, err := credentials.FromDBusValue(requested)
	if err != nil {
		return nil, dbus.NewError("org.freedesktop.DBus.Error.InvalidArgs", []interface{}{err.Error()})
	}

	fmt.Printf("Credentials requested for %s %q:\n", descriptionType, descriptionID)

	reader := bufio.NewReader(os.Stdin)
	var reply credentials.Credentials

	if req.SSID != nil {
		ssid := prompt(reader, "SSID")
		reply.SSID = &ssid
	}
	if req.Username != nil {
		username := prompt(reader, "Username")
		reply.Username = &username
	}
	if req.Password != nil {
		value := prompt(reader, fmt.Sprintf("Password (%s)", req.Password.Type))
		reply.Password = &credentials.Password{Type: req.Password.Type, Value: value}
	}
	if req.PasswordAlternative != nil {
		value := prompt(reader, fmt.Sprintf("Password (%s)", req.PasswordAlternative.Type))
		reply.PasswordAlternative = &credentials.Password{Type: req.PasswordAlternative.Type, Value: value}
	}

	return reply.ToDBusValue(), nil
}

func prompt(reader *bufio.Reader, label string) string {
	fmt.Printf("  %s: ", label)
	line, _ := reader.ReadString('\n')
	return strings.TrimRight(line, "\r\n")
}
