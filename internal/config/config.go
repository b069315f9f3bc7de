// Package config resolves the daemon's runtime configuration from flags,
// environment, and an optional config file, the way
// myhome/mqtt/server_config.go layers Viper over a flag-provided default.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Bus names which D-Bus bus the daemon binds to and the CLI dials.
type Bus string

const (
	BusSystem  Bus = "system"
	BusSession Bus = "session"
)

// Config is the daemon's resolved configuration. The CLI does not use it:
// it takes its bus from its own --bus flag.
type Config struct {
	Bus      Bus
	LogLevel string
}

// Load resolves Config from (in increasing priority) built-in defaults, a
// config file named connectivity-managerd.{yaml,json,toml} searched for in
// /etc/connectivity-managerd and the current directory, environment
// variables prefixed CONNECTIVITY_MANAGERD_, and finally any already-set
// values on v (typically bound to command-line flags by the caller).
func Load(v *viper.Viper) (Config, error) {
	if v == nil {
		v = viper.New()
	}

	v.SetDefault("bus", string(BusSystem))
	v.SetDefault("log_level", "info")

	v.SetEnvPrefix("connectivity_managerd")
	v.AutomaticEnv()

	v.SetConfigName("connectivity-managerd")
	v.AddConfigPath("/etc/connectivity-managerd")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return Config{}, fmt.Errorf("config: %w", err)
		}
	}

	bus := Bus(strings.ToLower(v.GetString("bus")))
	if bus != BusSystem && bus != BusSession {
		return Config{}, fmt.Errorf("config: invalid bus %q, want %q or %q", bus, BusSystem, BusSession)
	}

	return Config{
		Bus:      bus,
		LogLevel: v.GetString("log_level"),
	}, nil
}
