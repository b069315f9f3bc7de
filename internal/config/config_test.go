package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(viper.New())
	require.NoError(t, err)
	assert.Equal(t, BusSystem, cfg.Bus)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadHonorsExplicitOverrides(t *testing.T) {
	v := viper.New()
	v.Set("bus", "session")
	v.Set("log_level", "debug")

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, BusSession, cfg.Bus)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadRejectsInvalidBus(t *testing.T) {
	v := viper.New()
	v.Set("bus", "bogus")

	_, err := Load(v)
	require.Error(t, err)
}

func TestLoadIsCaseInsensitiveForBus(t *testing.T) {
	v := viper.New()
	v.Set("bus", "SESSION")

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, BusSession, cfg.Bus)
}
