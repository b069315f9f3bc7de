package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxoft/connectivity-managerd/internal/cli"
)

// TestRootCmdVersionFlag covers spec.md §8 scenario 1: a top-level
// --version flag is parsed and handled without dispatching into a
// subcommand.
func TestRootCmdVersionFlag(t *testing.T) {
	cli.RootCmd.Version = Version

	out := &bytes.Buffer{}
	cli.RootCmd.SetOut(out)
	cli.RootCmd.SetArgs([]string{"--version"})

	err := cli.RootCmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, out.String(), Version)
}

// TestRootCmdRejectsUnknownFlag covers spec.md §8 scenario 2: an
// unrecognized flag makes argument parsing fail rather than running.
func TestRootCmdRejectsUnknownFlag(t *testing.T) {
	cli.RootCmd.SetArgs([]string{"--does_not_exist"})
	err := cli.RootCmd.Execute()
	assert.Error(t, err)
}
