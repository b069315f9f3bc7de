package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRootCmdVersionFlag covers spec.md §8 scenario 1: a top-level
// --version flag is parsed and handled without dispatching into run().
func TestRootCmdVersionFlag(t *testing.T) {
	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetArgs([]string{"--version"})

	err := rootCmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, out.String(), Version)
}

// TestRootCmdRejectsUnknownFlag covers spec.md §8 scenario 2: an
// unrecognized flag makes argument parsing fail rather than running.
func TestRootCmdRejectsUnknownFlag(t *testing.T) {
	rootCmd.SetArgs([]string{"--does_not_exist"})
	err := rootCmd.Execute()
	assert.Error(t, err)
}
