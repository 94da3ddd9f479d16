package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandFlags(t *testing.T) {
	cmd := newRootCmd()
	for _, name := range []string{"migrate", "truncate", "derive-codes"} {
		f := cmd.Flags().Lookup(name)
		require.NotNil(t, f, name)
		assert.Equal(t, "false", f.DefValue, name)
	}
}

func TestRootCommandRejectsArgs(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"extra"})
	assert.Error(t, cmd.Execute())
}

func TestRootCommandNeedsDatabase(t *testing.T) {
	t.Setenv("CITYSCOPE_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("POSTGRES_HOST", "")

	cmd := newRootCmd()
	cmd.SetArgs([]string{"--migrate"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "POSTGRES_HOST is not set")
}
