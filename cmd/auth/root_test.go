package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/aussiebroadwan/signet/pkg/errutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasExpectedSubcommands(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())

	output := buf.String()
	for _, sub := range []string{"serve", "migrate"} {
		assert.Contains(t, output, sub, "Help missing %q command", sub)
	}
}

func TestMigrateCommand(t *testing.T) {
	db := filepath.Join(t.TempDir(), "auth.db")

	for range 2 {
		cmd := NewRootCmd()
		out := new(bytes.Buffer)
		cmd.SetOut(out)
		cmd.SetErr(new(bytes.Buffer))
		cmd.SetArgs([]string{"migrate", "--database", db})

		require.NoError(t, cmd.Execute())
		assert.Contains(t, out.String(), "Migrations completed successfully")
	}
}

func TestServeCommand_InvalidConfig(t *testing.T) {
	t.Setenv("AUTH_KV_DRIVER", "etcd")

	cmd := NewRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"serve"})

	err := cmd.Execute()
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
}

func TestServeCommand_InvalidPortFlag(t *testing.T) {
	t.Setenv("AUTH_KV_DRIVER", "")
	t.Setenv("ENV", "")
	t.Setenv("PORT", "")

	cmd := NewRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"serve", "--port", "70000"})

	err := cmd.Execute()
	require.Error(t, err)
	errutil.AssertErrorContext(t, err, "key", "PORT")
}
