package cmd

import (
	"io"
	"log"
	"path/filepath"
	"testing"

	"github.com/josephlewis42/gsh/core/config"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupPlayground(t *testing.T) {
	fsys := afero.NewMemMapFs()

	cfgDir, cfg, err := setupPlayground(fsys, "/tmp/playground", log.New(io.Discard, "", 0))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/playground", ".gsh"), cfgDir)
	assert.Equal(t, playgroundEventLog, cfg.EventLog)

	// Subshells read the configuration from disk.
	loaded, err := config.Load(fsys, cfgDir)
	require.NoError(t, err)
	assert.Equal(t, playgroundEventLog, loaded.EventLog)

	fd, err := loaded.OpenEventLog()
	require.NoError(t, err)
	require.NoError(t, fd.Close())
	ok, err := afero.Exists(fsys, filepath.Join(cfgDir, playgroundEventLog))
	require.NoError(t, err)
	assert.True(t, ok)
}
