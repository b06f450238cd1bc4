package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/searchmark/internal/config"
	smerrors "github.com/Aman-CERP/searchmark/internal/errors"
)

func TestConfigCmd_HasSubcommands(t *testing.T) {
	// Given: root command
	cmd := NewRootCmd()

	// When: finding config command
	configCmd, _, err := cmd.Find([]string{"config"})
	require.NoError(t, err)

	// Then: every subcommand is present
	names := make(map[string]bool)
	for _, sc := range configCmd.Commands() {
		names[sc.Name()] = true
	}
	for _, want := range []string{"init", "show", "path", "backups", "restore"} {
		assert.True(t, names[want], "should have %s command", want)
	}
}

func TestConfigInit_CreatesUserConfig(t *testing.T) {
	sandbox(t)

	// When: initializing the user config
	res := run(t, "", "config", "init")

	// Then: the template is written and loads cleanly
	require.NoError(t, res.err)
	path := config.GetUserConfigPath()
	assert.FileExists(t, path)
	assert.Contains(t, res.stderr, "Created "+path)

	user, err := config.LoadUserConfig()
	require.NoError(t, err)
	require.NotNil(t, user)
}

func TestConfigInit_ExistingNeedsForce(t *testing.T) {
	sandbox(t)
	path := config.GetUserConfigPath()
	writeFile(t, path, "batch:\n  workers: 3\n")

	// When: initializing over an existing file
	res := run(t, "", "config", "init")

	// Then: it refuses and keeps the file
	require.Error(t, res.err)
	assert.Equal(t, smerrors.ErrCodeConfigExists, smerrors.GetCode(res.err))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "batch:\n  workers: 3\n", string(data))

	// When: forcing
	forced := run(t, "", "config", "init", "--force")

	// Then: the old file is backed up and replaced
	require.NoError(t, forced.err)
	assert.Contains(t, forced.stderr, "Backup:")

	backups := run(t, "", "config", "backups")
	require.NoError(t, backups.err)
	lines := strings.Fields(backups.stdout)
	require.Len(t, lines, 1)

	// When: restoring the newest backup
	restored := run(t, "", "config", "restore")

	// Then: the original content is back
	require.NoError(t, restored.err)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "batch:\n  workers: 3\n", string(data))
}

func TestConfigRestore_NoBackups(t *testing.T) {
	sandbox(t)

	res := run(t, "", "config", "restore")

	assert.Equal(t, smerrors.ErrCodeConfigNotFound, smerrors.GetCode(res.err))
}

func TestConfigInit_Project(t *testing.T) {
	work := sandbox(t)

	res := run(t, "", "config", "init", "--project")

	require.NoError(t, res.err)
	assert.FileExists(t, filepath.Join(work, config.ProjectConfigFile))

	// The project file is now picked up by path
	paths := run(t, "", "config", "path")
	require.NoError(t, paths.err)
	assert.Contains(t, paths.stdout, config.ProjectConfigFile)
}

func TestConfigShow(t *testing.T) {
	work := sandbox(t)
	writeFile(t, filepath.Join(work, ".searchmark.yaml"), "batch:\n  workers: 7\n")

	t.Run("merged json", func(t *testing.T) {
		res := run(t, "", "config", "show", "--json")
		require.NoError(t, res.err)

		var cfg config.Config
		require.NoError(t, json.Unmarshal([]byte(res.stdout), &cfg))
		assert.Equal(t, 7, cfg.Batch.Workers)
	})

	t.Run("merged yaml", func(t *testing.T) {
		res := run(t, "", "config", "show")
		require.NoError(t, res.err)
		assert.Contains(t, res.stdout, "workers: 7")
	})

	t.Run("defaults", func(t *testing.T) {
		res := run(t, "", "config", "show", "--source", "defaults", "--json")
		require.NoError(t, res.err)

		var cfg config.Config
		require.NoError(t, json.Unmarshal([]byte(res.stdout), &cfg))
		assert.Equal(t, config.NewConfig().Batch.Workers, cfg.Batch.Workers)
	})

	t.Run("user missing", func(t *testing.T) {
		res := run(t, "", "config", "show", "--source", "user")
		assert.Equal(t, smerrors.ErrCodeConfigNotFound, smerrors.GetCode(res.err))
	})

	t.Run("unknown source", func(t *testing.T) {
		res := run(t, "", "config", "show", "--source", "project")
		require.Error(t, res.err)
	})
}

func TestBrokenConfig(t *testing.T) {
	work := sandbox(t)
	writeFile(t, filepath.Join(work, ".searchmark.yaml"), "batch: [not a map\n")

	t.Run("highlight fails", func(t *testing.T) {
		res := run(t, "", "highlight", "-q", "go", "go")
		require.Error(t, res.err)
		assert.Equal(t, smerrors.ErrCodeConfigInvalid, smerrors.GetCode(res.err))
	})

	t.Run("config path still runs", func(t *testing.T) {
		res := run(t, "", "config", "path")
		require.NoError(t, res.err)
		assert.Contains(t, res.stdout, config.GetUserConfigPath())
	})

	t.Run("config show reports the error", func(t *testing.T) {
		res := run(t, "", "config", "show")
		assert.Equal(t, smerrors.ErrCodeConfigInvalid, smerrors.GetCode(res.err))
	})

	t.Run("version still runs", func(t *testing.T) {
		res := run(t, "", "version", "--short")
		require.NoError(t, res.err)
	})
}
