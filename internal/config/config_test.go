package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupConfigDir(t *testing.T) {
	t.Helper()
	orgDir := ConfigDir
	ConfigDir = t.TempDir()
	t.Cleanup(func() {
		ConfigDir = orgDir
		viper.Reset()
	})
}

func TestLoadDefaults(t *testing.T) {
	setupConfigDir(t)
	root := t.TempDir()
	t.Setenv("ASSETPATCH_GAMEROOT", root)
	t.Setenv("ASSETPATCH_PLATFORM", "linux")
	InitViper()

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, root, s.GameRoot)
	assert.Equal(t, filepath.Join(root, "Backup"), s.BackupDir)
	assert.Equal(t, filepath.Join(root, "temp_workspace"), s.WorkspaceDir)
	assert.Equal(t, filepath.Join(root, ".assetpatch.lock"), s.LockFile)
	assert.Equal(t, 4096.0, s.TextureDimension)
	assert.Equal(t, "Linux", s.Platform.Name)
	assert.Equal(t, filepath.Join(root, "Hollow Knight Silksong_Data", "resources.assets"), s.Platform.TextAssets)
}

func TestLoadFromConfigFile(t *testing.T) {
	setupConfigDir(t)
	root := t.TempDir()
	backup := filepath.Join(t.TempDir(), "bk")
	cfg := `{"gameRoot": "` + filepath.ToSlash(root) + `", "platform": "windows", "backupDir": "` +
		filepath.ToSlash(backup) + `", "workspaceDir": "work", "textureDimension": 2048}`
	require.NoError(t, os.WriteFile(filepath.Join(ConfigDir, "config.json"), []byte(cfg), 0o600))
	InitViper()

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, filepath.Clean(backup), filepath.Clean(s.BackupDir))
	assert.Equal(t, filepath.Join(root, "work"), s.WorkspaceDir)
	assert.Equal(t, 2048.0, s.TextureDimension)
	assert.Equal(t, "Windows", s.Platform.Name)
}

func TestLoadInvalid(t *testing.T) {
	setupConfigDir(t)

	t.Run("Platform", func(t *testing.T) {
		t.Setenv("ASSETPATCH_PLATFORM", "plan9")
		InitViper()
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("Dimension", func(t *testing.T) {
		t.Setenv("ASSETPATCH_PLATFORM", "linux")
		t.Setenv("ASSETPATCH_TEXTUREDIMENSION", "-1")
		InitViper()
		_, err := Load()
		assert.Error(t, err)
	})
}
