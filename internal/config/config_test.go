package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), DirName, FileName)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, cfg.APIKey)
	assert.NotEmpty(t, cfg.SSHDir)

	// First load writes the file so the user has something to edit.
	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestLoadSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)

	cfg, err := Load(path)
	require.NoError(t, err)

	cfg.APIKey = "secret_key_abcdef1234567890"
	cfg.DefaultFilesystem = "shared-fs"
	require.NoError(t, cfg.Save())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "secret_key_abcdef1234567890", loaded.APIKey)
	assert.Equal(t, "shared-fs", loaded.DefaultFilesystem)
}

func TestSavePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file modes are not meaningful on windows")
	}
	path := filepath.Join(t.TempDir(), FileName)

	cfg, err := Load(path)
	require.NoError(t, err)
	cfg.APIKey = "secret"
	require.NoError(t, cfg.Save())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestValidate(t *testing.T) {
	cfg := &Config{SSHDir: "/tmp/.ssh"}
	assert.Empty(t, cfg.Validate())

	cfg.Logging.Level = "verbose"
	errs := cfg.Validate()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "logging.level")

	cfg = &Config{}
	errs = cfg.Validate()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "ssh_dir")
}

func TestSSHPublicKey(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{SSHDir: dir}

	key, err := cfg.SSHPublicKey()
	require.NoError(t, err)
	assert.Empty(t, key)

	// id_rsa.pub wins over id_ed25519.pub because it is scanned first.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "id_ed25519.pub"), []byte("ssh-ed25519 BBB\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "id_rsa.pub"), []byte("ssh-rsa AAA user@host\n"), 0644))

	key, err = cfg.SSHPublicKey()
	require.NoError(t, err)
	assert.Equal(t, "ssh-rsa AAA user@host", key)
}

func TestRedactedAPIKey(t *testing.T) {
	cfg := &Config{APIKey: "short"}
	assert.Equal(t, "short", cfg.RedactedAPIKey())

	cfg.APIKey = "secret_abcdefghijklmnopqrstuvwxyz_99"
	redacted := cfg.RedactedAPIKey()
	assert.Equal(t, "secret_a"+"..."+cfg.APIKey[len(cfg.APIKey)-8:], redacted)
	assert.NotContains(t, redacted, "ghijklmnop")
}
