package main

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-celebrations/internal/config"
	"github.com/zalando/go-keyring"
)

func TestStoreSecretFromStdin(t *testing.T) {
	keyring.MockInit()

	require.NoError(t, storeSecretFromStdin(strings.NewReader("hunter2\nignored\n"), "alice"))
	assert.Equal(t, "hunter2", config.LookupSecret("alice"))

	require.NoError(t, storeSecretFromStdin(strings.NewReader("token-without-newline"), "bob"))
	assert.Equal(t, "token-without-newline", config.LookupSecret("bob"))
}

func TestStoreSecretFromStdin_Rejects(t *testing.T) {
	keyring.MockInit()

	assert.Error(t, storeSecretFromStdin(strings.NewReader("\n"), "alice"), "empty secret")
	assert.Error(t, storeSecretFromStdin(strings.NewReader("hunter2\n"), ""), "missing user")
}

func TestLoadSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.SettingsFileName)

	s, resolved, err := loadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultPort, s.Port)
	assert.Equal(t, path, resolved)
	assert.FileExists(t, path)

	s.Port = "99999"
	require.NoError(t, config.SaveSettings(path, s))
	_, _, err = loadSettings(path)
	assert.Error(t, err)
}
