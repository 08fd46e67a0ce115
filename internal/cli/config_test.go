package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/skillmint/internal/config"
	"github.com/mrz1836/skillmint/internal/output"
	storeerr "github.com/mrz1836/skillmint/pkg/errors"
)

func TestRunConfigInit(t *testing.T) {
	setupTestEnv(t, output.FormatText)
	origForce := configForce
	t.Cleanup(func() { configForce = origForce })
	configForce = false

	var stdout, stderr bytes.Buffer
	require.NoError(t, runConfigInit(newTestCmd(&stdout, &stderr), nil))
	assert.Contains(t, stdout.String(), "Configuration initialized at")

	loaded, err := config.Load(config.Path(cfg.Home))
	require.NoError(t, err)
	assert.Equal(t, cfg.Home, loaded.Home)
	assert.Len(t, loaded.Catalog.Items, config.DefaultCourseCount)

	err = runConfigInit(newTestCmd(&stdout, &stderr), nil)
	require.ErrorIs(t, err, storeerr.ErrInvalidInput)

	configForce = true
	require.NoError(t, runConfigInit(newTestCmd(&stdout, &stderr), nil))
}

func TestRunConfigShow_JSON(t *testing.T) {
	buf := setupTestEnv(t, output.FormatJSON)
	cfg.Wallet.Passphrase = "hunter22"

	var stdout, stderr bytes.Buffer
	require.NoError(t, runConfigShow(newTestCmd(&stdout, &stderr), nil))

	var tree map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &tree))
	network, ok := tree["network"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, cfg.Network.RPC, network["rpc"])
	assert.NotContains(t, buf.String(), "hunter22")
}

func TestRunConfigShow_Text(t *testing.T) {
	setupTestEnv(t, output.FormatText)

	var stdout, stderr bytes.Buffer
	require.NoError(t, runConfigShow(newTestCmd(&stdout, &stderr), nil))
	assert.Contains(t, stdout.String(), "contract:")
	assert.Contains(t, stdout.String(), config.DefaultContractAddress)
}

func TestInitGlobals_InvalidConfigFile(t *testing.T) {
	setupTestEnv(t, output.FormatText)
	origHome := homeDir
	t.Cleanup(func() { homeDir = origHome })

	homeDir = t.TempDir()
	require.NoError(t, os.WriteFile(config.Path(homeDir), []byte("network: [unclosed"), 0o600))

	err := initGlobals()
	require.ErrorIs(t, err, storeerr.ErrConfigInvalid)
}

func TestInitGlobals_MissingConfigUsesDefaults(t *testing.T) {
	setupTestEnv(t, output.FormatText)
	origHome, origYes := homeDir, assumeYes
	t.Cleanup(func() { homeDir, assumeYes = origHome, origYes; cleanup() })

	homeDir = t.TempDir()
	assumeYes = true
	t.Setenv(config.EnvLogLevel, "off")

	require.NoError(t, initGlobals())
	assert.Equal(t, homeDir, cfg.Home)
	assert.True(t, cfg.Wallet.AutoApprove)
}

func TestExitCode(t *testing.T) {
	t.Parallel()
	assert.Equal(t, storeerr.ExitCode(storeerr.ErrUserRejected), ExitCode(storeerr.ErrUserRejected))
	assert.Equal(t, 0, ExitCode(nil))
}
