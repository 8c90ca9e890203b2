package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"roaster/pkg/config"
	"roaster/pkg/i18n"
	"roaster/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

const validAddr = "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"

func testApp() *cli.App {
	a := newApp()
	a.ExitErrHandler = func(*cli.Context, error) {}
	return a
}

func baseArgs(t *testing.T) (string, []string) {
	t.Helper()
	t.Setenv(config.APIKeyEnv, "")
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "roaster.json")
	return cfgPath, []string{"roaster", "--config", cfgPath, "--env-file", filepath.Join(dir, "missing.env")}
}

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	orig := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	done := make(chan string)
	go func() {
		out, _ := io.ReadAll(r)
		done <- string(out)
	}()
	fn()
	_ = w.Close()
	return <-done
}

func TestRoastCommand_JSON(t *testing.T) {
	_, args := baseArgs(t)

	var runErr error
	out := captureStdout(t, func() {
		runErr = testApp().Run(append(args, "roast", "--json", validAddr))
	})
	require.NoError(t, runErr)

	var result struct {
		Snapshot models.PortfolioSnapshot `json:"snapshot"`
		Roast    models.RoastResult       `json:"roast"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, validAddr, result.Snapshot.Address)
	assert.True(t, result.Snapshot.Demo)
	assert.Equal(t, models.SourceMock, result.Roast.Source)
	assert.NotEmpty(t, result.Roast.Text)
}

func TestRoastCommand_InvalidAddress(t *testing.T) {
	_, args := baseArgs(t)

	err := testApp().Run(append(args, "--lang", "fr", "roast", "short"))
	require.Error(t, err)
	exit, ok := err.(cli.ExitCoder)
	require.True(t, ok)
	assert.Equal(t, 1, exit.ExitCode())
	assert.Equal(t, i18n.T(i18n.French, i18n.InvalidAddress), err.Error())
}

func TestRoastCommand_MissingArgument(t *testing.T) {
	_, args := baseArgs(t)

	err := testApp().Run(append(args, "roast"))
	require.Error(t, err)
	exit, ok := err.(cli.ExitCoder)
	require.True(t, ok)
	assert.Equal(t, 2, exit.ExitCode())
}

func TestCheckCommand(t *testing.T) {
	cfgPath, args := baseArgs(t)

	var runErr error
	out := captureStdout(t, func() {
		runErr = testApp().Run(append(args, "check", "--json", "--dry-run"))
	})
	require.NoError(t, runErr)

	var report models.CheckReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.True(t, report.ValidStructure)
	assert.True(t, report.DryRun)
	assert.True(t, report.ConfigUpdated)
	for _, ep := range report.Endpoints {
		assert.Equal(t, "skipped", ep.Status, ep.Name)
	}
	assert.NoFileExists(t, cfgPath)

	captureStdout(t, func() {
		runErr = testApp().Run(append(args, "check"))
	})
	require.NoError(t, runErr)
	assert.FileExists(t, cfgPath)

	saved, err := config.LoadConfigFromFile(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, config.Default().Donation.Recipient, saved.Donation.Recipient)
}

func TestInvalidConfigRefused(t *testing.T) {
	cfgPath, args := baseArgs(t)
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{"donation":{"amounts":["0","-1"]}}`), 0o600))

	err := testApp().Run(append(args, "roast", validAddr))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be positive")

	// check still reports the problems instead of refusing to run
	var runErr error
	out := captureStdout(t, func() {
		runErr = testApp().Run(append(args, "check", "--json", "--dry-run"))
	})
	require.Error(t, runErr)
	var report models.CheckReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.False(t, report.ValidStructure)
	assert.NotEmpty(t, report.StructureErrors)
}

func TestRestoreConfig_NoBackup(t *testing.T) {
	_, args := baseArgs(t)

	err := testApp().Run(append(args, "restore-config"))
	assert.Error(t, err)
}
