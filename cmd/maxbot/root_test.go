package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_Properties(t *testing.T) {
	assert.Equal(t, "maxbot", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		names[cmd.Name()] = true
	}
	for _, expected := range []string{"run", "me", "version"} {
		assert.True(t, names[expected], "missing subcommand: %s", expected)
	}
}

func TestRunCommand_ListsBots(t *testing.T) {
	assert.Equal(t, []string{"command", "dialog", "echo", "media"}, runCmd.ValidArgs)
	assert.Contains(t, runCmd.Use, "command|dialog|echo|media")
	for _, name := range runCmd.ValidArgs {
		_, err := modules.Lookup(name)
		assert.NoError(t, err)
	}
	_, err := modules.Lookup("weather")
	assert.ErrorContains(t, err, "available: command, dialog, echo, media")
}

func TestRunCommand_RequiresBotName(t *testing.T) {
	assert.Error(t, runCmd.Args(runCmd, nil))
	assert.Error(t, runCmd.Args(runCmd, []string{"echo", "media"}))
	assert.NoError(t, runCmd.Args(runCmd, []string{"echo"}))
}

func TestVersionCommand_JSON(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	defer versionCmd.SetOut(nil)
	versionJSON = true
	defer func() { versionJSON = false }()

	versionCmd.Run(versionCmd, nil)

	var v VersionOutput
	require.NoError(t, json.Unmarshal(out.Bytes(), &v))
	assert.Equal(t, "dev", v.Version)
}

func TestResolvedConfigPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", "/etc/maxbot.yaml")
	configPath = ""
	assert.Equal(t, "/etc/maxbot.yaml", resolvedConfigPath())

	configPath = "local.yaml"
	defer func() { configPath = "" }()
	assert.Equal(t, "local.yaml", resolvedConfigPath())

	t.Setenv("CONFIG_PATH", "")
	configPath = ""
	assert.Equal(t, defaultConfigPath, resolvedConfigPath())
}
