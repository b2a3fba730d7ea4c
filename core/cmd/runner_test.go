package cmd

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/maxbot/core/bootstrap"
	"github.com/m3rciful/maxbot/core/bot"
	"github.com/m3rciful/maxbot/core/bot/bottest"
	coreconfig "github.com/m3rciful/maxbot/core/config"
)

func testOptions(t *testing.T, captured *bot.RunOptions) Options {
	t.Helper()
	return Options{
		ConfigPath: "test.yaml",
		Bot:        "echo",
		Modules: bootstrap.Modules{
			"echo": func(b *bot.Bot) bot.HandlerFunc {
				return func(c *bot.Context) error { return c.Send("hi") }
			},
		},
		LoadConfig: func(path string) (*coreconfig.Config, error) {
			assert.Equal(t, "test.yaml", path)
			return &coreconfig.Config{}, nil
		},
		Bootstrap: func(_ context.Context, opts bootstrap.Options) (*bootstrap.Result, error) {
			require.NotNil(t, opts.Config)
			return &bootstrap.Result{Bot: bot.New(&bottest.API{})}, nil
		},
		ShutdownLogger: func() error { return nil },
		RunBot: func(_ context.Context, opts bot.RunOptions) error {
			*captured = opts
			return nil
		},
	}
}

func TestRunContextWiresModule(t *testing.T) {
	var got bot.RunOptions
	require.NoError(t, RunContext(context.Background(), testOptions(t, &got)))

	require.NotNil(t, got.Handler)
	require.NotNil(t, got.Bot)
	assert.True(t, got.PublishCommands)
	assert.NotEmpty(t, got.Middlewares)
	assert.NotNil(t, got.OnStart)
	assert.NotNil(t, got.OnStop)
}

func TestRunContextUnknownBot(t *testing.T) {
	var got bot.RunOptions
	opts := testOptions(t, &got)
	opts.Bot = "nope"
	err := RunContext(context.Background(), opts)
	assert.ErrorContains(t, err, `unknown bot "nope"`)
}

func TestRunContextConfigError(t *testing.T) {
	var got bot.RunOptions
	opts := testOptions(t, &got)
	opts.LoadConfig = func(string) (*coreconfig.Config, error) { return nil, errors.New("boom") }
	err := RunContext(context.Background(), opts)
	assert.ErrorContains(t, err, "failed to load config: boom")
}

func TestResolveConfigPath(t *testing.T) {
	t.Setenv("MAXBOT_CFG", "/env.yaml")
	assert.Equal(t, "/flag.yaml", ResolveConfigPath("/flag.yaml", "MAXBOT_CFG", "def.yaml"))
	assert.Equal(t, "/env.yaml", ResolveConfigPath("", "MAXBOT_CFG", "def.yaml"))
	t.Setenv("MAXBOT_CFG", "")
	assert.Equal(t, "def.yaml", ResolveConfigPath("", "MAXBOT_CFG", "def.yaml"))
}
