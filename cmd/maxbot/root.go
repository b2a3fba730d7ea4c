package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/m3rciful/maxbot/bots/command"
	"github.com/m3rciful/maxbot/bots/dialog"
	"github.com/m3rciful/maxbot/bots/echo"
	"github.com/m3rciful/maxbot/bots/media"
	"github.com/m3rciful/maxbot/core/bootstrap"
	corecmd "github.com/m3rciful/maxbot/core/cmd"
)

const defaultConfigPath = "config.yaml"

var configPath string

// modules lists the bots the run command can start.
var modules = bootstrap.Modules{
	"echo":    echo.Setup,
	"command": command.Setup,
	"media":   media.Setup,
	"dialog":  dialog.Setup,
}

var rootCmd = &cobra.Command{
	Use:   "maxbot",
	Short: "maxbot runs example chat bots on the MAX messenger Bot API",
	Long: `maxbot hosts the example bots built on the MAX Bot API client:
an echo bot, a command menu bot, a media inspector and a registration dialog.
Updates are received by long polling or through a webhook, depending on the
bot.run_mode setting.`,
	SilenceUsage: true,
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolvedConfigPath applies the CONFIG_PATH fallback to the --config flag.
func resolvedConfigPath() string {
	return corecmd.ResolveConfigPath(configPath, corecmd.DefaultConfigEnvVar, defaultConfigPath)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"path to the config file (default $CONFIG_PATH or "+defaultConfigPath+")")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(meCmd)
	rootCmd.AddCommand(versionCmd)
}
