package main

import (
	"strings"

	"github.com/spf13/cobra"

	corecmd "github.com/m3rciful/maxbot/core/cmd"
)

var runCmd = &cobra.Command{
	Use:       "run <" + strings.Join(modules.Names(), "|") + ">",
	Short:     "Run one of the example bots",
	Long:      "Load the configuration, connect the session store and run the selected bot until interrupted.",
	Args:      cobra.ExactArgs(1),
	ValidArgs: modules.Names(),
	RunE: func(cmd *cobra.Command, args []string) error {
		return corecmd.Run(corecmd.Options{
			ConfigPath: resolvedConfigPath(),
			Bot:        args[0],
			Modules:    modules,
		})
	},
}
