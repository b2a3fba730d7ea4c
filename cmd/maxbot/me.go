package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/m3rciful/maxbot/core/bootstrap"
	coreconfig "github.com/m3rciful/maxbot/core/config"
)

var meCmd = &cobra.Command{
	Use:   "me",
	Short: "Show the bot account behind the configured token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := coreconfig.Load(resolvedConfigPath())
		if err != nil {
			return err
		}
		client, err := bootstrap.NewClient(cfg)
		if err != nil {
			return err
		}
		me, err := client.GetMe(cmd.Context())
		if err != nil {
			return fmt.Errorf("get me: %w", err)
		}
		out, err := json.MarshalIndent(me, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}
