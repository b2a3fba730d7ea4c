package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/m3rciful/maxbot/core/buildinfo"
)

var versionJSON bool

// VersionOutput represents the version output structure
type VersionOutput struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date,omitempty"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  "Display version number, commit and build date",
	Run: func(cmd *cobra.Command, args []string) {
		version := VersionOutput{
			Version: buildinfo.Version,
			Commit:  buildinfo.Commit,
			Date:    buildinfo.Date,
		}
		w := cmd.OutOrStdout()

		if versionJSON {
			output, err := json.MarshalIndent(version, "", "  ")
			if err != nil {
				fmt.Fprintf(w, "{\"error\": \"failed to marshal json: %v\"}\n", err)
				return
			}
			fmt.Fprintln(w, string(output))
			return
		}
		fmt.Fprintln(w, "maxbot version information:")
		fmt.Fprintf(w, "  Version: %s\n", version.Version)
		fmt.Fprintf(w, "  Commit:  %s\n", version.Commit)
		if version.Date != "" {
			fmt.Fprintf(w, "  Date:    %s\n", version.Date)
		}
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "Output in JSON format")
}
