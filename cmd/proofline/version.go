package main

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/iw2rmb/proofline"
)

type versionPayload struct {
	Tool    string `json:"tool"`
	Version string `json:"version"`
	Go      string `json:"go"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the proofline version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		format, err := cmd.Flags().GetString("format")
		if err != nil {
			return fmt.Errorf("failed to get format flag: %w", err)
		}
		p := versionPayload{Tool: "proofline", Version: proofline.VersionTag(), Go: runtime.Version()}
		out := cmd.OutOrStdout()
		switch strings.ToLower(format) {
		case "json":
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(p)
		case "pretty", "":
			if _, err := useColor(cmd, os.Stdout); err != nil {
				return err
			}
			color.New(color.FgCyan, color.Bold).Fprint(out, p.Tool)
			fmt.Fprintf(out, " %s ", p.Version)
			color.New(color.Faint).Fprintf(out, "(%s)\n", p.Go)
			return nil
		default:
			return fmt.Errorf("unknown format %q (expected pretty|json)", format)
		}
	},
}

func init() {
	versionCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}
