package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/iw2rmb/proofline"
)

var rootCmd = &cobra.Command{
	Use:           "proofline",
	Short:         "Grammar, tone and terminology suggestions for text you write",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// errIssuesFound makes check exit with status 1 without printing an error.
var errIssuesFound = errors.New("issues found")

func init() {
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(attachCmd)
	rootCmd.AddCommand(harperWorkerCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("config", "", "config file (default "+defaultConfigHint()+")")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().String("lt-url", "", "LanguageTool server URL")
	rootCmd.PersistentFlags().String("language", "", "language code sent to LanguageTool")
}

func main() {
	rootCmd.Version = proofline.Version()
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errIssuesFound) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
