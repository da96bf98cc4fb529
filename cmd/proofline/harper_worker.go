package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/iw2rmb/proofline/checker/harper"
)

var harperWorkerCmd = &cobra.Command{
	Use:    "harper-worker",
	Short:  "Serve tone and terminology lint requests on stdin and stdout",
	Hidden: true,
	Args:   cobra.NoArgs,
	RunE:   runHarperWorker,
}

func init() {
	harperWorkerCmd.Flags().Int("concurrency", 4, "lint requests processed at once")
}

func runHarperWorker(cmd *cobra.Command, _ []string) error {
	concurrency, err := cmd.Flags().GetInt("concurrency")
	if err != nil {
		return fmt.Errorf("failed to get concurrency flag: %w", err)
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// Stdout carries frames; logs may only go to stderr or the log file.
	log, closer, err := cfg.Log.NewLogger(os.Stderr)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Debug("harper worker ready", "pid", os.Getpid())
	return harper.Serve(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), harper.NewRuleLinter(), harper.ServeOptions{
		Concurrency: concurrency,
		Logger:      log,
	})
}
