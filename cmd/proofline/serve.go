package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/iw2rmb/proofline/bridge"
	"github.com/iw2rmb/proofline/messaging"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the coordination bridge for page-side integrations",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default from config)")
	serveCmd.Flags().Int("mailbox", 0, "queued pushes kept per tab before the oldest is dropped")
}

func runServe(cmd *cobra.Command, _ []string) error {
	addr, err := cmd.Flags().GetString("addr")
	if err != nil {
		return fmt.Errorf("failed to get addr flag: %w", err)
	}
	mailbox, err := cmd.Flags().GetInt("mailbox")
	if err != nil {
		return fmt.Errorf("failed to get mailbox flag: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cmd, appOptions{LogOutput: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}
	defer a.Close()

	if addr == "" {
		addr = a.cfg.Bridge.Addr
	}
	srv := bridge.New(bridge.Options{
		Orchestrator: a.orch,
		Mailboxes:    messaging.NewMailboxes(mailbox),
		Prefs:        a.store,
		CORSOrigin:   a.cfg.Bridge.CORSOrigin,
		Logger:       a.log,
	})
	return srv.ListenAndServe(ctx, addr)
}
