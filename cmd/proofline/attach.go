package main

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/iw2rmb/proofline/apply"
	"github.com/iw2rmb/proofline/issue"
	"github.com/iw2rmb/proofline/orchestrator"
	"github.com/iw2rmb/proofline/textsource"
	"github.com/iw2rmb/proofline/textsource/cdp"
)

var attachCmd = &cobra.Command{
	Use:   "attach",
	Short: "Check a rich text editor on a web page",
	Long: `Attach opens the page in Chrome, waits for the editor element and
checks its text. With --watch it keeps checking as the text changes.`,
	Args: cobra.NoArgs,
	RunE: runAttach,
}

func init() {
	attachCmd.Flags().String("url", "", "page to open")
	attachCmd.Flags().String("selector", "", "CSS selector of the editor element")
	attachCmd.Flags().Bool("fix", false, "apply the first suggestion of every issue in the page")
	attachCmd.Flags().Bool("watch", false, "keep checking until interrupted")
	attachCmd.Flags().Duration("poll", time.Second, "how often --watch reads the editor text")
	attachCmd.Flags().Bool("headless", true, "run Chrome without a window")
	attachCmd.Flags().Bool("no-sandbox", false, "disable the Chrome sandbox")
	_ = attachCmd.MarkFlagRequired("url")
	_ = attachCmd.MarkFlagRequired("selector")
}

func runAttach(cmd *cobra.Command, _ []string) error {
	url, err := cmd.Flags().GetString("url")
	if err != nil {
		return fmt.Errorf("failed to get url flag: %w", err)
	}
	selector, err := cmd.Flags().GetString("selector")
	if err != nil {
		return fmt.Errorf("failed to get selector flag: %w", err)
	}
	fix, err := cmd.Flags().GetBool("fix")
	if err != nil {
		return fmt.Errorf("failed to get fix flag: %w", err)
	}
	watch, err := cmd.Flags().GetBool("watch")
	if err != nil {
		return fmt.Errorf("failed to get watch flag: %w", err)
	}
	poll, err := cmd.Flags().GetDuration("poll")
	if err != nil {
		return fmt.Errorf("failed to get poll flag: %w", err)
	}
	headless, err := cmd.Flags().GetBool("headless")
	if err != nil {
		return fmt.Errorf("failed to get headless flag: %w", err)
	}
	noSandbox, err := cmd.Flags().GetBool("no-sandbox")
	if err != nil {
		return fmt.Errorf("failed to get no-sandbox flag: %w", err)
	}
	if _, err := useColor(cmd, os.Stdout); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	var (
		mu   sync.Mutex
		last string
	)
	// Watch passes are reported from the orchestrator's goroutines.
	sink := orchestrator.SinkFunc(func(_ orchestrator.ActiveTarget, issues []issue.Issue) {
		mu.Lock()
		defer mu.Unlock()
		writeReport(out, selector, last, issues)
	})

	a, err := newApp(ctx, cmd, appOptions{LogOutput: cmd.ErrOrStderr(), Sink: sink})
	if err != nil {
		return err
	}
	defer a.Close()
	a.orch.SetEnabled(true)

	ev, closeBrowser, err := cdp.Open(ctx, url, cdp.Options{Headless: headless, NoSandbox: noSandbox})
	if err != nil {
		return err
	}
	defer closeBrowser()

	rich := textsource.NewRichEditor("attach", selector, ev, textsource.DefaultRetryPolicy(), a.log)
	src, err := rich.Ready(ctx)
	if err != nil {
		return err
	}

	snapshotText := func() {
		text, err := src.Text(ctx)
		if err != nil {
			a.log.Warn("read editor text", "err", err)
			return
		}
		mu.Lock()
		last = text
		mu.Unlock()
	}
	snapshotText()
	issues, err := a.orch.AnalyzeNow(ctx, src)
	if err != nil {
		return fmt.Errorf("check %s: %w", selector, err)
	}

	if fix {
		res, err := fixAll(ctx, apply.New(a.log), src, issues)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "applied %d of %d suggestions\n", res.Applied, len(issues))
	}
	if !watch {
		return nil
	}

	rich.Subscribe(func(in textsource.InputEvent) {
		if in.Synthetic {
			return
		}
		snapshotText()
		a.orch.Input(src)
	})
	rich.Watch(ctx, poll)
	return nil
}
