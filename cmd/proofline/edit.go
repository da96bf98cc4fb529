package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/iw2rmb/proofline/apply"
	"github.com/iw2rmb/proofline/editor"
	"github.com/iw2rmb/proofline/tui"
)

var editCmd = &cobra.Command{
	Use:   "edit [file]",
	Short: "Edit text in the terminal with live suggestions",
	Long: `Edit opens the file in a terminal editor. Issues are underlined as you
type; click one or press ctrl+k to see its suggestions.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEdit,
}

func init() {
	editCmd.Flags().Bool("no-eager", false, "do not check the file until it is edited")
}

func runEdit(cmd *cobra.Command, args []string) error {
	noEager, err := cmd.Flags().GetBool("no-eager")
	if err != nil {
		return fmt.Errorf("failed to get no-eager flag: %w", err)
	}
	if !isTerminal(os.Stdin) || !isTerminal(os.Stdout) {
		return errors.New("edit needs an interactive terminal; use check instead")
	}

	var path, text string
	if len(args) == 1 {
		path = args[0]
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			text = string(data)
		case errors.Is(err, fs.ErrNotExist):
		default:
			return fmt.Errorf("read %s: %w", path, err)
		}
	}

	ctx := cmd.Context()
	// The terminal belongs to the editor; logs go to the configured file only.
	a, err := newApp(ctx, cmd, appOptions{LogOutput: io.Discard})
	if err != nil {
		return err
	}
	defer a.Close()

	opt := tui.Options{
		Orchestrator: a.orch,
		Applier:      apply.New(a.log),
		Learner:      a.learner(),
		Text:         text,
		Name:         "[scratch]",
		Debounce:     a.cfg.Analysis.Debounce.Duration,
		RedrawDelay:  a.cfg.Overlay.RedrawDelay.Duration,
		Eager:        a.cfg.Analysis.Eager && !noEager,
		Logger:       a.log,
	}
	if path != "" {
		opt.Name = filepath.Base(path)
		opt.Save = func(text string) error {
			return os.WriteFile(path, []byte(text), 0o644)
		}
	}
	if editor.SystemClipboardAvailable() {
		opt.Clipboard = editor.SystemClipboard{}
	}

	p := tea.NewProgram(tui.New(opt),
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
