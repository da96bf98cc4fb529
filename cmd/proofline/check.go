package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/iw2rmb/proofline/apply"
	"github.com/iw2rmb/proofline/issue"
	"github.com/iw2rmb/proofline/textsource"
)

var checkCmd = &cobra.Command{
	Use:   "check [file|-]",
	Short: "Check a file once and report issues",
	Long: `Check runs every checker over the file (or standard input) and prints
the merged issues. With --fix the first suggestion of each issue is applied.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().Bool("json", false, "print issues as JSON")
	checkCmd.Flags().Bool("fix", false, "apply the first suggestion of every issue")
	checkCmd.Flags().Bool("write", false, "with --fix, write the result back to the file instead of stdout")
	checkCmd.Flags().StringSlice("skip", nil, "kinds to leave out (grammar|tone|terminology)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	jsonOut, err := cmd.Flags().GetBool("json")
	if err != nil {
		return fmt.Errorf("failed to get json flag: %w", err)
	}
	fix, err := cmd.Flags().GetBool("fix")
	if err != nil {
		return fmt.Errorf("failed to get fix flag: %w", err)
	}
	write, err := cmd.Flags().GetBool("write")
	if err != nil {
		return fmt.Errorf("failed to get write flag: %w", err)
	}
	skip, err := cmd.Flags().GetStringSlice("skip")
	if err != nil {
		return fmt.Errorf("failed to get skip flag: %w", err)
	}

	name, text, err := readInput(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}
	if write && (!fix || name == stdinName) {
		return fmt.Errorf("--write needs --fix and a file argument")
	}
	if _, err := useColor(cmd, os.Stdout); err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, cmd, appOptions{LogOutput: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}
	defer a.Close()

	// A one-shot check ignores the persisted on/off switch.
	a.orch.SetEnabled(true)
	for _, k := range skip {
		a.orch.Session().SetKind(issue.Kind(k), false)
	}

	field := textsource.NewPlainField("check", text, textsource.AsTextarea())
	issues, err := a.orch.AnalyzeNow(ctx, field)
	if err != nil {
		return fmt.Errorf("check %s: %w", name, err)
	}

	out := cmd.OutOrStdout()
	var fixed *fixResult
	if fix {
		res, err := fixAll(ctx, apply.New(a.log), field, issues)
		if err != nil {
			return err
		}
		fixed = &res
		a.log.Info("applied suggestions", "applied", res.Applied, "failed", res.Failed)
	}

	switch {
	case jsonOut:
		if err := writeJSON(out, name, text, issues, fixed); err != nil {
			return err
		}
	case fixed != nil && write:
		if err := os.WriteFile(name, []byte(fixed.Text), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		writeReport(cmd.ErrOrStderr(), name, text, issues)
	case fixed != nil:
		if _, err := io.WriteString(out, fixed.Text); err != nil {
			return err
		}
		writeReport(cmd.ErrOrStderr(), name, text, issues)
	default:
		writeReport(out, name, text, issues)
	}

	if len(issues) > 0 && !fix {
		return errIssuesFound
	}
	return nil
}

const stdinName = "<stdin>"

func readInput(stdin io.Reader, args []string) (name, text string, err error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", "", fmt.Errorf("read stdin: %w", err)
		}
		return stdinName, string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", "", fmt.Errorf("read %s: %w", args[0], err)
	}
	return args[0], string(data), nil
}
