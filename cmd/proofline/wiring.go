package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/iw2rmb/proofline/checker"
	"github.com/iw2rmb/proofline/checker/harper"
	"github.com/iw2rmb/proofline/checker/languagetool"
	"github.com/iw2rmb/proofline/internal/config"
	"github.com/iw2rmb/proofline/issue"
	"github.com/iw2rmb/proofline/orchestrator"
	"github.com/iw2rmb/proofline/prefs"
)

func defaultConfigHint() string {
	return strings.Replace(config.DefaultPath(), os.Getenv("HOME"), "~", 1)
}

// loadConfig reads the config file and environment, then applies the
// persistent flags that were set on the command line.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	flags := cmd.Root().PersistentFlags()
	path, err := flags.GetString("config")
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to get config flag: %w", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if v, _ := flags.GetString("log-level"); v != "" {
		cfg.Log.Level = v
	}
	if v, _ := flags.GetString("lt-url"); v != "" {
		cfg.LanguageTool.URL = v
	}
	if v, _ := flags.GetString("language"); v != "" {
		cfg.LanguageTool.Language = v
	}
	return cfg, nil
}

// useColor resolves --color against the terminal state of f and configures
// fatih/color accordingly.
func useColor(cmd *cobra.Command, f *os.File) (bool, error) {
	mode, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return false, fmt.Errorf("failed to get color flag: %w", err)
	}
	var on bool
	switch strings.ToLower(mode) {
	case "on":
		on = true
	case "off":
		on = false
	case "auto", "":
		on = isTerminal(f)
	default:
		return false, fmt.Errorf("invalid --color value %q (expected auto|on|off)", mode)
	}
	color.NoColor = !on
	return on, nil
}

// app holds the services shared by the commands.
type app struct {
	cfg   config.Config
	log   *slog.Logger
	store prefs.Store
	prefs prefs.Preferences
	dict  *prefs.Dictionary
	orch  *orchestrator.Orchestrator

	closers []io.Closer
}

type appOptions struct {
	// LogOutput receives log lines when the config names no log file.
	LogOutput io.Writer
	Sink      orchestrator.Sink
}

func newApp(ctx context.Context, cmd *cobra.Command, opt appOptions) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	log, logCloser, err := cfg.Log.NewLogger(opt.LogOutput)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: log, closers: []io.Closer{logCloser}}

	a.store, err = openStore(cfg.Prefs)
	if err != nil {
		a.Close()
		return nil, err
	}
	if c, ok := a.store.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}

	a.prefs, err = a.store.Load(ctx)
	if err != nil {
		log.Warn("using default preferences", "err", err)
		a.prefs = prefs.Default()
	}
	a.dict, err = prefs.LoadDictionary(ctx, a.store)
	if err != nil {
		log.Warn("learned words unavailable", "err", err)
		a.dict = prefs.NewDictionary()
	}

	checkers, err := a.checkers(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.orch = orchestrator.New(orchestrator.Options{
		Checkers: checkers,
		Merger:   &issue.Merger{IDs: issue.RandomIDs()},
		Words:    a.dict,
		Debounce: cfg.Analysis.Debounce.Duration,
		Timeout:  cfg.Analysis.Timeout.Duration,
		MinChars: cfg.Analysis.MinChars,
		Eager:    cfg.Analysis.Eager,
		Sink:     opt.Sink,
		Logger:   log,
	})
	a.applyPrefs()
	return a, nil
}

func openStore(p config.Prefs) (prefs.Store, error) {
	switch p.Backend {
	case "redis":
		s, err := prefs.NewRedisStore(p.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("open prefs: %w", err)
		}
		return s, nil
	default:
		return prefs.NewFileStore(p.Path), nil
	}
}

func (a *app) checkers(ctx context.Context) ([]checker.Checker, error) {
	lt := languagetool.New(languagetool.Options{
		BaseURL:       a.cfg.LanguageTool.URL,
		Language:      a.cfg.LanguageTool.Language,
		DisabledRules: a.cfg.LanguageTool.DisabledRules,
		Level:         a.cfg.LanguageTool.Level,
		HTTPClient:    &http.Client{Timeout: a.cfg.LanguageTool.Timeout.Duration},
		Logger:        a.log,
	})

	hopt := harper.Options{Timeout: a.cfg.Harper.Timeout.Duration, Logger: a.log}
	var broker *harper.Broker
	if len(a.cfg.Harper.Command) > 0 {
		var err error
		broker, err = harper.StartProcess(ctx, a.cfg.Harper.Command, harper.ProcessOptions{Options: hopt})
		if err != nil {
			return nil, err
		}
	} else {
		broker = harper.NewInProcess(harper.NewRuleLinter(), hopt)
	}
	a.closers = append(a.closers, broker)
	return []checker.Checker{lt, broker}, nil
}

func (a *app) applyPrefs() {
	s := a.orch.Session()
	s.SetKind(issue.KindGrammar, a.prefs.CheckGrammar)
	s.SetKind(issue.KindTone, a.prefs.CheckTone)
	s.SetKind(issue.KindTerminology, a.prefs.CheckTerminology)
	a.orch.SetEnabled(a.prefs.Enabled)
}

func (a *app) learner() prefs.Learner {
	return prefs.Learner{Store: a.store, Dict: a.dict}
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.log.Warn("close failed", "err", err)
		}
	}
	a.closers = nil
}
