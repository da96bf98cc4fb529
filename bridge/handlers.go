package bridge

import (
	"context"
	"fmt"

	"github.com/iw2rmb/proofline/issue"
	"github.com/iw2rmb/proofline/messaging"
)

func (s *Server) routes() {
	s.router.Handle(messaging.KindPing, s.ping)
	s.router.Handle(messaging.KindUserText, s.userText)
	s.router.Handle(messaging.KindFullDocument, s.fullDocument)
	s.router.Handle(messaging.KindGetLastResults, s.lastResults)
	s.router.Handle(messaging.KindRequestRefresh, s.refresh)
	s.router.Handle(messaging.KindGetSuggestions, s.suggestions)
	s.router.Handle(messaging.KindApplySuggestion, s.applySuggestion)
	s.router.Handle(messaging.KindToggle, s.toggle)
}

func (s *Server) ping(context.Context, messaging.Envelope) (any, error) {
	return messaging.Status{Status: "active"}, nil
}

func (s *Server) userText(ctx context.Context, env messaging.Envelope) (any, error) {
	p, err := messaging.Decode[messaging.UserText](env)
	if err != nil {
		return nil, err
	}
	return s.analyze(ctx, env.TabID, p.SourceID, p.Text), nil
}

func (s *Server) fullDocument(ctx context.Context, env messaging.Envelope) (any, error) {
	p, err := messaging.Decode[messaging.FullDocument](env)
	if err != nil {
		return nil, err
	}
	if !s.orch.Session().Enabled() {
		return messaging.CombinedResults{Issues: []issue.Issue{}}, nil
	}
	version := s.begin(env.TabID)
	doc, issues, err := s.orch.FullDocument(ctx, p.Blocks)
	if err != nil {
		return nil, err
	}
	res := messaging.CombinedResults{Text: doc, Issues: issues}
	s.publish(ctx, env.TabID, version, res)
	return res, nil
}

// analyze runs one pass, stores it as the tab's last result and pushes it.
// A pass overtaken by a newer one for the same tab is returned to its caller
// only.
func (s *Server) analyze(ctx context.Context, tab, sourceID, text string) messaging.CombinedResults {
	version := s.begin(tab)
	res := messaging.CombinedResults{SourceID: sourceID, Text: text, Issues: []issue.Issue{}}
	if s.orch.Session().Enabled() {
		res.Issues = s.orch.Analyze(ctx, text)
	}
	s.publish(ctx, tab, version, res)
	return res
}

// begin starts a pass for tab and returns its version. Versions come from
// one counter, so a tab forgotten and reopened never reuses one.
func (s *Server) begin(tab string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.versions[tab] = s.seq
	return s.seq
}

// publish stores and pushes res when version is still the tab's newest pass.
func (s *Server) publish(ctx context.Context, tab string, version uint64, res messaging.CombinedResults) {
	if tab == "" {
		return
	}
	s.mu.Lock()
	if s.versions[tab] != version {
		s.mu.Unlock()
		s.log.Debug("discarding stale results", "tab", tab, "version", version)
		return
	}
	s.last[tab] = res
	s.mu.Unlock()

	env, err := messaging.NewEnvelope(messaging.KindCombinedResults, tab, res)
	if err != nil {
		s.log.Warn("encode results", "err", err)
		return
	}
	messaging.Push(ctx, s.mail, s.log, tab, env)
}

func (s *Server) lastFor(tab string) (messaging.CombinedResults, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res, ok := s.last[tab]
	return res, ok
}

func (s *Server) lastResults(_ context.Context, env messaging.Envelope) (any, error) {
	res, ok := s.lastFor(env.TabID)
	if !ok {
		return messaging.CombinedResults{Issues: []issue.Issue{}}, nil
	}
	return res, nil
}

// refresh re-analyzes the tab's last text.
func (s *Server) refresh(ctx context.Context, env messaging.Envelope) (any, error) {
	res, ok := s.lastFor(env.TabID)
	if !ok {
		return messaging.CombinedResults{Issues: []issue.Issue{}}, nil
	}
	return s.analyze(ctx, env.TabID, res.SourceID, res.Text), nil
}

func (s *Server) suggestions(_ context.Context, env messaging.Envelope) (any, error) {
	p, err := messaging.Decode[messaging.GetSuggestions](env)
	if err != nil {
		return nil, err
	}
	res, _ := s.lastFor(env.TabID)
	is, _, ok := issue.List(res.Issues).Find(p.IssueID)
	if !ok {
		return messaging.Suggestions{Suggestions: []string{}}, nil
	}
	return messaging.Suggestions{Suggestions: is.Replacements}, nil
}

// applySuggestion forwards the request to the tab and drops the issue from
// the tab's list.
func (s *Server) applySuggestion(ctx context.Context, env messaging.Envelope) (any, error) {
	if env.TabID == "" {
		return nil, messaging.ErrNoTab
	}
	p, err := messaging.Decode[messaging.ApplySuggestion](env)
	if err != nil {
		return nil, err
	}
	if p.IssueID == "" {
		return nil, fmt.Errorf("%s: missing issueId", env.Type)
	}
	messaging.Push(ctx, s.mail, s.log, env.TabID, env)

	s.mu.Lock()
	if res, ok := s.last[env.TabID]; ok {
		res.Issues = issue.List(res.Issues).Without(p.IssueID)
		s.last[env.TabID] = res
	}
	s.mu.Unlock()
	return nil, nil
}

func (s *Server) toggle(ctx context.Context, env messaging.Envelope) (any, error) {
	p, err := messaging.Decode[messaging.Toggle](env)
	if err != nil {
		return nil, err
	}
	on := !s.orch.Session().Enabled()
	if p.Enabled != nil {
		on = *p.Enabled
	}
	s.orch.SetEnabled(on)
	if !on {
		s.mu.Lock()
		clear(s.last)
		clear(s.versions)
		s.mu.Unlock()
	}
	if s.prefs != nil {
		cur, err := s.prefs.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("load prefs: %w", err)
		}
		cur.Enabled = on
		if err := s.prefs.Save(ctx, cur); err != nil {
			return nil, fmt.Errorf("save prefs: %w", err)
		}
	}
	s.log.Info("extension toggled", "enabled", on)
	return messaging.ToggleResult{Enabled: on}, nil
}
