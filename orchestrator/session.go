package orchestrator

import (
	"sync"

	"github.com/iw2rmb/proofline/issue"
	"github.com/iw2rmb/proofline/textsource"
)

// ActiveTarget is the focused source together with the snapshot its issue
// list was computed against.
type ActiveTarget struct {
	Source   textsource.Source
	Snapshot textsource.Snapshot
}

// ID is the source id, or "" when nothing is focused.
func (t ActiveTarget) ID() string {
	if t.Source == nil {
		return ""
	}
	return t.Source.ID()
}

// Session holds the orchestrator's mutable state: one active target and the
// single authoritative issue list for it.
type Session struct {
	mu       sync.Mutex
	target   textsource.Source
	version  uint64
	snapshot textsource.Snapshot
	issues   issue.List
	enabled  bool
	checkers map[string]bool
	kinds    map[issue.Kind]bool
}

func NewSession() *Session {
	return &Session{
		enabled:  true,
		checkers: make(map[string]bool),
		kinds:    make(map[issue.Kind]bool),
	}
}

// Target returns the active target.
func (s *Session) Target() ActiveTarget {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ActiveTarget{Source: s.target, Snapshot: s.snapshot}
}

// Version is the version of the most recently requested pass.
func (s *Session) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Issues returns a copy of the current list.
func (s *Session) Issues() issue.List {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append(issue.List{}, s.issues...)
}

func (s *Session) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// SetEnabled switches analysis on or off. Disabling clears the list and
// invalidates in-flight passes.
func (s *Session) SetEnabled(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = on
	if !on {
		s.version++
		s.issues = nil
	}
}

// SetChecker toggles the checker with the given name. Checkers are on
// unless switched off.
func (s *Session) SetChecker(name string, on bool) {
	s.mu.Lock()
	s.checkers[name] = on
	s.mu.Unlock()
}

func (s *Session) CheckerEnabled(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	on, ok := s.checkers[name]
	return !ok || on
}

// SetKind toggles reporting of one issue kind.
func (s *Session) SetKind(k issue.Kind, on bool) {
	s.mu.Lock()
	s.kinds[k] = on
	s.mu.Unlock()
}

func (s *Session) KindEnabled(k issue.Kind) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	on, ok := s.kinds[k]
	return !ok || on
}

// Focus makes src the active target. A new target starts with an empty
// list and invalidates passes for the previous one. It reports whether the
// target changed.
func (s *Session) Focus(src textsource.Source) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.target != nil && src != nil && s.target.ID() == src.ID() {
		return false
	}
	s.target = src
	s.version++
	s.snapshot = textsource.Snapshot{}
	s.issues = nil
	return true
}

// Begin focuses src and returns the version tag for a new pass.
func (s *Session) Begin(src textsource.Source) uint64 {
	s.Focus(src)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.version++
	return s.version
}

// Commit replaces the list with issues when snap is still the latest
// requested pass for the active target. It reports whether it did.
func (s *Session) Commit(snap textsource.Snapshot, issues []issue.Issue) (ActiveTarget, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enabled || s.target == nil || s.target.ID() != snap.SourceID || s.version != snap.Version {
		return ActiveTarget{}, false
	}
	s.snapshot = snap
	s.issues = append(issue.List{}, issues...)
	return ActiveTarget{Source: s.target, Snapshot: snap}, true
}

// Remove drops exactly one issue. It reports whether the id was present.
func (s *Session) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, _, ok := s.issues.Find(id); !ok {
		return false
	}
	s.issues = s.issues.Without(id)
	return true
}

// Clear empties the list without changing the target.
func (s *Session) Clear() {
	s.mu.Lock()
	s.version++
	s.issues = nil
	s.mu.Unlock()
}
