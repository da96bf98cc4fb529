package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iw2rmb/proofline/checker"
	"github.com/iw2rmb/proofline/checker/harper"
	"github.com/iw2rmb/proofline/issue"
	"github.com/iw2rmb/proofline/messaging"
	"github.com/iw2rmb/proofline/orchestrator"
	"github.com/iw2rmb/proofline/prefs"
)

func newTestServer(t *testing.T, store prefs.Store) (*Server, *messaging.Mailboxes) {
	t.Helper()
	lint := harper.NewRuleLinter()
	c := checker.Func{ID: "harper", Fn: func(ctx context.Context, text string) (checker.Results, error) {
		tone, terminology, err := lint.Lint(ctx, text)
		return checker.Results{Tone: tone, Terminology: terminology}, err
	}}
	orch := orchestrator.New(orchestrator.Options{Checkers: []checker.Checker{c}})
	mail := messaging.NewMailboxes(0)
	return New(Options{Orchestrator: orch, Mailboxes: mail, Prefs: store, CORSOrigin: "chrome-extension://abc"}), mail
}

type decoded struct {
	Success bool            `json:"success"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

func post(t *testing.T, h http.Handler, env messaging.Envelope) decoded {
	t.Helper()
	body, err := json.Marshal(env)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/messages", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	var out decoded
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}

func envelope(t *testing.T, kind messaging.Kind, tab string, payload any) messaging.Envelope {
	t.Helper()
	env, err := messaging.NewEnvelope(kind, tab, payload)
	require.NoError(t, err)
	return env
}

func TestHealthAndCORS(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"ok":true,"enabled":true}`, rr.Body.String())
	assert.Equal(t, "chrome-extension://abc", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))

	rr = httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodOptions, "/api/messages", nil))
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestUnknownTypeIsStructuredFailure(t *testing.T) {
	s, _ := newTestServer(t, nil)
	out := post(t, s.Handler(), messaging.Envelope{Type: "WHATEVER"})
	assert.False(t, out.Success)
	assert.Equal(t, "unknown type", out.Error)
}

func TestBadBody(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/messages", bytes.NewBufferString("{")))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPing(t *testing.T) {
	s, _ := newTestServer(t, nil)
	out := post(t, s.Handler(), messaging.Envelope{Type: messaging.KindPing})
	require.True(t, out.Success)
	assert.JSONEq(t, `{"status":"active"}`, string(out.Data))
}

func TestUserTextAnalyzesStoresAndPushes(t *testing.T) {
	s, mail := newTestServer(t, nil)
	h := s.Handler()
	mail.Open("tab-1")

	out := post(t, h, envelope(t, messaging.KindUserText, "tab-1", messaging.UserText{Text: "I am gonna go"}))
	require.True(t, out.Success)
	var res messaging.CombinedResults
	require.NoError(t, json.Unmarshal(out.Data, &res))
	require.Len(t, res.Issues, 1)
	assert.Equal(t, "gonna", res.Issues[0].SnapshotText)
	assert.Equal(t, 5, res.Issues[0].Offset)

	pushed, ok := mail.Drain("tab-1")
	require.True(t, ok)
	require.Len(t, pushed, 1)
	assert.Equal(t, messaging.KindCombinedResults, pushed[0].Type)

	out = post(t, h, messaging.Envelope{Type: messaging.KindGetLastResults, TabID: "tab-1"})
	require.True(t, out.Success)
	var last messaging.CombinedResults
	require.NoError(t, json.Unmarshal(out.Data, &last))
	assert.Equal(t, "I am gonna go", last.Text)
	assert.Len(t, last.Issues, 1)

	out = post(t, h, envelope(t, messaging.KindGetSuggestions, "tab-1", messaging.GetSuggestions{IssueID: res.Issues[0].ID}))
	require.True(t, out.Success)
	assert.JSONEq(t, `{"suggestions":["going to"]}`, string(out.Data))
}

func TestUserTextWithoutOpenMailboxStillAnswers(t *testing.T) {
	s, _ := newTestServer(t, nil)
	out := post(t, s.Handler(), envelope(t, messaging.KindUserText, "closed-tab", messaging.UserText{Text: "really nice work"}))
	assert.True(t, out.Success)
}

func TestApplySuggestion(t *testing.T) {
	s, mail := newTestServer(t, nil)
	h := s.Handler()

	out := post(t, h, envelope(t, messaging.KindApplySuggestion, "", messaging.ApplySuggestion{IssueID: "x"}))
	assert.False(t, out.Success)
	assert.Equal(t, "No active tab", out.Error)

	mail.Open("t")
	out = post(t, h, envelope(t, messaging.KindUserText, "t", messaging.UserText{Text: "It was very gonna"}))
	require.True(t, out.Success)
	var res messaging.CombinedResults
	require.NoError(t, json.Unmarshal(out.Data, &res))
	require.Len(t, res.Issues, 2)
	mail.Drain("t")

	out = post(t, h, envelope(t, messaging.KindApplySuggestion, "t", messaging.ApplySuggestion{IssueID: res.Issues[0].ID, Replacement: "quite"}))
	require.True(t, out.Success)

	pushed, _ := mail.Drain("t")
	require.Len(t, pushed, 1)
	assert.Equal(t, messaging.KindApplySuggestion, pushed[0].Type)

	last, ok := s.lastFor("t")
	require.True(t, ok)
	require.Len(t, last.Issues, 1)
	assert.Equal(t, res.Issues[1].ID, last.Issues[0].ID)
}

func TestToggleDisablesAndPersists(t *testing.T) {
	store := prefs.NewFileStore(filepath.Join(t.TempDir(), "prefs.yaml"))
	s, _ := newTestServer(t, store)
	h := s.Handler()

	out := post(t, h, messaging.Envelope{Type: messaging.KindToggle})
	require.True(t, out.Success)
	assert.JSONEq(t, `{"enabled":false}`, string(out.Data))

	p, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, p.Enabled)

	out = post(t, h, envelope(t, messaging.KindUserText, "t", messaging.UserText{Text: "I am gonna go"}))
	require.True(t, out.Success)
	var res messaging.CombinedResults
	require.NoError(t, json.Unmarshal(out.Data, &res))
	assert.Empty(t, res.Issues)

	on := true
	out = post(t, h, envelope(t, messaging.KindToggle, "", messaging.Toggle{Enabled: &on}))
	require.True(t, out.Success)
	assert.JSONEq(t, `{"enabled":true}`, string(out.Data))
}

func TestFullDocument(t *testing.T) {
	s, _ := newTestServer(t, nil)
	out := post(t, s.Handler(), envelope(t, messaging.KindFullDocument, "t", messaging.FullDocument{
		Blocks: []string{"First block is fine.", "Second one is really long."},
	}))
	require.True(t, out.Success)
	var res messaging.CombinedResults
	require.NoError(t, json.Unmarshal(out.Data, &res))
	require.Len(t, res.Issues, 1)
	assert.Equal(t, "really", res.Issues[0].SnapshotText)
	assert.Equal(t, 35, res.Issues[0].Offset)
}

func TestPollMessages(t *testing.T) {
	s, _ := newTestServer(t, nil)
	h := s.Handler()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/messages?tabId=p", nil))
	assert.JSONEq(t, `{"messages":[]}`, rr.Body.String())

	post(t, h, envelope(t, messaging.KindUserText, "p", messaging.UserText{Text: "kinda weird text"}))

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/messages?tabId=p", nil))
	var got struct {
		Messages []messaging.Envelope `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Len(t, got.Messages, 1)
	assert.Equal(t, messaging.KindCombinedResults, got.Messages[0].Type)
}

func TestUserTextOlderPassDoesNotOverwriteNewer(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	c := checker.Func{ID: "harper", Fn: func(_ context.Context, text string) (checker.Results, error) {
		if strings.HasPrefix(text, "old") {
			close(started)
			<-release
		}
		return checker.Results{Tone: []issue.LintFinding{{Offset: 0, Length: 3, Text: text[:3]}}}, nil
	}}
	orch := orchestrator.New(orchestrator.Options{Checkers: []checker.Checker{c}})
	mail := messaging.NewMailboxes(0)
	h := New(Options{Orchestrator: orch, Mailboxes: mail}).Handler()
	mail.Open("t1")

	var wg sync.WaitGroup
	var older decoded
	wg.Add(1)
	go func() {
		defer wg.Done()
		older = post(t, h, envelope(t, messaging.KindUserText, "t1", messaging.UserText{Text: "old text typed first"}))
	}()
	<-started

	newer := post(t, h, envelope(t, messaging.KindUserText, "t1", messaging.UserText{Text: "new text typed second"}))
	require.True(t, newer.Success)
	close(release)
	wg.Wait()

	// The overtaken pass still answers its own request.
	require.True(t, older.Success)
	var res messaging.CombinedResults
	require.NoError(t, json.Unmarshal(older.Data, &res))
	assert.Equal(t, "old text typed first", res.Text)

	out := post(t, h, messaging.Envelope{Type: messaging.KindGetLastResults, TabID: "t1"})
	require.True(t, out.Success)
	var last messaging.CombinedResults
	require.NoError(t, json.Unmarshal(out.Data, &last))
	assert.Equal(t, "new text typed second", last.Text)

	pushed, ok := mail.Drain("t1")
	require.True(t, ok)
	require.Len(t, pushed, 1)
	got, err := messaging.Decode[messaging.CombinedResults](pushed[0])
	require.NoError(t, err)
	assert.Equal(t, "new text typed second", got.Text)
}
