// Package messaging is the typed message protocol between the page side,
// the popup and the background process.
package messaging

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/iw2rmb/proofline/issue"
)

type Kind string

const (
	KindUserText        Kind = "USER_TEXT"
	KindFullDocument    Kind = "FULL_DOCUMENT_TEXT"
	KindCombinedResults Kind = "COMBINED_RESULTS"
	KindApplySuggestion Kind = "APPLY_SUGGESTION"
	KindToggle          Kind = "TOGGLE_EXTENSION"
	KindPing            Kind = "PING"
	KindGetLastResults  Kind = "GET_LAST_RESULTS"
	KindRequestRefresh  Kind = "REQUEST_REFRESH"
	KindGetSuggestions  Kind = "GET_SUGGESTIONS"
)

var (
	ErrUnknownType = errors.New("unknown type")
	// ErrNotReady is returned by a Sender whose receiver is gone or not yet
	// listening.
	ErrNotReady = errors.New("messaging: receiver not ready")
	ErrNoTab    = errors.New("No active tab")
)

// Envelope is one message. Payload holds the kind's payload struct as JSON.
type Envelope struct {
	Type    Kind            `json:"type"`
	TabID   string          `json:"tabId,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response answers a request envelope.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func OK(data any) Response { return Response{Success: true, Data: data} }

func Fail(err error) Response { return Response{Success: false, Error: err.Error()} }

// UserText submits the text of one editable surface for analysis.
type UserText struct {
	Text     string `json:"text"`
	SourceID string `json:"sourceId,omitempty"`
}

// FullDocument submits pre-segmented blocks for a one-time pass.
type FullDocument struct {
	Blocks []string `json:"blocks"`
}

// CombinedResults is the merged issue list for one text.
type CombinedResults struct {
	SourceID string        `json:"sourceId,omitempty"`
	Text     string        `json:"text"`
	Issues   []issue.Issue `json:"issues"`
}

// ApplySuggestion asks the page side to apply a replacement. Either
// Replacement or SuggestionIndex selects the text.
type ApplySuggestion struct {
	IssueID         string `json:"issueId"`
	Replacement     string `json:"replacement,omitempty"`
	SuggestionIndex int    `json:"suggestionIndex,omitempty"`
}

// Toggle sets the enabled flag, or flips it when Enabled is nil.
type Toggle struct {
	Enabled *bool `json:"enabled,omitempty"`
}

type ToggleResult struct {
	Enabled bool `json:"enabled"`
}

type GetSuggestions struct {
	IssueID string `json:"issueId"`
}

type Suggestions struct {
	Suggestions []string `json:"suggestions"`
}

type Status struct {
	Status string `json:"status"`
}

// NewEnvelope encodes payload for kind. A nil payload is omitted.
func NewEnvelope(kind Kind, tabID string, payload any) (Envelope, error) {
	env := Envelope{Type: kind, TabID: tabID}
	if payload == nil {
		return env, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s payload: %w", kind, err)
	}
	env.Payload = raw
	return env, nil
}

// Decode unmarshals the payload of env into T. An empty payload yields the
// zero T.
func Decode[T any](env Envelope) (T, error) {
	var v T
	if len(env.Payload) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(env.Payload, &v); err != nil {
		return v, fmt.Errorf("decode %s payload: %w", env.Type, err)
	}
	return v, nil
}
