// Package languagetool is a client for the LanguageTool /v2/check endpoint.
package languagetool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/iw2rmb/proofline/checker"
	"github.com/iw2rmb/proofline/issue"
)

const (
	DefaultBaseURL  = "http://localhost:8081"
	DefaultLanguage = "en-US"
	DefaultTimeout  = 5 * time.Second

	checkPath = "/v2/check"
	// errBodyLimit bounds the response excerpt kept in StatusError.
	errBodyLimit = 512
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("languagetool: status %d", e.Code)
	}
	return fmt.Sprintf("languagetool: status %d: %s", e.Code, e.Body)
}

type Options struct {
	BaseURL       string
	Language      string
	DisabledRules []string
	// Level is passed through as the "level" parameter ("default" or "picky").
	Level      string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

type Client struct {
	base     string
	language string
	disabled []string
	level    string
	http     *http.Client
	log      *slog.Logger
}

var _ checker.Checker = (*Client)(nil)

func New(opt Options) *Client {
	c := &Client{
		base:     strings.TrimRight(opt.BaseURL, "/"),
		language: opt.Language,
		disabled: append([]string(nil), opt.DisabledRules...),
		level:    opt.Level,
		http:     opt.HTTPClient,
		log:      opt.Logger,
	}
	if c.base == "" {
		c.base = DefaultBaseURL
	}
	if c.language == "" {
		c.language = DefaultLanguage
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: DefaultTimeout}
	}
	if c.log == nil {
		c.log = slog.Default()
	}
	return c
}

func (c *Client) Name() string { return issue.SourceLanguageTool }

// Check posts text and returns the grammar matches with rune offsets.
func (c *Client) Check(ctx context.Context, text string) (checker.Results, error) {
	form := url.Values{}
	form.Set("text", text)
	form.Set("language", c.language)
	if len(c.disabled) > 0 {
		form.Set("disabledRules", strings.Join(c.disabled, ","))
	}
	if c.level != "" {
		form.Set("level", c.level)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+checkPath, strings.NewReader(form.Encode()))
	if err != nil {
		return checker.Results{}, fmt.Errorf("languagetool: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return checker.Results{}, fmt.Errorf("languagetool: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errBodyLimit))
		return checker.Results{}, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var payload checkResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return checker.Results{}, fmt.Errorf("languagetool: decode response: %w", err)
	}

	matches := payload.convert(text)
	c.log.Debug("languagetool check", "matches", len(matches), "runes", len([]rune(text)), "elapsed", time.Since(start))
	return checker.Results{Grammar: matches}, nil
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}

type checkResponse struct {
	Matches []wireMatch `json:"matches"`
}

type wireMatch struct {
	Message      string `json:"message"`
	ShortMessage string `json:"shortMessage"`
	Offset       int64  `json:"offset"`
	Length       int64  `json:"length"`
	Replacements []struct {
		Value string `json:"value"`
	} `json:"replacements"`
	Context struct {
		Text   string `json:"text"`
		Offset int64  `json:"offset"`
		Length int64  `json:"length"`
	} `json:"context"`
	Rule struct {
		ID string `json:"id"`
	} `json:"rule"`
}

func (r checkResponse) convert(text string) []issue.GrammarMatch {
	idx := newUnitIndex(text)
	out := make([]issue.GrammarMatch, 0, len(r.Matches))
	for _, m := range r.Matches {
		off, length := idx.span(units(m.Offset), units(m.Length))
		ctxIdx := newUnitIndex(m.Context.Text)
		cOff, cLen := ctxIdx.span(units(m.Context.Offset), units(m.Context.Length))

		g := issue.GrammarMatch{
			Offset:       off,
			Length:       length,
			Message:      m.Message,
			ShortMessage: m.ShortMessage,
			Context: issue.MatchContext{
				Text:   m.Context.Text,
				Offset: cOff,
				Length: cLen,
			},
			Replacements: make([]issue.Replacement, 0, len(m.Replacements)),
			Rule:         m.Rule.ID,
		}
		for _, rep := range m.Replacements {
			g.Replacements = append(g.Replacements, issue.Replacement{Value: rep.Value})
		}
		out = append(out, g)
	}
	return out
}
