package harper

import "github.com/iw2rmb/proofline/issue"

type request struct {
	ID   uint64 `msgpack:"id"`
	Text string `msgpack:"text"`
}

type response struct {
	ID          uint64              `msgpack:"id"`
	Tone        []issue.LintFinding `msgpack:"tone"`
	Terminology []issue.LintFinding `msgpack:"terminology"`
	Error       string              `msgpack:"error,omitempty"`
}
