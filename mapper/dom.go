package mapper

import (
	"golang.org/x/net/html"

	"github.com/iw2rmb/proofline/textsource"
)

// Range is a DOM range over text nodes, clipped to node boundaries.
type Range struct {
	StartNode   *html.Node
	StartOffset int
	EndNode     *html.Node
	EndOffset   int
}

// RangeFor walks the text nodes of ce in document order and builds the range
// covering [offset, offset+length). Offsets within nodes are rune offsets.
// Line breaks contributed by elements belong to no node; a span that starts
// or ends on one is clipped to the nearest text node inside the span.
func RangeFor(ce *textsource.ContentEditable, offset, length int) (Range, bool) {
	r, _, _, ok := rangeIn(ce.TextNodes(), offset, length)
	return r, ok
}

// clippedSpan is RangeFor expressed as flattened offsets [start, end).
func clippedSpan(ce *textsource.ContentEditable, offset, length int) (start, end int, ok bool) {
	_, start, end, ok = rangeIn(ce.TextNodes(), offset, length)
	return start, end, ok
}

func rangeIn(nodes []textsource.TextNode, offset, length int) (r Range, start, end int, ok bool) {
	if offset < 0 || length <= 0 {
		return Range{}, 0, 0, false
	}
	last := offset + length
	if len(nodes) == 0 || last > nodes[len(nodes)-1].End() {
		return Range{}, 0, 0, false
	}

	for _, tn := range nodes {
		if tn.Len == 0 || tn.End() <= offset || tn.Start >= last {
			continue
		}
		if r.StartNode == nil {
			r.StartNode = tn.Node
			r.StartOffset = max(offset-tn.Start, 0)
			start = tn.Start + r.StartOffset
		}
		r.EndNode = tn.Node
		r.EndOffset = min(last-tn.Start, tn.Len)
		end = tn.Start + r.EndOffset
	}
	if r.StartNode == nil {
		return Range{}, 0, 0, false
	}
	return r, start, end, true
}
