package textsource

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// TextNode is one text node of a contenteditable tree with its span in the
// flattened text.
type TextNode struct {
	Node  *html.Node
	Start int
	Len   int
}

func (t TextNode) End() int { return t.Start + t.Len }

// ContentEditable is an element subtree whose text is the concatenation of
// its text nodes. Block elements and <br> contribute line breaks.
type ContentEditable struct {
	id   string
	root *html.Node
	box  Box

	mu    sync.RWMutex
	subs  subscribers
	gen   uint64
	cache flatText
}

type flatText struct {
	gen   uint64
	valid bool
	text  string
	nodes []TextNode
}

// NewContentEditable wraps an existing element. The caller must not mutate
// the tree concurrently with the source; use Mutate instead.
func NewContentEditable(id string, root *html.Node, box Box) *ContentEditable {
	return &ContentEditable{id: id, root: root, box: box}
}

// ParseContentEditable parses an HTML fragment into a fresh <div
// contenteditable> root.
func ParseContentEditable(id, fragment string, box Box) (*ContentEditable, error) {
	root := &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
		Attr:     []html.Attribute{{Key: "contenteditable", Val: "true"}},
	}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), root)
	if err != nil {
		return nil, fmt.Errorf("parse contenteditable: %w", err)
	}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return NewContentEditable(id, root, box), nil
}

func (c *ContentEditable) ID() string { return c.id }
func (c *ContentEditable) Kind() Kind { return KindContentEditable }
func (c *ContentEditable) Box() Box   { return c.box }

func (c *ContentEditable) Editable() bool {
	for _, a := range c.root.Attr {
		if a.Key == "contenteditable" {
			return IsEditable(c.root.Data, "", a.Val)
		}
	}
	return false
}

func (c *ContentEditable) Text(context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flatten().text, nil
}

// TextNodes returns the flattened text node index in document order.
func (c *ContentEditable) TextNodes() []TextNode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]TextNode(nil), c.flatten().nodes...)
}

// InnerHTML renders the children of the root element.
func (c *ContentEditable) InnerHTML() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var sb strings.Builder
	for n := c.root.FirstChild; n != nil; n = n.NextSibling {
		_ = html.Render(&sb, n)
	}
	return sb.String()
}

// Mutate runs fn against the tree under the source lock, then fires a user
// input event. It models host page edits.
func (c *ContentEditable) Mutate(fn func(root *html.Node)) {
	c.mu.Lock()
	fn(c.root)
	c.gen++
	c.mu.Unlock()
	c.subs.notify(InputEvent{SourceID: c.id})
}

// Replace edits only the text nodes the span touches. The replacement text
// goes into the first touched node; the rest are clipped. Element structure
// is preserved, so a span that covers a line break contributed by an element
// (a block boundary or <br>) fails with ErrOutOfRange.
func (c *ContentEditable) Replace(_ context.Context, offset, length int, text string) (Replacement, error) {
	if !c.Editable() {
		return Replacement{}, ErrNotEditable
	}

	c.mu.Lock()
	flat := c.flatten()
	rs, err := checkSpan(flat.text, offset, length)
	if err != nil {
		c.mu.Unlock()
		return Replacement{}, err
	}
	end := offset + length
	if len(flat.nodes) > 0 && !coveredByNodes(flat.nodes, offset, end) {
		c.mu.Unlock()
		return Replacement{}, fmt.Errorf("span [%d,%d) crosses an element line break: %w", offset, end, ErrOutOfRange)
	}

	placed := false
	for _, tn := range flat.nodes {
		if tn.End() < offset || tn.Start > end {
			continue
		}
		if length > 0 && (tn.End() == offset || tn.Start == end) {
			continue
		}
		data := []rune(tn.Node.Data)
		from := max(offset-tn.Start, 0)
		to := min(end-tn.Start, len(data))
		ins := ""
		if !placed {
			ins = text
			placed = true
		}
		tn.Node.Data = string(data[:from]) + ins + string(data[to:])
	}
	if !placed {
		if len(flat.nodes) > 0 {
			c.mu.Unlock()
			return Replacement{}, fmt.Errorf("span touches no text node: %w", ErrOutOfRange)
		}
		c.root.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	}
	c.gen++
	rep := Replacement{
		Offset:   offset,
		Removed:  string(rs[offset:end]),
		Inserted: text,
		NewText:  c.flatten().text,
	}
	c.mu.Unlock()

	c.subs.notify(InputEvent{SourceID: c.id, Synthetic: true})
	return rep, nil
}

// coveredByNodes reports whether every rune of [offset, end) lies in a text
// node.
func coveredByNodes(nodes []TextNode, offset, end int) bool {
	at := offset
	for _, tn := range nodes {
		if at >= end {
			break
		}
		if tn.Len == 0 || tn.End() <= at {
			continue
		}
		if tn.Start > at {
			return false
		}
		at = tn.End()
	}
	return at >= end
}

func (c *ContentEditable) Subscribe(fn func(InputEvent)) func() {
	return c.subs.add(fn)
}

// flatten must be called with c.mu held for writing.
func (c *ContentEditable) flatten() flatText {
	if c.cache.valid && c.cache.gen == c.gen {
		return c.cache
	}
	w := &flattener{}
	w.walk(c.root, true)
	c.cache = flatText{gen: c.gen, valid: true, text: w.sb.String(), nodes: w.nodes}
	return c.cache
}

type flattener struct {
	sb      strings.Builder
	n       int
	nodes   []TextNode
	pending bool
}

func (w *flattener) write(s string) {
	if s == "" {
		return
	}
	w.flush()
	w.sb.WriteString(s)
	w.n += len([]rune(s))
}

func (w *flattener) flush() {
	if !w.pending {
		return
	}
	w.pending = false
	w.sb.WriteByte('\n')
	w.n++
}

// breakLine requests a line break before the next written text unless the
// text is empty or already ends with one.
func (w *flattener) breakLine() {
	if w.n == 0 || strings.HasSuffix(w.sb.String(), "\n") {
		return
	}
	w.pending = true
}

func (w *flattener) walk(n *html.Node, root bool) {
	switch n.Type {
	case html.TextNode:
		if n.Data != "" {
			w.flush()
		}
		w.nodes = append(w.nodes, TextNode{Node: n, Start: w.n, Len: len([]rune(n.Data))})
		w.write(n.Data)
		return
	case html.ElementNode:
		if n.DataAtom == atom.Br {
			w.write("\n")
			return
		}
		if n.DataAtom == atom.Script || n.DataAtom == atom.Style {
			return
		}
	}
	block := !root && isBlock(n)
	if block {
		w.breakLine()
	}
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		w.walk(ch, false)
	}
	if block {
		w.breakLine()
	}
}

func isBlock(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.P, atom.Div, atom.Li, atom.Ul, atom.Ol, atom.Blockquote, atom.Pre,
		atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6, atom.Section, atom.Article:
		return true
	}
	return false
}
