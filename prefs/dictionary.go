package prefs

import (
	"slices"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Normalize trims word, composes it to NFC and case-folds it.
func Normalize(word string) string {
	w := strings.TrimSpace(word)
	if w == "" {
		return ""
	}
	// Casers carry state, so each call gets its own.
	return cases.Fold().String(norm.NFC.String(w))
}

// Dictionary is a concurrency-safe set of learned words.
type Dictionary struct {
	mu    sync.RWMutex
	words map[string]struct{}
}

func NewDictionary(words ...string) *Dictionary {
	d := &Dictionary{words: make(map[string]struct{}, len(words))}
	for _, w := range words {
		d.Add(w)
	}
	return d
}

// Add records word. Blank words are ignored.
func (d *Dictionary) Add(word string) {
	w := Normalize(word)
	if w == "" {
		return
	}
	d.mu.Lock()
	d.words[w] = struct{}{}
	d.mu.Unlock()
}

// Contains reports whether word, after normalization, has been learned.
func (d *Dictionary) Contains(word string) bool {
	if d == nil {
		return false
	}
	w := Normalize(word)
	d.mu.RLock()
	_, ok := d.words[w]
	d.mu.RUnlock()
	return ok
}

func (d *Dictionary) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.words)
}

// Words returns the normalized words in sorted order.
func (d *Dictionary) Words() []string {
	d.mu.RLock()
	out := make([]string, 0, len(d.words))
	for w := range d.words {
		out = append(out, w)
	}
	d.mu.RUnlock()
	slices.Sort(out)
	return out
}
