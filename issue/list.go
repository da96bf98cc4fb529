package issue

// List is an ordered issue list for one snapshot.
type List []Issue

// Without returns a copy of l with the issue id removed.
func (l List) Without(id string) List {
	out := make(List, 0, len(l))
	for _, is := range l {
		if is.ID != id {
			out = append(out, is)
		}
	}
	return out
}

func (l List) Find(id string) (Issue, int, bool) {
	for i, is := range l {
		if is.ID == id {
			return is, i, true
		}
	}
	return Issue{}, -1, false
}

// WordSet reports whether a word has been learned.
type WordSet interface {
	Contains(word string) bool
}

// FilterWords drops issues whose anchor text is a learned word.
func (l List) FilterWords(words WordSet) List {
	if words == nil {
		return l
	}
	out := make(List, 0, len(l))
	for _, is := range l {
		if is.SnapshotText != "" && words.Contains(is.SnapshotText) {
			continue
		}
		out = append(out, is)
	}
	return out
}

// At returns the issue at offset, preferring the lowest sort position.
func (l List) At(offset int) (Issue, bool) {
	for _, is := range l {
		if offset >= is.Offset && offset < is.End() {
			return is, true
		}
	}
	return Issue{}, false
}
