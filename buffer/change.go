package buffer

// ChangeSource identifies where a change originated.
type ChangeSource uint8

const (
	// ChangeSourceLocal is typing, deletion, paste and similar key input.
	ChangeSourceLocal ChangeSource = iota
	// ChangeSourceSuggestion is an accepted grammar or spelling suggestion.
	ChangeSourceSuggestion
	// ChangeSourceHistory is undo or redo.
	ChangeSourceHistory
)

func (s ChangeSource) String() string {
	switch s {
	case ChangeSourceLocal:
		return "local"
	case ChangeSourceSuggestion:
		return "suggestion"
	case ChangeSourceHistory:
		return "history"
	}
	return "unknown"
}

// AppliedEdit describes one effective edit in flat rune offsets.
type AppliedEdit struct {
	Offset   int
	Removed  string
	Inserted string
}

// Delta is the signed length change of the edit, in runes.
func (e AppliedEdit) Delta() int {
	return runeLen(e.Inserted) - runeLen(e.Removed)
}

// Change is a normalized, versioned text mutation payload.
type Change struct {
	Source        ChangeSource
	VersionBefore uint64
	VersionAfter  uint64
	CursorBefore  Pos
	CursorAfter   Pos
	Edits         []AppliedEdit
}

// LastChange returns the most recent text change.
func (b *Buffer) LastChange() (Change, bool) {
	if !b.hasLastChange {
		return Change{}, false
	}
	out := b.lastChange
	out.Edits = append([]AppliedEdit(nil), b.lastChange.Edits...)
	return out, true
}

type changeBuilder struct {
	source        ChangeSource
	versionBefore uint64
	cursorBefore  Pos
	edits         []AppliedEdit
}

func (b *Buffer) beginChange(source ChangeSource) changeBuilder {
	return changeBuilder{
		source:        source,
		versionBefore: b.version,
		cursorBefore:  b.cursor,
	}
}

func (b *Buffer) commitChange(cb changeBuilder) {
	if b.version == cb.versionBefore || len(cb.edits) == 0 {
		return
	}
	b.lastChange = Change{
		Source:        cb.source,
		VersionBefore: cb.versionBefore,
		VersionAfter:  b.version,
		CursorBefore:  cb.cursorBefore,
		CursorAfter:   b.cursor,
		Edits:         cb.edits,
	}
	b.hasLastChange = true
}

func runeLen(s string) int {
	n := 0
	for range s {
		n++
	}
	return n
}

// diffEdit reduces a whole-text replacement to the minimal middle edit.
func diffEdit(before, after string) (AppliedEdit, bool) {
	if before == after {
		return AppliedEdit{}, false
	}
	a, z := []rune(before), []rune(after)
	pre := 0
	for pre < len(a) && pre < len(z) && a[pre] == z[pre] {
		pre++
	}
	suf := 0
	for suf < len(a)-pre && suf < len(z)-pre && a[len(a)-1-suf] == z[len(z)-1-suf] {
		suf++
	}
	return AppliedEdit{
		Offset:   pre,
		Removed:  string(a[pre : len(a)-suf]),
		Inserted: string(z[pre : len(z)-suf]),
	}, true
}
