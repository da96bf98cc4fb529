package buffer

type bufferSnapshot struct {
	text   string
	cursor Pos
}

type historyState struct {
	undo []bufferSnapshot
	redo []bufferSnapshot
}

func (b *Buffer) snapshot() bufferSnapshot {
	return bufferSnapshot{text: b.Text(), cursor: b.cursor}
}

func (b *Buffer) restore(s bufferSnapshot) {
	b.lines = splitLines(s.text)
	b.cursor = b.clampPos(s.cursor)
	b.sel = selectionState{}
}

func (b *Buffer) recordUndo(prev bufferSnapshot) {
	b.pushUndo(prev)
	b.hist.redo = nil
}

func (b *Buffer) pushUndo(s bufferSnapshot) {
	limit := b.opt.HistoryLimit
	if limit <= 0 {
		return
	}
	b.hist.undo = append(b.hist.undo, s)
	if len(b.hist.undo) > limit {
		b.hist.undo = b.hist.undo[len(b.hist.undo)-limit:]
	}
}

func (b *Buffer) CanUndo() bool { return len(b.hist.undo) > 0 }

func (b *Buffer) CanRedo() bool { return len(b.hist.redo) > 0 }

// Undo restores the text before the last recorded edit.
// Accepted suggestions are recorded like any other edit.
func (b *Buffer) Undo() bool {
	if len(b.hist.undo) == 0 {
		return false
	}
	cur := b.snapshot()
	i := len(b.hist.undo) - 1
	prev := b.hist.undo[i]
	b.hist.undo = b.hist.undo[:i]
	b.hist.redo = append(b.hist.redo, cur)
	b.travel(cur, prev)
	return true
}

func (b *Buffer) Redo() bool {
	if len(b.hist.redo) == 0 {
		return false
	}
	cur := b.snapshot()
	i := len(b.hist.redo) - 1
	next := b.hist.redo[i]
	b.hist.redo = b.hist.redo[:i]
	b.pushUndo(cur)
	b.travel(cur, next)
	return true
}

func (b *Buffer) travel(from, to bufferSnapshot) {
	change := b.beginChange(ChangeSourceHistory)
	b.restore(to)
	b.version++
	if e, ok := diffEdit(from.text, to.text); ok {
		change.edits = append(change.edits, e)
	}
	b.commitChange(change)
}
