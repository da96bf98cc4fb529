package buffer

import "testing"

func TestNew_SplitsLines(t *testing.T) {
	b := New("ab\ncd\n", Options{})
	if got, want := b.LineCount(), 3; got != want {
		t.Fatalf("line count=%d, want %d", got, want)
	}
	if got, want := b.Line(1), "cd"; got != want {
		t.Fatalf("line 1=%q, want %q", got, want)
	}
	if got, want := b.Line(9), ""; got != want {
		t.Fatalf("line 9=%q, want %q", got, want)
	}
	if got, want := b.Text(), "ab\ncd\n"; got != want {
		t.Fatalf("text=%q, want %q", got, want)
	}
	if got, want := b.Len(), 6; got != want {
		t.Fatalf("len=%d, want %d", got, want)
	}
}

func TestSetCursor_ClampsAndBumpsVersion(t *testing.T) {
	b := New("hello\nyo", Options{})
	v := b.Version()

	b.SetCursor(Pos{Row: 5, Col: 99})
	if got, want := b.Cursor(), (Pos{Row: 1, Col: 2}); got != want {
		t.Fatalf("cursor=%v, want %v", got, want)
	}
	if got := b.Version(); got != v+1 {
		t.Fatalf("version=%d, want %d", got, v+1)
	}

	b.SetCursor(Pos{Row: 1, Col: 2})
	if got := b.Version(); got != v+1 {
		t.Fatalf("no-op SetCursor bumped version to %d", got)
	}
}

func TestSelection_EmptyRangeIsInactive(t *testing.T) {
	b := New("hello", Options{})
	b.SetSelection(Range{Start: Pos{Col: 2}, End: Pos{Col: 2}})
	if _, ok := b.Selection(); ok {
		t.Fatalf("expected no selection")
	}

	b.SetSelection(Range{Start: Pos{Col: 4}, End: Pos{Col: 1}})
	r, ok := b.Selection()
	if !ok {
		t.Fatalf("expected selection")
	}
	if got, want := r, (Range{Start: Pos{Col: 1}, End: Pos{Col: 4}}); got != want {
		t.Fatalf("selection=%v, want %v", got, want)
	}

	v := b.Version()
	b.ClearSelection()
	if _, ok := b.Selection(); ok {
		t.Fatalf("expected cleared selection")
	}
	if got := b.Version(); got != v+1 {
		t.Fatalf("version=%d, want %d", got, v+1)
	}
}

func TestOffsetConversions(t *testing.T) {
	b := New("h\u00e9llo\nw\u00f6rld", Options{})

	cases := []struct {
		off int
		pos Pos
	}{
		{0, Pos{Row: 0, Col: 0}},
		{2, Pos{Row: 0, Col: 2}},
		{5, Pos{Row: 0, Col: 5}},
		{6, Pos{Row: 1, Col: 0}},
		{11, Pos{Row: 1, Col: 5}},
	}
	for _, tc := range cases {
		if got := b.PosFromOffset(tc.off); got != tc.pos {
			t.Fatalf("PosFromOffset(%d)=%v, want %v", tc.off, got, tc.pos)
		}
		if got := b.OffsetFromPos(tc.pos); got != tc.off {
			t.Fatalf("OffsetFromPos(%v)=%d, want %d", tc.pos, got, tc.off)
		}
	}

	if got, want := b.PosFromOffset(-3), (Pos{}); got != want {
		t.Fatalf("negative offset=%v, want %v", got, want)
	}
	if got, want := b.PosFromOffset(400), (Pos{Row: 1, Col: 5}); got != want {
		t.Fatalf("overflow offset=%v, want %v", got, want)
	}
	if got, want := b.Slice(4, 8), "o\nw\u00f6"; got != want {
		t.Fatalf("slice=%q, want %q", got, want)
	}
}
