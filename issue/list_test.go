package issue

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type lowerSet map[string]bool

func (s lowerSet) Contains(w string) bool { return s[strings.ToLower(w)] }

func sampleList() List {
	return List{
		{ID: "a", Offset: 0, Length: 4, SnapshotText: "Teh"},
		{ID: "b", Offset: 5, Length: 5, SnapshotText: "gonna"},
		{ID: "c", Offset: 7, Length: 2, SnapshotText: "nn"},
	}
}

func TestList_Without(t *testing.T) {
	l := sampleList()
	got := l.Without("b")
	assert.Len(t, got, 2)
	assert.Len(t, l, 3, "original untouched")

	assert.Len(t, l.Without("missing"), 3)
}

func TestList_Find(t *testing.T) {
	is, idx, ok := sampleList().Find("c")
	assert.True(t, ok)
	assert.Equal(t, 2, idx)
	assert.Equal(t, "nn", is.SnapshotText)

	_, idx, ok = sampleList().Find("zz")
	assert.False(t, ok)
	assert.Equal(t, -1, idx)
}

func TestList_FilterWords(t *testing.T) {
	got := sampleList().FilterWords(lowerSet{"teh": true})
	assert.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID)

	assert.Len(t, sampleList().FilterWords(nil), 3)
}

func TestList_At(t *testing.T) {
	is, ok := sampleList().At(8)
	assert.True(t, ok)
	assert.Equal(t, "b", is.ID)

	_, ok = sampleList().At(4)
	assert.False(t, ok)
}
