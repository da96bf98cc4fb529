package prefs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iw2rmb/proofline/issue"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "", Normalize("   "))
	assert.Equal(t, "hello", Normalize("  HeLLo "))
	// Decomposed and precomposed forms fold to the same key.
	assert.Equal(t, Normalize("CAF\u00c9"), Normalize("Cafe\u0301"))
	assert.Equal(t, "caf\u00e9", Normalize("Cafe\u0301"))
}

func TestDictionary(t *testing.T) {
	d := NewDictionary("Proofline", "", "  ")
	assert.Equal(t, 1, d.Len())
	assert.True(t, d.Contains("proofline"))
	assert.True(t, d.Contains("PROOFLINE"))
	assert.False(t, d.Contains("proof"))

	d.Add("Zed")
	d.Add("alpha")
	assert.Equal(t, []string{"alpha", "proofline", "zed"}, d.Words())

	var nilDict *Dictionary
	assert.False(t, nilDict.Contains("x"))
}

func TestDictionaryFiltersIssues(t *testing.T) {
	list := issue.List{
		{ID: "a", SnapshotText: "Kubernetes"},
		{ID: "b", SnapshotText: "teh"},
		{ID: "c", SnapshotText: "KUBERNETES"},
	}
	got := list.FilterWords(NewDictionary("kubernetes"))
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "prefs.yaml")
	s := NewFileStore(path)

	p, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, Default(), p)

	p.CheckTone = false
	p.Language = "en-GB"
	require.NoError(t, s.Save(ctx, p))

	require.NoError(t, s.LearnWord(ctx, "Zebra"))
	require.NoError(t, s.LearnWord(ctx, "apple"))
	require.NoError(t, s.LearnWord(ctx, "ZEBRA"))
	assert.ErrorIs(t, s.LearnWord(ctx, " "), ErrEmptyWord)

	reopened := NewFileStore(path)
	got, err := reopened.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, p, got)

	words, err := reopened.Words(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"apple", "zebra"}, words)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "check_tone: false")
}

func TestFileStoreRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	require.NoError(t, os.WriteFile(path, []byte("preferences: [unclosed"), 0o644))
	_, err := NewFileStore(path).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse prefs")
}

func setupRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	m := miniredis.RunT(t)
	s, err := NewRedisStore("redis://" + m.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, m
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	s, m := setupRedis(t)

	p, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, Default(), p)

	p.Enabled = false
	require.NoError(t, s.Save(ctx, p))
	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, p, got)
	assert.True(t, m.Exists("proofline:prefs"))

	require.NoError(t, s.LearnWord(ctx, "Gopher"))
	require.NoError(t, s.LearnWord(ctx, "gopher"))
	require.NoError(t, s.LearnWord(ctx, "Arc"))
	words, err := s.Words(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"arc", "gopher"}, words)

	members, err := m.Members("proofline:words")
	require.NoError(t, err)
	assert.Len(t, members, 2)
}

func TestRedisStoreBadURL(t *testing.T) {
	_, err := NewRedisStore("not-a-url://")
	require.Error(t, err)
}

func TestLearnerUpdatesStoreAndDictionary(t *testing.T) {
	ctx := context.Background()
	s, _ := setupRedis(t)
	d, err := LoadDictionary(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, 0, d.Len())

	l := Learner{Store: s, Dict: d}
	require.NoError(t, l.LearnWord(ctx, "Proofline"))
	assert.True(t, d.Contains("PROOFLINE"))

	reloaded, err := LoadDictionary(ctx, s)
	require.NoError(t, err)
	assert.True(t, reloaded.Contains("proofline"))

	assert.ErrorIs(t, l.LearnWord(ctx, ""), ErrEmptyWord)
}
