package index

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pders01/ytsweep/internal/comments"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *comments.Result {
	r := comments.NewResult()
	r.Add("v1", "Cooking with cast iron",
		comments.Comment{ID: "c1", Text: "Great recipe, buy cheap watches at example dot com", Author: "spambot", VideoID: "v1"},
		comments.Comment{ID: "c2", Text: "great video, thanks for sharing", Author: "Alice", VideoID: "v1"},
	)
	r.Add("v2", "Seasoning a pan",
		comments.Comment{ID: "c3", Text: "great tips on seasoning", Author: "Bob", VideoID: "v2"},
		comments.Comment{ID: "r1", Text: "great WATCHES here", Author: "spambot", IsReply: true, ParentID: "c3", VideoID: "v2"},
	)
	return r
}

func ids(hits []Hit) []string {
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.Comment.ID
	}
	return out
}

func TestBleveIndexesAndFinds(t *testing.T) {
	dir := t.TempDir()
	idxPath := filepath.Join(dir, "index.bleve")

	b, err := Open(idxPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	require.NoError(t, b.Rebuild(sampleResult()))
	n, err := b.DocCount()
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	hits, err := b.Find("watches", 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"c1", "r1"}, ids(hits))

	hits, err = b.Find("spambot", 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"c1", "r1"}, ids(hits))

	// prefix
	hits, err = b.Find("season", 10)
	require.NoError(t, err)
	assert.Contains(t, ids(hits), "c3")

	fi, err := os.Stat(idxPath)
	require.NoError(t, err)
	assert.True(t, fi.IsDir())
}

func TestBleveRebuildReplacesDocuments(t *testing.T) {
	b, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	require.NoError(t, b.Rebuild(sampleResult()))

	smaller := sampleResult()
	smaller.Remove("c1", "r1")
	require.NoError(t, b.Rebuild(smaller))

	n, err := b.DocCount()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	hits, err := b.Find("watches", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestBleveShortQuery(t *testing.T) {
	b, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	require.NoError(t, b.Rebuild(sampleResult()))

	hits, err := b.Find("g", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestScannerFind(t *testing.T) {
	s := NewScanner()
	require.NoError(t, s.Rebuild(sampleResult()))

	hits, err := s.Find("watches", 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"c1", "r1"}, ids(hits))

	hits, err = s.Find("great", 2)
	require.NoError(t, err)
	assert.Len(t, hits, 2)
	assert.GreaterOrEqual(t, hits[0].Score, hits[1].Score)

	hits, err = s.Find("x", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)

	n, _ := s.DocCount()
	assert.Equal(t, 4, n)
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"hello", "world", "42"}, tokenize("Hello, World! a 42"))
	assert.Empty(t, tokenize("a b c"))
}

func TestFindBestSnippet(t *testing.T) {
	text := "one two three four five six seven eight nine ten eleven twelve thirteen fourteen fifteen sixteen seventeen target eighteen"
	snippet := findBestSnippet(text, []string{"target"}, 80)
	assert.Contains(t, snippet, "target")
	assert.Equal(t, "short text", findBestSnippet("short text", []string{"short"}, 120))
	assert.Equal(t, "", findBestSnippet("", []string{"x"}, 120))
}

func TestNewFallsBackToScanner(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	s, err := New(filepath.Join(blocker, "sub", "index.bleve"))
	assert.Error(t, err)
	_, isScanner := s.(*Scanner)
	assert.True(t, isScanner)
}
