package export

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pders01/ytsweep/internal/comments"
	"github.com/pders01/ytsweep/internal/storage"
	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sample() *storage.SavedSearch {
	r := comments.NewResult()
	published := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	r.Add("v2", "Second video", comments.Comment{ID: "c2", Text: "great", Author: "a", PublishedAt: published, ReplyCount: 1})
	r.Add("v2", "Second video", comments.Comment{ID: "r2", Text: "great too", Author: "b", IsReply: true, ParentID: "c2", PublishedAt: published})
	r.Add("v1", "First video", comments.Comment{ID: "c1", Text: "so great", Author: "c", PublishedAt: published})
	return &storage.SavedSearch{
		Keyword:    "great",
		Exclusions: []string{"spam"},
		Result:     r,
		SavedAt:    time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
		Quota:      9,
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"json": JSON, "TOML": TOML, "yaml": YAML, " yml ": YAML} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("csv")
	assert.Error(t, err)
}

func TestFormatFromPath(t *testing.T) {
	f, ok := FormatFromPath("out/results.yml")
	assert.True(t, ok)
	assert.Equal(t, YAML, f)

	_, ok = FormatFromPath("results")
	assert.False(t, ok)
	_, ok = FormatFromPath("results.txt")
	assert.False(t, ok)
}

func TestNewDocumentKeepsSearchOrder(t *testing.T) {
	doc := NewDocument(sample())
	require.Len(t, doc.Videos, 2)
	assert.Equal(t, "v2", doc.Videos[0].ID)
	assert.Equal(t, []string{"c2", "r2"}, []string{doc.Videos[0].Comments[0].ID, doc.Videos[0].Comments[1].ID})
	assert.Equal(t, 3, doc.Matches)

	empty := NewDocument(&storage.SavedSearch{Keyword: "x"})
	assert.NotNil(t, empty.Videos)
	assert.NotNil(t, empty.Exclusions)
}

func TestWriteDecodesInEachFormat(t *testing.T) {
	want := NewDocument(sample())

	decoders := map[Format]func([]byte, *Document) error{
		JSON: func(b []byte, d *Document) error { return json.Unmarshal(b, d) },
		TOML: func(b []byte, d *Document) error { return toml.Unmarshal(b, d) },
		YAML: func(b []byte, d *Document) error { return yaml.Unmarshal(b, d) },
	}
	for format, decode := range decoders {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Write(&buf, format, sample()))

			var got Document
			require.NoError(t, decode(buf.Bytes(), &got))
			assert.Equal(t, want.Keyword, got.Keyword)
			assert.Equal(t, want.Matches, got.Matches)
			require.Len(t, got.Videos, 2)
			assert.Equal(t, "c2", got.Videos[0].Comments[0].ID)
			assert.Equal(t, "c2", got.Videos[0].Comments[1].ParentID)
			assert.True(t, got.Videos[0].Comments[0].PublishedAt.Equal(want.Videos[0].Comments[0].PublishedAt))
		})
	}
}

func TestWriteUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Write(&buf, Format("csv"), sample()))
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "results.toml")
	require.NoError(t, WriteFile(path, TOML, sample()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(raw), `keyword = 'great'`) || strings.Contains(string(raw), `keyword = "great"`))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file must be gone")
}
