package index

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	bleveQuery "github.com/blevesearch/bleve/v2/search/query"
	"github.com/pders01/ytsweep/internal/comments"
)

const docPrefix = "comment:"

// Bleve keeps matches in a bleve index. Hits are resolved against the
// result last passed to Rebuild.
type Bleve struct {
	idx bleve.Index

	mu   sync.RWMutex
	byID map[string]comments.Comment
}

// Open opens or creates the index at path. An empty path keeps the index
// in memory.
func Open(path string) (*Bleve, error) {
	var (
		idx bleve.Index
		err error
	)
	if path == "" {
		idx, err = bleve.NewMemOnly(buildIndexMapping())
	} else {
		if mkErr := os.MkdirAll(filepath.Dir(path), 0o755); mkErr != nil {
			return nil, fmt.Errorf("creating index directory: %w", mkErr)
		}
		idx, err = bleve.Open(path)
		if err != nil {
			idx, err = bleve.New(path, buildIndexMapping())
		}
	}
	if err != nil {
		return nil, fmt.Errorf("opening search index: %w", err)
	}
	return &Bleve{idx: idx, byID: make(map[string]comments.Comment)}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = standard.Name

	dm := bleve.NewDocumentMapping()

	text := bleve.NewTextFieldMapping()
	text.Analyzer = standard.Name
	text.Store = true
	text.IncludeTermVectors = true

	author := bleve.NewTextFieldMapping()
	author.Analyzer = standard.Name
	author.Store = true

	videoTitle := bleve.NewTextFieldMapping()
	videoTitle.Analyzer = standard.Name
	videoTitle.Store = true

	videoID := bleve.NewKeywordFieldMapping()
	videoID.Store = true

	dm.AddFieldMappingsAt("text", text)
	dm.AddFieldMappingsAt("author", author)
	dm.AddFieldMappingsAt("video_title", videoTitle)
	dm.AddFieldMappingsAt("video_id", videoID)

	im.DefaultMapping = dm
	return im
}

func (b *Bleve) Close() error {
	return b.idx.Close()
}

// Rebuild drops every document and indexes the matches in r.
func (b *Bleve) Rebuild(r *comments.Result) error {
	if err := b.clear(); err != nil {
		return fmt.Errorf("clearing index: %w", err)
	}

	byID := make(map[string]comments.Comment)
	batch := b.idx.NewBatch()
	for _, c := range r.Flat() {
		byID[c.ID] = c
		err := batch.Index(docPrefix+c.ID, map[string]any{
			"text":        c.Text,
			"author":      c.Author,
			"video_title": c.VideoTitle,
			"video_id":    c.VideoID,
			"is_reply":    c.IsReply,
		})
		if err != nil {
			return fmt.Errorf("indexing %s: %w", c.ID, err)
		}
	}
	if err := b.idx.Batch(batch); err != nil {
		return fmt.Errorf("writing index: %w", err)
	}

	b.mu.Lock()
	b.byID = byID
	b.mu.Unlock()
	return nil
}

// clear deletes all documents in pages of 1000.
func (b *Bleve) clear() error {
	const size = 1000
	for {
		req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), size, 0, false)
		res, err := b.idx.Search(req)
		if err != nil {
			return err
		}
		if len(res.Hits) == 0 {
			return nil
		}
		batch := b.idx.NewBatch()
		for _, h := range res.Hits {
			batch.Delete(h.ID)
		}
		if err := b.idx.Batch(batch); err != nil {
			return err
		}
	}
}

// Find matches each query word, whole or as a prefix, against the comment
// text, the video title and the author, in that order of weight.
func (b *Bleve) Find(query string, limit int) ([]Hit, error) {
	if len(strings.TrimSpace(query)) < 2 {
		return []Hit{}, nil
	}
	terms := tokenize(query)

	fields := []struct {
		name  string
		boost float64
	}{
		{"text", 3.0},
		{"video_title", 1.5},
		{"author", 1.0},
	}
	var qs []bleveQuery.Query
	for _, tok := range terms {
		for _, f := range fields {
			mq := bleve.NewMatchQuery(tok)
			mq.SetField(f.name)
			mq.SetBoost(f.boost)
			pq := bleve.NewPrefixQuery(tok)
			pq.SetField(f.name)
			pq.SetBoost(f.boost * 0.8)
			qs = append(qs, mq, pq)
		}
	}
	if len(qs) == 0 {
		return []Hit{}, nil
	}

	if limit <= 0 {
		limit = 50
	}
	req := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(qs...), limit, 0, false)
	res, err := b.idx.Search(req)
	if err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		c, ok := b.byID[strings.TrimPrefix(h.ID, docPrefix)]
		if !ok {
			continue
		}
		out = append(out, Hit{Comment: c, Score: h.Score, Snippet: findBestSnippet(c.Text, terms, 120)})
	}
	return out, nil
}

// DocCount reports total documents in the index.
func (b *Bleve) DocCount() (int, error) {
	n, err := b.idx.DocCount()
	return int(n), err
}

// New returns the bleve index at path, or a Scanner if it cannot be
// opened (another process may hold the lock).
func New(path string) (Searcher, error) {
	idx, err := Open(path)
	if err != nil {
		return NewScanner(), err
	}
	return idx, nil
}
