// Package index answers free-text queries over the matches of a saved
// search, so a large result can be narrowed down before deleting.
package index

import "github.com/pders01/ytsweep/internal/comments"

// Hit is one matching comment with its relevance.
type Hit struct {
	Comment comments.Comment
	Score   float64
	// Snippet is the part of the text that best matches the query.
	Snippet string
}

// Searcher is the query API used by the CLI and TUI.
type Searcher interface {
	// Rebuild replaces everything indexed with the matches in r.
	Rebuild(r *comments.Result) error
	Find(query string, limit int) ([]Hit, error)
}

// DocCounter is implemented by searchers that can report their size.
type DocCounter interface {
	DocCount() (int, error)
}
