package index

import (
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/pders01/ytsweep/internal/comments"
)

// Scanner scores every comment in memory on each query. It needs no index
// files and is the fallback when the bleve index cannot be opened.
type Scanner struct {
	mu    sync.RWMutex
	items []comments.Comment
}

func NewScanner() *Scanner {
	return &Scanner{}
}

func (s *Scanner) Rebuild(r *comments.Result) error {
	s.mu.Lock()
	s.items = r.Flat()
	s.mu.Unlock()
	return nil
}

func (s *Scanner) DocCount() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items), nil
}

func (s *Scanner) Find(query string, limit int) ([]Hit, error) {
	terms := tokenize(query)
	if len(strings.TrimSpace(query)) < 2 || len(terms) == 0 {
		return []Hit{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var hits []Hit
	for _, c := range s.items {
		score := scoreField(c.Text, terms, 3.0) +
			scoreField(c.VideoTitle, terms, 1.5) +
			scoreField(c.Author, terms, 1.0)
		if score <= 0 {
			continue
		}
		hits = append(hits, Hit{Comment: c, Score: score, Snippet: findBestSnippet(c.Text, terms, 120)})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// scoreField rewards substring, whole-word and partial-word hits and
// scales by how dense the hits are.
func scoreField(text string, terms []string, weight float64) float64 {
	if text == "" {
		return 0
	}

	lower := strings.ToLower(text)
	words := tokenize(text)
	if len(words) == 0 {
		return 0
	}

	var score float64
	matched := 0
	for _, term := range terms {
		if strings.Contains(lower, term) {
			score += 2.0
			matched++
		}
		for _, w := range words {
			switch {
			case w == term:
				score += 1.5
				matched++
			case strings.HasPrefix(w, term) || strings.HasSuffix(w, term):
				score += 1.0
				matched++
			case strings.Contains(w, term):
				score += 0.5
				matched++
			}
		}
	}

	if len(terms) > 1 && matched > 1 {
		score *= 1.0 + float64(matched)/float64(len(terms))
	}
	tf := float64(matched) / float64(len(words))
	score *= 1.0 + math.Log(1.0+tf)

	return score * weight
}

// findBestSnippet returns the window of words containing the most terms.
func findBestSnippet(text string, terms []string, maxLength int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	windowSize := maxLength / 8
	if windowSize >= len(words) {
		return truncate(text, maxLength)
	}

	best, bestStart := 0, 0
	for i := 0; i <= len(words)-windowSize; i++ {
		window := strings.ToLower(strings.Join(words[i:i+windowSize], " "))
		score := 0
		for _, term := range terms {
			if strings.Contains(window, term) {
				score++
			}
		}
		if score > best {
			best, bestStart = score, i
		}
	}
	return truncate(strings.Join(words[bestStart:bestStart+windowSize], " "), maxLength)
}

// tokenize lowercases text and splits it into words of two or more
// letters or digits.
func tokenize(text string) []string {
	var terms []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 1 {
			terms = append(terms, current.String())
		}
		current.Reset()
	}
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			current.WriteRune(unicode.ToLower(r))
		} else {
			flush()
		}
	}
	flush()
	return terms
}

func truncate(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	return string(runes[:maxLen-1]) + "…"
}
