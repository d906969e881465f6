package storage

import (
	"time"

	"github.com/pders01/ytsweep/internal/comments"
)

// SavedSearch is the persisted outcome of a search.
type SavedSearch struct {
	Keyword    string           `json:"keyword"`
	Exclusions []string         `json:"exclusions"`
	Result     *comments.Result `json:"result"`
	SavedAt    time.Time        `json:"saved_at"`
	Quota      int64            `json:"quota,omitempty"`
}

// SearchSummary is one entry of the search history.
type SearchSummary struct {
	Keyword    string    `json:"keyword"`
	Exclusions []string  `json:"exclusions"`
	Matches    int       `json:"matches"`
	Videos     int       `json:"videos"`
	Quota      int64     `json:"quota,omitempty"`
	SavedAt    time.Time `json:"saved_at"`
}

func (s *SavedSearch) Summary() SearchSummary {
	sum := SearchSummary{
		Keyword:    s.Keyword,
		Exclusions: s.Exclusions,
		Quota:      s.Quota,
		SavedAt:    s.SavedAt,
	}
	if s.Result != nil {
		sum.Matches = s.Result.Count()
		sum.Videos = len(s.Result.Order)
	}
	return sum
}
