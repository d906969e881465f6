package feed

import (
	"fmt"
	"io"
	"strings"

	"github.com/mmcdole/gofeed"
	"github.com/pders01/ytsweep/internal/youtube"
)

// guidPrefix is how the feed spells entry ids: "yt:video:<videoId>".
const guidPrefix = "yt:video:"

type Parser struct {
	parser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		parser: gofeed.NewParser(),
	}
}

// Parse returns the videos of a channel feed in document order. Entries
// without a recognisable video id are skipped; duplicates are dropped.
func (p *Parser) Parse(reader io.Reader) ([]youtube.Video, error) {
	feed, err := p.parser.Parse(reader)
	if err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}

	seen := make(map[string]bool, len(feed.Items))
	videos := make([]youtube.Video, 0, len(feed.Items))
	for _, item := range feed.Items {
		id := videoID(item)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		videos = append(videos, youtube.Video{ID: id, Title: strings.TrimSpace(item.Title)})
	}
	return videos, nil
}

func videoID(item *gofeed.Item) string {
	if yt, ok := item.Extensions["yt"]; ok {
		for _, ext := range yt["videoId"] {
			if v := strings.TrimSpace(ext.Value); v != "" {
				return v
			}
		}
	}
	if id, ok := strings.CutPrefix(item.GUID, guidPrefix); ok {
		return id
	}
	return ""
}
