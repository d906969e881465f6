package feed

import (
	"strings"
	"testing"

	"github.com/pders01/ytsweep/internal/youtube"
)

const channelFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns:yt="http://www.youtube.com/xml/schemas/2015" xmlns:media="http://search.yahoo.com/mrss/" xmlns="http://www.w3.org/2005/Atom">
	<id>yt:channel:UC-test-channel</id>
	<yt:channelId>UC-test-channel</yt:channelId>
	<title>Test Channel</title>
	<entry>
		<id>yt:video:vid-1</id>
		<yt:videoId>vid-1</yt:videoId>
		<title>First upload</title>
		<published>2025-01-02T12:00:00+00:00</published>
	</entry>
	<entry>
		<id>yt:video:vid-2</id>
		<title> Second upload </title>
		<published>2025-01-01T12:00:00+00:00</published>
	</entry>
	<entry>
		<id>yt:video:vid-1</id>
		<yt:videoId>vid-1</yt:videoId>
		<title>Duplicate</title>
	</entry>
	<entry>
		<id>urn:something-else</id>
		<title>No video id</title>
	</entry>
</feed>`

func TestParser_Parse(t *testing.T) {
	parser := NewParser()

	tests := []struct {
		name        string
		feedContent string
		expectError bool
		expected    []youtube.Video
	}{
		{
			name:        "channel feed",
			feedContent: channelFeed,
			expected: []youtube.Video{
				{ID: "vid-1", Title: "First upload"},
				{ID: "vid-2", Title: "Second upload"},
			},
		},
		{
			name: "empty channel",
			feedContent: `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom"><title>Nothing here</title></feed>`,
			expected: []youtube.Video{},
		},
		{
			name:        "not a feed",
			feedContent: `this is not xml`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			videos, err := parser.Parse(strings.NewReader(tt.feedContent))
			if tt.expectError {
				if err == nil {
					t.Error("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(videos) != len(tt.expected) {
				t.Fatalf("expected %d videos, got %d: %+v", len(tt.expected), len(videos), videos)
			}
			for i := range tt.expected {
				if videos[i] != tt.expected[i] {
					t.Errorf("video %d = %+v, want %+v", i, videos[i], tt.expected[i])
				}
			}
		})
	}
}
