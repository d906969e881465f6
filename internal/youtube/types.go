package youtube

import "time"

// Channel is the authenticated user's channel.
type Channel struct {
	ID    string
	Title string
}

type Video struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Comment is a single comment as returned by the API, flattened.
type Comment struct {
	ID          string
	Text        string
	Author      string
	PublishedAt time.Time
	ParentID    string
}

// Thread is a top-level comment and the number of replies under it.
type Thread struct {
	ID              string
	TopLevel        Comment
	TotalReplyCount int
}

// Wire shapes. Only the fields read are declared.

type channelListResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title string `json:"title"`
		} `json:"snippet"`
		ContentDetails struct {
			RelatedPlaylists struct {
				Uploads string `json:"uploads"`
			} `json:"relatedPlaylists"`
		} `json:"contentDetails"`
	} `json:"items"`
}

type playlistItemListResponse struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		Snippet struct {
			Title string `json:"title"`
		} `json:"snippet"`
		ContentDetails struct {
			VideoID string `json:"videoId"`
		} `json:"contentDetails"`
	} `json:"items"`
}

type commentResource struct {
	ID      string `json:"id"`
	Snippet struct {
		TextDisplay       string    `json:"textDisplay"`
		TextOriginal      string    `json:"textOriginal"`
		AuthorDisplayName string    `json:"authorDisplayName"`
		PublishedAt       time.Time `json:"publishedAt"`
		ParentID          string    `json:"parentId"`
	} `json:"snippet"`
}

func (r commentResource) flatten() Comment {
	text := r.Snippet.TextDisplay
	if text == "" {
		text = r.Snippet.TextOriginal
	}
	return Comment{
		ID:          r.ID,
		Text:        text,
		Author:      r.Snippet.AuthorDisplayName,
		PublishedAt: r.Snippet.PublishedAt,
		ParentID:    r.Snippet.ParentID,
	}
}

type commentThreadListResponse struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		ID      string `json:"id"`
		Snippet struct {
			TopLevelComment commentResource `json:"topLevelComment"`
			TotalReplyCount int             `json:"totalReplyCount"`
		} `json:"snippet"`
	} `json:"items"`
}

type commentListResponse struct {
	NextPageToken string            `json:"nextPageToken"`
	Items         []commentResource `json:"items"`
}
