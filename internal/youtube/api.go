package youtube

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pders01/ytsweep/internal/paginate"
)

// MyChannel resolves the channel owned by the current credential.
func (c *Client) MyChannel(ctx context.Context) (Channel, error) {
	var resp channelListResponse
	params := url.Values{"part": {"id,snippet"}, "mine": {"true"}}
	if err := c.get(ctx, EndpointChannels, params, &resp); err != nil {
		return Channel{}, err
	}
	if len(resp.Items) == 0 || resp.Items[0].ID == "" {
		return Channel{}, fmt.Errorf("channel lookup: %w", ErrNoItems)
	}
	return Channel{ID: resp.Items[0].ID, Title: resp.Items[0].Snippet.Title}, nil
}

// UploadsPlaylistID returns the playlist holding every upload of channelID.
func (c *Client) UploadsPlaylistID(ctx context.Context, channelID string) (string, error) {
	var resp channelListResponse
	params := url.Values{"part": {"contentDetails"}, "id": {channelID}}
	if err := c.get(ctx, EndpointChannels, params, &resp); err != nil {
		return "", err
	}
	if len(resp.Items) == 0 || resp.Items[0].ContentDetails.RelatedPlaylists.Uploads == "" {
		return "", fmt.Errorf("uploads playlist lookup for %s: %w", channelID, ErrNoItems)
	}
	return resp.Items[0].ContentDetails.RelatedPlaylists.Uploads, nil
}

// PlaylistVideos fetches one page of a playlist.
func (c *Client) PlaylistVideos(ctx context.Context, playlistID, cursor string) (paginate.Page[Video], error) {
	var resp playlistItemListResponse
	params := c.pageParams("snippet,contentDetails", cursor)
	params.Set("playlistId", playlistID)
	if err := c.get(ctx, EndpointPlaylistItems, params, &resp); err != nil {
		return paginate.Page[Video]{}, err
	}

	page := paginate.Page[Video]{NextCursor: resp.NextPageToken}
	for _, it := range resp.Items {
		if it.ContentDetails.VideoID == "" {
			continue
		}
		page.Items = append(page.Items, Video{ID: it.ContentDetails.VideoID, Title: it.Snippet.Title})
	}
	return page, nil
}

// CommentThreads fetches one page of top-level threads on a video.
func (c *Client) CommentThreads(ctx context.Context, videoID, cursor string) (paginate.Page[Thread], error) {
	var resp commentThreadListResponse
	params := c.pageParams("snippet", cursor)
	params.Set("videoId", videoID)
	params.Set("textFormat", "plainText")
	if err := c.get(ctx, EndpointCommentThreads, params, &resp); err != nil {
		return paginate.Page[Thread]{}, err
	}

	page := paginate.Page[Thread]{NextCursor: resp.NextPageToken}
	for _, it := range resp.Items {
		top := it.Snippet.TopLevelComment.flatten()
		if top.ID == "" {
			top.ID = it.ID
		}
		page.Items = append(page.Items, Thread{
			ID:              it.ID,
			TopLevel:        top,
			TotalReplyCount: it.Snippet.TotalReplyCount,
		})
	}
	return page, nil
}

// Replies fetches one page of replies to parentID.
func (c *Client) Replies(ctx context.Context, parentID, cursor string) (paginate.Page[Comment], error) {
	var resp commentListResponse
	params := c.pageParams("snippet", cursor)
	params.Set("parentId", parentID)
	params.Set("textFormat", "plainText")
	if err := c.get(ctx, EndpointComments, params, &resp); err != nil {
		return paginate.Page[Comment]{}, err
	}

	page := paginate.Page[Comment]{NextCursor: resp.NextPageToken}
	for _, it := range resp.Items {
		reply := it.flatten()
		if reply.ParentID == "" {
			reply.ParentID = parentID
		}
		page.Items = append(page.Items, reply)
	}
	return page, nil
}

// DeleteComment removes one comment or reply.
func (c *Client) DeleteComment(ctx context.Context, id string) error {
	_, err := c.Call(ctx, EndpointComments, http.MethodDelete, url.Values{"id": {id}})
	return err
}

func (c *Client) pageParams(part, cursor string) url.Values {
	params := url.Values{
		"part":       {part},
		"maxResults": {strconv.Itoa(c.pageSize)},
	}
	if cursor != "" {
		params.Set("pageToken", cursor)
	}
	return params
}
