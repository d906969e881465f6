package comments

import (
	"context"
	"errors"
	"testing"

	"github.com/pders01/ytsweep/internal/paginate"
	"github.com/pders01/ytsweep/internal/youtube"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource serves thread and reply pages from memory.
type fakeSource struct {
	threads     map[string][]paginate.Page[youtube.Thread] // by video, then page index
	replies     map[string][]paginate.Page[youtube.Comment]
	replyErr    map[string]error
	threadCalls []string
	replyCalls  []string
}

func cursorIndex(cursor string) int {
	if cursor == "" {
		return 0
	}
	return int(cursor[0] - '0')
}

func (f *fakeSource) CommentThreads(_ context.Context, videoID, cursor string) (paginate.Page[youtube.Thread], error) {
	f.threadCalls = append(f.threadCalls, videoID+"@"+cursor)
	return f.threads[videoID][cursorIndex(cursor)], nil
}

func (f *fakeSource) Replies(_ context.Context, parentID, cursor string) (paginate.Page[youtube.Comment], error) {
	f.replyCalls = append(f.replyCalls, parentID+"@"+cursor)
	if err := f.replyErr[parentID]; err != nil {
		return paginate.Page[youtube.Comment]{}, err
	}
	return f.replies[parentID][cursorIndex(cursor)], nil
}

func thread(id, text string, replies int) youtube.Thread {
	return youtube.Thread{ID: id, TopLevel: youtube.Comment{ID: id, Text: text, Author: "author-" + id}, TotalReplyCount: replies}
}

var video = youtube.Video{ID: "vid", Title: "My Video"}

func TestWalkSingleTopLevelMatch(t *testing.T) {
	src := &fakeSource{threads: map[string][]paginate.Page[youtube.Thread]{
		"vid": {{Items: []youtube.Thread{thread("t1", "great video", 0)}}},
	}}

	got, err := NewWalker(src).Walk(context.Background(), video, NewFilter("great", nil))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, Comment{
		ID:         "t1",
		Text:       "great video",
		Author:     "author-t1",
		VideoID:    "vid",
		VideoTitle: "My Video",
	}, got[0])
	assert.Empty(t, src.replyCalls, "no reply fetch for threads without replies")
}

func TestWalkExclusionSuppressesMatch(t *testing.T) {
	src := &fakeSource{threads: map[string][]paginate.Page[youtube.Thread]{
		"vid": {{Items: []youtube.Thread{thread("t1", "this is spam, great spam", 0)}}},
	}}

	got, err := NewWalker(src).Walk(context.Background(), video, NewFilter("great", []string{"spam"}))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestWalkFetchesRepliesOfNonMatchingThread(t *testing.T) {
	src := &fakeSource{
		threads: map[string][]paginate.Page[youtube.Thread]{
			"vid": {{Items: []youtube.Thread{thread("t1", "nothing here", 2)}}},
		},
		replies: map[string][]paginate.Page[youtube.Comment]{
			"t1": {{Items: []youtube.Comment{
				{ID: "r1", Text: "meh"},
				{ID: "r2", Text: "Great point"},
			}}},
		},
	}

	got, err := NewWalker(src).Walk(context.Background(), video, NewFilter("great", nil))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "r2", got[0].ID)
	assert.True(t, got[0].IsReply)
	assert.Equal(t, "t1", got[0].ParentID)
	assert.Zero(t, got[0].ReplyCount)
	assert.Equal(t, []string{"t1@"}, src.replyCalls)
}

func TestWalkOrderAcrossPages(t *testing.T) {
	src := &fakeSource{
		threads: map[string][]paginate.Page[youtube.Thread]{
			"vid": {
				{Items: []youtube.Thread{thread("t1", "hit one", 1), thread("t2", "miss", 0)}, NextCursor: "1"},
				{Items: []youtube.Thread{thread("t3", "hit three", 0)}},
			},
		},
		replies: map[string][]paginate.Page[youtube.Comment]{
			"t1": {
				{Items: []youtube.Comment{{ID: "r1", Text: "hit reply"}}, NextCursor: "1"},
				{Items: []youtube.Comment{{ID: "r2", Text: "hit again"}}},
			},
		},
	}

	got, err := NewWalker(src).Walk(context.Background(), video, NewFilter("hit", nil))
	require.NoError(t, err)

	ids := make([]string, len(got))
	for i, c := range got {
		ids[i] = c.ID
	}
	assert.Equal(t, []string{"t1", "r1", "r2", "t3"}, ids)
	assert.Equal(t, []string{"vid@", "vid@1"}, src.threadCalls)
	assert.Equal(t, []string{"t1@", "t1@1"}, src.replyCalls)
}

func TestWalkReturnsErrorUnmodifiedWithPartialMatches(t *testing.T) {
	boom := &youtube.APIError{Kind: youtube.KindQuotaExceeded, Status: 403, Reason: "quotaExceeded"}
	src := &fakeSource{
		threads: map[string][]paginate.Page[youtube.Thread]{
			"vid": {{Items: []youtube.Thread{thread("t1", "hit", 1), thread("t2", "hit too", 0)}}},
		},
		replyErr: map[string]error{"t1": boom},
	}

	got, err := NewWalker(src).Walk(context.Background(), video, NewFilter("hit", nil))
	require.Error(t, err)
	assert.True(t, errors.Is(err, youtube.ErrQuotaExceeded))

	var apiErr *youtube.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Same(t, boom, apiErr)

	require.Len(t, got, 1)
	assert.Equal(t, "t1", got[0].ID)
}
