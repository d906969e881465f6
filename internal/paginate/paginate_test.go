package paginate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pagesFetcher serves fixed pages keyed by cursor and records each request.
type pagesFetcher struct {
	pages    map[string]Page[int]
	requests []string
	failOn   string
	failures int
}

func (f *pagesFetcher) fetch(_ context.Context, cursor string) (Page[int], error) {
	f.requests = append(f.requests, cursor)
	if cursor == f.failOn && f.failures > 0 {
		f.failures--
		return Page[int]{}, errors.New("boom")
	}
	return f.pages[cursor], nil
}

func threePages() *pagesFetcher {
	return &pagesFetcher{pages: map[string]Page[int]{
		"":   {Items: []int{1, 2}, NextCursor: "p2"},
		"p2": {Items: []int{3}, NextCursor: "p3"},
		"p3": {Items: []int{4, 5}},
	}}
}

func TestVisitsEveryItemOnceInOrder(t *testing.T) {
	f := threePages()

	var got []int
	for items, err := range New(f.fetch).All(context.Background()) {
		require.NoError(t, err)
		got = append(got, items...)
	}

	assert.Equal(t, []int{1, 2, 3, 4, 5}, got)
	assert.Equal(t, []string{"", "p2", "p3"}, f.requests, "each page fetched exactly once with the cursor threaded through")
}

func TestSinglePage(t *testing.T) {
	p := New(func(context.Context, string) (Page[string], error) {
		return Page[string]{Items: []string{"only"}}, nil
	})

	items, err := p.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"only"}, items)
	assert.False(t, p.HasNext())
	assert.Equal(t, 1, p.Pages())

	_, err = p.Next(context.Background())
	assert.ErrorIs(t, err, ErrExhausted)
}

func TestEmptyListing(t *testing.T) {
	got, err := Collect(context.Background(), func(context.Context, string) (Page[int], error) {
		return Page[int]{}, nil
	})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestErrorKeepsCursor(t *testing.T) {
	f := threePages()
	f.failOn = "p2"
	f.failures = 1

	p := New(f.fetch)
	ctx := context.Background()

	_, err := p.Next(ctx)
	require.NoError(t, err)

	_, err = p.Next(ctx)
	require.Error(t, err)
	assert.True(t, p.HasNext())

	items, err := p.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{3}, items)
	assert.Equal(t, []string{"", "p2", "p2"}, f.requests)
}

func TestAllStopsAtFirstError(t *testing.T) {
	f := threePages()
	f.failOn = "p2"
	f.failures = 5

	var pages, errs int
	for _, err := range New(f.fetch).All(context.Background()) {
		if err != nil {
			errs++
			continue
		}
		pages++
	}

	assert.Equal(t, 1, pages)
	assert.Equal(t, 1, errs)
	assert.Len(t, f.requests, 2)
}

func TestAllStopsWhenConsumerBreaks(t *testing.T) {
	f := threePages()

	for range New(f.fetch).All(context.Background()) {
		break
	}

	assert.Len(t, f.requests, 1, "no speculative fetch after break")
}

func TestEachPropagatesCallbackError(t *testing.T) {
	f := threePages()
	stop := errors.New("stop")

	err := Each(context.Background(), f.fetch, func(items []int) error {
		return stop
	})

	assert.ErrorIs(t, err, stop)
	assert.Len(t, f.requests, 1)
}

func TestFreshPaginatorRestartsFromFirstPage(t *testing.T) {
	f := threePages()

	_, err := Collect(context.Background(), f.fetch)
	require.NoError(t, err)
	_, err = Collect(context.Background(), f.fetch)
	require.NoError(t, err)

	assert.Equal(t, []string{"", "p2", "p3", "", "p2", "p3"}, f.requests)
}
