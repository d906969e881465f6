// Package paginate walks cursor-based listings one page at a time.
package paginate

import (
	"context"
	"errors"
	"iter"
)

// ErrExhausted is returned by Next once the final page has been delivered.
var ErrExhausted = errors.New("paginate: no more pages")

// Page is one slice of a listing plus the opaque cursor for the next one.
// An empty NextCursor marks the last page.
type Page[T any] struct {
	Items      []T
	NextCursor string
}

// FetchFunc loads the page identified by cursor. The first call gets "".
type FetchFunc[T any] func(ctx context.Context, cursor string) (Page[T], error)

// Paginator threads cursors through a FetchFunc until the listing ends.
// It is single-use and not safe for concurrent use.
type Paginator[T any] struct {
	fetch  FetchFunc[T]
	cursor string
	done   bool
	pages  int
}

func New[T any](fetch FetchFunc[T]) *Paginator[T] {
	return &Paginator[T]{fetch: fetch}
}

// HasNext reports whether another call to Next may return items.
func (p *Paginator[T]) HasNext() bool {
	return !p.done
}

// Pages is the number of pages fetched successfully so far.
func (p *Paginator[T]) Pages() int {
	return p.pages
}

// Next fetches the next page. On error the cursor is left untouched, so a
// later call re-requests the same page.
func (p *Paginator[T]) Next(ctx context.Context) ([]T, error) {
	if p.done {
		return nil, ErrExhausted
	}

	page, err := p.fetch(ctx, p.cursor)
	if err != nil {
		return nil, err
	}

	p.pages++
	p.cursor = page.NextCursor
	if page.NextCursor == "" {
		p.done = true
	}
	return page.Items, nil
}

// All yields each page in order. Iteration stops after the last page, after
// the first error (which is yielded), or when the consumer breaks.
func (p *Paginator[T]) All(ctx context.Context) iter.Seq2[[]T, error] {
	return func(yield func([]T, error) bool) {
		for p.HasNext() {
			items, err := p.Next(ctx)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(items, nil) {
				return
			}
		}
	}
}

// Each walks a fresh listing and calls fn for every page.
func Each[T any](ctx context.Context, fetch FetchFunc[T], fn func(items []T) error) error {
	for items, err := range New(fetch).All(ctx) {
		if err != nil {
			return err
		}
		if err := fn(items); err != nil {
			return err
		}
	}
	return nil
}

// Collect flattens a whole listing into memory. Only meant for small listings.
func Collect[T any](ctx context.Context, fetch FetchFunc[T]) ([]T, error) {
	var out []T
	err := Each(ctx, fetch, func(items []T) error {
		out = append(out, items...)
		return nil
	})
	return out, err
}
