package movies

import (
	"context"
	"errors"
	"slices"
	"sync"
)

// ErrNoMorePages is returned by [Feed.LoadMore] after the last page.
var ErrNoMorePages = errors.New("movies: no more pages")

// Feed accumulates now-playing pages. Movies already seen on an earlier
// page are skipped, so the list stays free of duplicates when the
// underlying ranking shifts between requests. A Feed is safe for
// concurrent use; loads are serialised.
type Feed struct {
	repo    Repository
	seen    map[int]struct{}
	movies  []Movie
	page    int
	hasMore bool
	mu      sync.Mutex
}

// NewFeed returns an empty feed reading from repo.
func NewFeed(repo Repository) *Feed {
	return &Feed{
		repo:    repo,
		seen:    make(map[int]struct{}),
		hasMore: true,
	}
}

// Load replaces the feed's content with page 1.
func (f *Feed) Load(ctx context.Context) error {
	return f.reload(ctx, false)
}

// Refresh is Load with the local response cache bypassed.
func (f *Feed) Refresh(ctx context.Context) error {
	return f.reload(ctx, true)
}

// LoadMore appends the next page. It returns [ErrNoMorePages] when the
// last page has already been loaded.
func (f *Feed) LoadMore(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.hasMore {
		return ErrNoMorePages
	}

	resp, err := f.repo.NowPlaying(ctx, f.page+1, false)
	if err != nil {
		return err
	}

	f.append(resp)

	return nil
}

// Movies returns a copy of the accumulated movies.
func (f *Feed) Movies() []Movie {
	f.mu.Lock()
	defer f.mu.Unlock()

	return slices.Clone(f.movies)
}

// HasMore reports whether LoadMore can fetch another page.
func (f *Feed) HasMore() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.hasMore
}

// Page returns the last page loaded, 0 before the first load.
func (f *Feed) Page() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.page
}

func (f *Feed) reload(ctx context.Context, force bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	resp, err := f.repo.NowPlaying(ctx, 1, force)
	if err != nil {
		return err
	}

	f.movies = nil
	f.seen = make(map[int]struct{}, len(resp.Results))
	f.append(resp)

	return nil
}

func (f *Feed) append(resp ListResponse) {
	for _, m := range resp.Results {
		if _, dup := f.seen[m.ID]; dup {
			continue
		}

		f.seen[m.ID] = struct{}{}
		f.movies = append(f.movies, m)
	}

	f.page = resp.Page
	f.hasMore = resp.HasMorePages()
}
