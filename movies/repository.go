package movies

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/byte4ever/netkit"
)

// DefaultConcurrency bounds the page requests NowPlayingPages keeps in
// flight.
const DefaultConcurrency = 4

var (
	// ErrEmptyQuery is returned by Search for a blank query.
	ErrEmptyQuery = errors.New("movies: search query is empty")
	// ErrInvalidPageRange is returned by NowPlayingPages when first < 1 or
	// last < first.
	ErrInvalidPageRange = errors.New("movies: invalid page range")
)

// Repository is the movie data source.
type Repository interface {
	NowPlaying(ctx context.Context, page int, forceRefresh bool) (ListResponse, error)
	Search(ctx context.Context, query string, page int) (ListResponse, error)
}

// TMDBRepository implements [Repository] against the TMDB API. Its
// requester must decode with [Decoder].
type TMDBRepository struct {
	netkit.BaseRepository
	cfg         Config
	policy      netkit.RetryPolicy
	concurrency int64
}

var _ Repository = (*TMDBRepository)(nil)

// Option configures a [TMDBRepository].
type Option func(*TMDBRepository)

// WithRetryPolicy replaces the default retry policy.
func WithRetryPolicy(p netkit.RetryPolicy) Option {
	return func(r *TMDBRepository) {
		r.policy = p
	}
}

// WithConcurrency bounds NowPlayingPages. Values below 1 are ignored.
func WithConcurrency(n int) Option {
	return func(r *TMDBRepository) {
		if n > 0 {
			r.concurrency = int64(n)
		}
	}
}

// NewRepository returns a repository issuing requests through client with
// [netkit.DefaultRetry].
func NewRepository(client netkit.Requester, cfg Config, opts ...Option) *TMDBRepository {
	r := &TMDBRepository{
		BaseRepository: netkit.NewBaseRepository(client),
		cfg:            cfg,
		policy:         netkit.DefaultRetry(),
		concurrency:    DefaultConcurrency,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Config returns the repository's TMDB configuration.
func (r *TMDBRepository) Config() Config { return r.cfg }

// NowPlaying fetches one page of now-playing movies. forceRefresh skips the
// local response cache.
func (r *TMDBRepository) NowPlaying(
	ctx context.Context,
	page int,
	forceRefresh bool,
) (ListResponse, error) {
	var out ListResponse

	err := r.FetchWithRetry(ctx, NewNowPlaying(r.cfg, page, forceRefresh), r.policy, &out)
	if err != nil {
		return ListResponse{}, err
	}

	return out, nil
}

// Search fetches one page of movies matching query.
func (r *TMDBRepository) Search(ctx context.Context, query string, page int) (ListResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return ListResponse{}, ErrEmptyQuery
	}

	var out ListResponse

	if err := r.FetchWithRetry(ctx, NewSearch(r.cfg, query, page), r.policy, &out); err != nil {
		return ListResponse{}, err
	}

	return out, nil
}

// NowPlayingPages fetches pages first through last concurrently and returns
// them in page order. The first failure cancels the remaining requests.
func (r *TMDBRepository) NowPlayingPages(ctx context.Context, first, last int) ([]ListResponse, error) {
	if first < 1 || last < first {
		return nil, fmt.Errorf("%w: %d..%d", ErrInvalidPageRange, first, last)
	}

	pages := make([]ListResponse, last-first+1)
	sem := semaphore.NewWeighted(r.concurrency)
	g, gctx := errgroup.WithContext(ctx)

	for i := range pages {
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}

		g.Go(func() error {
			defer sem.Release(1)

			page, err := r.NowPlaying(gctx, first+i, false)
			if err != nil {
				return fmt.Errorf("page %d: %w", first+i, err)
			}

			pages[i] = page

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return pages, nil
}
