package netkit

import "context"

// BaseRepository is embedded by feature repositories. It forwards to a
// [Requester] without adding behaviour of its own.
type BaseRepository struct {
	client Requester
}

// NewBaseRepository returns a repository backed by client.
func NewBaseRepository(client Requester) BaseRepository {
	return BaseRepository{client: client}
}

// Client returns the underlying requester.
func (r BaseRepository) Client() Requester { return r.client }

// Fetch performs a single attempt for e and decodes into out.
func (r BaseRepository) Fetch(ctx context.Context, e Endpoint, out any) error {
	return r.client.Request(ctx, e, out)
}

// FetchWithRetry performs e under policy and decodes into out.
func (r BaseRepository) FetchWithRetry(
	ctx context.Context,
	e Endpoint,
	policy RetryPolicy,
	out any,
) error {
	return r.client.RequestWithRetry(ctx, e, policy, out)
}
