// Package movies is a TMDB client built on netkit.
//
// It declares the now-playing and search endpoints, the list and movie
// models, and a [Repository] that fetches them under a retry policy.
// [Feed] accumulates pages for infinite-scroll style consumers.
//
//	cfg := movies.DefaultConfig()
//	cfg.APIKey = os.Getenv("TMDB_API_KEY")
//
//	client := netkit.NewClient(httpx.NewTransport(nil),
//	    netkit.WithDecoder(movies.Decoder()))
//	repo := movies.NewRepository(client, cfg)
//
//	list, err := repo.NowPlaying(ctx, 1, false)
package movies
