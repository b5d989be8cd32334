package movies

import "github.com/byte4ever/netkit"

// Params is the query record shared by the TMDB list endpoints. Empty
// fields are omitted.
type Params struct {
	Query    string `json:"query,omitempty"`
	Language string `json:"language,omitempty"`
	Page     int    `json:"page,omitempty"`
}

// endpointBase carries what every TMDB endpoint has in common.
type endpointBase struct {
	Config Config
}

func (e endpointBase) BaseURL() string { return e.Config.BaseURL }

func (endpointBase) Method() netkit.Method { return netkit.MethodGet }

func (e endpointBase) Headers() map[string]string {
	h := netkit.DefaultHeaders()
	h["Authorization"] = "Bearer " + e.Config.APIKey

	return h
}

// NowPlaying lists movies currently in theatres.
type NowPlaying struct {
	endpointBase
	Page int
	// ForceRefresh bypasses the local response cache.
	ForceRefresh bool
}

// NewNowPlaying returns the endpoint for one page of now-playing movies.
func NewNowPlaying(cfg Config, page int, forceRefresh bool) NowPlaying {
	return NowPlaying{
		endpointBase: endpointBase{Config: cfg},
		Page:         page,
		ForceRefresh: forceRefresh,
	}
}

// Path implements [netkit.Endpoint].
func (NowPlaying) Path() string { return "/movie/now_playing" }

// Parameters implements [netkit.Endpoint].
func (e NowPlaying) Parameters() any {
	return Params{Page: e.Page, Language: e.Config.Language}
}

// CachePolicy implements [netkit.Endpoint]. A forced refresh ignores the
// local cache; otherwise the cached page is revalidated.
func (e NowPlaying) CachePolicy() netkit.CachePolicy {
	if e.ForceRefresh {
		return netkit.ReloadIgnoringLocalCache
	}

	return netkit.ReloadRevalidatingCache
}

// Search finds movies by title.
type Search struct {
	endpointBase
	Query string
	Page  int
}

// NewSearch returns the endpoint for one page of search results.
func NewSearch(cfg Config, query string, page int) Search {
	return Search{
		endpointBase: endpointBase{Config: cfg},
		Query:        query,
		Page:         page,
	}
}

// Path implements [netkit.Endpoint].
func (Search) Path() string { return "/search/movie" }

// Parameters implements [netkit.Endpoint].
func (e Search) Parameters() any {
	return Params{Page: e.Page, Query: e.Query, Language: e.Config.Language}
}

// CachePolicy implements [netkit.Endpoint].
func (Search) CachePolicy() netkit.CachePolicy {
	return netkit.ReloadRevalidatingCache
}

var (
	_ netkit.Endpoint = NowPlaying{}
	_ netkit.Endpoint = Search{}
)
