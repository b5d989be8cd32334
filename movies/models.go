package movies

import (
	"strconv"
	"time"

	"github.com/byte4ever/netkit"
)

// releaseDateLayout is the date format used by the API.
const releaseDateLayout = "2006-01-02"

// Movie is one entry of a TMDB list. Tags are camelCase because responses
// are decoded with snake_case key conversion; see [Decoder].
type Movie struct {
	Title            string  `json:"title"`
	Overview         string  `json:"overview"`
	PosterPath       string  `json:"posterPath,omitempty"`
	BackdropPath     string  `json:"backdropPath,omitempty"`
	ReleaseDate      string  `json:"releaseDate,omitempty"`
	OriginalLanguage string  `json:"originalLanguage,omitempty"`
	OriginalTitle    string  `json:"originalTitle,omitempty"`
	VoteAverage      float64 `json:"voteAverage,omitempty"`
	ID               int     `json:"id"`
}

// PosterURL returns the w500 poster URL, or "" when the movie has none.
func (m Movie) PosterURL(cfg Config) string {
	return cfg.ImageURL(m.PosterPath, PosterSize)
}

// BackdropURL returns the w780 backdrop URL, or "" when the movie has none.
func (m Movie) BackdropURL(cfg Config) string {
	return cfg.ImageURL(m.BackdropPath, BackdropSize)
}

// FormattedReleaseDate renders the release date as "Jan 2, 2006". It
// reports false when the date is missing or malformed.
func (m Movie) FormattedReleaseDate() (string, bool) {
	if m.ReleaseDate == "" {
		return "", false
	}

	t, err := time.Parse(releaseDateLayout, m.ReleaseDate)
	if err != nil {
		return "", false
	}

	return t.Format("Jan 2, 2006"), true
}

// FormattedRating renders the vote average with one decimal. It reports
// false for movies without votes.
func (m Movie) FormattedRating() (string, bool) {
	if m.VoteAverage <= 0 {
		return "", false
	}

	return strconv.FormatFloat(m.VoteAverage, 'f', 1, 64), true
}

// ListResponse is one page of movies.
type ListResponse struct {
	Results      []Movie `json:"results"`
	Page         int     `json:"page"`
	TotalPages   int     `json:"totalPages"`
	TotalResults int     `json:"totalResults"`
}

// HasMorePages reports whether a later page exists.
func (r ListResponse) HasMorePages() bool {
	return r.Page < r.TotalPages
}

// Decoder returns the decoder TMDB responses need: JSON with snake_case
// keys converted to camelCase.
func Decoder() netkit.Decoder {
	return netkit.JSONDecoder{Keys: netkit.ConvertFromSnakeCase}
}
