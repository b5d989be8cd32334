package movies

import (
	"errors"
	"net/url"
	"strings"
)

// Default TMDB locations.
const (
	DefaultBaseURL      = "https://api.themoviedb.org/3"
	DefaultImageBaseURL = "https://image.tmdb.org/t/p"
)

// Image sizes requested from the TMDB image service.
const (
	PosterSize   = "w500"
	BackdropSize = "w780"
)

var (
	// ErrMissingAPIKey is returned by [Config.Validate] when no API key is
	// set.
	ErrMissingAPIKey = errors.New("movies: TMDB API key is required")
	// ErrInvalidBaseURL is returned by [Config.Validate] for a base URL
	// that is not absolute.
	ErrInvalidBaseURL = errors.New("movies: base URL must be absolute")
)

// Config locates the TMDB API and authenticates against it.
type Config struct {
	BaseURL      string `toml:"base_url"`
	ImageBaseURL string `toml:"image_base_url"`
	APIKey       string `toml:"api_key"`
	// Language is sent as the "language" query parameter when set.
	Language string `toml:"language"`
}

// DefaultConfig returns the public TMDB endpoints with no API key.
func DefaultConfig() Config {
	return Config{
		BaseURL:      DefaultBaseURL,
		ImageBaseURL: DefaultImageBaseURL,
	}
}

// Validate reports a missing API key or a malformed base URL.
func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return ErrMissingAPIKey
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ErrInvalidBaseURL
	}

	return nil
}

// ImageURL joins an image path from the API with the image base URL and
// size. It returns "" when path is empty.
func (c Config) ImageURL(path, size string) string {
	if path == "" {
		return ""
	}

	return strings.TrimSuffix(c.ImageBaseURL, "/") + "/" + size + path
}
