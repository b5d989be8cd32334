package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/byte4ever/netkit"
	"github.com/byte4ever/netkit/movies"
)

// apiKeyEnv overrides the API key from the config file.
const apiKeyEnv = "TMDB_API_KEY"

// Cache backends accepted by --cache.
const (
	cacheNone      = "none"
	cacheOtter     = "otter"
	cacheRistretto = "ristretto"
	cacheRedis     = "redis"
)

// settings is the moviectl configuration file.
//
//	[tmdb]
//	api_key = "..."
//	language = "en-US"
//
//	[http]
//	timeout = "10s"
//	attempt_timeout = "4s"
//	rate_limit = 20.0
//	compression = true
//
//	[cache]
//	backend = "otter"
//	ttl = "5m"
//	max_size = 500
//	serve_stale = true
type settings struct {
	TMDB  movies.Config `toml:"tmdb"`
	HTTP  httpSettings  `toml:"http"`
	Cache cacheSettings `toml:"cache"`
}

type httpSettings struct {
	Timeout        duration `toml:"timeout"`
	AttemptTimeout duration `toml:"attempt_timeout"`
	RateLimit      float64  `toml:"rate_limit"`
	Burst          int      `toml:"burst"`
	MaxBodySize    int64    `toml:"max_body_size"`
	Compression    bool     `toml:"compression"`
}

type cacheSettings struct {
	Backend       string   `toml:"backend"`
	RedisAddr     string   `toml:"redis_addr"`
	RedisPassword string   `toml:"redis_password"`
	TTL           duration `toml:"ttl"`
	MaxSize       int      `toml:"max_size"`
	RedisDB       int      `toml:"redis_db"`
	ServeStale    bool     `toml:"serve_stale"`
}

// duration decodes TOML strings such as "750ms".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}

	d.Duration = v

	return nil
}

func defaultSettings() settings {
	return settings{
		TMDB: movies.DefaultConfig(),
		HTTP: httpSettings{
			Timeout:     duration{10 * time.Second},
			Compression: true,
		},
		Cache: cacheSettings{
			Backend: cacheOtter,
			TTL:     duration{5 * time.Minute},
			MaxSize: 1000,
		},
	}
}

// loadSettings reads path over the defaults. An empty path skips the file.
// The TMDB_API_KEY environment variable wins over the file.
func loadSettings(path string) (settings, error) {
	s := defaultSettings()

	if path != "" {
		if _, err := toml.DecodeFile(path, &s); err != nil {
			return settings{}, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	if key := os.Getenv(apiKeyEnv); key != "" {
		s.TMDB.APIKey = key
	}

	return s, nil
}

func (s settings) cacheConfig() netkit.CacheConfig {
	return netkit.CacheConfig{
		TTL:     s.Cache.TTL.Duration,
		MaxSize: s.Cache.MaxSize,
		Options: map[string]any{
			"addr":     s.Cache.RedisAddr,
			"password": s.Cache.RedisPassword,
			"db":       float64(s.Cache.RedisDB),
		},
	}
}
