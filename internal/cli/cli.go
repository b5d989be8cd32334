// Package cli implements the moviectl command-line interface.
//
// moviectl browses TMDB through netkit: now-playing lists, title search and
// retry policy inspection. Responses are cached in memory (otter or
// ristretto) or in Redis, and every request runs under a named retry policy.
//
// # Logging
//
// All commands support --verbose (-v) for debug logging, which includes
// one line per request attempt and every cache decision.
package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/byte4ever/netkit"
	"github.com/byte4ever/netkit/httpx"
	"github.com/byte4ever/netkit/movies"
	"github.com/byte4ever/netkit/otter"
	"github.com/byte4ever/netkit/redis"
	"github.com/byte4ever/netkit/ristretto"
)

const appName = "moviectl"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath   string
	policiesPath string
	cacheBackend string
}

// New creates a CLI logging to w at level.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Browse TMDB from the terminal",
		Long:         `moviectl lists movies now playing and searches TMDB, retrying transient failures and caching responses.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "TOML configuration file")
	flags.StringVar(&c.policiesPath, "policies", "", "JSON retry policy file")
	flags.Var(
		newChoiceValue(&c.cacheBackend, cacheNone, cacheOtter, cacheRistretto, cacheRedis),
		"cache",
		"response cache: none, otter, ristretto or redis",
	)

	root.AddCommand(c.nowPlayingCommand())
	root.AddCommand(c.searchCommand())
	root.AddCommand(c.policyCommand())

	return root
}

// =============================================================================
// Runtime wiring
// =============================================================================

// session is everything a TMDB command needs, built from the settings.
type session struct {
	repo  *movies.TMDBRepository
	cfg   movies.Config
	close func() error
}

func (c *CLI) policies() (*netkit.PolicyRegistry, error) {
	if c.policiesPath == "" {
		return netkit.DefaultPolicyRegistry(), nil
	}

	return netkit.LoadConfig(c.policiesPath)
}

func (c *CLI) resolvePolicy(name string) (netkit.RetryPolicy, error) {
	reg, err := c.policies()
	if err != nil {
		return netkit.RetryPolicy{}, err
	}

	p, ok := reg.Lookup(name)
	if !ok {
		return netkit.RetryPolicy{}, fmt.Errorf("unknown policy %q (available: %v)", name, reg.Names())
	}

	return p, nil
}

func (c *CLI) openSession(ctx context.Context, policyName string) (*session, error) {
	s, err := loadSettings(c.configPath)
	if err != nil {
		return nil, err
	}

	if c.cacheBackend != "" {
		s.Cache.Backend = c.cacheBackend
	}

	if err = s.TMDB.Validate(); err != nil {
		return nil, fmt.Errorf("%w (set %s or tmdb.api_key)", err, apiKeyEnv)
	}

	policy, err := c.resolvePolicy(policyName)
	if err != nil {
		return nil, err
	}

	logger := loggerFromContext(ctx)

	cache, closeCache, err := openCache(ctx, s)
	if err != nil {
		return nil, err
	}

	hooks := &netkit.Hooks{
		OnCacheHit: func(key string, age time.Duration) {
			logger.Debug("cache hit", "key", key[:12], "age", age)
		},
		OnCacheMiss: func(key string) {
			logger.Debug("cache miss", "key", key[:12])
		},
		OnCacheBypass: func(key string, p netkit.CachePolicy) {
			logger.Debug("cache bypass", "key", key[:12], "policy", p)
		},
		OnRevalidated: func(key string) {
			logger.Debug("cache revalidated", "key", key[:12])
		},
		OnStaleServed: func(key string, age time.Duration) {
			logger.Warn("serving stale response", "key", key[:12], "age", age)
		},
	}

	cachingOpts := []netkit.CachingOption{netkit.WithCacheHooks(hooks)}
	if s.Cache.ServeStale {
		cachingOpts = append(cachingOpts, netkit.WithServeStaleOnError())
	}

	transport := netkit.NewCachingTransport(
		httpx.NewTransport(&http.Client{Timeout: s.HTTP.Timeout.Duration}, transportOptions(s)...),
		cache,
		s.Cache.TTL.Duration,
		cachingOpts...,
	)

	client := netkit.NewClient(
		transport,
		netkit.WithDecoder(movies.Decoder()),
		netkit.WithLogger(logger),
		netkit.WithAttemptTimeout(s.HTTP.AttemptTimeout.Duration),
	)

	return &session{
		repo:  movies.NewRepository(client, s.TMDB, movies.WithRetryPolicy(policy)),
		cfg:   s.TMDB,
		close: closeCache,
	}, nil
}

func transportOptions(s settings) []httpx.Option {
	var opts []httpx.Option

	if s.HTTP.RateLimit > 0 {
		opts = append(opts, httpx.WithRateLimit(s.HTTP.RateLimit, max(s.HTTP.Burst, 1)))
	}

	if s.HTTP.Compression {
		opts = append(opts, httpx.WithCompression())
	}

	if s.HTTP.MaxBodySize > 0 {
		opts = append(opts, httpx.WithMaxBodySize(s.HTTP.MaxBodySize))
	}

	return opts
}

func nopClose() error { return nil }

// openCache builds the configured response cache and its closer.
func openCache(ctx context.Context, s settings) (netkit.ResponseCache, func() error, error) {
	cfg := s.cacheConfig()

	switch s.Cache.Backend {
	case "", cacheNone:
		return netkit.NoCache{}, nopClose, nil
	case cacheOtter:
		c, err := otter.New(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("otter cache: %w", err)
		}

		return c, c.Close, nil
	case cacheRistretto:
		c, err := ristretto.New(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("ristretto cache: %w", err)
		}

		return c, c.Close, nil
	case cacheRedis:
		rc, err := redis.ConfigFromCacheConfig(cfg)
		if err != nil {
			return nil, nil, err
		}

		c, err := redis.New(ctx, rc)
		if err != nil {
			return nil, nil, err
		}

		return c, c.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", s.Cache.Backend)
	}
}
