package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/tipsbot/internal/config"
	"github.com/tipsbot/internal/logging"
	"github.com/tipsbot/internal/provider_output/github"
	"github.com/tipsbot/internal/ratelimit"
	"github.com/tipsbot/internal/retry"
)

func loadEnv(c *cli.Context) error {
	if path := c.String("env-file"); path != "" {
		return LoadEnvFile(path, c.IsSet("env-file"))
	}
	return nil
}

// loadRuntime reads .env, the config file and the environment, then builds
// the process logger.
func loadRuntime(c *cli.Context) (*config.Config, zerolog.Logger, error) {
	if err := loadEnv(c); err != nil {
		return nil, zerolog.Nop(), err
	}
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}, os.Stderr)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	return cfg, logger, nil
}

// newRateStore opens the configured backing store. The returned close
// function is always safe to call.
func newRateStore(ctx context.Context, cfg config.RateLimitConfig, logger zerolog.Logger) (ratelimit.Store, func(), error) {
	switch cfg.Store {
	case "redis":
		client, err := ratelimit.DialRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, func() {}, err
		}
		logger.Info().Msg("Rate limiter backed by Redis")
		return ratelimit.NewRedisStore(client), func() { _ = client.Close() }, nil
	case "postgres":
		store, pool, err := ratelimit.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, func() {}, err
		}
		logger.Info().Msg("Rate limiter backed by Postgres")
		return store, pool.Close, nil
	default:
		logger.Info().Msg("Rate limiter kept in process memory")
		return ratelimit.NewMemoryStore(), func() {}, nil
	}
}

func newLimiter(ctx context.Context, cfg config.RateLimitConfig, logger zerolog.Logger) (*ratelimit.Limiter, func(), error) {
	store, closeStore, err := newRateStore(ctx, cfg, logger)
	if err != nil {
		return nil, closeStore, err
	}
	limiter, err := ratelimit.New(store, ratelimit.Config{
		Limit:     cfg.Limit,
		Window:    cfg.Window,
		FailOpen:  cfg.FailOpen,
		KeyPrefix: cfg.KeyPrefix,
	}, logger)
	if err != nil {
		closeStore()
		return nil, func() {}, err
	}
	return limiter, closeStore, nil
}

func newTokenSource(cfg config.GitHubConfig) (github.TokenSource, error) {
	if !cfg.UsesApp() {
		return github.StaticToken(cfg.Token), nil
	}
	key, err := os.ReadFile(cfg.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read github app private key: %w", err)
	}
	source, err := github.NewAppTokenSource(cfg.AppID, cfg.InstallationID, key)
	if err != nil {
		return nil, err
	}
	return source.WithBaseURL(cfg.APIURL), nil
}

func newCommitter(cfg *config.Config, logger zerolog.Logger) (*github.Committer, error) {
	tokens, err := newTokenSource(cfg.GitHub)
	if err != nil {
		return nil, err
	}
	client := github.NewAPIClient(tokens, logger).WithBaseURL(cfg.GitHub.APIURL)

	retryCfg := retry.DefaultConfig()
	retryCfg.MaxRetries = cfg.Commit.MaxRetries
	if cfg.Commit.BaseDelay > 0 {
		retryCfg.BaseDelay = cfg.Commit.BaseDelay
	}
	if cfg.Commit.MaxDelay > 0 {
		retryCfg.MaxDelay = cfg.Commit.MaxDelay
	}

	return github.NewCommitter(client, github.CommitterConfig{
		Timeout: cfg.Commit.Timeout,
		Retry:   retryCfg,
	}, logger), nil
}
