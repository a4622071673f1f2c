package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/tipsbot/internal/api"
	"github.com/tipsbot/internal/config"
	"github.com/tipsbot/internal/content"
	"github.com/tipsbot/internal/interactions"
	"github.com/tipsbot/internal/metrics"
	discordout "github.com/tipsbot/internal/provider_output/discord"
	"github.com/tipsbot/internal/provider_output/github"
	"github.com/tipsbot/internal/secretscan"
	"github.com/tipsbot/internal/webhookutils"
)

// APICommand returns the CLI command for starting the API server
func APICommand() *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Start the interactions webhook server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Aliases: []string{"a"},
				Usage:   "Listen address, overrides server.addr",
			},
		},
		Action: runAPI,
	}
}

func runAPI(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, logger, err := loadRuntime(c)
	if err != nil {
		return err
	}
	if addr := c.String("addr"); addr != "" {
		cfg.Server.Addr = addr
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	verifier, err := webhookutils.NewVerifier(cfg.Discord.PublicKey)
	if err != nil {
		return err
	}

	store, err := content.OpenStore(cfg.Content.IndexPath, logger)
	if err != nil {
		return fmt.Errorf("failed to load content index: %w", err)
	}
	if cfg.Content.Watch {
		go func() {
			if err := store.Watch(ctx); err != nil {
				logger.Error().Err(err).Msg("Content index watcher stopped")
			}
		}()
	}

	limiter, closeStore, err := newLimiter(ctx, cfg.RateLimit, logger)
	defer closeStore()
	if err != nil {
		return fmt.Errorf("failed to set up rate limiter: %w", err)
	}

	committer, err := newCommitter(cfg, logger)
	if err != nil {
		return err
	}

	m := metrics.New(func() int { return store.Index().Len() })

	deps := interactions.Deps{
		Index:     store,
		Limiter:   limiter,
		Committer: committer,
		Builder: discordout.NewBuilder(discordout.BuilderConfig{
			SiteHost:    cfg.Content.SiteHost,
			AccentColor: cfg.Content.AccentColor,
			Palette:     cfg.Content.Palette,
		}),
		Metrics: m,
	}
	if cfg.Secrets.Enabled {
		scanner, err := secretscan.New()
		if err != nil {
			return err
		}
		deps.Secrets = scanner
	}

	router, err := interactions.NewRouter(interactions.Config{
		CommandName: cfg.Discord.CommandName,
		OwnerID:     cfg.Discord.OwnerID,
		Repo:        github.RepoRef{Owner: cfg.GitHub.Owner, Repo: cfg.GitHub.Repo, Branch: cfg.GitHub.Branch},
		ContentRoot: cfg.Content.Root,
		ContentExt:  cfg.Content.Ext,
	}, deps, logger)
	if err != nil {
		return err
	}

	server := api.NewServer(api.ServerConfig{
		Addr:            cfg.Server.Addr,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		MaxBodyBytes:    cfg.Server.MaxBodyBytes,
	}, verifier, router, m, store, logger)

	return server.Start(ctx)
}
