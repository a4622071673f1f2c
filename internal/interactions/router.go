package interactions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tipsbot/internal/content"
	"github.com/tipsbot/internal/metrics"
	discordin "github.com/tipsbot/internal/provider_input/discord"
	discordout "github.com/tipsbot/internal/provider_output/discord"
	"github.com/tipsbot/internal/provider_output/github"
	"github.com/tipsbot/internal/ratelimit"
	"github.com/tipsbot/internal/search"
)

// Sub-command names of the bot's slash command.
const (
	SubcommandSearch = "search"
	SubcommandAdd    = "add"
)

type IndexSource interface {
	Index() *content.Index
}

type Limiter interface {
	Allow(ctx context.Context, callerID string) ratelimit.Decision
}

type Committer interface {
	Commit(ctx context.Context, req github.CommitRequest) (github.CommitResult, error)
}

type SecretChecker interface {
	Check(content string) error
}

// Config is the routing configuration.
type Config struct {
	CommandName string
	OwnerID     string
	Repo        github.RepoRef
	// ContentRoot and ContentExt place new entries at <root>/<slug>.<ext>.
	ContentRoot string
	ContentExt  string
}

// Deps are the collaborators a Router dispatches to. Secrets and Metrics
// may be nil.
type Deps struct {
	Index     IndexSource
	Limiter   Limiter
	Committer Committer
	Secrets   SecretChecker
	Builder   *discordout.Builder
	Metrics   *metrics.Metrics
}

// Router turns verified interactions into responses. It keeps no state
// between requests; the add flow is correlated only by the modal id.
type Router struct {
	cfg    Config
	deps   Deps
	logger zerolog.Logger
	now    func() time.Time
}

func NewRouter(cfg Config, deps Deps, logger zerolog.Logger) (*Router, error) {
	if cfg.CommandName == "" {
		cfg.CommandName = "tips"
	}
	if cfg.ContentExt == "" {
		cfg.ContentExt = "mdx"
	}
	cfg.ContentRoot = strings.Trim(cfg.ContentRoot, "/")
	if deps.Index == nil || deps.Limiter == nil || deps.Committer == nil || deps.Builder == nil {
		return nil, fmt.Errorf("router requires an index, a limiter, a committer and a response builder")
	}
	return &Router{cfg: cfg, deps: deps, logger: logger, now: time.Now}, nil
}

// Handle routes one interaction. A non-nil error wrapping ErrInvalidRequest
// means the request must be rejected; every other outcome is a response.
func (r *Router) Handle(ctx context.Context, in discordin.Interaction) (discordout.InteractionResponse, error) {
	meta := in.Meta()
	logger := r.logger.With().
		Str("interaction_id", meta.ID).
		Str("kind", in.Type().String()).
		Str("caller_id", meta.CallerID()).
		Logger()

	switch v := in.(type) {
	case *discordin.Ping:
		r.deps.Metrics.ObserveInteraction("ping", "ok")
		return discordout.Pong(), nil

	case *discordin.ApplicationCommand:
		return r.handleCommand(ctx, v, logger)

	case *discordin.ModalSubmit:
		return r.handleModal(ctx, v, logger)
	}
	return discordout.InteractionResponse{}, fmt.Errorf("%w: %s", ErrInvalidRequest, in.Type())
}

func (r *Router) handleCommand(ctx context.Context, cmd *discordin.ApplicationCommand, logger zerolog.Logger) (discordout.InteractionResponse, error) {
	if cmd.Name != r.cfg.CommandName {
		r.deps.Metrics.ObserveInteraction("command", "invalid")
		return discordout.InteractionResponse{}, fmt.Errorf("%w: unknown command %q", ErrInvalidRequest, cmd.Name)
	}
	if len(cmd.Options) != 1 {
		r.deps.Metrics.ObserveInteraction("command", "invalid")
		return discordout.InteractionResponse{}, fmt.Errorf("%w: expected one sub-command, got %d", ErrInvalidRequest, len(cmd.Options))
	}
	sub := cmd.Options[0]
	if sub.Name != SubcommandSearch && sub.Name != SubcommandAdd {
		r.deps.Metrics.ObserveInteraction("command", "invalid")
		return discordout.InteractionResponse{}, fmt.Errorf("%w: unknown sub-command %q", ErrInvalidRequest, sub.Name)
	}
	logger = logger.With().Str("subcommand", sub.Name).Logger()

	decision := r.deps.Limiter.Allow(ctx, cmd.CallerID())
	r.deps.Metrics.ObserveRateLimit(decision.Allowed, decision.StoreErr != nil)
	if !decision.Allowed {
		logger.Info().Msg("Caller throttled")
		r.deps.Metrics.ObserveInteraction(sub.Name, "throttled")
		return discordout.Ephemeral(ThrottledMessage), nil
	}

	switch sub.Name {
	case SubcommandSearch:
		return r.search(sub, logger), nil
	default:
		return r.openAddModal(cmd, sub, logger), nil
	}
}

func (r *Router) search(sub discordin.CommandOption, logger zerolog.Logger) discordout.InteractionResponse {
	term, ok := optionString(sub, "term")
	if !ok || strings.TrimSpace(term) == "" {
		r.deps.Metrics.ObserveInteraction(SubcommandSearch, "validation")
		return discordout.Ephemeral(MissingTermMessage)
	}

	results := search.Search(term, r.deps.Index.Index())
	logger.Info().Str("term", term).Int("matches", len(results)).Msg("Search handled")
	r.deps.Metrics.ObserveInteraction(SubcommandSearch, "ok")
	return r.deps.Builder.SearchResults(term, results)
}

func (r *Router) openAddModal(cmd *discordin.ApplicationCommand, sub discordin.CommandOption, logger zerolog.Logger) discordout.InteractionResponse {
	if !r.isOwner(cmd.Meta()) {
		logger.Warn().Msg("Non-owner tried to add a tip")
		r.deps.Metrics.ObserveInteraction(SubcommandAdd, "denied")
		return discordout.Ephemeral(DeniedMessage)
	}
	title, ok := optionString(sub, "title")
	if !ok || strings.TrimSpace(title) == "" {
		r.deps.Metrics.ObserveInteraction(SubcommandAdd, "validation")
		return discordout.Ephemeral(MissingTitleText)
	}
	r.deps.Metrics.ObserveInteraction(SubcommandAdd, "modal")
	return discordout.AddTipModal(strings.TrimSpace(title))
}

func (r *Router) isOwner(meta discordin.Metadata) bool {
	return r.cfg.OwnerID != "" && meta.CallerID() == r.cfg.OwnerID
}

func optionString(sub discordin.CommandOption, name string) (string, bool) {
	for _, opt := range sub.Options {
		if opt.Name == name {
			return opt.StringValue()
		}
	}
	return "", false
}
