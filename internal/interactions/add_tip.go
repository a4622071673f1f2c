package interactions

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tipsbot/internal/content"
	discordin "github.com/tipsbot/internal/provider_input/discord"
	discordout "github.com/tipsbot/internal/provider_output/discord"
	"github.com/tipsbot/internal/provider_output/github"
	"github.com/tipsbot/internal/secretscan"
)

// tipSubmission is a parsed add_tip form.
type tipSubmission struct {
	Title string
	Slug  string
	Tags  []string
	Type  content.Type
	Link  string
	Body  string
}

// validationError is a problem with the submitted form that the caller can fix.
type validationError struct{ msg string }

func (e *validationError) Error() string { return e.msg }

func parseSubmission(m *discordin.ModalSubmit) (tipSubmission, error) {
	field := func(id string) string {
		v, _ := m.Field(id)
		return strings.TrimSpace(v)
	}

	sub := tipSubmission{
		Title: field(discordout.FieldTitle),
		Link:  field(discordout.FieldLink),
		Body:  field(discordout.FieldContent),
	}
	if sub.Title == "" {
		return tipSubmission{}, &validationError{MissingTitleText}
	}
	sub.Slug = content.Slug(sub.Title)
	if sub.Slug == "" {
		return tipSubmission{}, &validationError{EmptySlugMessage}
	}

	sub.Tags = splitTags(field(discordout.FieldTags))

	sub.Type = content.TypeTip
	if raw := field(discordout.FieldType); raw != "" {
		t, err := content.ParseType(raw)
		if err != nil {
			return tipSubmission{}, &validationError{fmt.Sprintf("Unknown type %q, use one of talk, guide, tip, source, link or snippet", raw)}
		}
		sub.Type = t
	}
	return sub, nil
}

func splitTags(raw string) []string {
	tags := []string{}
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func (r *Router) handleModal(ctx context.Context, m *discordin.ModalSubmit, logger zerolog.Logger) (discordout.InteractionResponse, error) {
	if m.CustomID != discordout.AddTipModalID {
		r.deps.Metrics.ObserveInteraction("modal", "invalid")
		return discordout.InteractionResponse{}, fmt.Errorf("%w: unknown modal %q", ErrInvalidRequest, m.CustomID)
	}
	if !r.isOwner(m.Meta()) {
		logger.Warn().Msg("Non-owner submitted the add form")
		r.deps.Metrics.ObserveInteraction(discordout.AddTipModalID, "denied")
		return discordout.Ephemeral(DeniedMessage), nil
	}

	sub, err := parseSubmission(m)
	if err != nil {
		r.deps.Metrics.ObserveInteraction(discordout.AddTipModalID, "validation")
		return discordout.Ephemeral(err.Error()), nil
	}
	logger = logger.With().Str("slug", sub.Slug).Logger()

	created := r.now().UTC().Truncate(time.Second)
	fileContent, err := content.RenderMarkdown(content.Frontmatter{
		Title:   sub.Title,
		Tags:    sub.Tags,
		Type:    sub.Type,
		Created: created,
		Link:    sub.Link,
	}, sub.Body)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to render tip")
		r.deps.Metrics.ObserveInteraction(discordout.AddTipModalID, "failed")
		return discordout.Ephemeral("Sorry, the tip could not be prepared for saving"), nil
	}

	if r.deps.Secrets != nil {
		if err := r.deps.Secrets.Check(fileContent); err != nil {
			logger.Warn().Err(err).Msg("Rejected tip containing a secret")
			r.deps.Metrics.ObserveSecretBlocked()
			r.deps.Metrics.ObserveInteraction(discordout.AddTipModalID, "validation")
			if errors.Is(err, secretscan.ErrSecretDetected) {
				return discordout.Ephemeral("The tip looks like it contains a secret such as an API token, so it was not saved"), nil
			}
			return discordout.Ephemeral("Sorry, the tip could not be checked for secrets"), nil
		}
	}

	req := github.CommitRequest{
		Repo:    r.cfg.Repo,
		Path:    r.entryPath(sub.Slug),
		Content: fileContent,
		Message: "Added a new tip: " + sub.Title,
	}

	started := time.Now()
	result, err := r.deps.Committer.Commit(ctx, req)
	if err != nil {
		step := ""
		var commitErr *github.CommitError
		if errors.As(err, &commitErr) {
			step = string(commitErr.Step)
		}
		r.deps.Metrics.ObserveCommit("failed", step, time.Since(started))
		r.deps.Metrics.ObserveInteraction(discordout.AddTipModalID, "failed")
		logger.Error().Err(err).Str("step", step).Str("path", req.Path).Msg("Failed to save tip")
		return discordout.Ephemeral("Sorry, the tip could not be saved: " + github.Describe(err)), nil
	}
	r.deps.Metrics.ObserveCommit("ok", "", time.Since(started))
	r.deps.Metrics.ObserveInteraction(discordout.AddTipModalID, "ok")
	logger.Info().Str("commit_sha", result.CommitSHA).Str("path", req.Path).Msg("Tip saved")

	rec := content.Record{
		Title:   sub.Title,
		Tags:    sub.Tags,
		Type:    sub.Type,
		Link:    sub.Link,
		Created: created,
		Slug:    sub.Slug,
		Body:    sub.Body,
	}
	return r.deps.Builder.TipSaved(rec, m.Caller.DisplayName()), nil
}

func (r *Router) entryPath(slug string) string {
	return path.Join(r.cfg.ContentRoot, slug+"."+r.cfg.ContentExt)
}
