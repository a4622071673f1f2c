package github

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tipsbot/internal/retry"
)

// GitDataAPI is the subset of the GitHub git data API a commit needs.
type GitDataAPI interface {
	GetBranch(ctx context.Context, ref RepoRef) (Branch, error)
	CreateTree(ctx context.Context, ref RepoRef, baseTree string, entries []TreeEntry) (string, error)
	CreateCommit(ctx context.Context, ref RepoRef, message, tree string, parents []string) (string, error)
	UpdateRef(ctx context.Context, ref RepoRef, sha string) error
}

// CommitRequest adds one file to a branch.
type CommitRequest struct {
	Repo    RepoRef
	Path    string
	Content string
	Message string
}

// CommitResult is the state after a successful ref update.
type CommitResult struct {
	ParentSHA string
	TreeSHA   string
	CommitSHA string
	Attempts  int
}

// CommitterConfig controls timeouts and re-drives of the commit sequence.
type CommitterConfig struct {
	// Timeout bounds one pass through the four steps.
	Timeout time.Duration
	// Retry re-drives the whole sequence from a fresh branch read. Only
	// fast-forward conflicts and transient failures before the ref update
	// are re-driven.
	Retry retry.Config
}

// DefaultCommitterConfig reports conflicts instead of re-driving them.
func DefaultCommitterConfig() CommitterConfig {
	cfg := retry.DefaultConfig()
	cfg.MaxRetries = 0
	return CommitterConfig{Timeout: 15 * time.Second, Retry: cfg}
}

// Committer appends files to a branch with fast-forward-only ref updates so
// concurrent writers can never rewind each other.
type Committer struct {
	api    GitDataAPI
	config CommitterConfig
	logger zerolog.Logger
}

func NewCommitter(api GitDataAPI, config CommitterConfig, logger zerolog.Logger) *Committer {
	if config.Timeout <= 0 {
		config.Timeout = DefaultCommitterConfig().Timeout
	}
	config.Retry.ShouldRetry = shouldRedrive
	return &Committer{api: api, config: config, logger: logger}
}

// Commit runs get-branch, create-tree, create-commit and update-ref in order.
// Success is only reported once update-ref has been acknowledged. Failures
// are *CommitError values naming the step.
func (c *Committer) Commit(ctx context.Context, req CommitRequest) (CommitResult, error) {
	if req.Path == "" {
		return CommitResult{}, &CommitError{Step: StepCreateTree, Outcome: OutcomeFailed, Err: errors.New("empty file path")}
	}

	logger := c.logger.With().Str("repo", req.Repo.String()).Str("path", req.Path).Logger()

	var out CommitResult
	res := retry.Do(ctx, c.config.Retry, func(attempt int) error {
		attemptCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()

		r, err := c.commitOnce(attemptCtx, req, logger)
		if err != nil {
			return err
		}
		out = r
		return nil
	}, logger)
	if !res.Success {
		var commitErr *CommitError
		if !errors.As(res.LastError, &commitErr) {
			// ctx ended between attempts; nothing was left in flight.
			commitErr = &CommitError{Step: StepGetBranch, Outcome: OutcomeFailed, Err: res.LastError}
		}
		logger.Error().Err(commitErr.Err).
			Str("step", string(commitErr.Step)).
			Str("outcome", string(commitErr.Outcome)).
			Int("attempts", res.Attempts).
			Msg("Commit failed")
		return CommitResult{}, commitErr
	}

	out.Attempts = res.Attempts
	logger.Info().Str("commit_sha", out.CommitSHA).Str("parent_sha", out.ParentSHA).Int("attempts", out.Attempts).Msg("Commit pushed")
	return out, nil
}

func (c *Committer) commitOnce(ctx context.Context, req CommitRequest, logger zerolog.Logger) (CommitResult, error) {
	branch, err := c.api.GetBranch(ctx, req.Repo)
	if err != nil {
		return CommitResult{}, &CommitError{Step: StepGetBranch, Outcome: OutcomeFailed, Err: err}
	}
	logger.Debug().Str("head_sha", branch.HeadSHA).Msg("Read branch head")

	baseTree := branch.TreeSHA
	if baseTree == "" {
		baseTree = branch.HeadSHA
	}
	entries := []TreeEntry{{Path: req.Path, Mode: "100644", Type: "blob", Content: req.Content}}
	treeSHA, err := c.api.CreateTree(ctx, req.Repo, baseTree, entries)
	if err != nil {
		return CommitResult{}, &CommitError{Step: StepCreateTree, Outcome: OutcomeFailed, Err: err}
	}

	commitSHA, err := c.api.CreateCommit(ctx, req.Repo, req.Message, treeSHA, []string{branch.HeadSHA})
	if err != nil {
		return CommitResult{}, &CommitError{Step: StepCreateCommit, Outcome: OutcomeFailed, Err: err}
	}
	logger.Debug().Str("tree_sha", treeSHA).Str("commit_sha", commitSHA).Msg("Created commit")

	if err := c.api.UpdateRef(ctx, req.Repo, commitSHA); err != nil {
		outcome := OutcomeFailed
		if errors.Is(err, errNoResponse) || errors.Is(err, context.DeadlineExceeded) {
			outcome = OutcomeUnknown
		}
		return CommitResult{}, &CommitError{Step: StepUpdateRef, Outcome: outcome, Err: err}
	}

	return CommitResult{ParentSHA: branch.HeadSHA, TreeSHA: treeSHA, CommitSHA: commitSHA}, nil
}

// shouldRedrive allows another pass only when the branch is known not to
// have moved to our commit.
func shouldRedrive(err error) bool {
	var commitErr *CommitError
	if !errors.As(err, &commitErr) {
		return false
	}
	switch {
	case commitErr.Outcome == OutcomeUnknown:
		return false
	case errors.Is(commitErr.Err, ErrNotFastForward):
		return true
	case errors.Is(commitErr.Err, ErrBranchNotFound):
		return false
	case commitErr.Step == StepUpdateRef:
		return false
	default:
		return retry.IsRetryableError(commitErr.Err)
	}
}

// Describe renders a failure for people: which step failed, or that the
// outcome cannot be known.
func Describe(err error) string {
	var commitErr *CommitError
	if !errors.As(err, &commitErr) {
		return "the commit could not be completed"
	}
	if commitErr.Outcome == OutcomeUnknown {
		return "the branch update timed out, so it is unknown whether the tip was saved"
	}
	if errors.Is(commitErr.Err, ErrNotFastForward) {
		return fmt.Sprintf("step %q failed because the branch moved while saving", commitErr.Step)
	}
	return fmt.Sprintf("step %q failed", commitErr.Step)
}
