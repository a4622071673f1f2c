package github

import (
	"errors"
	"fmt"
)

var (
	ErrBranchNotFound = errors.New("github: branch not found")
	ErrNotFastForward = errors.New("github: ref update is not a fast forward")
)

// APIError is a non-2xx answer from the GitHub API. The request reached
// GitHub and was refused, so its outcome is known.
type APIError struct {
	Method     string
	URL        string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("GitHub API %s %s failed with status %d: %s", e.Method, e.URL, e.StatusCode, e.Message)
}

// CommitStep names one call of the commit sequence.
type CommitStep string

const (
	StepGetBranch    CommitStep = "get-branch"
	StepCreateTree   CommitStep = "create-tree"
	StepCreateCommit CommitStep = "create-commit"
	StepUpdateRef    CommitStep = "update-ref"
)

// Outcome says whether the branch may have moved.
type Outcome string

const (
	// OutcomeFailed means the branch was not updated.
	OutcomeFailed Outcome = "failed"
	// OutcomeUnknown means the ref update was sent but no answer came back;
	// the branch may or may not point at the new commit.
	OutcomeUnknown Outcome = "unknown"
)

// CommitError reports which step of a commit failed.
type CommitError struct {
	Step    CommitStep
	Outcome Outcome
	Err     error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("commit %s at %s: %v", e.Outcome, e.Step, e.Err)
}

func (e *CommitError) Unwrap() error { return e.Err }
