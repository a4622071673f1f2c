package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const defaultAPIURL = "https://api.github.com"

// errNoResponse marks a request that may have reached GitHub but produced no
// answer, so its effect is unknown.
var errNoResponse = errors.New("no response from GitHub")

// RepoRef identifies the branch entries are committed to.
type RepoRef struct {
	Owner  string
	Repo   string
	Branch string
}

func (r RepoRef) String() string {
	return r.Owner + "/" + r.Repo + "@" + r.Branch
}

// Branch is the part of a branch lookup the commit sequence needs.
type Branch struct {
	Name    string
	HeadSHA string
	TreeSHA string
}

// TreeEntry is one blob written by CreateTree.
type TreeEntry struct {
	Path    string `json:"path"`
	Mode    string `json:"mode"`
	Type    string `json:"type"`
	Content string `json:"content"`
}

// APIClient talks to the GitHub git data API for one installation or token.
type APIClient struct {
	httpClient *http.Client
	baseURL    string
	tokens     TokenSource
	logger     zerolog.Logger
}

// NewAPIClient constructs a GitHub client with sensible defaults.
func NewAPIClient(tokens TokenSource, logger zerolog.Logger) *APIClient {
	return &APIClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultAPIURL,
		tokens:     tokens,
		logger:     logger,
	}
}

// WithBaseURL targets GitHub Enterprise or a test server.
func (c *APIClient) WithBaseURL(base string) *APIClient {
	if base != "" {
		c.baseURL = strings.TrimSuffix(base, "/")
	}
	return c
}

// GetBranch reads the current head of a branch.
func (c *APIClient) GetBranch(ctx context.Context, ref RepoRef) (Branch, error) {
	var resp struct {
		Name   string `json:"name"`
		Commit struct {
			SHA    string `json:"sha"`
			Commit struct {
				Tree struct {
					SHA string `json:"sha"`
				} `json:"tree"`
			} `json:"commit"`
		} `json:"commit"`
	}
	apiURL := fmt.Sprintf("%s/repos/%s/%s/branches/%s", c.baseURL, ref.Owner, ref.Repo, branchPath(ref.Branch))
	if err := c.doGitHubAPI(ctx, http.MethodGet, apiURL, nil, &resp); err != nil {
		if hasStatus(err, http.StatusNotFound) {
			return Branch{}, fmt.Errorf("%w: %s: %v", ErrBranchNotFound, ref, err)
		}
		return Branch{}, err
	}
	if resp.Commit.SHA == "" {
		return Branch{}, fmt.Errorf("branch %s has no head commit", ref.Branch)
	}
	return Branch{Name: resp.Name, HeadSHA: resp.Commit.SHA, TreeSHA: resp.Commit.Commit.Tree.SHA}, nil
}

// CreateTree writes a tree that is baseTree plus entries and returns its SHA.
func (c *APIClient) CreateTree(ctx context.Context, ref RepoRef, baseTree string, entries []TreeEntry) (string, error) {
	requestBody := map[string]interface{}{
		"base_tree": baseTree,
		"tree":      entries,
	}
	var resp struct {
		SHA string `json:"sha"`
	}
	apiURL := fmt.Sprintf("%s/repos/%s/%s/git/trees", c.baseURL, ref.Owner, ref.Repo)
	if err := c.doGitHubAPI(ctx, http.MethodPost, apiURL, requestBody, &resp); err != nil {
		return "", err
	}
	return resp.SHA, nil
}

// CreateCommit creates an unreferenced commit object and returns its SHA.
func (c *APIClient) CreateCommit(ctx context.Context, ref RepoRef, message, tree string, parents []string) (string, error) {
	requestBody := map[string]interface{}{
		"message": message,
		"tree":    tree,
		"parents": parents,
	}
	var resp struct {
		SHA string `json:"sha"`
	}
	apiURL := fmt.Sprintf("%s/repos/%s/%s/git/commits", c.baseURL, ref.Owner, ref.Repo)
	if err := c.doGitHubAPI(ctx, http.MethodPost, apiURL, requestBody, &resp); err != nil {
		return "", err
	}
	return resp.SHA, nil
}

// UpdateRef moves the branch to sha. force is always false: GitHub refuses
// the update unless sha descends from the ref's current value.
func (c *APIClient) UpdateRef(ctx context.Context, ref RepoRef, sha string) error {
	requestBody := map[string]interface{}{
		"sha":   sha,
		"force": false,
	}
	apiURL := fmt.Sprintf("%s/repos/%s/%s/git/refs/heads/%s", c.baseURL, ref.Owner, ref.Repo, branchPath(ref.Branch))
	err := c.doGitHubAPI(ctx, http.MethodPatch, apiURL, requestBody, nil)
	if hasStatus(err, http.StatusUnprocessableEntity) || hasStatus(err, http.StatusConflict) {
		return fmt.Errorf("%w: %v", ErrNotFastForward, err)
	}
	return err
}

// branchPath escapes each segment of a branch name and keeps the slashes,
// which both the branches and refs endpoints accept.
func branchPath(branch string) string {
	segments := strings.Split(branch, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}

func (c *APIClient) doGitHubAPI(ctx context.Context, method, apiURL string, requestBody, out interface{}) error {
	var body io.Reader
	if requestBody != nil {
		jsonBody, err := json.Marshal(requestBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, body)
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("failed to get GitHub token: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	req.Header.Set("User-Agent", "tipsbot")

	c.logger.Debug().Str("method", method).Str("url", apiURL).Msg("GitHub API request")

	client := c.httpClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", errNoResponse, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Method: method, URL: apiURL, StatusCode: resp.StatusCode, Message: githubMessage(respBody)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode GitHub response: %w", err)
	}
	return nil
}

func hasStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

func githubMessage(body []byte) string {
	var parsed struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Message != "" {
		return parsed.Message
	}
	return strings.TrimSpace(string(body))
}
