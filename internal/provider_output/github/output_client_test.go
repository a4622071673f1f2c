package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripFunc func(*http.Request) *http.Response

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req), nil
}

var testRepo = RepoRef{Owner: "owner", Repo: "site", Branch: "main"}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     make(http.Header),
	}
}

func newTestClient(fn roundTripFunc) *APIClient {
	client := NewAPIClient(StaticToken("tok"), zerolog.Nop())
	client.httpClient = &http.Client{Transport: fn}
	return client
}

func TestGetBranch_ParsesHeadAndTree(t *testing.T) {
	var captured *http.Request
	client := newTestClient(func(req *http.Request) *http.Response {
		captured = req
		return jsonResponse(http.StatusOK, `{"name":"main","commit":{"sha":"c1","commit":{"tree":{"sha":"t1"}}}}`)
	})

	branch, err := client.GetBranch(context.Background(), testRepo)
	require.NoError(t, err)
	assert.Equal(t, Branch{Name: "main", HeadSHA: "c1", TreeSHA: "t1"}, branch)

	require.NotNil(t, captured)
	assert.Equal(t, http.MethodGet, captured.Method)
	assert.Equal(t, "https://api.github.com/repos/owner/site/branches/main", captured.URL.String())
	assert.Equal(t, "Bearer tok", captured.Header.Get("Authorization"))
	assert.Equal(t, "application/vnd.github+json", captured.Header.Get("Accept"))
	assert.Equal(t, "tipsbot", captured.Header.Get("User-Agent"))
}

func TestGetBranch_NotFound(t *testing.T) {
	client := newTestClient(func(*http.Request) *http.Response {
		return jsonResponse(http.StatusNotFound, `{"message":"Branch not found"}`)
	})

	_, err := client.GetBranch(context.Background(), testRepo)
	require.ErrorIs(t, err, ErrBranchNotFound)
	assert.Contains(t, err.Error(), "Branch not found")
}

func TestCreateTree_SendsBaseTreeAndBlob(t *testing.T) {
	var body map[string]interface{}
	var url string
	client := newTestClient(func(req *http.Request) *http.Response {
		url = req.URL.String()
		payload, _ := io.ReadAll(req.Body)
		_ = json.Unmarshal(payload, &body)
		return jsonResponse(http.StatusCreated, `{"sha":"t2"}`)
	})

	sha, err := client.CreateTree(context.Background(), testRepo, "t1", []TreeEntry{
		{Path: "app/_tips/a.mdx", Mode: "100644", Type: "blob", Content: "hello"},
	})
	require.NoError(t, err)
	assert.Equal(t, "t2", sha)
	assert.Equal(t, "https://api.github.com/repos/owner/site/git/trees", url)
	assert.Equal(t, "t1", body["base_tree"])

	tree, ok := body["tree"].([]interface{})
	require.True(t, ok)
	require.Len(t, tree, 1)
	entry := tree[0].(map[string]interface{})
	assert.Equal(t, "app/_tips/a.mdx", entry["path"])
	assert.Equal(t, "100644", entry["mode"])
	assert.Equal(t, "blob", entry["type"])
	assert.Equal(t, "hello", entry["content"])
}

func TestCreateCommit_SingleParent(t *testing.T) {
	var body map[string]interface{}
	client := newTestClient(func(req *http.Request) *http.Response {
		payload, _ := io.ReadAll(req.Body)
		_ = json.Unmarshal(payload, &body)
		return jsonResponse(http.StatusCreated, `{"sha":"c2"}`)
	})

	sha, err := client.CreateCommit(context.Background(), testRepo, "Added a new tip: X", "t2", []string{"c1"})
	require.NoError(t, err)
	assert.Equal(t, "c2", sha)
	assert.Equal(t, "Added a new tip: X", body["message"])
	assert.Equal(t, "t2", body["tree"])
	assert.Equal(t, []interface{}{"c1"}, body["parents"])
}

func TestUpdateRef_NeverForces(t *testing.T) {
	var body map[string]interface{}
	var captured *http.Request
	client := newTestClient(func(req *http.Request) *http.Response {
		captured = req
		payload, _ := io.ReadAll(req.Body)
		_ = json.Unmarshal(payload, &body)
		return jsonResponse(http.StatusOK, `{"ref":"refs/heads/main"}`)
	})

	require.NoError(t, client.UpdateRef(context.Background(), testRepo, "c2"))
	assert.Equal(t, http.MethodPatch, captured.Method)
	assert.Equal(t, "https://api.github.com/repos/owner/site/git/refs/heads/main", captured.URL.String())
	assert.Equal(t, "c2", body["sha"])
	assert.Equal(t, false, body["force"])
}

func TestBranchURLs_EscapedAlike(t *testing.T) {
	var paths []string
	client := newTestClient(func(req *http.Request) *http.Response {
		paths = append(paths, req.URL.EscapedPath())
		if req.Method == http.MethodGet {
			return jsonResponse(http.StatusOK, `{"name":"docs/new tips","commit":{"sha":"c1","commit":{"tree":{"sha":"t1"}}}}`)
		}
		return jsonResponse(http.StatusOK, `{"ref":"refs/heads/docs/new tips"}`)
	})
	ref := RepoRef{Owner: "owner", Repo: "site", Branch: "docs/new tips"}

	_, err := client.GetBranch(context.Background(), ref)
	require.NoError(t, err)
	require.NoError(t, client.UpdateRef(context.Background(), ref, "c2"))

	assert.Equal(t, []string{
		"/repos/owner/site/branches/docs/new%20tips",
		"/repos/owner/site/git/refs/heads/docs/new%20tips",
	}, paths)
}

func TestUpdateRef_NotFastForward(t *testing.T) {
	client := newTestClient(func(*http.Request) *http.Response {
		return jsonResponse(http.StatusUnprocessableEntity, `{"message":"Update is not a fast forward"}`)
	})

	err := client.UpdateRef(context.Background(), testRepo, "c2")
	require.ErrorIs(t, err, ErrNotFastForward)
}

func TestAPIError_CarriesStatus(t *testing.T) {
	client := newTestClient(func(*http.Request) *http.Response {
		return jsonResponse(http.StatusForbidden, `{"message":"Resource not accessible by integration"}`)
	})

	_, err := client.CreateTree(context.Background(), testRepo, "t1", nil)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, "Resource not accessible by integration", apiErr.Message)
}

func TestStaticToken_Empty(t *testing.T) {
	client := newTestClient(func(*http.Request) *http.Response {
		t.Fatal("request must not be sent without a token")
		return nil
	})
	client.tokens = StaticToken("")

	_, err := client.GetBranch(context.Background(), testRepo)
	require.ErrorIs(t, err, ErrNoCredentials)
}
