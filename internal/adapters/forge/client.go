package forge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/devderby/devderby/internal/domain/model"
)

// Default client configuration.
const (
	defaultTimeout  = 15 * time.Second
	defaultPageSize = 30
)

// Client is a GitHub-style REST implementation of Source for one repository.
type Client struct {
	baseURL  string
	owner    string
	repo     string
	token    string
	pageSize int
	http     *http.Client
}

// ClientOption applies a configuration option to the Client.
type ClientOption func(*Client)

// WithToken sets the bearer token sent with every request.
func WithToken(token string) ClientOption {
	return func(c *Client) {
		c.token = token
	}
}

// WithPageSize bounds the per-call batch size.
func WithPageSize(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// NewClient creates a REST client for owner/repo rooted at baseURL.
func NewClient(baseURL, owner, repo string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:  baseURL,
		owner:    owner,
		repo:     repo,
		pageSize: defaultPageSize,
		http:     &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Wire shapes. Only the fields the engine consumes are decoded.

type wireCommit struct {
	SHA    string `json:"sha"`
	Commit struct {
		Message string `json:"message"`
		Author  struct {
			Date time.Time `json:"date"`
		} `json:"author"`
	} `json:"commit"`
	Author struct {
		Login string `json:"login"`
	} `json:"author"`
	HTMLURL string `json:"html_url"`
	Files   []struct {
		Filename  string `json:"filename"`
		Additions int    `json:"additions"`
		Deletions int    `json:"deletions"`
	} `json:"files"`
}

type wireRunList struct {
	WorkflowRuns []struct {
		ID         int64     `json:"id"`
		Name       string    `json:"name"`
		Status     string    `json:"status"`
		Conclusion string    `json:"conclusion"`
		HeadBranch string    `json:"head_branch"`
		UpdatedAt  time.Time `json:"updated_at"`
		HTMLURL    string    `json:"html_url"`
	} `json:"workflow_runs"`
}

type wirePull struct {
	ID       int64      `json:"id"`
	Number   int        `json:"number"`
	Title    string     `json:"title"`
	MergedAt *time.Time `json:"merged_at"`
	HTMLURL  string     `json:"html_url"`
	User     struct {
		Login string `json:"login"`
	} `json:"user"`
}

// ListCommits returns recent commits, newest first, without diffs.
func (c *Client) ListCommits(ctx context.Context) ([]model.Commit, error) {
	var wire []wireCommit
	path := fmt.Sprintf("/repos/%s/%s/commits?per_page=%d", c.owner, c.repo, c.pageSize)
	if err := c.get(ctx, path, &wire); err != nil {
		return nil, fmt.Errorf("list commits: %w", err)
	}
	commits := make([]model.Commit, 0, len(wire))
	for _, w := range wire {
		commits = append(commits, commitFromWire(w))
	}
	return commits, nil
}

// GetCommit fetches one commit with its changed-file list.
func (c *Client) GetCommit(ctx context.Context, sha string) (model.Commit, error) {
	var w wireCommit
	path := fmt.Sprintf("/repos/%s/%s/commits/%s", c.owner, c.repo, url.PathEscape(sha))
	if err := c.get(ctx, path, &w); err != nil {
		return model.Commit{}, fmt.Errorf("get commit %s: %w", sha, err)
	}
	return commitFromWire(w), nil
}

// ListWorkflowRuns returns recent CI runs, newest first.
func (c *Client) ListWorkflowRuns(ctx context.Context) ([]model.WorkflowRun, error) {
	var wire wireRunList
	path := fmt.Sprintf("/repos/%s/%s/actions/runs?per_page=%d", c.owner, c.repo, c.pageSize)
	if err := c.get(ctx, path, &wire); err != nil {
		return nil, fmt.Errorf("list workflow runs: %w", err)
	}
	runs := make([]model.WorkflowRun, 0, len(wire.WorkflowRuns))
	for _, w := range wire.WorkflowRuns {
		runs = append(runs, model.WorkflowRun{
			ID:         w.ID,
			Name:       w.Name,
			Status:     w.Status,
			Conclusion: w.Conclusion,
			Branch:     w.HeadBranch,
			Timestamp:  w.UpdatedAt,
			URL:        w.HTMLURL,
		})
	}
	return runs, nil
}

// ListMergedPulls returns recently merged pull requests, newest first.
func (c *Client) ListMergedPulls(ctx context.Context) ([]model.PullRequest, error) {
	var wire []wirePull
	path := fmt.Sprintf("/repos/%s/%s/pulls?state=closed&sort=updated&direction=desc&per_page=%d",
		c.owner, c.repo, c.pageSize)
	if err := c.get(ctx, path, &wire); err != nil {
		return nil, fmt.Errorf("list merged pulls: %w", err)
	}
	pulls := make([]model.PullRequest, 0, len(wire))
	for _, w := range wire {
		if w.MergedAt == nil {
			// Closed without merging.
			continue
		}
		pulls = append(pulls, model.PullRequest{
			ID:       w.ID,
			Number:   w.Number,
			Author:   w.User.Login,
			Title:    w.Title,
			MergedAt: w.MergedAt,
			URL:      w.HTMLURL,
		})
	}
	return pulls, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func commitFromWire(w wireCommit) model.Commit {
	commit := model.Commit{
		SHA:       w.SHA,
		Author:    w.Author.Login,
		Message:   w.Commit.Message,
		Timestamp: w.Commit.Author.Date,
		URL:       w.HTMLURL,
	}
	if commit.Author == "" {
		commit.Author = "unknown"
	}
	for _, f := range w.Files {
		commit.Files = append(commit.Files, model.CommitFile{
			Path:      f.Filename,
			Additions: f.Additions,
			Deletions: f.Deletions,
		})
	}
	return commit
}
