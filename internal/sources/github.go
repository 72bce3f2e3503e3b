package sources

import (
	"context"
	"fmt"
	"net/url"

	"github.com/tidwall/gjson"

	"github.com/lumina-study/block-store/internal/httpclient"
	"github.com/lumina-study/block-store/internal/lumina"
)

const (
	// DefaultGitHubBaseURL is the public GitHub REST API endpoint
	DefaultGitHubBaseURL = "https://api.github.com"

	// GitHubAPIVersion is the REST API version requested from GitHub
	GitHubAPIVersion = "2022-11-28"
)

// GitHubClientOptions returns the client options GitHub's REST API expects
func GitHubClientOptions() []httpclient.Option {
	return []httpclient.Option{
		httpclient.WithHeader("Accept", "application/vnd.github+json"),
		httpclient.WithHeader("X-GitHub-Api-Version", GitHubAPIVersion),
	}
}

// GitHubFetcher fetches documents through the GitHub REST API
type GitHubFetcher struct {
	client httpclient.Client
	config fetcherConfig
}

var _ Fetcher = (*GitHubFetcher)(nil)

// NewGitHubFetcher creates a new GitHub fetcher
func NewGitHubFetcher(client httpclient.Client, opts ...FetcherOption) *GitHubFetcher {
	return &GitHubFetcher{
		client: client,
		config: newFetcherConfig(DefaultGitHubBaseURL, opts),
	}
}

// Fetch implements Fetcher
func (f *GitHubFetcher) Fetch(ctx context.Context, organization, repository, token string) (*FetchResult, error) {
	result, err := f.fetch(ctx, organization, repository, token)
	if err != nil {
		return nil, newFetchError(lumina.ProviderGitHub, organization, repository, err)
	}
	return result, nil
}

func (f *GitHubFetcher) fetch(ctx context.Context, organization, repository, token string) (*FetchResult, error) {
	repoURL := fmt.Sprintf("%s/repos/%s/%s", f.config.baseURL, url.PathEscape(organization), url.PathEscape(repository))

	repoBody, err := f.client.Get(ctx, repoURL, token)
	if err != nil {
		return nil, err
	}
	branch := gjson.GetBytes(repoBody, "default_branch").String()
	if branch == "" {
		return nil, fmt.Errorf("repository has no default branch")
	}

	name, fileBody, err := findFile(ctx, f.client, f.config.fileNames, func(name string) string {
		return fmt.Sprintf("%s/contents/%s?ref=%s", repoURL, escapePath(name), url.QueryEscape(branch))
	}, token)
	if err != nil {
		return nil, err
	}

	// The contents endpoint answers with an array for directories.
	file := gjson.ParseBytes(fileBody)
	if !file.IsObject() || file.Get("type").String() != "file" {
		return nil, &lumina.ValidationError{Message: name + " is not a file"}
	}
	content, err := decodeFileContent(name, file)
	if err != nil {
		return nil, err
	}

	commitsURL := fmt.Sprintf("%s/commits?sha=%s&path=%s&per_page=1",
		repoURL, url.QueryEscape(branch), url.QueryEscape(name))
	commitsBody, err := f.client.Get(ctx, commitsURL, token)
	if err != nil {
		return nil, err
	}
	sha := gjson.GetBytes(commitsBody, "0.sha").String()
	if sha == "" {
		return nil, &NotFoundError{Message: "No commits found for " + name}
	}

	doc, err := lumina.Parse(content, name)
	if err != nil {
		return nil, err
	}

	return &FetchResult{Document: doc, CommitSHA: sha, Filename: name}, nil
}

func escapePath(p string) string {
	return (&url.URL{Path: p}).EscapedPath()
}
