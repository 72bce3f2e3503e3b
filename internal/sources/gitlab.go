package sources

import (
	"context"
	"fmt"
	"net/url"

	"github.com/tidwall/gjson"

	"github.com/lumina-study/block-store/internal/httpclient"
	"github.com/lumina-study/block-store/internal/lumina"
)

// DefaultGitLabBaseURL is the gitlab.com REST API v4 endpoint
const DefaultGitLabBaseURL = "https://gitlab.com/api/v4"

// GitLabFetcher fetches documents through the GitLab REST API
type GitLabFetcher struct {
	client httpclient.Client
	config fetcherConfig
}

var _ Fetcher = (*GitLabFetcher)(nil)

// NewGitLabFetcher creates a new GitLab fetcher
func NewGitLabFetcher(client httpclient.Client, opts ...FetcherOption) *GitLabFetcher {
	return &GitLabFetcher{
		client: client,
		config: newFetcherConfig(DefaultGitLabBaseURL, opts),
	}
}

// Fetch implements Fetcher
func (f *GitLabFetcher) Fetch(ctx context.Context, organization, repository, token string) (*FetchResult, error) {
	result, err := f.fetch(ctx, organization, repository, token)
	if err != nil {
		return nil, newFetchError(lumina.ProviderGitLab, organization, repository, err)
	}
	return result, nil
}

func (f *GitLabFetcher) fetch(ctx context.Context, organization, repository, token string) (*FetchResult, error) {
	// GitLab addresses projects by their URL-encoded full path.
	projectURL := fmt.Sprintf("%s/projects/%s", f.config.baseURL, url.PathEscape(organization+"/"+repository))

	projectBody, err := f.client.Get(ctx, projectURL, token)
	if err != nil {
		return nil, err
	}
	branch := gjson.GetBytes(projectBody, "default_branch").String()
	if branch == "" {
		return nil, fmt.Errorf("project has no default branch")
	}

	name, fileBody, err := findFile(ctx, f.client, f.config.fileNames, func(name string) string {
		return fmt.Sprintf("%s/repository/files/%s?ref=%s", projectURL, url.PathEscape(name), url.QueryEscape(branch))
	}, token)
	if err != nil {
		return nil, err
	}

	content, err := decodeFileContent(name, gjson.ParseBytes(fileBody))
	if err != nil {
		return nil, err
	}

	commitsURL := fmt.Sprintf("%s/repository/commits?ref_name=%s&path=%s&per_page=1",
		projectURL, url.QueryEscape(branch), url.QueryEscape(name))
	commitsBody, err := f.client.Get(ctx, commitsURL, token)
	if err != nil {
		return nil, err
	}
	sha := gjson.GetBytes(commitsBody, "0.id").String()
	if sha == "" {
		return nil, &NotFoundError{Message: "No commits found for " + name}
	}

	doc, err := lumina.Parse(content, name)
	if err != nil {
		return nil, err
	}

	return &FetchResult{Document: doc, CommitSHA: sha, Filename: name}, nil
}
