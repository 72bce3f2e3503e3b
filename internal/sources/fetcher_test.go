package sources_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumina-study/block-store/internal/httpclient"
	"github.com/lumina-study/block-store/internal/lumina"
	"github.com/lumina-study/block-store/internal/sources"
	"github.com/lumina-study/block-store/internal/sources/providertest"
)

const validDocument = `{
  "blocks": [
    {"id": "intro", "title": {"he_text": "מבוא", "en_text": "Introduction"}, "prerequisites": [], "parents": []},
    {"id": "perm", "title": {"he_text": "תמורות", "en_text": "Permutations"}, "prerequisites": ["intro"], "parents": ["intro"]}
  ]
}`

type fetcherCase struct {
	name        string
	repo        providertest.Repo
	token       string
	fileNames   []string
	wantSHA     string
	wantFile    string
	wantIDs     []string
	wantStatus  int
	errContains string
}

func fetcherCases(provider string) []fetcherCase {
	return []fetcherCase{
		{
			name: "object document",
			repo: providertest.Repo{
				Organization: "org1", Repository: "repo1",
				Files:     map[string]string{"lumina.json": validDocument},
				CommitSHA: "sha1",
			},
			wantSHA:  "sha1",
			wantFile: "lumina.json",
			wantIDs:  []string{"intro", "perm"},
		},
		{
			name: "bare array document on a non-main default branch",
			repo: providertest.Repo{
				Organization: "org1", Repository: "repo1", DefaultBranch: "develop",
				Files:     map[string]string{"lumina.json": `[{"id": "a", "title": {"he_text": "א", "en_text": "A"}}]`},
				CommitSHA: "sha2",
			},
			wantSHA:  "sha2",
			wantFile: "lumina.json",
			wantIDs:  []string{"a"},
		},
		{
			name: "falls through to the next candidate name",
			repo: providertest.Repo{
				Organization: "org1", Repository: "repo1",
				Files:     map[string]string{"lumina.jsonc": validDocument},
				CommitSHA: "sha3",
			},
			fileNames: []string{"lumina.json", "lumina.jsonc"},
			wantSHA:   "sha3",
			wantFile:  "lumina.jsonc",
			wantIDs:   []string{"intro", "perm"},
		},
		{
			name: "private repository with token",
			repo: providertest.Repo{
				Organization: "org1", Repository: "private",
				Files:     map[string]string{"lumina.json": validDocument},
				CommitSHA: "sha4",
				Token:     "tok",
			},
			token:    "tok",
			wantSHA:  "sha4",
			wantFile: "lumina.json",
			wantIDs:  []string{"intro", "perm"},
		},
		{
			name: "private repository without token",
			repo: providertest.Repo{
				Organization: "org1", Repository: "private",
				Files: map[string]string{"lumina.json": validDocument},
				Token: "tok",
			},
			wantStatus:  http.StatusUnauthorized,
			errContains: "Failed to fetch lumina.json from " + provider + " (org1/private): Bad credentials",
		},
		{
			name:        "unknown repository",
			repo:        providertest.Repo{Organization: "someone", Repository: "else"},
			wantStatus:  http.StatusNotFound,
			errContains: "Failed to fetch lumina.json from " + provider + " (org1/repo1)",
		},
		{
			name: "document missing",
			repo: providertest.Repo{
				Organization: "org1", Repository: "repo1",
				Files: map[string]string{"README.md": "# hi"},
			},
			wantStatus:  http.StatusNotFound,
			errContains: "lumina.json not found in repository",
		},
		{
			name: "no commit history",
			repo: providertest.Repo{
				Organization: "org1", Repository: "repo1",
				Files: map[string]string{"lumina.json": validDocument},
			},
			wantStatus:  http.StatusNotFound,
			errContains: "No commits found for lumina.json",
		},
		{
			name: "document without blocks",
			repo: providertest.Repo{
				Organization: "org1", Repository: "repo1",
				Files:     map[string]string{"lumina.json": `{"title": "nothing"}`},
				CommitSHA: "sha5",
			},
			errContains: "Invalid lumina.json format: missing or invalid blocks array",
		},
		{
			name: "provider failure",
			repo: providertest.Repo{
				Organization: "org1", Repository: "repo1",
				Status: http.StatusServiceUnavailable,
			},
			wantStatus:  http.StatusServiceUnavailable,
			errContains: "Service Unavailable",
		},
	}
}

func runFetcherCases(
	t *testing.T,
	provider string,
	newServer func() *providertest.Server,
	newFetcher func(baseURL string, names []string) sources.Fetcher,
) {
	t.Helper()

	for _, tt := range fetcherCases(provider) {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := newServer()
			defer server.Close()
			server.AddRepo(tt.repo)

			repository := "repo1"
			if tt.repo.Repository == "private" {
				repository = "private"
			}

			fetcher := newFetcher(server.URL, tt.fileNames)
			result, err := fetcher.Fetch(context.Background(), "org1", repository, tt.token)

			if tt.errContains != "" {
				require.Error(t, err)
				assert.Nil(t, result)

				var fetchErr *sources.FetchError
				require.True(t, errors.As(err, &fetchErr), "expected FetchError, got %T", err)
				assert.Contains(t, fetchErr.Message, tt.errContains)
				assert.Equal(t, tt.wantStatus, fetchErr.HTTPStatus)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantSHA, result.CommitSHA)
			assert.Equal(t, tt.wantFile, result.Filename)
			var ids []string
			for _, b := range result.Document.Blocks {
				ids = append(ids, b.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestGitHubFetcher_Fetch(t *testing.T) {
	t.Parallel()

	runFetcherCases(t, "GitHub", providertest.NewGitHub, func(baseURL string, names []string) sources.Fetcher {
		client := httpclient.NewDefaultClient(5*time.Second, sources.GitHubClientOptions()...)
		return sources.NewGitHubFetcher(client, sources.WithBaseURL(baseURL), sources.WithFileNames(names...))
	})
}

func TestGitLabFetcher_Fetch(t *testing.T) {
	t.Parallel()

	runFetcherCases(t, "GitLab", providertest.NewGitLab, func(baseURL string, names []string) sources.Fetcher {
		client := httpclient.NewDefaultClient(5 * time.Second)
		return sources.NewGitLabFetcher(client, sources.WithBaseURL(baseURL), sources.WithFileNames(names...))
	})
}

func TestGitHubFetcher_DirectoryIsRejected(t *testing.T) {
	t.Parallel()

	server := providertest.NewGitHub()
	defer server.Close()
	server.AddRepo(providertest.Repo{
		Organization: "org1", Repository: "repo1",
		Dirs:      []string{"lumina.json"},
		CommitSHA: "sha1",
	})

	fetcher := sources.NewGitHubFetcher(httpclient.NewDefaultClient(5*time.Second), sources.WithBaseURL(server.URL))
	_, err := fetcher.Fetch(context.Background(), "org1", "repo1", "")

	var fetchErr *sources.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t,
		"Failed to fetch lumina.json from GitHub (org1/repo1): lumina.json is not a file",
		fetchErr.Message)
	assert.Zero(t, fetchErr.HTTPStatus)

	var validationErr *lumina.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestGitLabFetcher_RequestPaths(t *testing.T) {
	t.Parallel()

	server := providertest.NewGitLab()
	defer server.Close()
	server.AddRepo(providertest.Repo{
		Organization: "group", Repository: "project",
		Files:     map[string]string{"lumina.json": validDocument},
		CommitSHA: "abc",
	})

	fetcher := sources.NewGitLabFetcher(httpclient.NewDefaultClient(5*time.Second), sources.WithBaseURL(server.URL))
	_, err := fetcher.Fetch(context.Background(), "group", "project", "")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/projects/group%2Fproject",
		"/projects/group%2Fproject/repository/files/lumina.json?ref=main",
		"/projects/group%2Fproject/repository/commits?ref_name=main&path=lumina.json&per_page=1",
	}, server.Requests())
}
