package helpers

import (
	"fmt"
	"strings"

	"github.com/lumina-study/block-store/internal/config"
	"github.com/lumina-study/block-store/internal/sources/providertest"
)

// BlockSpec describes one block of a generated document
type BlockSpec struct {
	ID            string
	EnTitle       string
	HeTitle       string
	Prerequisites []string
	Parents       []string
}

// Document renders a lumina document holding blocks
func Document(blocks ...BlockSpec) string {
	rendered := make([]string, 0, len(blocks))
	for _, b := range blocks {
		rendered = append(rendered, fmt.Sprintf(
			`{"id": %q, "title": {"he_text": %q, "en_text": %q}, "prerequisites": %s, "parents": %s}`,
			b.ID, b.HeTitle, b.EnTitle, stringList(b.Prerequisites), stringList(b.Parents),
		))
	}
	return `{"blocks": [` + strings.Join(rendered, ", ") + `]}`
}

func stringList(items []string) string {
	quoted := make([]string, 0, len(items))
	for _, s := range items {
		quoted = append(quoted, fmt.Sprintf("%q", s))
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// Repo is a repository whose root holds document as lumina.json
func Repo(org, repo, sha, document string) providertest.Repo {
	return providertest.Repo{
		Organization: org,
		Repository:   repo,
		Files:        map[string]string{"lumina.json": document},
		CommitSHA:    sha,
	}
}

// ConfigFor points both providers at the fakes and adds seeds at startup
func ConfigFor(github, gitlab *providertest.Server, seeds ...config.SourceConfig) *config.Config {
	return &config.Config{
		Providers: config.ProvidersConfig{
			GitHub: &config.ProviderConfig{BaseURL: github.URL},
			GitLab: &config.ProviderConfig{BaseURL: gitlab.URL},
		},
		HTTP:    config.HTTPConfig{MaxAttempts: 1},
		Sources: seeds,
	}
}
