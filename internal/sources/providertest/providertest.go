// Package providertest serves in-process fakes of the GitHub and GitLab REST
// endpoints used by the fetchers.
package providertest

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"sync"

	"github.com/go-chi/chi/v5"
)

// Repo describes one repository served by a fake provider
type Repo struct {
	Organization string
	Repository   string
	// DefaultBranch defaults to "main"
	DefaultBranch string
	// Files maps a root file name to its raw content
	Files map[string]string
	// Dirs lists root names that are directories
	Dirs []string
	// CommitSHA is the last commit touching any file; empty means no history
	CommitSHA string
	// Token, when set, must be presented as a bearer credential
	Token string
	// Status, when set, is returned by the repository endpoint
	Status int
}

// Server is a fake provider API
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	repos    map[string]Repo
	requests []string
}

// NewGitHub starts a fake GitHub REST API
func NewGitHub() *Server {
	s := &Server{repos: map[string]Repo{}}
	r := chi.NewRouter()
	r.Use(s.record)
	r.Get("/repos/{org}/{repo}", s.githubRepo)
	r.Get("/repos/{org}/{repo}/contents/*", s.githubContents)
	r.Get("/repos/{org}/{repo}/commits", s.commits("sha"))
	s.Server = httptest.NewServer(r)
	return s
}

// NewGitLab starts a fake GitLab REST API v4
func NewGitLab() *Server {
	s := &Server{repos: map[string]Repo{}}
	r := chi.NewRouter()
	r.Use(s.record)
	r.Get("/projects/{id}", s.gitlabProject)
	r.Get("/projects/{id}/repository/files/{file}", s.gitlabFile)
	r.Get("/projects/{id}/repository/commits", s.commits("id"))
	s.Server = httptest.NewServer(r)
	return s
}

// AddRepo registers or replaces a repository
func (s *Server) AddRepo(repo Repo) {
	if repo.DefaultBranch == "" {
		repo.DefaultBranch = "main"
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.repos[repo.Organization+"/"+repo.Repository] = repo
}

// Requests returns the escaped request URIs received so far
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.requests)
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, r.URL.RequestURI())
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

// lookup resolves the repository and checks credentials. It writes the
// error response itself and returns false when the request cannot proceed.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request, path string) (Repo, bool) {
	s.mu.Lock()
	repo, ok := s.repos[path]
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return Repo{}, false
	}
	if repo.Token != "" && r.Header.Get("Authorization") != "Bearer "+repo.Token {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Bad credentials"})
		return Repo{}, false
	}
	return repo, true
}

func (s *Server) githubRepo(w http.ResponseWriter, r *http.Request) {
	repo, ok := s.lookup(w, r, chi.URLParam(r, "org")+"/"+chi.URLParam(r, "repo"))
	if !ok {
		return
	}
	if repo.Status != 0 {
		writeJSON(w, repo.Status, map[string]string{"message": http.StatusText(repo.Status)})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"full_name":      repo.Organization + "/" + repo.Repository,
		"default_branch": repo.DefaultBranch,
	})
}

func (s *Server) githubContents(w http.ResponseWriter, r *http.Request) {
	repo, ok := s.lookup(w, r, chi.URLParam(r, "org")+"/"+chi.URLParam(r, "repo"))
	if !ok {
		return
	}
	name := chi.URLParam(r, "*")
	if slices.Contains(repo.Dirs, name) {
		writeJSON(w, http.StatusOK, []map[string]string{{"type": "file", "name": "README.md"}})
		return
	}
	content, ok := repo.Files[name]
	if !ok || r.URL.Query().Get("ref") != repo.DefaultBranch {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"type":     "file",
		"name":     name,
		"path":     name,
		"encoding": "base64",
		"content":  wrap(base64.StdEncoding.EncodeToString([]byte(content)), 60),
	})
}

func (s *Server) gitlabProject(w http.ResponseWriter, r *http.Request) {
	id, _ := url.PathUnescape(chi.URLParam(r, "id"))
	repo, ok := s.lookup(w, r, id)
	if !ok {
		return
	}
	if repo.Status != 0 {
		writeJSON(w, repo.Status, map[string]string{"message": http.StatusText(repo.Status)})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"path_with_namespace": id,
		"default_branch":      repo.DefaultBranch,
	})
}

func (s *Server) gitlabFile(w http.ResponseWriter, r *http.Request) {
	id, _ := url.PathUnescape(chi.URLParam(r, "id"))
	repo, ok := s.lookup(w, r, id)
	if !ok {
		return
	}
	name, _ := url.PathUnescape(chi.URLParam(r, "file"))
	content, ok := repo.Files[name]
	if !ok || r.URL.Query().Get("ref") != repo.DefaultBranch {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "404 File Not Found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"file_name": name,
		"file_path": name,
		"ref":       repo.DefaultBranch,
		"encoding":  "base64",
		"content":   base64.StdEncoding.EncodeToString([]byte(content)),
	})
}

func (s *Server) commits(shaField string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := chi.URLParam(r, "org") + "/" + chi.URLParam(r, "repo")
		if id := chi.URLParam(r, "id"); id != "" {
			path, _ = url.PathUnescape(id)
		}
		repo, ok := s.lookup(w, r, path)
		if !ok {
			return
		}
		if _, exists := repo.Files[r.URL.Query().Get("path")]; !exists || repo.CommitSHA == "" {
			writeJSON(w, http.StatusOK, []any{})
			return
		}
		writeJSON(w, http.StatusOK, []map[string]string{{shaField: repo.CommitSHA}})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func wrap(s string, width int) string {
	var out []byte
	for len(s) > width {
		out = append(out, s[:width]...)
		out = append(out, '\n')
		s = s[width:]
	}
	return string(append(out, s...))
}
