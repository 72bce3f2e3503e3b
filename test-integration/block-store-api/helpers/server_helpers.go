// Package helpers provides server and provider fixtures for the block store
// integration tests.
package helpers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/onsi/gomega"

	blockstore "github.com/lumina-study/block-store/internal/app"
	"github.com/lumina-study/block-store/internal/config"
	"github.com/lumina-study/block-store/internal/lumina"
)

// ServerTestHelper manages the block store server lifecycle for testing
type ServerTestHelper struct {
	ctx        context.Context
	cfg        *config.Config
	baseURL    string
	httpClient *http.Client
	app        *blockstore.BlockStoreApp
	done       chan error
}

// NewServerTestHelper creates a new server test helper for cfg
func NewServerTestHelper(ctx context.Context, cfg *config.Config) *ServerTestHelper {
	return &ServerTestHelper{
		ctx: ctx,
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// StartServer starts the server on an ephemeral port
func (s *ServerTestHelper) StartServer() error {
	app, err := blockstore.NewBlockStoreApp(s.ctx,
		blockstore.WithConfig(s.cfg),
		blockstore.WithTokenResolver(func(_ lumina.Provider, explicit string) string { return explicit }),
	)
	if err != nil {
		return fmt.Errorf("failed to build app: %w", err)
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	s.app = app
	s.baseURL = "http://" + listener.Addr().String()
	s.done = make(chan error, 1)
	go func() {
		s.done <- app.Serve(listener)
	}()
	return nil
}

// StopServer gracefully stops the server and waits for it to exit
func (s *ServerTestHelper) StopServer() error {
	if s.app == nil {
		return nil
	}
	if err := s.app.Stop(5 * time.Second); err != nil {
		return err
	}
	select {
	case err := <-s.done:
		return err
	case <-time.After(5 * time.Second):
		return fmt.Errorf("server did not exit")
	}
}

// WaitForServerReady waits until /readiness reports ready, which happens
// once the startup sources have been attempted.
func (s *ServerTestHelper) WaitForServerReady(timeout time.Duration) {
	gomega.Eventually(func() error {
		resp, err := s.httpClient.Get(s.baseURL + "/readiness")
		if err != nil {
			return err
		}
		defer func() {
			_ = resp.Body.Close()
		}()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("server returned status %d", resp.StatusCode)
		}
		return nil
	}, timeout, 50*time.Millisecond).Should(gomega.Succeed(), "Server should be ready")
}

// Get makes a GET request to path
func (s *ServerTestHelper) Get(path string) (*http.Response, error) {
	return s.httpClient.Get(s.baseURL + path)
}

// Delete makes a DELETE request to path
func (s *ServerTestHelper) Delete(path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(s.ctx, http.MethodDelete, s.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	return s.httpClient.Do(req)
}

// AddSource posts body to /api/v1/sources, appending query when non-empty
func (s *ServerTestHelper) AddSource(body map[string]string, query string) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	target := s.baseURL + "/api/v1/sources"
	if query != "" {
		target += "?" + query
	}
	return s.httpClient.Post(target, "application/json", bytes.NewReader(data))
}

// SourcePath returns the API path of the source with key, escaped
func SourcePath(key string) string {
	return "/api/v1/sources/" + url.PathEscape(key)
}

// DecodeJSON reads and closes resp's body into a value of type T
func DecodeJSON[T any](resp *http.Response) T {
	defer func() {
		_ = resp.Body.Close()
	}()
	var v T
	body, err := io.ReadAll(resp.Body)
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
	gomega.Expect(json.Unmarshal(body, &v)).To(gomega.Succeed(), string(body))
	return v
}
