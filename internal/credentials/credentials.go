// Package credentials resolves provider access tokens from explicit values,
// the environment, or the OS keyring.
package credentials

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/zalando/go-keyring"

	"github.com/lumina-study/block-store/internal/lumina"
)

// ServiceName is the keyring service tokens are stored under
const ServiceName = "block-store"

// ErrNoToken is returned when deleting a token that was never stored
var ErrNoToken = errors.New("no token stored")

// EnvVar returns the environment variable consulted for p's token,
// e.g. BLOCK_STORE_GITHUB_TOKEN.
func EnvVar(p lumina.Provider) string {
	return fmt.Sprintf("BLOCK_STORE_%s_TOKEN", strings.ToUpper(string(p)))
}

// Resolve returns the token to use for p: explicit when non-empty, then the
// provider's environment variable, then the keyring entry. An empty result
// means anonymous access. An unavailable keyring is treated as empty.
func Resolve(p lumina.Provider, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if token := os.Getenv(EnvVar(p)); token != "" {
		return token
	}

	token, err := keyring.Get(ServiceName, string(p))
	if err != nil {
		if !errors.Is(err, keyring.ErrNotFound) {
			slog.Debug("Keyring lookup failed", "provider", p, "error", err)
		}
		return ""
	}
	return token
}

// Store saves token for p in the keyring
func Store(p lumina.Provider, token string) error {
	if token == "" {
		return fmt.Errorf("token is empty")
	}
	if err := keyring.Set(ServiceName, string(p), token); err != nil {
		return fmt.Errorf("failed to store token for %s: %w", p, err)
	}
	return nil
}

// Delete removes the stored token for p
func Delete(p lumina.Provider) error {
	err := keyring.Delete(ServiceName, string(p))
	switch {
	case errors.Is(err, keyring.ErrNotFound):
		return fmt.Errorf("%s: %w", p, ErrNoToken)
	case err != nil:
		return fmt.Errorf("failed to delete token for %s: %w", p, err)
	}
	return nil
}
