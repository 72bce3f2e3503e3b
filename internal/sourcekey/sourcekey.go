// Package sourcekey converts between a provider/organization/repository
// triple and the string key that addresses a stored source.
//
// Keys have the form "<provider>:<organization>:<repository>". The separator
// is not escaped, so organization and repository names must not contain it.
package sourcekey

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lumina-study/block-store/internal/lumina"
)

// Separator joins the three parts of a key.
const Separator = ":"

var (
	// ErrMalformedKey matches any MalformedKeyError
	ErrMalformedKey = errors.New("malformed source key")
	// ErrUnknownProvider matches any UnknownProviderError
	ErrUnknownProvider = errors.New("unknown provider")
)

// MalformedKeyError is returned when a key does not split into a provider,
// an organization and a repository.
type MalformedKeyError struct {
	Key string
}

func (e *MalformedKeyError) Error() string {
	return fmt.Sprintf("invalid source key format: %q", e.Key)
}

// Is makes errors.Is(err, ErrMalformedKey) work.
func (*MalformedKeyError) Is(target error) bool {
	return target == ErrMalformedKey
}

// UnknownProviderError is returned when the first part of a key is not a
// recognized provider tag.
type UnknownProviderError struct {
	Key      string
	Provider string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("invalid provider %q in source key %q", e.Provider, e.Key)
}

// Is makes errors.Is(err, ErrUnknownProvider) work.
func (*UnknownProviderError) Is(target error) bool {
	return target == ErrUnknownProvider
}

// Encode returns the key for t.
func Encode(t lumina.Triple) string {
	return string(t.Provider) + Separator + t.Organization + Separator + t.Repository
}

// Decode parses a key produced by Encode.
func Decode(key string) (lumina.Triple, error) {
	parts := strings.Split(key, Separator)
	if len(parts) != 3 || parts[0] == "" {
		return lumina.Triple{}, &MalformedKeyError{Key: key}
	}

	provider := lumina.Provider(parts[0])
	if !provider.Valid() {
		return lumina.Triple{}, &UnknownProviderError{Key: key, Provider: parts[0]}
	}

	return lumina.Triple{
		Provider:     provider,
		Organization: parts[1],
		Repository:   parts[2],
	}, nil
}
