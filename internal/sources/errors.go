package sources

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/lumina-study/block-store/internal/httpclient"
	"github.com/lumina-study/block-store/internal/lumina"
)

// FetchError is the failure returned by every Fetcher
type FetchError struct {
	// Message is the human readable description shown to users
	Message string
	// HTTPStatus is the provider status code, or 0 when there is none
	HTTPStatus int
	// Err is the underlying cause
	Err error
}

func (e *FetchError) Error() string {
	return e.Message
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NotFoundError is returned when the document or its history does not exist
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

func newFetchError(provider lumina.Provider, organization, repository string, err error) *FetchError {
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr
	}

	cause := err.Error()
	status := 0

	var httpErr *httpclient.HTTPError
	var notFound *NotFoundError
	switch {
	case errors.As(err, &httpErr):
		cause = httpErr.Message
		status = httpErr.StatusCode
	case errors.As(err, &notFound):
		status = http.StatusNotFound
	}

	return &FetchError{
		Message: fmt.Sprintf("Failed to fetch %s from %s (%s/%s): %s",
			lumina.DefaultFilename, provider.DisplayName(), organization, repository, cause),
		HTTPStatus: status,
		Err:        err,
	}
}
