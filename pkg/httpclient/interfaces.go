package httpclient

import (
	"context"
	"io"
)

// StreamResponse is an HTTP response whose body has not been read yet.
// Callers must close Body.
type StreamResponse interface {
	StatusCode() int
	Status() string
	Body() io.ReadCloser
}

// Client abstracts HTTP calls so callers can inject mocks or different transports.
type Client interface {
	Stream(ctx context.Context, url string, headers map[string]string) (StreamResponse, error)
}
