package webpage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/samvad-hq/linkfeed/internal/domain"
	"github.com/samvad-hq/linkfeed/internal/logger"
	"github.com/samvad-hq/linkfeed/internal/version"
	"github.com/samvad-hq/linkfeed/pkg/httpclient"
)

const (
	maxHTMLBodyBytes = 1 << 20 // 1 MiB
)

var (
	// ErrHTTP covers transport failures, redirect limits and timeouts.
	ErrHTTP = errors.New("http error")
	// ErrIO covers failures while reading the response body.
	ErrIO = errors.New("i/o error")
)

// UnsuccessfulError is returned when the page responds with a status other than 200.
type UnsuccessfulError struct {
	StatusCode int
	Reason     string
}

func (e *UnsuccessfulError) Error() string {
	return fmt.Sprintf("http request was unsuccessful: %s (%d)", e.Reason, e.StatusCode)
}

// Fetcher fetches pages and extracts title/description metadata from them.
type Fetcher struct {
	client httpclient.Client
	log    logger.Logger
}

// NewFetcher constructs a fetcher with the provided HTTP client (or a default one).
func NewFetcher(client httpclient.Client, log logger.Logger) *Fetcher {
	if client == nil {
		client = httpclient.NewRestyClient(httpclient.Options{UserAgent: version.UserAgent()})
	}
	return &Fetcher{client: client, log: logger.Ensure(log)}
}

// Fetch issues a single GET for url and extracts metadata from the streamed body.
//
// When reading the body fails part way, the metadata gathered so far is returned
// alongside an ErrIO error so callers can still use it.
func (f *Fetcher) Fetch(ctx context.Context, url string) (domain.WebPage, error) {
	resp, err := f.client.Stream(ctx, url, map[string]string{
		"Accept": "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8",
	})
	if err != nil {
		return domain.WebPage{}, fmt.Errorf("%w: %w", ErrHTTP, err)
	}
	body := resp.Body()
	defer body.Close()

	if resp.StatusCode() != http.StatusOK {
		return domain.WebPage{}, &UnsuccessfulError{
			StatusCode: resp.StatusCode(),
			Reason:     reasonPhrase(resp.StatusCode(), resp.Status()),
		}
	}

	page, err := extractMeta(io.LimitReader(body, maxHTMLBodyBytes))
	if err != nil {
		f.log.DebugObj("page metadata extraction stopped early", "extract_meta", map[string]any{
			"url":   url,
			"title": page.Title != "",
			"error": err.Error(),
		})
		return page, fmt.Errorf("%w: %w", ErrIO, err)
	}
	return page, nil
}

// reasonPhrase strips the numeric code from a status line such as "404 Not Found".
func reasonPhrase(code int, status string) string {
	status = strings.TrimSpace(status)
	if i := strings.IndexByte(status, ' '); i >= 0 {
		return strings.TrimSpace(status[i+1:])
	}
	if status != "" {
		return status
	}
	return http.StatusText(code)
}
