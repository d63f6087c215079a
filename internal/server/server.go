// Package server is the HTTP gateway: it accepts links, serves the feed and renders the static pages.
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/samvad-hq/linkfeed/internal/domain"
	"github.com/samvad-hq/linkfeed/internal/logger"
	"github.com/samvad-hq/linkfeed/internal/server/assets"
	"github.com/samvad-hq/linkfeed/internal/storage"
)

const (
	routeIndex = "/"
	routeFeed  = "/feed/{" + paramToken + "}"
	routeAdd   = "/add"
	routeInfo  = "/info"

	paramToken = "token"

	readHeaderTimeout = 10 * time.Second
	shutdownGrace     = 60 * time.Second
)

// PageFetcher looks up metadata for a submitted link.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (domain.WebPage, error)
}

// Options configures a Server.
type Options struct {
	PrivateToken string
	FeedToken    string
	FeedPath     string
	Retention    storage.RetentionPolicy
	// Assets must hold the files named in package assets. Defaults to the embedded set.
	Assets fs.FS
}

// Server owns the feed file lock and the route table.
type Server struct {
	opts    Options
	fetcher PageFetcher
	log     logger.Logger

	// mu guards the feed file. Feed reads share it, adds hold it for the whole read-modify-save cycle.
	mu sync.RWMutex

	pages   map[string][]byte
	index   *template.Template
	logo    template.HTML
	headers headerTable
	handler http.Handler
}

// New builds a gateway over the feed at opts.FeedPath.
func New(opts Options, fetcher PageFetcher, log logger.Logger) (*Server, error) {
	if opts.FeedPath == "" {
		return nil, errors.New("server requires a feed path")
	}
	if opts.PrivateToken == "" || opts.FeedToken == "" {
		return nil, errors.New("server requires both tokens")
	}
	if fetcher == nil {
		return nil, errors.New("server requires a page fetcher")
	}
	if opts.Assets == nil {
		opts.Assets = assets.FS
	}

	pages, err := loadAssets(opts.Assets)
	if err != nil {
		return nil, err
	}
	index, err := template.New(assets.Index).Parse(string(pages[assets.Index]))
	if err != nil {
		return nil, fmt.Errorf("parse index template: %w", err)
	}

	s := &Server{
		opts:    opts,
		fetcher: fetcher,
		log:     logger.Ensure(log),
		pages:   pages,
		index:   index,
		logo:    template.HTML(bytes.TrimSpace(pages[assets.Logo])),
		headers: newHeaderTable(),
	}
	s.handler = s.routes()
	return s, nil
}

func loadAssets(fsys fs.FS) (map[string][]byte, error) {
	pages := make(map[string][]byte, 4)
	for _, name := range []string{assets.Index, assets.NotFound, assets.InternalError, assets.Logo} {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("load asset %s: %w", name, err)
		}
		pages[name] = data
	}
	return pages, nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get(routeIndex, s.handleIndex)
	r.Get(routeFeed, s.handleFeed)
	r.Post(routeAdd, s.handleAdd)
	r.Post(routeInfo, s.handleInfo)

	r.NotFound(s.handleNotFound)
	r.MethodNotAllowed(s.handleNotFound)
	return r
}

// Handler exposes the route table, mainly for tests.
func (s *Server) Handler() http.Handler { return s.handler }

// Run listens on addr and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down gracefully
// so in-flight requests, feed writes included, can finish.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.log.InfoObj("gateway listening", "server", map[string]any{
		"addr": ln.Addr().String(),
		"feed": "http://" + ln.Addr().String() + "/feed/" + feedTokenVar,
	})

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	s.log.InfoObj("gateway shutting down", "server", map[string]any{"grace": shutdownGrace.String()})
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
