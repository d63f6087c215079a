package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/samvad-hq/linkfeed/internal/config"
	"github.com/samvad-hq/linkfeed/internal/domain"
	"github.com/samvad-hq/linkfeed/internal/server/assets"
	"github.com/samvad-hq/linkfeed/internal/storage"
	"github.com/samvad-hq/linkfeed/internal/version"
	"github.com/samvad-hq/linkfeed/internal/webpage"
)

var feedTokenVar = config.EnvName("feed_token")

type indexData struct {
	FeedURL  string
	TokenVar string
	Logo     template.HTML
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	host := r.Host
	if host == "" {
		host = "localhost"
	}

	var buf bytes.Buffer
	err := s.index.Execute(&buf, indexData{
		FeedURL:  "http://" + host + "/feed/" + feedTokenVar,
		TokenVar: feedTokenVar,
		Logo:     s.logo,
	})
	if err != nil {
		s.log.ErrorObj("render index failed", "error", err.Error())
		s.writePage(w, http.StatusInternalServerError, assets.InternalError)
		return
	}
	s.headers.apply(w, kindHTML)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (s *Server) handleNotFound(w http.ResponseWriter, _ *http.Request) {
	s.writePage(w, http.StatusNotFound, assets.NotFound)
}

func (s *Server) writePage(w http.ResponseWriter, status int, name string) {
	s.headers.apply(w, kindHTML)
	w.WriteHeader(status)
	w.Write(s.pages[name])
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	if !tokensEqual(chi.URLParam(r, paramToken), s.opts.FeedToken) {
		s.handleNotFound(w, r)
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	file, err := os.Open(s.opts.FeedPath)
	if err != nil {
		s.log.ErrorObj("unable to open feed file", "error", err.Error())
		s.writePage(w, http.StatusInternalServerError, assets.InternalError)
		return
	}
	defer file.Close()

	var modified string
	if info, err := file.Stat(); err == nil {
		mtime := info.ModTime()
		modified = mtime.UTC().Format(http.TimeFormat)
		if notModified(r, mtime.Unix()) {
			w.Header().Set(headerLastModified, modified)
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}

	s.headers.apply(w, kindAtom)
	if modified != "" {
		w.Header().Set(headerLastModified, modified)
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, file); err != nil {
		s.log.WarnObj("feed response interrupted", "error", err.Error())
	}
}

// notModified compares whole seconds, the resolution of HTTP dates.
func notModified(r *http.Request, mtime int64) bool {
	header := r.Header.Get(headerIfModifiedSince)
	if header == "" {
		return false
	}
	since, err := http.ParseTime(header)
	if err != nil {
		return false
	}
	return mtime <= since.Unix()
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	result, err := s.add(w, r)
	if err != nil {
		status := s.reportError(r, err)
		s.headers.apply(w, kindText)
		w.WriteHeader(status.Code)
		io.WriteString(w, "Failed: "+status.Message+"\n")
		return
	}
	s.headers.apply(w, kindText)
	w.WriteHeader(http.StatusCreated)
	io.WriteString(w, result.String()+"\n")
}

func (s *Server) add(w http.ResponseWriter, r *http.Request) (domain.AddResult, error) {
	fields, err := readForm(w, r)
	if err != nil {
		return 0, err
	}
	if err := authorize(fields, s.opts.PrivateToken); err != nil {
		return 0, err
	}
	link, err := parseLink(fields.lookup("url"))
	if err != nil {
		return 0, err
	}

	page, err := s.fetcher.Fetch(r.Context(), link.String())
	if err != nil {
		s.log.WarnObj("fetching page metadata failed", "fetch", map[string]any{
			"url":   link.String(),
			"error": err.Error(),
		})
	}
	if title, ok := fields.lookup("title"); ok {
		page.Title = webpage.PreferLonger(page.Title, title)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	feed, err := storage.Read(s.opts.FeedPath)
	if err != nil {
		return 0, wrapStatusError(http.StatusInternalServerError, "Unable to read feed file", err)
	}
	result := feed.AddIfNew(link, page)
	if result == domain.Duplicate {
		return result, nil
	}
	if removed := feed.Trim(s.opts.Retention); removed > 0 {
		s.log.DebugObj("trimmed feed", "removed", removed)
	}
	if err := feed.Save(); err != nil {
		return 0, wrapStatusError(http.StatusInternalServerError, "Error saving feed file", err)
	}
	s.log.InfoObj("link added", "link", map[string]any{
		"url":     link.String(),
		"feed":    feed.Path(),
		"entries": feed.Len(),
	})
	return result, nil
}

type infoResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Message string `json:"message,omitempty"`
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	resp := infoResponse{Status: "ok", Version: version.Version}

	fields, err := readForm(w, r)
	if err == nil {
		err = authorize(fields, s.opts.PrivateToken)
	}
	if err != nil {
		se := s.reportError(r, err)
		status = se.Code
		resp = infoResponse{Status: "error", Message: se.Message}
	}

	s.headers.apply(w, kindJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.log.WarnObj("writing info response failed", "error", err.Error())
	}
}

// reportError logs err and turns it into the status it should be answered with.
// Client errors log at warn, server errors at error with the underlying cause.
func (s *Server) reportError(r *http.Request, err error) *statusError {
	var se *statusError
	if !errors.As(err, &se) {
		se = wrapStatusError(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError), err)
	}

	fields := map[string]any{
		"code":   se.Code,
		"msg":    se.Message,
		"method": r.Method,
		"path":   r.URL.Path,
	}
	if cause := errors.Unwrap(se); cause != nil {
		fields["cause"] = cause.Error()
	}
	if se.Code >= http.StatusInternalServerError {
		s.log.ErrorObj("request failed", "request", fields)
	} else {
		s.log.WarnObj("request rejected", "request", fields)
	}
	return se
}
