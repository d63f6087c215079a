package server

import "net/http"

const (
	headerContentType     = "Content-Type"
	headerLastModified    = "Last-Modified"
	headerIfModifiedSince = "If-Modified-Since"
	headerAllowOrigin     = "Access-Control-Allow-Origin"

	contentTypeForm = "application/x-www-form-urlencoded"
)

type responseKind int

const (
	kindHTML responseKind = iota
	kindAtom
	kindText
	kindJSON
)

// headerTable is built once per Server and never mutated afterwards.
type headerTable map[responseKind]http.Header

func newHeaderTable() headerTable {
	return headerTable{
		kindHTML: {headerContentType: {"text/html; charset=utf-8"}},
		kindAtom: {headerContentType: {"application/atom+xml"}},
		kindText: {
			headerContentType: {"text/plain; charset=utf-8"},
			headerAllowOrigin: {"*"},
		},
		kindJSON: {
			headerContentType: {"application/json"},
			headerAllowOrigin: {"*"},
		},
	}
}

func (t headerTable) apply(w http.ResponseWriter, kind responseKind) {
	dst := w.Header()
	for key, values := range t[kind] {
		dst[key] = values
	}
}
