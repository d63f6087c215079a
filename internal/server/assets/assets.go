// Package assets embeds the HTML pages and logo served by the gateway.
package assets

import "embed"

//go:embed index.html 404.html 500.html logo.svg
var FS embed.FS

const (
	Index         = "index.html"
	NotFound      = "404.html"
	InternalError = "500.html"
	Logo          = "logo.svg"
)
