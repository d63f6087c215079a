package webpage

import (
	"fmt"
	"html"
	"net/url"
	"strings"
)

const (
	SummaryText = "text"
	SummaryHTML = "html"
)

// Summary is the body of a feed entry summary and its Atom text type.
type Summary struct {
	Type string
	Body string
}

const youTubeShortHost = "youtu.be"

var youTubeHosts = map[string]bool{
	"www.youtube.com":      true,
	"m.youtube.com":        true,
	"youtube-nocookie.com": true,
	youTubeShortHost:       true,
}

// Summarize renders the entry summary for a link. YouTube videos get an embedded
// player; other pages get their description as plain text, or a link when there is none.
func Summarize(u *url.URL, description string) Summary {
	description = strings.TrimSpace(description)

	if id, ok := youTubeVideoID(u); ok {
		var b strings.Builder
		fmt.Fprintf(&b,
			`<iframe width="560" height="315" src="https://www.youtube-nocookie.com/embed/%s" title="YouTube video player" frameborder="0" allow="accelerometer; autoplay; clipboard-write; encrypted-media; gyroscope; picture-in-picture; web-share" referrerpolicy="strict-origin-when-cross-origin" allowfullscreen></iframe>`,
			url.PathEscape(id),
		)
		if description != "" {
			b.WriteString("<p>")
			b.WriteString(html.EscapeString(description))
			b.WriteString("</p>")
		}
		return Summary{Type: SummaryHTML, Body: b.String()}
	}

	if description != "" {
		return Summary{Type: SummaryText, Body: description}
	}

	link := html.EscapeString(u.String())
	return Summary{Type: SummaryHTML, Body: fmt.Sprintf(`<a href="%s">%s</a>`, link, link)}
}

func youTubeVideoID(u *url.URL) (string, bool) {
	if u == nil {
		return "", false
	}
	host := strings.ToLower(u.Hostname())
	if !youTubeHosts[host] {
		return "", false
	}

	if id := strings.TrimSpace(u.Query().Get("v")); id != "" {
		return id, true
	}

	segments := pathSegments(u.Path)
	for i := 0; i+1 < len(segments); i++ {
		if segments[i] == "v" {
			return segments[i+1], true
		}
	}

	if host == youTubeShortHost && len(segments) == 1 {
		return segments[0], true
	}
	return "", false
}

func pathSegments(p string) []string {
	var out []string
	for _, seg := range strings.Split(p, "/") {
		if seg != "" {
			out = append(out, seg)
		}
	}
	return out
}
