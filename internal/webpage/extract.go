package webpage

import (
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/samvad-hq/linkfeed/internal/domain"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// extractMeta walks the token stream once, without building a DOM.
func extractMeta(r io.Reader) (domain.WebPage, error) {
	var (
		page     domain.WebPage
		titleTag strings.Builder
		inTitle  bool
	)

	finish := func() domain.WebPage {
		if page.Title == "" {
			if text := strings.TrimSpace(titleTag.String()); text != "" {
				setIfLonger(&page.Title, text)
			}
		}
		return page
	}

	z := html.NewTokenizer(r)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return finish(), err
			}
			return finish(), nil

		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			switch tok.DataAtom {
			case atom.Meta:
				applyMeta(&page, tok.Attr)
			case atom.Title:
				inTitle = tok.Type == html.StartTagToken
			}

		case html.EndTagToken:
			if name, _ := z.TagName(); atom.Lookup(name) == atom.Title {
				inTitle = false
			}

		case html.TextToken:
			if inTitle {
				titleTag.Write(z.Text())
			}
		}
	}
}

func applyMeta(page *domain.WebPage, attrs []html.Attribute) {
	content, ok := attr(attrs, "content")
	if !ok {
		return
	}
	content = strings.TrimSpace(content)

	property, hasProperty := attr(attrs, "property")
	if hasProperty {
		switch property {
		case "og:title":
			setIfLonger(&page.Title, content)
		case "og:description":
			setIfLonger(&page.Description, content)
		}
		return
	}

	name, _ := attr(attrs, "name")
	switch name {
	case "description":
		setIfLonger(&page.Description, content)
	case "author":
		setIfLonger(&page.Author, content)
	}
}

func attr(attrs []html.Attribute, key string) (string, bool) {
	for _, a := range attrs {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// setIfLonger replaces *value with candidate only when candidate has more characters.
// Repeated tags therefore settle on the richest one.
func setIfLonger(value *string, candidate string) {
	if utf8.RuneCountInString(candidate) > utf8.RuneCountInString(*value) {
		*value = candidate
	}
}

// PreferLonger is setIfLonger for callers outside the package, e.g. a user-supplied title.
func PreferLonger(current, candidate string) string {
	setIfLonger(&current, candidate)
	return current
}
