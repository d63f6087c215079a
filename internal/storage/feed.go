package storage

import (
	"bufio"
	"encoding/xml"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"slices"
	"time"

	"github.com/samvad-hq/linkfeed/internal/domain"
	"github.com/samvad-hq/linkfeed/internal/version"
	"github.com/samvad-hq/linkfeed/internal/webpage"
	"github.com/samvad-hq/linkfeed/pkg/uid"
)

const (
	feedTitle     = "linkfeed"
	defaultAuthor = "linkfeed"
	untitled      = "Untitled"

	tagAuthority = "samvad-hq.github.io"
	tagYear      = "2025"
	idLength     = 21
)

// Feed is an Atom document bound to the file it was read from or will be saved to.
// A Feed is not safe for concurrent use; callers serialise access to the file.
type Feed struct {
	path string
	doc  *atomFeed
	now  func() time.Time
}

// Entry is a read-only view of one feed entry.
type Entry struct {
	ID      string
	Title   string
	Link    string
	Author  string
	Summary string
	Updated time.Time
}

func newTagID() string {
	return "tag:" + tagAuthority + "," + tagYear + ":" + uid.Base62(idLength)
}

func generator() *atomGenerator {
	return &atomGenerator{URI: version.Homepage, Version: version.Version, Value: version.Name}
}

func utcNow() time.Time { return time.Now().UTC() }

// Read loads and decodes the feed stored at path.
func Read(path string) (*Feed, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open feed: %w", err)
	}
	defer file.Close()

	var doc atomFeed
	if err := xml.NewDecoder(bufio.NewReader(file)).Decode(&doc); err != nil {
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			return nil, fmt.Errorf("read feed: %w", err)
		}
		return nil, &FeedError{Path: path, Err: err}
	}
	if doc.ID == "" {
		return nil, &FeedError{Path: path, Err: errors.New("feed has no id")}
	}
	return &Feed{path: path, doc: &doc, now: utcNow}, nil
}

// GenerateNew builds an empty feed for path. Nothing is written until Save.
func GenerateNew(path string) *Feed {
	f := &Feed{path: path, now: utcNow}
	f.doc = &atomFeed{
		ID:        newTagID(),
		Title:     atomText{Value: feedTitle},
		Updated:   f.now(),
		Authors:   []atomPerson{{Name: defaultAuthor}},
		Generator: generator(),
	}
	return f
}

// Bootstrap makes sure a valid feed exists at path, creating an empty one when the file is absent.
func Bootstrap(path string) (created bool, err error) {
	if _, err := os.Stat(path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return false, fmt.Errorf("stat feed: %w", err)
		}
		if err := GenerateNew(path).Save(); err != nil {
			return false, err
		}
		return true, nil
	}
	if _, err := Read(path); err != nil {
		return false, err
	}
	return false, nil
}

func (f *Feed) Path() string { return f.path }

func (f *Feed) ID() string { return f.doc.ID }

func (f *Feed) Len() int { return len(f.doc.Entries) }

func (f *Feed) Updated() time.Time { return f.doc.Updated }

// Entries returns the entries in document order.
func (f *Feed) Entries() []Entry {
	out := make([]Entry, 0, len(f.doc.Entries))
	for _, e := range f.doc.Entries {
		entry := Entry{
			ID:      e.ID,
			Title:   e.Title.Value,
			Link:    e.href(),
			Updated: e.Updated,
		}
		if len(e.Authors) > 0 {
			entry.Author = e.Authors[0].Name
		}
		if e.Summary != nil {
			entry.Summary = e.Summary.Value
		}
		out = append(out, entry)
	}
	return out
}

// AddIfNew appends an entry for u unless an entry already links to exactly u.
func (f *Feed) AddIfNew(u *url.URL, page domain.WebPage) domain.AddResult {
	href := u.String()
	for _, e := range f.doc.Entries {
		for _, l := range e.Links {
			if l.Href == href {
				return domain.Duplicate
			}
		}
	}

	now := f.now()
	title := page.Title
	if title == "" {
		title = untitled
	}
	summary := webpage.Summarize(u, page.Description)

	entry := &atomEntry{
		ID:      newTagID(),
		Title:   atomText{Value: title},
		Updated: now,
		Links:   []atomLink{{Href: href, Rel: "alternate"}},
		Summary: &atomText{Type: summary.Type, Value: summary.Body},
	}
	if page.Author != "" {
		entry.Authors = []atomPerson{{Name: page.Author}}
	}

	f.doc.Entries = append(f.doc.Entries, entry)
	f.doc.Updated = now
	f.doc.Generator = generator()
	return domain.Added
}

// Trim drops the oldest entries past policy.MaxAge while more than policy.MinEntries remain.
// Entries end up ordered oldest first. It returns the number removed.
func (f *Feed) Trim(policy RetentionPolicy) int {
	return f.trimAt(f.now(), policy)
}

func (f *Feed) trimAt(now time.Time, policy RetentionPolicy) int {
	policy = policy.normalize()
	entries := f.doc.Entries
	slices.SortStableFunc(entries, func(a, b *atomEntry) int {
		return a.Updated.Compare(b.Updated)
	})

	cutoff := now.Add(-policy.MaxAge)
	removed := 0
	for len(entries)-removed > policy.MinEntries && entries[removed].Updated.Before(cutoff) {
		removed++
	}
	if removed == 0 {
		return 0
	}
	f.doc.Entries = slices.Clone(entries[removed:])
	f.doc.Updated = now
	return removed
}

// Save writes the feed to a sibling temp file and renames it over the feed path.
func (f *Feed) Save() error {
	data, err := xml.MarshalIndent(f.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode feed: %w", err)
	}

	tmp := f.path + ".tmp"
	file, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create temp feed: %w", err)
	}
	w := bufio.NewWriter(file)
	w.WriteString(xml.Header)
	w.Write(data)
	w.WriteByte('\n')
	if err := w.Flush(); err != nil {
		file.Close()
		return fmt.Errorf("write temp feed: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return fmt.Errorf("sync temp feed: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close temp feed: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace feed: %w", err)
	}
	return nil
}
