// Package storage keeps the Atom feed file linkfeed serves and appends to.
package storage

import (
	"fmt"
	"time"
)

// RetentionPolicy controls how far Trim may shrink a feed.
type RetentionPolicy struct {
	// MinEntries is the floor below which no entry is removed, however old.
	MinEntries int
	// MaxAge is how old an entry's updated time must be before it can go.
	MaxAge time.Duration
}

const (
	DefaultMinEntries = 50
	DefaultMaxAge     = 30 * 24 * time.Hour
)

func (p RetentionPolicy) normalize() RetentionPolicy {
	if p.MinEntries <= 0 {
		p.MinEntries = DefaultMinEntries
	}
	if p.MaxAge <= 0 {
		p.MaxAge = DefaultMaxAge
	}
	return p
}

// FeedError reports a feed file that exists but is not a usable Atom document.
type FeedError struct {
	Path string
	Err  error
}

func (e *FeedError) Error() string {
	return fmt.Sprintf("feed error: %s: %v", e.Path, e.Err)
}

func (e *FeedError) Unwrap() error { return e.Err }
