package domain

// Domain contains core models shared by the fetcher, the feed store and the gateway.

// WebPage holds the metadata extracted from a fetched page. Empty fields are absent.
type WebPage struct {
	Title       string `yaml:"title,omitempty"`
	Description string `yaml:"description,omitempty"`
	Author      string `yaml:"author,omitempty"`
}

// AddResult reports the outcome of adding a link to the feed.
type AddResult int

const (
	Added AddResult = iota
	Duplicate
)

func (r AddResult) String() string {
	switch r {
	case Added:
		return "Added"
	case Duplicate:
		return "Duplicate"
	default:
		return "Unknown"
	}
}
