package storage

import (
	"encoding/xml"
	"time"
)

// Atom 1.0 (RFC 4287) document model. Only the elements linkfeed writes are
// modelled; anything else found in an existing file is kept verbatim.

type atomFeed struct {
	XMLName   xml.Name       `xml:"http://www.w3.org/2005/Atom feed"`
	ID        string         `xml:"id"`
	Title     atomText       `xml:"title"`
	Updated   time.Time      `xml:"updated"`
	Authors   []atomPerson   `xml:"author"`
	Generator *atomGenerator `xml:"generator,omitempty"`
	Links     []atomLink     `xml:"link"`
	Extra     []rawElement   `xml:",any"`
	Entries   []*atomEntry   `xml:"entry"`
}

type atomEntry struct {
	ID      string       `xml:"id"`
	Title   atomText     `xml:"title"`
	Updated time.Time    `xml:"updated"`
	Authors []atomPerson `xml:"author"`
	Links   []atomLink   `xml:"link"`
	Summary *atomText    `xml:"summary,omitempty"`
	Extra   []rawElement `xml:",any"`
}

type atomText struct {
	Type  string `xml:"type,attr,omitempty"`
	Value string `xml:",chardata"`
}

type atomPerson struct {
	Name  string `xml:"name"`
	URI   string `xml:"uri,omitempty"`
	Email string `xml:"email,omitempty"`
}

type atomLink struct {
	Href  string `xml:"href,attr"`
	Rel   string `xml:"rel,attr,omitempty"`
	Type  string `xml:"type,attr,omitempty"`
	Title string `xml:"title,attr,omitempty"`
}

type atomGenerator struct {
	URI     string `xml:"uri,attr,omitempty"`
	Version string `xml:"version,attr,omitempty"`
	Value   string `xml:",chardata"`
}

// rawElement round-trips an element linkfeed does not interpret.
type rawElement struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Inner   string     `xml:",innerxml"`
}

// UnmarshalXML drops namespace declarations from the captured attributes. The
// encoder declares the element's namespace itself from XMLName, so keeping them
// would write the declaration twice.
func (r *rawElement) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	type plain rawElement
	var el plain
	if err := d.DecodeElement(&el, &start); err != nil {
		return err
	}
	attrs := el.Attrs[:0]
	for _, a := range el.Attrs {
		if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
			continue
		}
		attrs = append(attrs, a)
	}
	el.Attrs = attrs
	*r = rawElement(el)
	return nil
}

// href returns the entry's alternate link, or its first link when none is marked alternate.
func (e *atomEntry) href() string {
	for _, l := range e.Links {
		if l.Rel == "" || l.Rel == "alternate" {
			return l.Href
		}
	}
	if len(e.Links) > 0 {
		return e.Links[0].Href
	}
	return ""
}
