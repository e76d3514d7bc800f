package feed

import "encoding/xml"

// The generated XML uses literal namespace prefixes because encoding/xml
// has no first-class prefix support on marshal.

type rssDocument struct {
	XMLName      xml.Name `xml:"rss"`
	Version      string   `xml:"version,attr"`
	XmlnsItunes  string   `xml:"xmlns:itunes,attr"`
	XmlnsAtom    string   `xml:"xmlns:atom,attr"`
	XmlnsContent string   `xml:"xmlns:content,attr"`
	Channel      channel  `xml:"channel"`
}

type channel struct {
	Title       string     `xml:"title"`
	Link        string     `xml:"link"`
	Description string     `xml:"description"`
	Language    string     `xml:"language"`
	PubDate     string     `xml:"pubDate,omitempty"`
	Author      string     `xml:"itunes:author,omitempty"`
	Image       *image     `xml:"itunes:image,omitempty"`
	AtomLinks   []atomLink `xml:"atom:link"`
	Items       []rssItem  `xml:"item"`
}

type image struct {
	Href string `xml:"href,attr"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type rssItem struct {
	Title       string     `xml:"title"`
	GUID        guid       `xml:"guid"`
	PubDate     string     `xml:"pubDate"`
	Author      string     `xml:"itunes:author,omitempty"`
	Subtitle    string     `xml:"itunes:subtitle,omitempty"`
	Duration    int        `xml:"itunes:duration"`
	Image       *image     `xml:"itunes:image,omitempty"`
	Description cdata      `xml:"description"`
	Content     cdata      `xml:"content:encoded"`
	Enclosure   enclosure  `xml:"enclosure"`
}

type guid struct {
	IsPermaLink bool   `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

type cdata struct {
	Text string `xml:",cdata"`
}

type enclosure struct {
	URL    string `xml:"url,attr"`
	Length int64  `xml:"length,attr"`
	Type   string `xml:"type,attr"`
}
