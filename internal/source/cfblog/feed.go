package cfblog

import (
	"bytes"
	"encoding/xml"
)

type rssDocument struct {
	XMLName xml.Name   `xml:"rss"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Items []feedItem `xml:"item"`
}

type feedItem struct {
	Title   string `xml:"title"`
	Link    string `xml:"link"`
	PubDate string `xml:"pubDate"`
}

// looksLikeFeed is the cheap acceptance test applied to each retrieval
// strategy's body before committing to a parse.
func looksLikeFeed(body []byte) bool {
	return bytes.HasPrefix(bytes.TrimSpace(body), []byte("<?xml"))
}

// parseFeed decodes an RSS document leniently. Blog feeds carry HTML
// entities and the occasional unclosed tag; a body the decoder still
// cannot make sense of yields an empty item list, not an error.
func parseFeed(body []byte) []feedItem {
	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.Strict = false
	dec.AutoClose = xml.HTMLAutoClose
	dec.Entity = xml.HTMLEntity

	var doc rssDocument
	if err := dec.Decode(&doc); err != nil {
		return nil
	}

	return doc.Channel.Items
}
