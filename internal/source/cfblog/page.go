package cfblog

import (
	"strings"

	"github.com/mackee/go-readability"
	"golang.org/x/net/html"
)

// pageText reduces a fetched HTML document to the plain text handed to
// the extraction backend. Readability extraction keeps the article body
// and drops navigation chrome; when it cannot find an article, the whole
// document is stripped tag by tag instead.
func pageText(body string) string {
	article, err := readability.Extract(body, readability.DefaultOptions())
	if err == nil && article.Root != nil {
		return collapseWhitespace(readability.ToMarkdown(article.Root))
	}

	return collapseWhitespace(stripTags(body))
}

func stripTags(body string) string {
	tok := html.NewTokenizer(strings.NewReader(body))
	var b strings.Builder
	skip := 0

	for {
		switch tok.Next() {
		case html.ErrorToken:
			return b.String()
		case html.StartTagToken:
			name, _ := tok.TagName()
			if n := string(name); n == "script" || n == "style" {
				skip++
			}
		case html.EndTagToken:
			name, _ := tok.TagName()
			if n := string(name); (n == "script" || n == "style") && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(tok.Text())
				b.WriteByte(' ')
			}
		}
	}
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
