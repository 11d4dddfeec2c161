package parser

import (
	"bytes"
	"strings"

	"github.com/dgallion1/docvet/internal/doctree"
	"golang.org/x/net/html"
)

// scanHTML pulls link targets and explicit anchors out of raw HTML embedded
// in a Markdown document. firstLine is the document line raw starts on.
func scanHTML(raw []byte, firstLine int) ([]doctree.Link, []string) {
	var (
		links   []doctree.Link
		anchors []string
		offset  int
	)

	z := html.NewTokenizer(bytes.NewReader(raw))
	for {
		tt := z.Next()
		// io.EOF or malformed markup; either way there is nothing more to read.
		if tt == html.ErrorToken {
			break
		}
		line := firstLine + bytes.Count(raw[:offset], []byte{'\n'})
		offset += len(z.Raw())

		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		tok := z.Token()
		for _, attr := range tok.Attr {
			switch strings.ToLower(attr.Key) {
			case "href":
				if tok.Data == "a" || tok.Data == "link" {
					links = append(links, newLink(attr.Val, doctree.LinkHTML, line))
				}
			case "src":
				if tok.Data == "img" || tok.Data == "source" {
					links = append(links, newLink(attr.Val, doctree.LinkHTML, line))
				}
			case "id":
				anchors = append(anchors, attr.Val)
			case "name":
				if tok.Data == "a" {
					anchors = append(anchors, attr.Val)
				}
			}
		}
	}
	return links, anchors
}
