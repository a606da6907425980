package crawler

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// LinkExtractor returns the raw hyperlink targets of a document in document order.
type LinkExtractor interface {
	ExtractHrefs(body []byte) ([]string, error)
}

// HTMLLinkExtractor extracts the href attribute of every <a> element.
//
// The document is parsed with golang.org/x/net/html, which tolerates the
// malformed markup common on the web.
type HTMLLinkExtractor struct{}

// ExtractHrefs implements LinkExtractor.
// Empty hrefs and bare "#" anchors are omitted; nothing is resolved here.
func (HTMLLinkExtractor) ExtractHrefs(body []byte) ([]string, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	hrefs := make([]string, 0)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			href := strings.TrimSpace(getAttr(n, "href"))
			if href != "" && href != "#" {
				hrefs = append(hrefs, href)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return hrefs, nil
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
