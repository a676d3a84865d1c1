// Package goquery implements the HTML parsing side of pagegraph on top of
// github.com/PuerkitoBio/goquery and golang.org/x/net/html.
package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/pagegraph"
	"golang.org/x/net/html"
)

// Parse parses an HTML document or fragment.
// The HTML5 parser wraps fragments in synthesized html, head and body elements.
func Parse(s string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return nil, pagegraph.Errorf(pagegraph.EINVALID, "failed to parse HTML: %v", err)
	}
	return doc, nil
}

// TraversalRoot returns the node extraction starts from: the body element if
// present, else the first element child of the document (e.g. a frameset
// page), else the document node itself.
func TraversalRoot(doc *goquery.Document) *html.Node {
	if body := doc.Find("body").First(); body.Length() > 0 {
		return body.Nodes[0]
	}
	root := doc.Selection.Nodes[0]
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return c
		}
	}
	return root
}

// Title returns the trimmed text of the first title element,
// or pagegraph.DefaultTitle if there is none.
func Title(doc *goquery.Document) string {
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		return pagegraph.DefaultTitle
	}
	return title
}

// selectionFor wraps a node of doc in a Selection.
func selectionFor(doc *goquery.Document, n *html.Node) *goquery.Selection {
	if n == doc.Selection.Nodes[0] {
		return doc.Selection
	}
	return doc.FindNodes(n)
}
