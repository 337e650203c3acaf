// Package html builds a dom.Document from HTML source using
// golang.org/x/net/html as the underlying parser implementation.
package html

import (
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/chrisuehlinger/stylecore/dom"
)

var (
	styleSelector      = cascadia.MustCompile("style")
	stylesheetSelector = cascadia.MustCompile(`link[rel~="stylesheet" i][href]`)
	titleSelector      = cascadia.MustCompile("head > title")
)

// Page is a parsed HTML document together with the style sources it
// references.
type Page struct {
	DOM *dom.Document
	// Styles holds the text of every <style> element in document order.
	// Elements with a media attribute are wrapped in an @media block.
	Styles []string
	// Links holds the href of every <link rel="stylesheet">.
	Links []string
	Title string
}

// Stylesheet concatenates the page's <style> contents.
func (p *Page) Stylesheet() string {
	return strings.Join(p.Styles, "\n")
}

// Parse parses HTML from a string.
func Parse(htmlContent string) (*Page, error) {
	return ParseReader(strings.NewReader(htmlContent))
}

// ParseReader parses HTML from an io.Reader.
func ParseReader(r io.Reader) (*Page, error) {
	netNode, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	page := &Page{DOM: dom.NewDocument()}
	for c := netNode.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			if err := convertNode(page.DOM, c, dom.InvalidNode); err != nil {
				return nil, err
			}
			break
		}
	}

	for _, n := range styleSelector.MatchAll(netNode) {
		text := textContent(n)
		if media := strings.TrimSpace(attr(n, "media")); media != "" && !strings.EqualFold(media, "all") {
			text = "@media " + media + " {\n" + text + "\n}"
		}
		page.Styles = append(page.Styles, text)
	}
	for _, n := range stylesheetSelector.MatchAll(netNode) {
		page.Links = append(page.Links, attr(n, "href"))
	}
	if n := titleSelector.MatchFirst(netNode); n != nil {
		page.Title = strings.TrimSpace(textContent(n))
	}
	return page, nil
}

// convertNode copies n and its subtree into doc under parent. Comments,
// doctypes and processing instructions are dropped.
func convertNode(doc *dom.Document, n *html.Node, parent dom.NodeID) error {
	switch n.Type {
	case html.TextNode:
		if parent == dom.InvalidNode {
			return nil
		}
		_, err := doc.CreateText(n.Data, parent)
		return err
	case html.ElementNode:
		id, err := doc.CreateElement(n.Data, parent)
		if err != nil {
			return fmt.Errorf("create <%s>: %w", n.Data, err)
		}
		for _, a := range n.Attr {
			key := a.Key
			if a.Namespace != "" {
				key = a.Namespace + ":" + a.Key
			}
			if err := doc.SetAttribute(id, key, a.Val); err != nil {
				return err
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if err := convertNode(doc, c, id); err != nil {
				return err
			}
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
