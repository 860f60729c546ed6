// Package extract turns a page's rendered HTML into the structured
// models.PageData record. The HTML comes from the live browser session, so
// there is no fetching here, only traversal.
package extract

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"chromesnap/pkg/models"
)

// FromHTML parses the document and collects title, meta tags, anchors,
// images, and visible text. Anchors and images keep document order. Relative
// hrefs are resolved against pageURL; script and style text is stripped.
func FromHTML(r io.Reader, pageURL string) (models.PageData, error) {
	data := models.PageData{
		URL:  pageURL,
		Meta: make(map[string]string),
	}

	doc, err := html.Parse(r)
	if err != nil {
		return data, err
	}

	var textBuilder strings.Builder

	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if n.FirstChild != nil && data.Title == "" {
					data.Title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "meta":
				if name, content := metaPair(n); name != "" {
					data.Meta[name] = content
				}
			case "a":
				if href, ok := attr(n, "href"); ok {
					data.Links = append(data.Links, models.Link{
						Text:  collectText(n),
						Href:  resolveURL(pageURL, href),
						Title: attrOr(n, "title", ""),
					})
				}
			case "img":
				data.Images = append(data.Images, models.Image{
					Src:   attrOr(n, "src", ""),
					Alt:   attrOr(n, "alt", ""),
					Title: attrOr(n, "title", ""),
				})
			}
		}

		if n.Type == html.TextNode {
			parent := n.Parent
			if parent != nil && parent.Data != "script" && parent.Data != "style" {
				if text := strings.TrimSpace(n.Data); text != "" {
					if textBuilder.Len() > 0 {
						textBuilder.WriteByte(' ')
					}
					textBuilder.WriteString(text)
				}
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}

	visit(doc)

	data.TextContent = textBuilder.String()
	return data, nil
}

// metaPair reads a meta tag's identifying attribute (name, falling back to
// property for OpenGraph-style tags) and its content. Both must be non-empty.
func metaPair(n *html.Node) (string, string) {
	name, ok := attr(n, "name")
	if !ok || name == "" {
		name, _ = attr(n, "property")
	}
	content, _ := attr(n, "content")
	if name == "" || content == "" {
		return "", ""
	}
	return name, content
}

// collectText concatenates the trimmed text of a node's subtree.
func collectText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				if b.Len() > 0 {
					b.WriteByte(' ')
				}
				b.WriteString(text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func attrOr(n *html.Node, key, fallback string) string {
	if v, ok := attr(n, key); ok {
		return v
	}
	return fallback
}

// resolveURL makes relative hrefs absolute (e.g. "/about" against the page
// URL). Unparseable input is returned untouched rather than dropped, so the
// link count always matches the document.
func resolveURL(base, href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return href
	}
	return baseURL.ResolveReference(u).String()
}
