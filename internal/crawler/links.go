package crawler

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// LinkExtractor maps a page body to the absolute URLs it references.
type LinkExtractor interface {
	ExtractLinks(base, body string) []string
}

// HTMLLinkExtractor extracts <a href> targets with golang.org/x/net/html,
// which copes with the malformed markup common on the web.
type HTMLLinkExtractor struct{}

// NewHTMLLinkExtractor returns an HTMLLinkExtractor.
func NewHTMLLinkExtractor() *HTMLLinkExtractor {
	return &HTMLLinkExtractor{}
}

// ExtractLinks returns the deduplicated absolute URLs of every anchor in
// body, resolved against base, in document order. Fragments are removed.
// A base or body that cannot be parsed yields no links.
func (e *HTMLLinkExtractor) ExtractLinks(base, body string) []string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil
	}

	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return nil
	}

	seen := make(map[string]struct{})
	links := make([]string, 0)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key != "href" {
					continue
				}
				link := resolveLink(baseURL, attr.Val)
				if link == "" {
					continue
				}
				if _, ok := seen[link]; !ok {
					seen[link] = struct{}{}
					links = append(links, link)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return links
}

// resolveLink resolves href against base. Non-navigational schemes and
// bare fragments resolve to "".
func resolveLink(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}

	lower := strings.ToLower(href)
	for _, prefix := range []string{"javascript:", "mailto:", "tel:", "data:"} {
		if strings.HasPrefix(lower, prefix) {
			return ""
		}
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}

	resolved := base.ResolveReference(u)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	resolved.Fragment = ""
	resolved.RawFragment = ""
	return resolved.String()
}
