package extract

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/alvmarrod/graph-weaver/internal/fetch"
	"github.com/alvmarrod/graph-weaver/internal/graph"
	"github.com/alvmarrod/graph-weaver/internal/weburl"
)

// parseDocument loads the response body for goquery selection
func parseDocument(resp *fetch.Response) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", resp.URL, err)
	}
	return doc, nil
}

// URLExtractor emits every http(s) link found in anchor tags
type URLExtractor struct{}

// NewURLExtractor creates a link extractor
func NewURLExtractor() *URLExtractor {
	return &URLExtractor{}
}

// ID returns the url type token
func (e *URLExtractor) ID() string {
	return graph.TypeURL
}

// Extract resolves anchors against the page URL and keeps absolute http(s) links,
// in document order and without repeats
func (e *URLExtractor) Extract(resp *fetch.Response) ([]graph.Result, error) {
	doc, err := parseDocument(resp)
	if err != nil {
		return nil, err
	}

	base, err := url.Parse(resp.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid page url %q: %w", resp.URL, err)
	}

	domain := weburl.Domain(resp.URL)
	seen := make(map[string]bool)
	var results []graph.Result

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}

		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		link := base.ResolveReference(ref)
		if link.Scheme != "http" && link.Scheme != "https" {
			return
		}
		link.Fragment = ""

		abs := link.String()
		if seen[abs] {
			return
		}
		seen[abs] = true

		results = append(results, graph.Result{
			Domain:  domain,
			URL:     resp.URL,
			Payload: abs,
			Type:    graph.TypeURL,
		})
	})

	return results, nil
}

var emailPattern = regexp.MustCompile(`[a-zA-Z0-9_.+\-]+@[a-zA-Z0-9\-]+(?:\.[a-zA-Z0-9\-]+)*\.[a-zA-Z]{2,}`)

// EmailExtractor emits the email addresses visible in page text or in mailto links
type EmailExtractor struct{}

// NewEmailExtractor creates an email extractor
func NewEmailExtractor() *EmailExtractor {
	return &EmailExtractor{}
}

// ID returns the email type token
func (e *EmailExtractor) ID() string {
	return graph.TypeEmail
}

// Extract finds addresses, case-folded and deduplicated per page
func (e *EmailExtractor) Extract(resp *fetch.Response) ([]graph.Result, error) {
	doc, err := parseDocument(resp)
	if err != nil {
		return nil, err
	}

	var candidates []string
	for _, text := range textNodes(doc) {
		candidates = append(candidates, emailPattern.FindAllString(text, -1)...)
	}
	doc.Find(`a[href^="mailto:"]`).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		addr := strings.TrimPrefix(href, "mailto:")
		if i := strings.IndexByte(addr, '?'); i >= 0 {
			addr = addr[:i]
		}
		candidates = append(candidates, emailPattern.FindAllString(addr, -1)...)
	})

	domain := weburl.Domain(resp.URL)
	seen := make(map[string]bool)
	var results []graph.Result

	for _, addr := range candidates {
		addr = strings.ToLower(strings.Trim(addr, "."))
		if seen[addr] {
			continue
		}
		seen[addr] = true

		results = append(results, graph.Result{
			Domain:  domain,
			URL:     resp.URL,
			Payload: addr,
			Type:    graph.TypeEmail,
		})
	}

	return results, nil
}

// textNodes returns the document's text nodes in order, skipping script and style.
// Adjacent elements stay separate so a match never runs into the next cell.
func textNodes(doc *goquery.Document) []string {
	var texts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			texts = append(texts, n.Data)
			return
		case n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style"):
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	for _, n := range doc.Nodes {
		walk(n)
	}
	return texts
}
