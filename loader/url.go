package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// URLLoader fetches a web page and extracts its visible text as one page.
type URLLoader struct {
	client *http.Client
}

// NewURLLoader creates a web page loader. If client is nil, a default client
// with a 30 second timeout is used.
func NewURLLoader(client *http.Client) *URLLoader {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &URLLoader{client: client}
}

// Load fetches the URL and returns the text content of its HTML body.
func (l *URLLoader) Load(ctx context.Context, url string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: fetching %s returned status %d", ErrExtractionFailed, url, resp.StatusCode)
	}

	text, err := extractText(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}
	if text == "" {
		return nil, fmt.Errorf("%w: %s", ErrEmptyDocument, url)
	}

	return []string{text}, nil
}

// extractText walks the HTML tree collecting text nodes, skipping script and
// style subtrees. Block-level boundaries become newlines so the chunker can
// split on them.
func extractText(r io.Reader) (string, error) {
	root, err := html.Parse(r)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				return
			}
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				b.WriteString(text)
				b.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && isBlockElement(n.Data) {
			b.WriteString("\n")
		}
	}
	walk(root)

	lines := strings.Split(b.String(), "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n"), nil
}

func isBlockElement(tag string) bool {
	switch tag {
	case "p", "div", "section", "article", "li", "tr", "br",
		"h1", "h2", "h3", "h4", "h5", "h6", "blockquote", "pre":
		return true
	}
	return false
}
