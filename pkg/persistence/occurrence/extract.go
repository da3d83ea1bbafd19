package occurrence

import (
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
)

// isHTML reports whether a corpus file should be reduced to text first.
func isHTML(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".htm", ".html":
		return true
	}
	return false
}

// StripHTML returns the visible text of an HTML document, one space
// between text nodes. Script and style contents are dropped. If parsing
// fails the input is returned unchanged.
func StripHTML(s string) string {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return s
	}

	var parts []string
	var extractText func(*html.Node)
	extractText = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extractText(c)
		}
	}
	extractText(doc)

	return strings.Join(parts, " ")
}
