package extract

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/net/html"

	"github.com/bookkeeper-io/bookkeeper/constants"
)

func (e *Extractor) extractHTML(path string) (TextResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return TextResult{Format: constants.HTML}, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	defer f.Close()

	doc, err := html.Parse(f)
	if err != nil {
		return TextResult{Format: constants.HTML}, fmt.Errorf("%w: parse html: %v", ErrExtractionFailed, err)
	}

	var b strings.Builder
	collectText(doc, &b)
	return TextResult{
		Text:   normalizeWhitespace(b.String()),
		Pages:  1,
		Format: constants.HTML,
		Method: "html",
	}, nil
}

// collectText walks the node tree and appends visible text, skipping
// script/style/head subtrees.
func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "script", "style", "head", "noscript":
			return
		}
	}
	if n.Type == html.TextNode {
		if t := strings.TrimSpace(n.Data); t != "" {
			b.WriteString(t)
			b.WriteByte('\n')
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}

func normalizeWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}
