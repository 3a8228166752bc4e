package extract

import (
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// selector wraps a compiled CSS selector group. The zero value matches
// nothing.
type selector struct {
	m cascadia.Matcher
}

func compileSelector(expr string) (selector, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return selector{}, nil
	}
	m, err := cascadia.Compile(expr)
	if err != nil {
		return selector{}, fmt.Errorf("selector %q: %w", expr, err)
	}
	return selector{m: m}, nil
}

func (s selector) empty() bool { return s.m == nil }

// findAll returns matching descendants of root in document order.
func (s selector) findAll(root *html.Node) []*html.Node {
	if s.empty() || root == nil {
		return nil
	}
	return cascadia.QueryAll(root, s.m)
}

func (s selector) findFirst(root *html.Node) *html.Node {
	if s.empty() || root == nil {
		return nil
	}
	return cascadia.Query(root, s.m)
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// textContent returns the whitespace-collapsed text beneath n.
func textContent(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
			return
		}
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
