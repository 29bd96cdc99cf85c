package perception

import (
	"strings"

	"golang.org/x/net/html"
)

// WalkElements visits element descendants of n in document order until visit
// returns false. It reports whether the walk ran to completion.
func WalkElements(n *html.Node, visit func(*html.Node) bool) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && !visit(c) {
			return false
		}
		if !WalkElements(c, visit) {
			return false
		}
	}
	return true
}

// FindElement returns the first element under n matching match, or nil.
func FindElement(n *html.Node, match func(*html.Node) bool) *html.Node {
	var found *html.Node
	WalkElements(n, func(el *html.Node) bool {
		if match(el) {
			found = el
			return false
		}
		return true
	})
	return found
}

// Tag matches elements by name.
func Tag(name string) func(*html.Node) bool {
	return func(n *html.Node) bool { return n.Data == name }
}

// TextContent concatenates every text node under n.
func TextContent(n *html.Node) string {
	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return sb.String()
}

// Attr returns the value of attribute key, or "".
func Attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// HasClass reports whether n carries class.
func HasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(Attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}
