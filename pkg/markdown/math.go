package markdown

import (
	"strings"

	"golang.org/x/net/html"
)

// Zhihu serves formulas two ways: a span carrying the TeX source in a
// data-tex attribute (with MathML inside), and server-rendered equation
// images whose alt text carries the source.

func isMathNode(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.Data {
	case "span":
		return attr(n, "data-tex") != "" || strings.Contains(attr(n, "class"), "ztext-math")
	case "img":
		return attr(n, "eeimg") == "1" || strings.Contains(attr(n, "src"), "/equation?tex=")
	}
	return false
}

// math renders a formula node as a TeX math span. Block form ($$...$$) is
// used when the formula is the sole content of its paragraph or carries an
// explicit block marker; otherwise the formula stays inline.
func (r *renderer) math(n *html.Node) string {
	src := mathSource(n)
	if src == "" {
		return ""
	}

	// A stray $ inside the source would terminate the span early.
	src = strings.ReplaceAll(src, "$", `\$`)

	if soleContentOfParagraph(n) || hasBlockMarker(n) {
		return "$$\n" + src + "\n$$\n\n"
	}
	return "$" + src + "$"
}

// mathSource extracts the underlying formula source: the data attribute
// first, then an embedded TeX annotation, then image alt text.
func mathSource(n *html.Node) string {
	if tex := attr(n, "data-tex"); tex != "" {
		return strings.TrimSpace(tex)
	}
	if ann := findTexAnnotation(n); ann != "" {
		return ann
	}
	return strings.TrimSpace(attr(n, "alt"))
}

// findTexAnnotation looks for a MathML <annotation encoding="application/x-tex">
func findTexAnnotation(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "annotation" &&
		strings.Contains(attr(n, "encoding"), "tex") {
		return strings.TrimSpace(textContent(n))
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findTexAnnotation(c); found != "" {
			return found
		}
	}
	return ""
}

// soleContentOfParagraph reports whether n is the only meaningful child of
// an enclosing paragraph, ignoring whitespace-only text siblings.
func soleContentOfParagraph(n *html.Node) bool {
	p := n.Parent
	if p == nil || p.Type != html.ElementNode || p.Data != "p" {
		return false
	}
	for c := p.FirstChild; c != nil; c = c.NextSibling {
		if c == n {
			continue
		}
		if c.Type == html.TextNode && strings.TrimSpace(c.Data) == "" {
			continue
		}
		return false
	}
	return true
}

func hasBlockMarker(n *html.Node) bool {
	if attr(n, "data-display") == "block" {
		return true
	}
	return strings.Contains(attr(n, "class"), "display")
}
