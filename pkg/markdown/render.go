package markdown

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// DefaultMaxImageWidth is the display-width cap applied to exported images
const DefaultMaxImageWidth = 800

// Options controls rendering behavior
type Options struct {
	// BaseURL resolves relative links and image sources
	BaseURL string
	// MaxImageWidth caps the width attribute written on <img> tags;
	// zero means DefaultMaxImageWidth
	MaxImageWidth int
}

// Render converts a DOM subtree into Markdown text. The input is expected
// to be an already-isolated content root; unrecognized elements degrade to
// their concatenated text, so malformed input never produces an error.
// Re-rendering the output of a previous render is not a supported
// operation.
func Render(root *html.Node, opts Options) string {
	if root == nil {
		return ""
	}
	if opts.MaxImageWidth <= 0 {
		opts.MaxImageWidth = DefaultMaxImageWidth
	}

	r := &renderer{opts: opts}
	if opts.BaseURL != "" {
		if base, err := url.Parse(opts.BaseURL); err == nil {
			r.base = base
		}
	}

	out := r.walk(root)
	out = collapseBlankLines(out)
	return strings.TrimSpace(out)
}

// RenderHTML parses an HTML fragment and renders its body content. This is
// the entry point used when converting API-returned bodies, which arrive as
// markup strings rather than live trees.
func RenderHTML(fragment string, opts Options) (string, error) {
	if strings.TrimSpace(fragment) == "" {
		return "", nil
	}
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return "", fmt.Errorf("failed to parse html: %w", err)
	}
	if body := findElement(doc, "body"); body != nil {
		return Render(body, opts), nil
	}
	return Render(doc, opts), nil
}

type renderer struct {
	opts Options
	base *url.URL
}

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	blankLineRun  = regexp.MustCompile(`\n{3,}`)
	mdSpecials    = regexp.MustCompile("([\\\\`*_{}\\[\\]()#+\\-.!])")
)

func collapseBlankLines(s string) string {
	return blankLineRun.ReplaceAllString(s, "\n\n")
}

// escapeMd backslash-escapes Markdown-significant characters in link text
func escapeMd(s string) string {
	return mdSpecials.ReplaceAllString(s, `\$1`)
}

// walk is the recursive post-order renderer. Text nodes collapse internal
// whitespace runs; element nodes dispatch per tag; everything else is
// dropped.
func (r *renderer) walk(n *html.Node) string {
	switch n.Type {
	case html.TextNode:
		return whitespaceRun.ReplaceAllString(n.Data, " ")
	case html.ElementNode:
		return r.element(n)
	case html.DocumentNode:
		return r.children(n)
	default:
		return ""
	}
}

// children renders all child nodes and trims the result
func (r *renderer) children(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(r.walk(c))
	}
	return strings.TrimSpace(b.String())
}

func (r *renderer) element(n *html.Node) string {
	if isMathNode(n) {
		return r.math(n)
	}

	switch n.Data {
	case "script", "style", "noscript", "button":
		return ""
	case "br":
		return "\n"
	case "p":
		if text := r.children(n); text != "" {
			return text + "\n\n"
		}
		return ""
	case "h1", "h2", "h3", "h4":
		level := int(n.Data[1] - '0')
		if text := r.children(n); text != "" {
			return strings.Repeat("#", level) + " " + text + "\n\n"
		}
		return ""
	case "blockquote":
		if text := r.children(n); text != "" {
			return "> " + strings.ReplaceAll(text, "\n", "\n> ") + "\n\n"
		}
		return ""
	case "strong", "b":
		if text := r.children(n); text != "" {
			return "**" + text + "**"
		}
		return ""
	case "em", "i":
		if text := r.children(n); text != "" {
			return "*" + text + "*"
		}
		return ""
	case "a":
		return r.anchor(n)
	case "img":
		return r.image(n)
	case "ul":
		return r.list(n, false)
	case "ol":
		return r.list(n, true)
	case "pre":
		return r.codeBlock(n)
	case "code":
		if n.Parent != nil && n.Parent.Type == html.ElementNode && n.Parent.Data == "pre" {
			return r.children(n)
		}
		return inlineCode(textContent(n))
	case "table":
		return r.rawBlock(n)
	case "figure":
		return r.figure(n)
	default:
		return r.children(n)
	}
}

// anchor renders links. Zhihu link cards carry the target page title in a
// data attribute and get forced onto their own line; plain links resolve
// relative hrefs against the base URL.
func (r *renderer) anchor(n *html.Node) string {
	href := r.resolveURL(attr(n, "href"))

	if isLinkCard(n) {
		text := attr(n, "data-text")
		if text == "" {
			text = r.children(n)
		}
		if text == "" {
			text = href
		}
		if href == "" {
			return text
		}
		return "\n[" + escapeMd(text) + "](" + href + ")\n\n"
	}

	text := r.children(n)
	if href == "" {
		return text
	}
	if text == "" {
		text = href
	}
	return "[" + escapeMd(text) + "](" + href + ")"
}

func isLinkCard(n *html.Node) bool {
	if attr(n, "data-draft-type") == "link-card" {
		return true
	}
	return strings.Contains(attr(n, "class"), "LinkCard")
}

// image emits a raw <img> tag so an explicit display width can be set.
// Markdown image syntax has no width control, and Zhihu originals are
// often far wider than any reasonable page.
func (r *renderer) image(n *html.Node) string {
	src := firstAttr(n, "data-original", "data-actualsrc", "data-src", "src")
	if src == "" || strings.HasPrefix(src, "data:") {
		// Inlined data URIs would bloat every export; dropped.
		return ""
	}
	src = r.resolveURL(src)

	width := intAttr(n, "data-rawwidth", "width")
	height := intAttr(n, "data-rawheight", "height")

	maxW := r.opts.MaxImageWidth
	switch {
	case width <= 0:
		return fmt.Sprintf(`<img src="%s">`, src)
	case width <= maxW:
		if height > 0 {
			return fmt.Sprintf(`<img src="%s" width="%d" height="%d">`, src, width, height)
		}
		return fmt.Sprintf(`<img src="%s" width="%d">`, src, width)
	default:
		if height > 0 {
			scaled := int(float64(height)*float64(maxW)/float64(width) + 0.5)
			return fmt.Sprintf(`<img src="%s" width="%d" height="%d">`, src, maxW, scaled)
		}
		return fmt.Sprintf(`<img src="%s" width="%d">`, src, maxW)
	}
}

// list renders direct li children as bullet or numbered items
func (r *renderer) list(n *html.Node, ordered bool) string {
	var items []string
	i := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.Data != "li" {
			continue
		}
		i++
		text := strings.TrimSpace(r.children(c))
		if ordered {
			items = append(items, fmt.Sprintf("%d. %s", i, text))
		} else {
			items = append(items, "- "+text)
		}
	}
	if len(items) == 0 {
		return ""
	}
	return strings.Join(items, "\n") + "\n\n"
}

// codeBlock emits a fenced block. The fence is one backtick longer than
// the longest backtick run inside the code, so the fence can never be
// confused with content.
func (r *renderer) codeBlock(n *html.Node) string {
	code := strings.TrimRight(textContent(n), "\n")

	fenceLen := longestBacktickRun(code) + 1
	if fenceLen < 3 {
		fenceLen = 3
	}
	fence := strings.Repeat("`", fenceLen)

	lang := codeLanguage(n)
	return "\n" + fence + lang + "\n" + code + "\n" + fence + "\n\n"
}

// codeLanguage extracts a language tag from language-*/lang-* classes on
// the pre or its inner code element. "text" and "plain" are noise, not
// languages.
func codeLanguage(n *html.Node) string {
	candidates := []string{attr(n, "class")}
	if code := findElement(n, "code"); code != nil {
		candidates = append(candidates, attr(code, "class"))
	}
	for _, class := range candidates {
		for _, c := range strings.Fields(class) {
			var lang string
			if strings.HasPrefix(c, "language-") {
				lang = strings.TrimPrefix(c, "language-")
			} else if strings.HasPrefix(c, "lang-") {
				lang = strings.TrimPrefix(c, "lang-")
			}
			if lang == "" {
				continue
			}
			if l := strings.ToLower(lang); l == "text" || l == "plain" {
				return ""
			}
			return lang
		}
	}
	return ""
}

// inlineCode wraps content in backticks using the longest-run+1 rule,
// padding with a space where the content itself starts or ends with a
// backtick.
func inlineCode(code string) string {
	if code == "" {
		return ""
	}
	wrap := strings.Repeat("`", longestBacktickRun(code)+1)
	open, close := wrap, wrap
	if strings.HasPrefix(code, "`") {
		open += " "
	}
	if strings.HasSuffix(code, "`") {
		close = " " + close
	}
	return open + code + close
}

func longestBacktickRun(s string) int {
	longest, run := 0, 0
	for _, r := range s {
		if r == '`' {
			run++
			if run > longest {
				longest = run
			}
		} else {
			run = 0
		}
	}
	return longest
}

// rawBlock passes the original markup through untouched, surrounded by
// blank lines. Zhihu tables can carry merged cells and rich inline content
// that pipe-table syntax cannot represent losslessly.
func (r *renderer) rawBlock(n *html.Node) string {
	var b strings.Builder
	if err := html.Render(&b, n); err != nil {
		return r.children(n)
	}
	return "\n" + b.String() + "\n\n"
}

// figure renders contained images first, then the caption text
func (r *renderer) figure(n *html.Node) string {
	var images []string
	var caption string

	var visit func(*html.Node)
	visit = func(c *html.Node) {
		for child := c.FirstChild; child != nil; child = child.NextSibling {
			if child.Type == html.ElementNode {
				switch child.Data {
				case "img":
					if img := r.image(child); img != "" {
						images = append(images, img)
					}
					continue
				case "figcaption":
					caption = r.children(child)
					continue
				}
			}
			visit(child)
		}
	}
	visit(n)

	var parts []string
	if len(images) > 0 {
		parts = append(parts, strings.Join(images, "\n\n"))
	}
	if caption != "" {
		parts = append(parts, caption)
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, "\n\n") + "\n\n"
}

// attr returns the value of the named attribute, or ""
func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

// firstAttr returns the first non-empty value among the named attributes
func firstAttr(n *html.Node, names ...string) string {
	for _, name := range names {
		if v := attr(n, name); v != "" {
			return v
		}
	}
	return ""
}

// intAttr parses the first attribute that holds a positive integer
func intAttr(n *html.Node, names ...string) int {
	for _, name := range names {
		if v := attr(n, name); v != "" {
			if i, err := strconv.Atoi(strings.TrimSuffix(v, "px")); err == nil && i > 0 {
				return i
			}
		}
	}
	return 0
}

// resolveURL makes href absolute against the base URL when one is set
func (r *renderer) resolveURL(href string) string {
	if href == "" || r.base == nil {
		return href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	return r.base.ResolveReference(u).String()
}

// textContent returns the concatenated raw text of a subtree
func textContent(n *html.Node) string {
	var b strings.Builder
	var visit func(*html.Node)
	visit = func(c *html.Node) {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
		for child := c.FirstChild; child != nil; child = child.NextSibling {
			visit(child)
		}
	}
	visit(n)
	return b.String()
}

// findElement returns the first descendant element with the given tag
func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}
