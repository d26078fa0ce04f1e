package markdown

import (
	"fmt"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// PageKind identifies which Zhihu page layout a document uses
type PageKind int

const (
	PageUnknown PageKind = iota
	PageAnswer
	PageArticle
	PagePin
	PageVideo
)

// DefaultNoiseMarkers are lead-in phrases of promotional blocks Zhihu
// injects into content. Kept overridable: the phrases drift with site
// redesigns.
var DefaultNoiseMarkers = []string{"本文收录于", "推荐阅读", "相关热门"}

// DefaultMinRootLength is the text length below which a selected content
// root is considered a probable structural mismatch.
const DefaultMinRootLength = 30

// LocateOptions tunes content location heuristics
type LocateOptions struct {
	NoiseMarkers  []string
	MinRootLength int
}

// Located is the result of locating content within a page
type Located struct {
	Title  string
	Author string
	// Root is the isolated, noise-stripped content subtree, ready for Render.
	// Nil when no plausible content container exists in the page.
	Root *html.Node
}

// siteSuffixes are trailing site-name decorations stripped from titles
var siteSuffixes = []string{" - 知乎", " - 知乎专栏", "- 知乎"}

// chrome elements removed before rendering, whatever the page kind
var chromeSelectors = []string{
	"script", "style", "noscript", "button",
	".ContentItem-actions", ".RichContent-actions",
	".Comments-container", ".MoreAnswers", ".Reward",
}

// rootSelectors lists content-container candidates per page kind, most
// specific first. The generic tail handles layout drift.
func rootSelectors(kind PageKind) []string {
	var specific []string
	switch kind {
	case PageAnswer:
		specific = []string{".QuestionAnswer-content .RichContent-inner", ".RichContent-inner"}
	case PageArticle:
		specific = []string{".Post-RichTextContainer", ".PostIndex-content"}
	case PagePin:
		specific = []string{".PinItem-content", ".PinItem-remainContentRichText"}
	case PageVideo:
		specific = []string{".ZVideo-content", ".VideoAnswerPlayer"}
	}
	return append(specific, ".RichText", "article", "main")
}

// partialRootSelectors are attribute-contains fallbacks used when the
// chosen root's text is implausibly small
var partialRootSelectors = []string{
	"div[class*='RichContent']",
	"div[class*='RichText']",
	"div[class*='Post-']",
}

// Locate finds the title, author, and main content root of a Zhihu page.
// A missing author is normal (anonymous users); a missing content root is
// reported through a nil Root, not an error; the caller decides whether
// that is fatal.
func Locate(markup string, kind PageKind, opts LocateOptions) (*Located, error) {
	if len(opts.NoiseMarkers) == 0 {
		opts.NoiseMarkers = DefaultNoiseMarkers
	}
	if opts.MinRootLength <= 0 {
		opts.MinRootLength = DefaultMinRootLength
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	located := &Located{
		Title:  locateTitle(doc, kind),
		Author: locateAuthor(doc),
	}

	root := locateRoot(doc, kind, opts.MinRootLength)
	if root != nil {
		stripNoise(root, opts.NoiseMarkers)
		located.Root = root.Get(0)
	}

	return located, nil
}

// locateTitle walks the priority chain: kind-specific heading, social meta
// title, document title. Never returns empty; "Untitled" is the floor.
func locateTitle(doc *goquery.Document, kind PageKind) string {
	var headings []string
	switch kind {
	case PageAnswer:
		headings = []string{"h1.QuestionHeader-title", "h1"}
	case PageArticle:
		headings = []string{"h1.Post-Title", "h1"}
	default:
		headings = []string{"h1"}
	}

	for _, sel := range headings {
		if t := cleanTitle(doc.Find(sel).First().Text()); t != "" {
			return t
		}
	}

	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok {
		if t := cleanTitle(og); t != "" {
			return t
		}
	}

	if t := cleanTitle(doc.Find("title").First().Text()); t != "" {
		return t
	}

	return "Untitled"
}

func cleanTitle(s string) string {
	s = strings.TrimSpace(s)
	for _, suffix := range siteSuffixes {
		s = strings.TrimSuffix(s, suffix)
	}
	return strings.TrimSpace(s)
}

// locateAuthor tries known author-name patterns; empty means not found,
// which is not an error.
func locateAuthor(doc *goquery.Document) string {
	selectors := []string{
		".AuthorInfo-name",
		`[data-za-detail-view-element_name="User"]`,
		".PostIndex-authorName",
	}
	for _, sel := range selectors {
		if name := strings.TrimSpace(doc.Find(sel).First().Text()); name != "" {
			return name
		}
	}
	return ""
}

// locateRoot picks the first container matching the kind's priority list.
// When the best candidate holds almost no text, the page layout probably
// changed, so partial class matches are tried before giving up.
func locateRoot(doc *goquery.Document, kind PageKind, minLen int) *goquery.Selection {
	var fallback *goquery.Selection

	for _, sel := range rootSelectors(kind) {
		node := doc.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		if len([]rune(strings.TrimSpace(node.Text()))) >= minLen {
			return node
		}
		if fallback == nil {
			fallback = node
		}
	}

	for _, sel := range partialRootSelectors {
		node := doc.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		if len([]rune(strings.TrimSpace(node.Text()))) >= minLen {
			return node
		}
	}

	// Undersized root beats none at all.
	return fallback
}

// stripNoise removes UI chrome and heuristically-identified promotional
// blocks from the content root, in place.
func stripNoise(root *goquery.Selection, markers []string) {
	for _, sel := range chromeSelectors {
		root.Find(sel).Remove()
	}

	removePromoBlocks(root, markers)
}

// promoMaxTextLen bounds how large a block can be and still count as a
// promotional insert rather than real content
const promoMaxTextLen = 160

// removePromoBlocks finds small, link-dense blocks whose text contains a
// marker phrase and detaches them. Candidates are processed deepest-first
// so removing an ancestor never leaves redundant work for its descendants.
func removePromoBlocks(root *goquery.Selection, markers []string) {
	type candidate struct {
		sel   *goquery.Selection
		depth int
	}
	var candidates []candidate

	root.Find("div, p, blockquote, section").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text == "" || len([]rune(text)) > promoMaxTextLen {
			return
		}
		if s.Find("a").Length() == 0 {
			return
		}
		for _, marker := range markers {
			if strings.Contains(text, marker) {
				candidates = append(candidates, candidate{sel: s, depth: nodeDepth(s.Get(0))})
				return
			}
		}
	})

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].depth > candidates[j].depth
	})

	for _, c := range candidates {
		if isDetached(c.sel.Get(0), root.Get(0)) {
			continue
		}
		c.sel.Remove()
	}
}

func nodeDepth(n *html.Node) int {
	depth := 0
	for p := n.Parent; p != nil; p = p.Parent {
		depth++
	}
	return depth
}

// isDetached reports whether n no longer hangs under root, which happens
// when an ancestor candidate was already removed
func isDetached(n, root *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == root {
			return false
		}
	}
	return true
}
