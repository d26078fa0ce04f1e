package zhihu

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"zhexport/pkg/logger"
	"zhexport/pkg/markdown"
)

// Document is the resolved, render-ready form of one saved item. Title is
// never empty; BodyHTML may be, which renders to an empty body.
type Document struct {
	Kind      ContentKind
	Title     string
	Author    string
	BodyHTML  string
	SourceURL string
	CreatedAt time.Time
	UpdatedAt time.Time
	// CoverURL and Location are populated for video posts only
	CoverURL string
	Location string
}

// DisplayTime renders the document's timestamp for humans, preferring the
// update time over creation time. Empty when neither is known.
func (d *Document) DisplayTime() string {
	t := d.UpdatedAt
	if t.IsZero() {
		t = d.CreatedAt
	}
	if t.IsZero() {
		return ""
	}
	return t.Format("02 01 2006 15:04")
}

// Resolver turns collection items into Documents, fetching full content
// payloads by kind. Answers blocked at the API (403) are recovered from
// the rendered page's embedded state, or from the page DOM when the state
// is unusable; other kinds surface the error.
type Resolver struct {
	client *Client
	log    logger.Logger
	locate markdown.LocateOptions
}

// ResolverOption customizes a Resolver
type ResolverOption func(*Resolver)

// WithLocateOptions overrides the DOM extraction heuristics used by the
// rendered-page fallbacks
func WithLocateOptions(noiseMarkers []string, minRootLength int) ResolverOption {
	return func(r *Resolver) {
		r.locate = markdown.LocateOptions{
			NoiseMarkers:  noiseMarkers,
			MinRootLength: minRootLength,
		}
	}
}

// NewResolver creates a resolver over an authenticated client
func NewResolver(client *Client, log logger.Logger, opts ...ResolverOption) *Resolver {
	if log == nil {
		log = logger.GetLogger()
	}
	r := &Resolver{client: client, log: log}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve fetches and assembles the document for one saved item
func (r *Resolver) Resolve(ctx context.Context, item CollectionItem) (*Document, error) {
	c := item.Content
	switch ParseContentKind(c.Type) {
	case KindAnswer:
		return r.resolveAnswer(ctx, c)
	case KindArticle:
		return r.resolveArticle(ctx, c)
	case KindPin:
		return r.resolvePin(ctx, c)
	case KindVideo:
		return r.resolveZvideo(ctx, c)
	default:
		return nil, fmt.Errorf("unsupported content kind %q for item %s", c.Type, c.ID)
	}
}

func (r *Resolver) resolveAnswer(ctx context.Context, c Content) (*Document, error) {
	qid, title := "", ""
	if c.Question != nil {
		qid = c.Question.ID.String()
		title = c.Question.Title
	}
	sourceURL := AnswerWebURL(qid, c.ID.String())

	// The listing often inlines the full body; skip the second request.
	if c.HTML != "" {
		return &Document{
			Kind:      KindAnswer,
			Title:     orUntitled(title),
			Author:    c.Author.Name,
			BodyHTML:  c.HTML,
			SourceURL: sourceURL,
			CreatedAt: c.CreatedTime.Time(),
			UpdatedAt: c.UpdatedTime.Time(),
		}, nil
	}

	var ans Answer
	err := r.client.GetJSON(ctx, AnswerURL(c.ID.String()), &ans)
	if IsForbidden(err) {
		r.log.InfoWithFields("answer API forbidden, falling back to page scrape", map[string]interface{}{
			"answer_id": c.ID.String(),
		})
		return r.answerFromPage(ctx, c, sourceURL)
	}
	if err != nil {
		return nil, err
	}
	if ans.HTML == "" && ans.ID == "" {
		return nil, fmt.Errorf("answer entity missing from successful response: %s", AnswerURL(c.ID.String()))
	}

	if ans.Question.Title != "" {
		title = ans.Question.Title
	}
	author := ans.Author.Name
	if author == "" {
		author = c.Author.Name
	}
	return &Document{
		Kind:      KindAnswer,
		Title:     orUntitled(title),
		Author:    author,
		BodyHTML:  ans.HTML,
		SourceURL: sourceURL,
		CreatedAt: ans.CreatedTime.Time(),
		UpdatedAt: ans.UpdatedTime.Time(),
	}, nil
}

// initialStateRe finds the page-state assignment used by older page builds
var initialStateRe = regexp.MustCompile(`window\.__INITIAL_STATE__\s*=\s*`)

// answerFromPage recovers an answer from the rendered page when the API
// refuses to serve it. The page embeds its data store as JSON under one of
// two conventions; the answer entity is looked up there by id.
func (r *Resolver) answerFromPage(ctx context.Context, c Content, sourceURL string) (*Document, error) {
	page, err := r.client.GetHTML(ctx, sourceURL)
	if err != nil {
		return nil, err
	}

	if state, stateErr := extractPageState(page); stateErr == nil {
		if raw, ok := state.Entities.Answers[c.ID.String()]; ok {
			var ans Answer
			if err := json.Unmarshal(raw, &ans); err != nil {
				return nil, fmt.Errorf("malformed answer entity in page state at %s: %w", sourceURL, err)
			}

			title := ans.Question.Title
			if title == "" && c.Question != nil {
				title = c.Question.Title
			}
			author := ans.Author.Name
			if author == "" {
				author = c.Author.Name
			}
			return &Document{
				Kind:      KindAnswer,
				Title:     orUntitled(title),
				Author:    author,
				BodyHTML:  ans.HTML,
				SourceURL: sourceURL,
				CreatedAt: ans.CreatedTime.Time(),
				UpdatedAt: ans.UpdatedTime.Time(),
			}, nil
		}
	}

	// No usable embedded state; extract straight from the rendered DOM.
	if doc := r.answerFromDOM(page, c, sourceURL); doc != nil {
		return doc, nil
	}
	return nil, fmt.Errorf("answer %s not present in page state at %s", c.ID, sourceURL)
}

// answerFromDOM locates the answer content in page markup the way a reader
// sees it. Nil when the page has no plausible content container.
func (r *Resolver) answerFromDOM(markup string, c Content, sourceURL string) *Document {
	loc, err := markdown.Locate(markup, markdown.PageAnswer, r.locate)
	if err != nil || loc.Root == nil {
		return nil
	}

	var b strings.Builder
	if err := html.Render(&b, loc.Root); err != nil {
		return nil
	}

	title := loc.Title
	if title == "Untitled" && c.Question != nil && c.Question.Title != "" {
		title = c.Question.Title
	}
	return &Document{
		Kind:      KindAnswer,
		Title:     orUntitled(title),
		Author:    firstNonEmpty(loc.Author, c.Author.Name),
		BodyHTML:  b.String(),
		SourceURL: sourceURL,
		CreatedAt: c.CreatedTime.Time(),
		UpdatedAt: c.UpdatedTime.Time(),
	}
}

// pageState is the slice of the embedded data store the resolver needs
type pageState struct {
	Entities struct {
		Answers map[string]json.RawMessage `json:"answers"`
	} `json:"entities"`
}

// extractPageState pulls the embedded JSON store out of page markup. Newer
// builds ship it in a <script id="js-initialData"> tag; older ones assign
// it to window.__INITIAL_STATE__.
func extractPageState(markup string) (*pageState, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err == nil {
		if text := doc.Find("script#js-initialData").Text(); strings.TrimSpace(text) != "" {
			var state struct {
				InitialState pageState `json:"initialState"`
			}
			if jsonErr := json.Unmarshal([]byte(text), &state); jsonErr == nil && len(state.InitialState.Entities.Answers) > 0 {
				return &state.InitialState, nil
			}
			// Some builds put the state at the top level.
			var flat pageState
			if jsonErr := json.Unmarshal([]byte(text), &flat); jsonErr == nil && len(flat.Entities.Answers) > 0 {
				return &flat, nil
			}
		}
	}

	if loc := initialStateRe.FindStringIndex(markup); loc != nil {
		dec := json.NewDecoder(strings.NewReader(markup[loc[1]:]))
		var flat pageState
		if err := dec.Decode(&flat); err == nil {
			return &flat, nil
		}
	}

	return nil, fmt.Errorf("no recognized state embedding")
}

func (r *Resolver) resolveArticle(ctx context.Context, c Content) (*Document, error) {
	sourceURL := ArticleWebURL(c.ID.String())

	if c.HTML != "" {
		return &Document{
			Kind:      KindArticle,
			Title:     orUntitled(c.Title),
			Author:    c.Author.Name,
			BodyHTML:  c.HTML,
			SourceURL: sourceURL,
			CreatedAt: c.CreatedTime.Time(),
			UpdatedAt: c.UpdatedTime.Time(),
		}, nil
	}

	var art Article
	if err := r.client.GetJSON(ctx, ArticleURL(c.ID.String()), &art); err != nil {
		return nil, err
	}
	if art.HTML == "" && art.Title == "" {
		return nil, fmt.Errorf("article entity missing from successful response: %s", ArticleURL(c.ID.String()))
	}

	title := art.Title
	if title == "" {
		title = c.Title
	}
	return &Document{
		Kind:      KindArticle,
		Title:     orUntitled(title),
		Author:    art.Author.Name,
		BodyHTML:  art.HTML,
		SourceURL: sourceURL,
		CreatedAt: art.Created.Time(),
		UpdatedAt: art.Updated.Time(),
	}, nil
}

// pinTitleLimit caps how much of a pin's text becomes its title
const pinTitleLimit = 40

func (r *Resolver) resolvePin(ctx context.Context, c Content) (*Document, error) {
	sourceURL := PinWebURL(c.ID.String())

	var pin Pin
	if err := r.client.GetJSON(ctx, PinURL(c.ID.String()), &pin); err != nil {
		return nil, err
	}
	if len(pin.Content) == 0 && c.HTML == "" && c.Excerpt == "" {
		return nil, fmt.Errorf("pin entity missing from successful response: %s", PinURL(c.ID.String()))
	}

	body := pinBodyHTML(pin.Content)
	if body == "" {
		body = c.HTML
	}

	return &Document{
		Kind:      KindPin,
		Title:     pinTitle(body, c.Excerpt),
		Author:    pin.Author.Name,
		BodyHTML:  body,
		SourceURL: sourceURL,
		CreatedAt: pin.Created.Time(),
		UpdatedAt: pin.Updated.Time(),
	}, nil
}

// pinBodyHTML flattens a pin's segment list into one HTML fragment
func pinBodyHTML(segments []PinSegment) string {
	var b strings.Builder
	for _, seg := range segments {
		switch seg.Type {
		case "text":
			b.WriteString(seg.HTML)
		case "image":
			src := seg.OrigURL
			if src == "" {
				src = seg.URL
			}
			if src != "" {
				fmt.Fprintf(&b, `<figure><img src="%s"></figure>`, src)
			}
		case "link":
			label := seg.Title
			if label == "" {
				label = seg.URL
			}
			fmt.Fprintf(&b, `<p><a href="%s">%s</a></p>`, seg.URL, label)
		case "video":
			if seg.URL != "" {
				fmt.Fprintf(&b, `<p><a href="%s">%s</a></p>`, seg.URL, "视频")
			}
		}
	}
	return b.String()
}

// pinTitle derives a title for an untitled pin from its leading text
func pinTitle(bodyHTML, excerpt string) string {
	text := excerpt
	if text == "" {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(bodyHTML)); err == nil {
			text = doc.Find("p").First().Text()
			if text == "" {
				text = doc.Text()
			}
		}
	}
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) > pinTitleLimit {
		text = string(runes[:pinTitleLimit])
	}
	return orUntitled(text)
}

// zvideoMetaRe matches the page metadata line "发布于 <time>・<location>・…",
// with location and trailing stats both optional. Stats are discarded.
var zvideoMetaRe = regexp.MustCompile(`发布于\s*([0-9\-: ]+)(?:\s*[・·]\s*([^・·\n<]+))?`)

func (r *Resolver) resolveZvideo(ctx context.Context, c Content) (*Document, error) {
	sourceURL := ZvideoWebURL(c.ID.String())

	var zv Zvideo
	if err := r.client.GetJSON(ctx, ZvideoURL(c.ID.String()), &zv); err != nil {
		return nil, err
	}
	if zv.Title == "" && c.Title == "" {
		return nil, fmt.Errorf("zvideo entity missing from successful response: %s", ZvideoURL(c.ID.String()))
	}

	doc := &Document{
		Kind:      KindVideo,
		Title:     orUntitled(firstNonEmpty(zv.Title, c.Title)),
		Author:    firstNonEmpty(zv.Author.Name, c.Author.Name),
		SourceURL: sourceURL,
		CreatedAt: zv.PublishedAt.Time(),
		CoverURL:  zv.ImageURL,
	}
	if zv.Description != "" {
		doc.BodyHTML = "<p>" + zv.Description + "</p>"
	}

	// The API frequently omits publish time and location for videos; the
	// rendered page carries them in a metadata line.
	if doc.CreatedAt.IsZero() || doc.Location == "" {
		r.scrapeZvideoMeta(ctx, doc, sourceURL)
	}

	return doc, nil
}

// scrapeZvideoMeta best-effort fills publish time and location from the
// video page. Failures leave the document as-is.
func (r *Resolver) scrapeZvideoMeta(ctx context.Context, doc *Document, pageURL string) {
	page, err := r.client.GetHTML(ctx, pageURL)
	if err != nil {
		r.log.DebugWithFields("zvideo page scrape failed", map[string]interface{}{
			"url":   pageURL,
			"error": err.Error(),
		})
		return
	}

	m := zvideoMetaRe.FindStringSubmatch(page)
	if m == nil {
		return
	}
	if doc.CreatedAt.IsZero() {
		if t, err := time.ParseInLocation("2006-01-02 15:04:05", strings.TrimSpace(m[1]), time.Local); err == nil {
			doc.CreatedAt = t
		} else if t, err := time.ParseInLocation("2006-01-02 15:04", strings.TrimSpace(m[1]), time.Local); err == nil {
			doc.CreatedAt = t
		}
	}
	if doc.Location == "" && len(m) > 2 {
		doc.Location = strings.TrimSpace(m[2])
	}
}

func orUntitled(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return "Untitled"
	}
	return title
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
