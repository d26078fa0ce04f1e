package zhihu

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	// BaseURL is the site origin; rendered pages live here
	BaseURL = "https://www.zhihu.com"

	// APIBase is the internal JSON API the web client talks to
	APIBase = "https://www.zhihu.com/api/v4"

	// ColumnBase hosts column articles
	ColumnBase = "https://zhuanlan.zhihu.com"

	// DefaultPageSize is the page size used for all list endpoints
	DefaultPageSize = 20
)

// itemsInclude asks the items endpoint to inline full content payloads so
// most items never need a second request
const itemsInclude = "data[*].content.voteup_count,content,created_time,updated_time,author,question"

// CollectionsURL lists a user's favorites folders
func CollectionsURL(urlToken string, offset, limit int) string {
	params := url.Values{}
	params.Set("offset", strconv.Itoa(offset))
	params.Set("limit", strconv.Itoa(limit))

	return fmt.Sprintf("%s/people/%s/collections?%s", APIBase, url.PathEscape(urlToken), params.Encode())
}

// CollectionItemsURL lists the saved entries of one collection
func CollectionItemsURL(collectionID string, offset, limit int) string {
	params := url.Values{}
	params.Set("offset", strconv.Itoa(offset))
	params.Set("limit", strconv.Itoa(limit))
	params.Set("include", itemsInclude)

	return fmt.Sprintf("%s/collections/%s/items?%s", APIBase, url.PathEscape(collectionID), params.Encode())
}

// CollectionURL fetches one collection's metadata
func CollectionURL(collectionID string) string {
	return fmt.Sprintf("%s/collections/%s", APIBase, url.PathEscape(collectionID))
}

// AnswerURL fetches a full answer payload
func AnswerURL(answerID string) string {
	return fmt.Sprintf("%s/answers/%s?include=content,voteup_count,created_time,updated_time", APIBase, url.PathEscape(answerID))
}

// ArticleURL fetches a full column article payload
func ArticleURL(articleID string) string {
	return fmt.Sprintf("%s/articles/%s?include=content,voteup_count", APIBase, url.PathEscape(articleID))
}

// PinURL fetches a full pin payload
func PinURL(pinID string) string {
	return fmt.Sprintf("%s/pins/%s", APIBase, url.PathEscape(pinID))
}

// ZvideoURL fetches a video post's metadata
func ZvideoURL(zvideoID string) string {
	return fmt.Sprintf("%s/zvideos/%s", APIBase, url.PathEscape(zvideoID))
}

// AnswerWebURL is the canonical reader-facing address of an answer
func AnswerWebURL(questionID, answerID string) string {
	if questionID == "" {
		// Degraded but still resolvable: the site redirects.
		return fmt.Sprintf("%s/answer/%s", BaseURL, answerID)
	}
	return fmt.Sprintf("%s/question/%s/answer/%s", BaseURL, questionID, answerID)
}

// ArticleWebURL is the canonical reader-facing address of an article
func ArticleWebURL(articleID string) string {
	return fmt.Sprintf("%s/p/%s", ColumnBase, articleID)
}

// PinWebURL is the canonical reader-facing address of a pin
func PinWebURL(pinID string) string {
	return fmt.Sprintf("%s/pin/%s", BaseURL, pinID)
}

// ZvideoWebURL is the canonical reader-facing address of a video post
func ZvideoWebURL(zvideoID string) string {
	return fmt.Sprintf("%s/zvideo/%s", BaseURL, zvideoID)
}

// WebURL resolves the canonical reader-facing URL for a content payload.
// API payloads carry api.zhihu.com URLs, which are useless to readers, so
// the address is rebuilt from ids.
func (c Content) WebURL() string {
	switch ParseContentKind(c.Type) {
	case KindAnswer:
		qid := ""
		if c.Question != nil {
			qid = c.Question.ID.String()
		}
		return AnswerWebURL(qid, c.ID.String())
	case KindArticle:
		return ArticleWebURL(c.ID.String())
	case KindPin:
		return PinWebURL(c.ID.String())
	case KindVideo:
		return ZvideoWebURL(c.ID.String())
	default:
		return c.URL
	}
}

// PageContextKind identifies what kind of Zhihu page a pasted URL points at
type PageContextKind int

const (
	ContextNone PageContextKind = iota
	// ContextPeopleCollections is a user's collections overview page
	ContextPeopleCollections
	// ContextCollection is a single collection's page
	ContextCollection
)

// PageContext is what could be inferred from a pasted Zhihu URL
type PageContext struct {
	Kind         PageContextKind
	UserToken    string
	CollectionID string
}

// ParsePageURL extracts an export target from a pasted Zhihu URL. Accepted
// shapes are a user's collections overview (/people/<token>/collections)
// and a single collection page (/collection/<id>). Bare tokens and numeric
// ids are also accepted as shorthand.
func ParsePageURL(raw string) (PageContext, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return PageContext{}, fmt.Errorf("empty target")
	}

	if !strings.Contains(raw, "/") {
		if numericID(raw) {
			return PageContext{Kind: ContextCollection, CollectionID: raw}, nil
		}
		return PageContext{Kind: ContextPeopleCollections, UserToken: raw}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return PageContext{}, fmt.Errorf("not a valid URL: %w", err)
	}
	if u.Host != "" && !strings.HasSuffix(u.Host, "zhihu.com") {
		return PageContext{}, fmt.Errorf("not a zhihu.com URL: %s", u.Host)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	switch {
	case len(parts) >= 2 && parts[0] == "people" && (len(parts) == 2 || parts[2] == "collections"):
		return PageContext{Kind: ContextPeopleCollections, UserToken: parts[1]}, nil
	case len(parts) >= 2 && parts[0] == "collection" && numericID(parts[1]):
		return PageContext{Kind: ContextCollection, CollectionID: parts[1]}, nil
	}

	return PageContext{}, fmt.Errorf("URL has no collection context: %s", raw)
}

func numericID(s string) bool {
	if s == "" {
		return false
	}
	_, err := strconv.ParseUint(s, 10, 64)
	return err == nil
}
