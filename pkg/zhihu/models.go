package zhihu

import (
	"strings"
	"time"
)

// ID accepts the identifier shapes the API actually emits: some endpoints
// return numeric ids, others the same ids as strings.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" {
		s = ""
	}
	*id = ID(s)
	return nil
}

func (id ID) String() string {
	return string(id)
}

// Timestamp holds an epoch value that may be in seconds or milliseconds,
// depending on the endpoint.
type Timestamp int64

// Time normalizes the epoch to a time.Time. Values too large to be a
// plausible second count are treated as milliseconds.
func (ts Timestamp) Time() time.Time {
	v := int64(ts)
	if v == 0 {
		return time.Time{}
	}
	if v > 1e12 {
		return time.UnixMilli(v)
	}
	return time.Unix(v, 0)
}

// IsZero reports whether no timestamp was present
func (ts Timestamp) IsZero() bool {
	return ts == 0
}

// Paging is the cursor envelope shared by all list endpoints. IsEnd is a
// pointer because its absence and a false value mean different things:
// absent forces the caller onto offset-based advancement.
type Paging struct {
	IsEnd  *bool  `json:"is_end"`
	Next   string `json:"next"`
	Totals int    `json:"totals"`
}

// Ended reports whether the API explicitly declared the listing finished
func (p Paging) Ended() bool {
	return p.IsEnd != nil && *p.IsEnd
}

// Author is the minimal author identity attached to content payloads
type Author struct {
	Name     string `json:"name"`
	URLToken string `json:"url_token"`
}

// Question is the parent question of an answer
type Question struct {
	ID    ID     `json:"id"`
	Title string `json:"title"`
}

// Collection is one favorites folder
type Collection struct {
	ID        ID     `json:"id"`
	Title     string `json:"title"`
	ItemCount int    `json:"item_count"`
	IsPublic  bool   `json:"is_public"`
}

// CollectionListResponse is a page of a user's collections
type CollectionListResponse struct {
	Data   []Collection `json:"data"`
	Paging Paging       `json:"paging"`
}

// CollectionItem is one saved entry inside a collection
type CollectionItem struct {
	Created Timestamp `json:"created"`
	Content Content   `json:"content"`
}

// Content is the saved object itself. Which fields are populated depends
// on Type; ParseContentKind(Type) decides how the item is resolved.
type Content struct {
	Type        string    `json:"type"`
	ID          ID        `json:"id"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Excerpt     string    `json:"excerpt"`
	HTML        string    `json:"content"`
	Author      Author    `json:"author"`
	Question    *Question `json:"question"`
	CreatedTime Timestamp `json:"created_time"`
	UpdatedTime Timestamp `json:"updated_time"`
}

// CollectionItemsResponse is a page of a collection's saved items
type CollectionItemsResponse struct {
	Data   []CollectionItem `json:"data"`
	Paging Paging           `json:"paging"`
}

// Answer is the full answer payload from the content endpoint
type Answer struct {
	ID          ID        `json:"id"`
	HTML        string    `json:"content"`
	Author      Author    `json:"author"`
	Question    Question  `json:"question"`
	CreatedTime Timestamp `json:"created_time"`
	UpdatedTime Timestamp `json:"updated_time"`
	VoteupCount int       `json:"voteup_count"`
}

// Article is the full column article payload
type Article struct {
	ID          ID        `json:"id"`
	Title       string    `json:"title"`
	HTML        string    `json:"content"`
	Author      Author    `json:"author"`
	Created     Timestamp `json:"created"`
	Updated     Timestamp `json:"updated"`
	VoteupCount int       `json:"voteup_count"`
}

// PinSegment is one block of a pin ("想法"). Pins are segment lists, not a
// single HTML document.
type PinSegment struct {
	Type    string `json:"type"`
	HTML    string `json:"content"`
	URL     string `json:"url"`
	Title   string `json:"title"`
	OrigURL string `json:"original_url"`
}

// Pin is the full pin payload
type Pin struct {
	ID      ID           `json:"id"`
	Author  Author       `json:"author"`
	Created Timestamp    `json:"created"`
	Updated Timestamp    `json:"updated"`
	Content []PinSegment `json:"content"`
}

// Zvideo is the full video-post payload. Video posts carry no rich body;
// the export is metadata plus description.
type Zvideo struct {
	ID          ID        `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url"`
	Author      Author    `json:"author"`
	PublishedAt Timestamp `json:"published_at"`
	PlayCount   int       `json:"play_count"`
	VoteCount   int       `json:"voteup_count"`
}
