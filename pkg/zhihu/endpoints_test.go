package zhihu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectionsURL(t *testing.T) {
	url := CollectionsURL("some-user", 20, 20)
	assert.Contains(t, url, "/api/v4/people/some-user/collections")
	assert.Contains(t, url, "offset=20")
	assert.Contains(t, url, "limit=20")
}

func TestCollectionItemsURLIncludesContent(t *testing.T) {
	url := CollectionItemsURL("123", 0, 20)
	assert.Contains(t, url, "/api/v4/collections/123/items")
	assert.Contains(t, url, "include=")
}

func TestContentWebURL(t *testing.T) {
	tests := []struct {
		name    string
		content Content
		want    string
	}{
		{
			name:    "answer with question",
			content: Content{Type: "answer", ID: "2", Question: &Question{ID: "1"}},
			want:    "https://www.zhihu.com/question/1/answer/2",
		},
		{
			name:    "answer without question still resolves",
			content: Content{Type: "answer", ID: "2"},
			want:    "https://www.zhihu.com/answer/2",
		},
		{
			name:    "article",
			content: Content{Type: "article", ID: "3"},
			want:    "https://zhuanlan.zhihu.com/p/3",
		},
		{
			name:    "pin",
			content: Content{Type: "pin", ID: "4"},
			want:    "https://www.zhihu.com/pin/4",
		},
		{
			name:    "zvideo",
			content: Content{Type: "zvideo", ID: "5"},
			want:    "https://www.zhihu.com/zvideo/5",
		},
		{
			name:    "unknown falls back to API URL",
			content: Content{Type: "roundtable", ID: "6", URL: "https://api.zhihu.com/roundtables/6"},
			want:    "https://api.zhihu.com/roundtables/6",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.content.WebURL())
		})
	}
}

func TestParsePageURL(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want PageContext
	}{
		{
			name: "people collections page",
			raw:  "https://www.zhihu.com/people/some-user/collections",
			want: PageContext{Kind: ContextPeopleCollections, UserToken: "some-user"},
		},
		{
			name: "people profile page",
			raw:  "https://www.zhihu.com/people/some-user",
			want: PageContext{Kind: ContextPeopleCollections, UserToken: "some-user"},
		},
		{
			name: "collection page",
			raw:  "https://www.zhihu.com/collection/123456",
			want: PageContext{Kind: ContextCollection, CollectionID: "123456"},
		},
		{
			name: "collection page with trailing slash",
			raw:  "https://www.zhihu.com/collection/123456/",
			want: PageContext{Kind: ContextCollection, CollectionID: "123456"},
		},
		{
			name: "bare numeric id is a collection",
			raw:  "123456",
			want: PageContext{Kind: ContextCollection, CollectionID: "123456"},
		},
		{
			name: "bare token is a user",
			raw:  "some-user",
			want: PageContext{Kind: ContextPeopleCollections, UserToken: "some-user"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePageURL(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePageURLRejectsForeignAndUnusable(t *testing.T) {
	_, err := ParsePageURL("https://example.com/collection/1")
	assert.Error(t, err)

	_, err = ParsePageURL("https://www.zhihu.com/question/1")
	assert.Error(t, err)

	_, err = ParsePageURL("")
	assert.Error(t, err)
}

func TestParseContentKindRoundTrip(t *testing.T) {
	for _, kind := range []ContentKind{KindAnswer, KindArticle, KindPin, KindVideo} {
		assert.Equal(t, kind, ParseContentKind(kind.String()))
	}
	assert.Equal(t, KindUnknown, ParseContentKind("roundtable"))
	assert.Equal(t, "unknown", KindUnknown.String())
}
