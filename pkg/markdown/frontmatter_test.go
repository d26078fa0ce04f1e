package markdown

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestComposeFrontMatter(t *testing.T) {
	exported := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	fm := NewFrontMatter("为什么天空是蓝色的？", "物理老师", "https://www.zhihu.com/question/1/answer/2", exported)

	doc := fm.Compose("正文内容。\n")

	assert.True(t, strings.HasPrefix(doc, "---\n"))
	assert.True(t, strings.HasSuffix(doc, "正文内容。\n"))

	parts := strings.SplitN(doc, "---\n", 3)
	require.Len(t, parts, 3)

	var parsed FrontMatter
	require.NoError(t, yaml.Unmarshal([]byte(parts[1]), &parsed))
	assert.Equal(t, "为什么天空是蓝色的？", parsed.Title)
	assert.Equal(t, "物理老师", parsed.Author)
	assert.Equal(t, "https://www.zhihu.com/question/1/answer/2", parsed.Source)
	assert.Equal(t, "2026-03-14T09:26:53Z", parsed.ExportedAt)
}

func TestComposeOmitsEmptyAuthor(t *testing.T) {
	fm := NewFrontMatter("标题", "", "https://zhuanlan.zhihu.com/p/42", time.Now())
	assert.NotContains(t, fm.Compose("body"), "author:")
}

func TestComposeSpecialCharactersSurviveYAML(t *testing.T) {
	fm := NewFrontMatter(`标题: 含冒号 "引号" #井号`, "a: b", "https://example.com", time.Now())

	parts := strings.SplitN(fm.Compose("body"), "---\n", 3)
	require.Len(t, parts, 3)

	var parsed FrontMatter
	require.NoError(t, yaml.Unmarshal([]byte(parts[1]), &parsed))
	assert.Equal(t, `标题: 含冒号 "引号" #井号`, parsed.Title)
	assert.Equal(t, "a: b", parsed.Author)
}

func TestComposeBlankLineBetweenHeaderAndBody(t *testing.T) {
	fm := NewFrontMatter("t", "a", "s", time.Now())
	assert.Contains(t, fm.Compose("first line"), "---\n\nfirst line\n")
}
