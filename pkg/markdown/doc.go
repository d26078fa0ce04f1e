// Package markdown converts Zhihu rich-text HTML into Markdown and
// assembles the final document text.
//
// This package includes:
//   - RenderHTML, a recursive HTML-to-Markdown renderer tuned to Zhihu's
//     markup (lazy images, math spans, card links, code blocks)
//   - Locate, a DOM locator that finds the title, author and content root
//     in a full Zhihu page when the API payload is unavailable
//   - FrontMatter, the YAML header composed above each document body
//
// Example usage:
//
//	body, err := markdown.RenderHTML(fragment, markdown.Options{
//	    BaseURL:       "https://www.zhihu.com",
//	    MaxImageWidth: 720,
//	})
//	if err != nil {
//	    return err
//	}
//
//	fm := markdown.NewFrontMatter(title, author, sourceURL, created)
//	content := fm.Compose(body)
package markdown
