package markdown

import (
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FrontMatter is the metadata header prefixed to every exported file
type FrontMatter struct {
	Title      string `yaml:"title"`
	Author     string `yaml:"author,omitempty"`
	Source     string `yaml:"source"`
	ExportedAt string `yaml:"exported_at"`
}

// NewFrontMatter builds the header for an exported document
func NewFrontMatter(title, author, source string, exportedAt time.Time) FrontMatter {
	return FrontMatter{
		Title:      title,
		Author:     author,
		Source:     source,
		ExportedAt: exportedAt.Format(time.RFC3339),
	}
}

// Compose assembles the final file content: a ----fenced YAML block,
// exactly one blank line, then the body.
func (fm FrontMatter) Compose(body string) string {
	var b strings.Builder
	b.WriteString("---\n")

	data, err := yaml.Marshal(fm)
	if err != nil {
		// Marshalling a flat string struct cannot realistically fail;
		// fall back to the minimum viable header.
		b.WriteString("title: " + fm.Title + "\n")
	} else {
		b.Write(data)
	}

	b.WriteString("---\n\n")
	b.WriteString(strings.TrimSpace(body))
	b.WriteString("\n")
	return b.String()
}
