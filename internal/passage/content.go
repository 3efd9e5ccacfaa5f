package passage

import (
	"bytes"
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Format is the source format of authored content.
type Format string

const (
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
)

// ParseFormat maps a file extension or a format name to a Format.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "html", ".html", ".htm", "":
		return FormatHTML, nil
	case "markdown", "md", ".md", ".markdown":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("unknown content format %q", s)
}

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM, highlighting.NewHighlighting(highlighting.WithStyle("github"))),
	goldmark.WithRendererOptions(html.WithUnsafe()),
)

var policy = newPolicy()

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Globally()
	p.AllowDataAttributes()
	p.AllowStyles("color", "background-color", "font-weight", "font-style", "text-decoration").Globally()
	return p
}

// FromMarkdown renders Markdown source to HTML.
func FromMarkdown(src string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return buf.String(), nil
}

// Sanitize strips scripts, event handlers and anything else outside the
// content policy. It re-escapes text, so passages are sanitized on rendered
// output only: stored passage content must keep the exact text that
// references were counted on.
func Sanitize(content string) string {
	return policy.Sanitize(content)
}

// Prepare converts src to passage HTML. HTML sources are returned as
// authored.
func Prepare(src string, format Format) (string, error) {
	if format == FormatMarkdown {
		return FromMarkdown(src)
	}
	return src, nil
}
