package markdown

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// matched against rendered html, so the preceding char may be '>' of a tag
var mentionRegex = regexp.MustCompile(`(^|[\s>])@([a-z0-9_]{3,30})\b`)

type TextProcessor struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

func New() *TextProcessor {
	md := goldmark.New(
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(html.WithUnsafe(), html.WithHardWraps()),
		goldmark.WithExtensions(extension.Strikethrough, extension.Linkify),
	)

	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Matching(regexp.MustCompile("^mention$")).OnElements("a")
	p.RequireNoFollowOnLinks(false)
	p.AllowRelativeURLs(true)

	return &TextProcessor{md: md, policy: p}
}

// Render converts thread text to sanitized HTML with @mentions linked to
// profiles. On a render error the escaped raw text is returned.
func (tp *TextProcessor) Render(text string) string {
	var buf bytes.Buffer
	if err := tp.md.Convert([]byte(text), &buf); err != nil {
		return tp.policy.Sanitize(text)
	}
	linked := tp.linkMentions(strings.TrimSpace(buf.String()))
	return tp.policy.Sanitize(linked)
}

func (tp *TextProcessor) linkMentions(renderedHTML string) string {
	return mentionRegex.ReplaceAllString(renderedHTML, `$1<a href="/profile/$2" class="mention">@$2</a>`)
}
