package content

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"regexp"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

var (
	policy        = bluemonday.UGCPolicy()
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)
)

// Sanitize removes unsafe HTML from the input string.
// It is used on server-supplied rich text before it reaches any renderer.
func Sanitize(input string) string {
	return policy.Sanitize(input)
}

// Escape escapes special characters like "<" to become "&lt;".
func Escape(input string) string {
	return template.HTMLEscapeString(input)
}

// ValidateUsername checks if the username contains only allowed characters
// (alphanumeric, dot, dash, underscore) and is not empty.
func ValidateUsername(username string) error {
	if username == "" {
		return errors.New("username cannot be empty")
	}
	if !usernameRegex.MatchString(username) {
		return errors.New("username contains invalid characters (allowed: alphanumeric, dot, dash, underscore)")
	}
	return nil
}

// RenderMarkdown converts chapter markdown to sanitized HTML.
func RenderMarkdown(src string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return policy.Sanitize(buf.String()), nil
}

const chapterPage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
</head>
<body>
<h1>%s</h1>
<p><em>%s &middot; chapter %d &middot; by %s</em></p>
%s
</body>
</html>
`

// RenderChapterHTML produces a standalone HTML page for one chapter.
// Headings are escaped, the body goes through the markdown renderer and
// the sanitizer.
func RenderChapterHTML(storyTitle, author string, chapterNo int, chapterTitle, body string) (string, error) {
	rendered, err := RenderMarkdown(body)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(chapterPage,
		Escape(chapterTitle),
		Escape(chapterTitle),
		Escape(storyTitle),
		chapterNo,
		Escape(author),
		rendered,
	), nil
}
