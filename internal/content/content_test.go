package content

import (
	"strings"
	"testing"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Plain text", "Hello World", "Hello World"},
		{"HTML tags", "Hello <b>World</b>", "Hello <b>World</b>"},
		{"Script tag", "<script>alert('xss')</script>Hello", "Hello"},
		{"Complex HTML", "<a href='javascript:alert(1)'>Click me</a>", "Click me"},
		{"Emoji", "I am 🤖", "I am 🤖"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.input); got != tt.expected {
				t.Errorf("Sanitize() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestEscape(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Plain text", "Hello World", "Hello World"},
		{"HTML chars", "<div>Hello</div>", "&lt;div&gt;Hello&lt;/div&gt;"},
		{"Quotes", `"Hello" 'World'`, "&#34;Hello&#34; &#39;World&#39;"},
		{"Emoji", "I am 🤖", "I am 🤖"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Escape(tt.input); got != tt.expected {
				t.Errorf("Escape() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"Valid alphanumeric", "user123", false},
		{"Valid with dot", "user.name", false},
		{"Valid with dash", "user-name", false},
		{"Valid with underscore", "user_name", false},
		{"Invalid space", "user name", true},
		{"Invalid symbol", "user@name", true},
		{"Empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateUsername() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRenderMarkdown(t *testing.T) {
	out, err := RenderMarkdown("# Dawn\n\nThe sun rose over the **frozen** wall.")
	if err != nil {
		t.Fatalf("RenderMarkdown failed: %v", err)
	}
	if !strings.Contains(out, "<h1") {
		t.Errorf("expected a heading, got %q", out)
	}
	if !strings.Contains(out, "<strong>frozen</strong>") {
		t.Errorf("expected bold text, got %q", out)
	}
}

func TestRenderMarkdown_StripsScripts(t *testing.T) {
	out, err := RenderMarkdown("hello\n\n<script>alert('xss')</script>")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "<script") {
		t.Errorf("script must not survive sanitization: %q", out)
	}
}

func TestRenderChapterHTML(t *testing.T) {
	page, err := RenderChapterHTML("The <Long> Night", "alice", 2, "Dawn & Dusk", "Some *emphasis* here.")
	if err != nil {
		t.Fatalf("RenderChapterHTML failed: %v", err)
	}

	if !strings.Contains(page, "<title>Dawn &amp; Dusk</title>") {
		t.Errorf("chapter title must be escaped, got %q", page)
	}
	if !strings.Contains(page, "The &lt;Long&gt; Night") {
		t.Errorf("story title must be escaped, got %q", page)
	}
	if !strings.Contains(page, "chapter 2") {
		t.Error("expected the chapter number in the byline")
	}
	if !strings.Contains(page, "<em>emphasis</em>") {
		t.Errorf("body must go through the markdown renderer, got %q", page)
	}
}
