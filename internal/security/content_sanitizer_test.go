package security

import (
	"strings"
	"testing"
)

// TestSanitize_AllowedTags は許可タグが正しく通過することを検証する。
func TestSanitize_AllowedTags(t *testing.T) {
	sanitizer := NewContentSanitizer()

	tests := []struct {
		name         string
		input        string
		wantContains []string
	}{
		{"pタグ", "<p>公開元の説明</p>", []string{"<p>公開元の説明</p>"}},
		{"リスト", "<ul><li>入札</li><li>契約</li></ul>", []string{"<ul>", "<li>入札</li>", "</ul>"}},
		{"見出し", "<h3>データ品質</h3>", []string{"<h3>データ品質</h3>"}},
		{"表", "<table><tr><th>年</th><td>2020</td></tr></table>", []string{"<table>", "<th>年</th>", "<td>2020</td>"}},
		{"強調", "<strong>注意</strong><em>重要</em>", []string{"<strong>注意</strong>", "<em>重要</em>"}},
		{"コード", "<pre><code>ocid</code></pre>", []string{"<pre><code>ocid</code></pre>"}},
		{"リンク", `<a href="https://example.org">公開元</a>`, []string{`href="https://example.org"`, "公開元"}},
		{"mailtoリンク", `<a href="mailto:data@example.org">連絡先</a>`, []string{"mailto:data@example.org"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizer.Sanitize(tt.input)
			for _, want := range tt.wantContains {
				if !strings.Contains(got, want) {
					t.Errorf("Sanitize(%q) = %q, expected to contain %q", tt.input, got, want)
				}
			}
		})
	}
}

// TestSanitize_ForbiddenContent は禁止タグと危険な属性が除去されることを検証する。
func TestSanitize_ForbiddenContent(t *testing.T) {
	sanitizer := NewContentSanitizer()

	tests := []struct {
		name       string
		input      string
		wantAbsent []string
	}{
		{"script", `<p>説明</p><script>alert(1)</script>`, []string{"<script", "alert(1)"}},
		{"iframe", `<iframe src="https://evil.example"></iframe>`, []string{"<iframe"}},
		{"style", `<style>body{display:none}</style>`, []string{"<style", "display:none"}},
		{"img", `<img src="https://example.org/logo.png">`, []string{"<img"}},
		{"onイベント", `<p onclick="alert(1)">説明</p>`, []string{"onclick"}},
		{"javascriptリンク", `<a href="javascript:alert(1)">x</a>`, []string{"javascript:"}},
		{"相対リンク", `<a href="/admin">x</a>`, []string{`href="/admin"`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizer.Sanitize(tt.input)
			for _, absent := range tt.wantAbsent {
				if strings.Contains(got, absent) {
					t.Errorf("Sanitize(%q) = %q, should NOT contain %q", tt.input, got, absent)
				}
			}
		})
	}
}

// TestSanitize_AnchorAttributes はリンクにtarget="_blank"とrel="noopener noreferrer"が付与されることを検証する。
func TestSanitize_AnchorAttributes(t *testing.T) {
	sanitizer := NewContentSanitizer()

	got := sanitizer.Sanitize(`<a href="https://example.org" target="_self" rel="nofollow">公開元</a>`)
	for _, want := range []string{`target="_blank"`, "noopener", "noreferrer"} {
		if !strings.Contains(got, want) {
			t.Errorf("Sanitize() = %q, expected to contain %q", got, want)
		}
	}
	if strings.Contains(got, `target="_self"`) {
		t.Errorf("Sanitize() = %q, should NOT contain target=\"_self\"", got)
	}
}

// TestSanitize_Idempotent は二重にサニタイズしても結果が変わらないことを検証する。
func TestSanitize_Idempotent(t *testing.T) {
	sanitizer := NewContentSanitizer()

	input := `<p>説明<strong>太字</strong></p><a href="https://example.org">リンク</a><script>x</script>`
	once := sanitizer.Sanitize(input)
	if twice := sanitizer.Sanitize(once); once != twice {
		t.Errorf("二重サニタイズで結果が変わった: 1回目=%q, 二重=%q", once, twice)
	}
}

func TestSanitize_EmptyAndPlain(t *testing.T) {
	sanitizer := NewContentSanitizer()

	if got := sanitizer.Sanitize(""); got != "" {
		t.Errorf("Sanitize(\"\") = %q, expected empty string", got)
	}
	plain := "Kenya Public Procurement Regulatory Authority"
	if got := sanitizer.Sanitize(plain); got != plain {
		t.Errorf("Sanitize(%q) = %q, expected unchanged", plain, got)
	}
}

func TestPlainText(t *testing.T) {
	sanitizer := NewContentSanitizer()

	tests := []struct {
		input string
		want  string
	}{
		{"  <b>Kenya</b> PPRA ", "Kenya PPRA"},
		{"Tom &amp; Jerry", "Tom & Jerry"},
		{"<script>alert(1)</script>Chile", "Chile"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := sanitizer.PlainText(tt.input); got != tt.want {
			t.Errorf("PlainText(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestTextSanitizerInterface(t *testing.T) {
	var _ TextSanitizer = NewContentSanitizer()
}
