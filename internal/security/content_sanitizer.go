package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer はコレクションの説明文やデータ品質の概要を表示用に整える。
// 説明文は公開元から取り込んだHTMLを含むことがあるため、許可リストで制限する。
type TextSanitizer interface {
	// Sanitize は許可タグのみを残した安全なHTMLを返す。冪等。
	Sanitize(rawHTML string) string
	// PlainText はすべてのタグを除去したテキストを返す。タイトルなどに使う。
	PlainText(raw string) string
}

// contentSanitizer はTextSanitizerの実装。
// bluemondayのPolicyはスレッドセーフなので共有して使う。
type contentSanitizer struct {
	rich   *bluemonday.Policy
	strict *bluemonday.Policy
}

// NewContentSanitizer はTextSanitizerを生成する。
// 許可するのは段落、改行、リスト、引用、コード、強調、見出し（h3-h4）、表、リンク。
// 画像とscript/iframe/style、on*属性は除去する。
// リンクはhttp/https/mailtoのみで、target="_blank"とrel="noopener noreferrer"を付与する。
func NewContentSanitizer() *contentSanitizer {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		"p", "br", "ul", "ol", "li",
		"blockquote", "pre", "code",
		"strong", "em", "h3", "h4",
		"table", "thead", "tbody", "tr", "th", "td",
	)

	p.AllowAttrs("href").OnElements("a")
	p.AllowURLSchemes("http", "https", "mailto")
	p.AllowRelativeURLs(false)
	p.RequireParseableURLs(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnLinks(true)

	return &contentSanitizer{
		rich:   p,
		strict: bluemonday.StrictPolicy(),
	}
}

// Sanitize は許可タグのみを残した安全なHTMLを返す。
func (s *contentSanitizer) Sanitize(rawHTML string) string {
	return s.rich.Sanitize(rawHTML)
}

// PlainText はすべてのタグを除去し、前後の空白を取り除いたテキストを返す。
// StrictPolicyはエスケープ済みの文字列を返すため、HTMLエンティティを元に戻す。
func (s *contentSanitizer) PlainText(raw string) string {
	return strings.TrimSpace(html.UnescapeString(s.strict.Sanitize(raw)))
}
