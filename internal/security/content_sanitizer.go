// Package security はユーザー入力の無害化と検証を提供する。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer はユーザーが入力したテキストを保存前に無害化する。
type TextSanitizer interface {
	// RichText は複数行の自由記述（カバーレター、求人説明、自己紹介など）を
	// 許可リストのタグのみを残して無害化する。
	RichText(raw string) string
	// PlainText は1行の項目（氏名、求人タイトルなど）からすべてのタグを除去する。
	PlainText(raw string) string
}

// ContentSanitizer はbluemondayのポリシーで TextSanitizer を実装する。
// ポリシーは生成後に変更しないため、複数goroutineから安全に利用できる。
type ContentSanitizer struct {
	rich   *bluemonday.Policy
	strict *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerを生成する。
//   - 許可タグ: p, br, a, ul, ol, li, blockquote, strong, em
//   - aタグは http/https の絶対URLのみ、target="_blank" と rel="noopener noreferrer" を付与
//   - script, iframe, style, img と on* 属性は除去
func NewContentSanitizer() *ContentSanitizer {
	p := bluemonday.NewPolicy()
	p.AllowElements("p", "br", "ul", "ol", "li", "blockquote", "strong", "em")
	p.AllowAttrs("href").OnElements("a")
	p.AllowURLSchemes("http", "https")
	p.AllowRelativeURLs(false)
	p.RequireParseableURLs(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnLinks(true)

	return &ContentSanitizer{
		rich:   p,
		strict: bluemonday.StrictPolicy(),
	}
}

// RichText は許可タグ以外を除去した安全なHTMLを返す。
func (s *ContentSanitizer) RichText(raw string) string {
	return strings.TrimSpace(s.rich.Sanitize(raw))
}

// PlainText はタグを除去したプレーンテキストを返す。
// 結果はHTMLではないため、エスケープされた実体参照は元の文字に戻す。
func (s *ContentSanitizer) PlainText(raw string) string {
	return strings.TrimSpace(html.UnescapeString(s.strict.Sanitize(raw)))
}

var _ TextSanitizer = (*ContentSanitizer)(nil)
