package catalog

import (
	"strings"

	"golang.org/x/text/language"

	"github.com/hitoshi/dataregistry/internal/model"
)

// countryFieldPrefix はローカライズされた国名フィールドの接頭辞。
const countryFieldPrefix = "country_"

// CountryFunc はレコードから表示用の国名を取り出す関数。
type CountryFunc func(model.Collection) string

// LocaleSelector は言語コードから国名フィールドを解決する。
// 現在の言語は常に引数で受け取り、グローバルな状態を参照しない。
type LocaleSelector struct {
	defaultLang string
	supported   []string
	matcher     language.Matcher
}

// NewLocaleSelector はLocaleSelectorを生成する。
// defaultLangは常に候補の先頭に置かれ、どの候補にも一致しない場合に使われる。
func NewLocaleSelector(defaultLang string, supported ...string) *LocaleSelector {
	defaultLang = normalizeLang(defaultLang)
	if defaultLang == "" {
		defaultLang = "en"
	}

	langs := []string{defaultLang}
	for _, l := range supported {
		l = normalizeLang(l)
		if l == "" || contains(langs, l) {
			continue
		}
		langs = append(langs, l)
	}

	tags := make([]language.Tag, len(langs))
	for i, l := range langs {
		tags[i] = language.Make(l)
	}

	return &LocaleSelector{
		defaultLang: defaultLang,
		supported:   langs,
		matcher:     language.NewMatcher(tags),
	}
}

// Languages はサポートする言語コードを返す。先頭がデフォルト言語。
func (s *LocaleSelector) Languages() []string {
	out := make([]string, len(s.supported))
	copy(out, s.supported)
	return out
}

// Default はデフォルト言語を返す。
func (s *LocaleSelector) Default() string {
	return s.defaultLang
}

// Resolve は任意の言語指定（"es-MX"、Accept-Language形式など）をサポート言語に解決する。
func (s *LocaleSelector) Resolve(lang string) string {
	if strings.TrimSpace(lang) == "" {
		return s.defaultLang
	}
	_, idx := language.MatchStrings(s.matcher, lang)
	if idx < 0 || idx >= len(s.supported) {
		return s.defaultLang
	}
	return s.supported[idx]
}

// CountryField は指定言語で国名を保持するフィールド名（例: "country_es"）を返す。
func (s *LocaleSelector) CountryField(lang string) string {
	return countryFieldPrefix + s.Resolve(lang)
}

// CountryFunc は指定言語の国名を取り出すCountryFuncを返す。
// ローカライズされた国名が空の場合はデフォルト言語の国名を使う。
func (s *LocaleSelector) CountryFunc(lang string) CountryFunc {
	resolved := s.Resolve(lang)
	fallback := s.defaultLang
	return func(c model.Collection) string {
		if name := c.Country[resolved]; name != "" {
			return name
		}
		return c.Country[fallback]
	}
}

func normalizeLang(l string) string {
	return strings.ToLower(strings.TrimSpace(l))
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
