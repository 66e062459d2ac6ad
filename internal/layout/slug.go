package layout

import (
	"strings"
	"unicode"
)

var accentReplacer = strings.NewReplacer(
	"á", "a", "à", "a", "â", "a", "ã", "a", "ä", "a",
	"é", "e", "ê", "e", "è", "e", "ë", "e",
	"í", "i", "î", "i", "ì", "i", "ï", "i",
	"ó", "o", "ô", "o", "õ", "o", "ò", "o", "ö", "o",
	"ú", "u", "û", "u", "ù", "u", "ü", "u",
	"ç", "c", "ñ", "n",
)

// Slugify 把页面名转为 URL 片段："Quem Somos" -> "quem-somos"
func Slugify(name string) string {
	s := accentReplacer.Replace(strings.ToLower(strings.TrimSpace(name)))

	var b strings.Builder
	dash := false
	for _, r := range s {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// NormalizeSlug 规范化页面路径：必须以 / 开头，去掉末尾 /（根路径除外）
func NormalizeSlug(slug string) string {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return ""
	}
	if !strings.HasPrefix(slug, "/") {
		slug = "/" + slug
	}
	if len(slug) > 1 {
		slug = strings.TrimRight(slug, "/")
		if slug == "" {
			slug = "/"
		}
	}
	return slug
}
