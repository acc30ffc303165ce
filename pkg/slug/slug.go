package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Letters that do not decompose into an ASCII base plus a combining mark.
var special = strings.NewReplacer(
	"ı", "i", "ß", "ss", "æ", "ae", "ø", "o", "đ", "d", "ł", "l", "œ", "oe",
)

// Generate turns a title into a lowercase, hyphen-separated ASCII slug.
//
//	"Çocuk Ürünleri" -> "cocuk-urunleri"
//	"Hello   World!" -> "hello-world"
func Generate(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = special.Replace(s)

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, s); err == nil {
		s = folded
	}

	s = nonAlnum.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
