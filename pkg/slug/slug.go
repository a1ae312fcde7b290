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

// Letters that carry no combining mark under NFD.
var foldSpecial = strings.NewReplacer(
	"ı", "i", "ø", "o", "ß", "ss", "æ", "ae", "œ", "oe", "đ", "d", "ł", "l",
	"&", " and ",
)

// Generate creates a URL-friendly slug from a category or product name.
//
//	"Crossbody Bags"   -> "crossbody-bags"
//	"Crème Brûlée Tote" -> "creme-brulee-tote"
//	"Bags & Pouches!"  -> "bags-and-pouches"
func Generate(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = foldSpecial.Replace(s)

	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(stripMarks, s); err == nil {
		s = folded
	}

	s = nonAlnum.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
