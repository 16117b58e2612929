package transform

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	xtransform "golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"drgetl/internal/table"
)

var (
	digitComma   = regexp.MustCompile(`(\d),(\d)`)
	disallowed   = regexp.MustCompile(`[^-a-z0-9]+`)
	repeatedDash = regexp.MustCompile(`-{2,}`)

	// Latin letters with no canonical decomposition, spelled the way
	// unidecode spells them.
	latinFold = strings.NewReplacer(
		"ß", "ss", "ẞ", "SS",
		"æ", "ae", "Æ", "AE",
		"œ", "oe", "Œ", "OE",
		"ø", "o", "Ø", "O",
		"đ", "d", "Đ", "D",
		"ð", "d", "Ð", "D",
		"ł", "l", "Ł", "L",
		"þ", "th", "Þ", "Th",
		"ħ", "h", "Ħ", "H",
		"ı", "i",
	)
)

// SanitizeColumnNames rewrites every column name to lowercase ASCII words
// joined by "_": "APR DRG Code" becomes "apr_drg_code" and "Total Charges
// (1,000s)" becomes "total_charges_1000s". Two columns mapping to the same
// name is an error.
func SanitizeColumnNames(t *table.Table) (*table.Table, error) {
	names := t.Names()
	seen := make(map[string]string, len(names))
	for i, n := range names {
		s := SanitizeName(n)
		if prev, dup := seen[s]; dup {
			return nil, fmt.Errorf("columns %q and %q both sanitize to %q", prev, n, s)
		}
		seen[s] = n
		names[i] = s
	}
	return t.SetNames(names)
}

// SanitizeName slugifies one name. Apostrophes separate words, HTML entities
// are decoded, accents are stripped, letters such as "ß" and "ø" are spelled
// out in ASCII, commas between digits are dropped and
// each run of other characters becomes a single "_".
func SanitizeName(s string) string {
	s = strings.ReplaceAll(s, "'", "-")
	s = html.UnescapeString(s)
	s, _, _ = xtransform.String(xtransform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn))), s)
	s = latinFold.Replace(s)
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "'", "")
	// Two passes so "1,2,3" loses both commas; matches do not overlap.
	s = digitComma.ReplaceAllString(s, "$1$2")
	s = digitComma.ReplaceAllString(s, "$1$2")
	s = disallowed.ReplaceAllString(s, "-")
	s = repeatedDash.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	return strings.ReplaceAll(s, "-", "_")
}
