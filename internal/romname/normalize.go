package romname

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	parenTagPattern   = regexp.MustCompile(`\([^)]*\)`)
	bracketTagPattern = regexp.MustCompile(`\[[^\]]*\]`)
	braceTagPattern   = regexp.MustCompile(`\{[^}]*\}`)
)

// foldTransform decomposes text and strips combining marks so accented titles
// compare equal to their ASCII spellings.
var foldTransform = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize reduces a file or game name to a comparable base string: the
// extension and every bracketed tag are removed, diacritics are folded, and
// the remainder is lower-cased with runs of non-alphanumerics collapsed to
// single spaces.
func Normalize(name string) string {
	name = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	name = parenTagPattern.ReplaceAllString(name, "")
	name = bracketTagPattern.ReplaceAllString(name, "")
	name = braceTagPattern.ReplaceAllString(name, "")

	if folded, _, err := transform.String(foldTransform, name); err == nil {
		name = folded
	}
	name = strings.ToLower(name)

	var b strings.Builder
	b.Grow(len(name))
	prevSpace := false
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevSpace = false
		default:
			if !prevSpace && b.Len() > 0 {
				b.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}
