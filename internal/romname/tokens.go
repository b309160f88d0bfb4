package romname

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// regionTokens is the closed set of region codes recognized inside brackets
// or parentheses. Longer tokens are matched before shorter ones.
var regionTokens = []string{
	"Australia", "Germany", "Europe", "Brazil", "France", "Africa",
	"Japan", "Italy", "Spain", "Korea", "China", "World", "Asia",
	"USA", "UK",
}

// regionPriority ranks regions for duplicate-keep recommendations.
// Higher is preferred; unlisted regions score zero.
var regionPriority = map[string]int{
	"World":     10,
	"USA":       9,
	"Europe":    8,
	"Japan":     7,
	"Asia":      6,
	"Australia": 5,
	"Brazil":    4,
}

var (
	regionTagPattern  *regexp.Regexp
	versionPatterns   []*regexp.Regexp
	versionNumPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)`)
)

func init() {
	sorted := append([]string(nil), regionTokens...)
	sort.Slice(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })
	alternation := strings.Join(sorted, "|")
	regionTagPattern = regexp.MustCompile(`(?i)[\(\[][^\)\]]*\b(` + alternation + `)\b[^\)\]]*[\)\]]`)

	versionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\(v\d+(?:\.\d+)?\)`),
		regexp.MustCompile(`(?i)\[v\d+(?:\.\d+)?\]`),
		regexp.MustCompile(`(?i)\bRev\s*\d+\b`),
		regexp.MustCompile(`(?i)\bv\d+(?:\.\d+)?\b`),
	}
}

// Region extracts the first recognized region token from a name, matching
// inside parentheses or square brackets only.
func Region(name string) string {
	match := regionTagPattern.FindStringSubmatch(name)
	if match == nil {
		return ""
	}
	group := match[0]
	for _, token := range sortedByLength() {
		if containsFold(group, token) {
			return token
		}
	}
	return ""
}

// RegionPriority returns the keep-recommendation rank for a region token.
func RegionPriority(region string) int {
	return regionPriority[region]
}

// StripRegionTags removes every bracketed tag containing a region token.
func StripRegionTags(name string) string {
	return strings.TrimSpace(regionTagPattern.ReplaceAllString(name, ""))
}

// Version extracts version information (vN, vN.N, Rev N) from a name.
func Version(name string) string {
	for _, pattern := range versionPatterns {
		if match := pattern.FindString(name); match != "" {
			return strings.Trim(match, "()[]")
		}
	}
	return ""
}

// VersionNumber parses the numeric portion of an extracted version token.
// Returns 0 when no number can be extracted.
func VersionNumber(version string) float64 {
	match := versionNumPattern.FindStringSubmatch(version)
	if match == nil {
		return 0
	}
	value, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0
	}
	return value
}

// StripVersionTags removes version tokens (vN, vN.N, Rev N) from a name.
func StripVersionTags(name string) string {
	for _, pattern := range versionPatterns {
		name = pattern.ReplaceAllString(name, "")
	}
	return strings.TrimSpace(name)
}

func sortedByLength() []string {
	sorted := append([]string(nil), regionTokens...)
	sort.Slice(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })
	return sorted
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
