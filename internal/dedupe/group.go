package dedupe

import (
	"strings"

	"romkeeper/internal/catalog"
	"romkeeper/internal/romname"
)

// Group kinds, one per detection lens.
const (
	KindExact       = "exact"
	KindCrossRegion = "cross_region"
	KindVersion     = "version"
	KindFuzzy       = "fuzzy"
)

// Group is a set of entries one lens considers duplicates of each other,
// with a keep recommendation and the space reclaimable by acting on it.
type Group struct {
	Key             string
	Kind            string
	Entries         []*catalog.Entry
	SimilarityScore float64
	RecommendedKeep string
	SpaceSavings    int64
}

// RecommendationReason explains why the recommended entry was chosen.
func (g *Group) RecommendationReason() string {
	if g.RecommendedKeep == "" {
		return "No recommendation"
	}

	var largest int64
	for _, e := range g.Entries {
		if e.Size > largest {
			largest = e.Size
		}
	}

	var reasons []string
	for _, e := range g.Entries {
		if e.Path != g.RecommendedKeep {
			continue
		}
		if e.Status == catalog.StatusVerified {
			reasons = append(reasons, "Verified by DAT")
		}
		if region := romname.Region(e.Path); region != "" && romname.RegionPriority(region) >= romname.RegionPriority("USA") {
			reasons = append(reasons, "Preferred region")
		}
		if version := romname.Version(e.Path); version != "" {
			reasons = append(reasons, "Latest version ("+version+")")
		}
		if e.Size == largest {
			reasons = append(reasons, "Largest file")
		}
		break
	}

	if len(reasons) == 0 {
		return "Manual review needed"
	}
	return strings.Join(reasons, " | ")
}

// Discards returns every entry except the recommended keep.
func (g *Group) Discards() []*catalog.Entry {
	discards := make([]*catalog.Entry, 0, len(g.Entries))
	for _, e := range g.Entries {
		if e.Path != g.RecommendedKeep {
			discards = append(discards, e)
		}
	}
	return discards
}

// Statistics summarizes a set of duplicate groups.
type Statistics struct {
	TotalGroups      int
	TotalWastedBytes int64
	ByKind           map[string]KindStats
}

// KindStats is the per-lens slice of the rollup.
type KindStats struct {
	Count       int
	WastedBytes int64
}

// Summarize rolls a group list up into per-kind statistics.
func Summarize(groups []*Group) Statistics {
	stats := Statistics{ByKind: make(map[string]KindStats)}
	for _, g := range groups {
		stats.TotalGroups++
		stats.TotalWastedBytes += g.SpaceSavings

		ks := stats.ByKind[g.Kind]
		ks.Count++
		ks.WastedBytes += g.SpaceSavings
		stats.ByKind[g.Kind] = ks
	}
	return stats
}
