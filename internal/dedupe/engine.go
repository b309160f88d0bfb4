package dedupe

import (
	"context"
	"log/slog"
	"path/filepath"

	"romkeeper/internal/catalog"
	"romkeeper/internal/config"
	"romkeeper/internal/logging"
	"romkeeper/internal/romname"
)

// Engine detects duplicates through four lenses: exact hash matches,
// cross-region releases, version revisions, and fuzzy title matches. Each
// lens produces independent groups; an entry may appear in groups of
// different kinds.
type Engine struct {
	store          *catalog.Store
	fuzzyThreshold float64
	sizeTolerance  float64
	logger         *slog.Logger
}

// NewEngine builds an engine over the catalog using the configured
// thresholds.
func NewEngine(store *catalog.Store, cfg *config.Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{
		store:          store,
		fuzzyThreshold: cfg.Dedupe.FuzzyThreshold,
		sizeTolerance:  cfg.Dedupe.SizeTolerance,
		logger:         logger.With(logging.String(logging.FieldComponent, "dedupe")),
	}
}

// FindAll runs every lens and returns the combined group list, exact
// groups first. A non-empty system restricts detection to that system's
// entries.
func (e *Engine) FindAll(ctx context.Context, system string) ([]*Group, error) {
	var groups []*Group

	exact, err := e.findExact(ctx, system)
	if err != nil {
		return nil, err
	}
	groups = append(groups, exact...)

	entries, err := e.store.List(ctx, system)
	if err != nil {
		return nil, err
	}

	groups = append(groups, e.findCrossRegion(entries)...)
	groups = append(groups, e.findVersions(entries)...)
	groups = append(groups, e.findFuzzy(entries)...)

	e.logger.Debug("duplicate detection complete",
		logging.Int("entries", len(entries)),
		logging.Int("groups", len(groups)))
	return groups, nil
}

func (e *Engine) findExact(ctx context.Context, system string) ([]*Group, error) {
	hashGroups, err := e.store.FindDuplicatesByHash(ctx, system, catalog.DefaultHashPrecedence...)
	if err != nil {
		return nil, err
	}

	groups := make([]*Group, 0, len(hashGroups))
	for _, hg := range hashGroups {
		group := &Group{
			Key:             hg.Key,
			Kind:            KindExact,
			Entries:         hg.Entries,
			SimilarityScore: 1.0,
		}
		finishGroup(group)
		groups = append(groups, group)
	}
	return groups, nil
}

// displayName prefers the DAT match name over the file name so renamed
// files still group with their siblings.
func displayName(entry *catalog.Entry) string {
	if entry.MatchName != "" {
		return entry.MatchName
	}
	return filepath.Base(entry.Path)
}

func (e *Engine) findCrossRegion(entries []*catalog.Entry) []*Group {
	byBase := make(map[string][]*catalog.Entry)
	var order []string
	for _, entry := range entries {
		base := romname.Normalize(romname.StripRegionTags(displayName(entry)))
		if base == "" {
			continue
		}
		if _, seen := byBase[base]; !seen {
			order = append(order, base)
		}
		byBase[base] = append(byBase[base], entry)
	}

	var groups []*Group
	for _, base := range order {
		members := byBase[base]
		if len(members) < 2 {
			continue
		}
		if !similarSizes(members, e.sizeTolerance) {
			continue
		}

		regions := make(map[string]bool)
		for _, entry := range members {
			if region := romname.Region(entry.Path); region != "" {
				regions[region] = true
			}
		}
		if len(regions) < 2 {
			continue
		}

		group := &Group{
			Key:             base,
			Kind:            KindCrossRegion,
			Entries:         members,
			SimilarityScore: 0.95,
		}
		finishGroup(group)
		groups = append(groups, group)
	}
	return groups
}

func (e *Engine) findVersions(entries []*catalog.Entry) []*Group {
	byBase := make(map[string][]*catalog.Entry)
	var order []string
	for _, entry := range entries {
		base := romname.Normalize(romname.StripVersionTags(displayName(entry)))
		if base == "" {
			continue
		}
		if _, seen := byBase[base]; !seen {
			order = append(order, base)
		}
		byBase[base] = append(byBase[base], entry)
	}

	var groups []*Group
	for _, base := range order {
		members := byBase[base]
		if len(members) < 2 {
			continue
		}

		versions := make(map[string]bool)
		for _, entry := range members {
			if version := romname.Version(entry.Path); version != "" {
				versions[version] = true
			}
		}
		if len(versions) < 2 {
			continue
		}

		group := &Group{
			Key:             base,
			Kind:            KindVersion,
			Entries:         members,
			SimilarityScore: 0.90,
		}
		finishGroup(group)
		groups = append(groups, group)
	}
	return groups
}

func (e *Engine) findFuzzy(entries []*catalog.Entry) []*Group {
	type named struct {
		name  string
		entry *catalog.Entry
	}
	normalized := make([]named, 0, len(entries))
	for _, entry := range entries {
		if name := romname.Normalize(displayName(entry)); name != "" {
			normalized = append(normalized, named{name: name, entry: entry})
		}
	}

	var groups []*Group
	processed := make(map[string]bool)

	for i, a := range normalized {
		if processed[a.entry.Path] {
			continue
		}

		members := []*catalog.Entry{a.entry}
		for _, b := range normalized[i+1:] {
			if processed[b.entry.Path] {
				continue
			}
			if romname.Similarity(a.name, b.name) < e.fuzzyThreshold {
				continue
			}
			if !similarSizes([]*catalog.Entry{a.entry, b.entry}, e.sizeTolerance) {
				continue
			}
			members = append(members, b.entry)
			processed[b.entry.Path] = true
		}

		if len(members) < 2 {
			continue
		}
		processed[a.entry.Path] = true

		group := &Group{
			Key:             a.name,
			Kind:            KindFuzzy,
			Entries:         members,
			SimilarityScore: e.fuzzyThreshold,
		}
		finishGroup(group)
		groups = append(groups, group)
	}
	return groups
}

// finishGroup fills the keep recommendation and space savings. Savings
// count every member except the recommended keep.
func finishGroup(g *Group) {
	g.RecommendedKeep = selectBest(g.Entries)
	var savings int64
	for _, e := range g.Entries {
		if e.Path != g.RecommendedKeep {
			savings += e.Size
		}
	}
	g.SpaceSavings = savings
}

// selectBest scores each entry and returns the winner's path. Verified
// status dominates, then region preference, then version recency, with
// file size as a mild tiebreaker. Equal scores keep the earliest entry.
func selectBest(entries []*catalog.Entry) string {
	if len(entries) == 0 {
		return ""
	}

	bestPath := entries[0].Path
	bestScore := -1.0
	for _, entry := range entries {
		score := 0.0
		if entry.Status == catalog.StatusVerified {
			score += 100
		}
		score += float64(romname.RegionPriority(romname.Region(entry.Path))) * 10
		if version := romname.Version(entry.Path); version != "" {
			score += romname.VersionNumber(version) * 5
		}
		score += float64(entry.Size) / (100 * 1024 * 1024)

		if score > bestScore {
			bestScore = score
			bestPath = entry.Path
		}
	}
	return bestPath
}

// similarSizes reports whether the spread between the largest and smallest
// member stays within tolerance of the largest.
func similarSizes(entries []*catalog.Entry, tolerance float64) bool {
	if len(entries) < 2 {
		return true
	}

	minSize, maxSize := entries[0].Size, entries[0].Size
	for _, e := range entries[1:] {
		if e.Size < minSize {
			minSize = e.Size
		}
		if e.Size > maxSize {
			maxSize = e.Size
		}
	}
	if maxSize == 0 {
		return true
	}
	return float64(maxSize-minSize)/float64(maxSize) <= tolerance
}
