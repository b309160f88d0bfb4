package catalog

import (
	"context"

	"romkeeper/internal/romname"
)

// FindDuplicatesByHash groups entries that share a hash value, walking the
// given precedence strongest first. A non-empty system narrows the search
// to that system's entries. An entry joins at most one group: once grouped
// under a strong hash it is never regrouped under a weaker one. Entries
// sharing a weak hash are still split apart when a stronger hash proves
// them different, so CRC32 collisions never produce a false group.
func (s *Store) FindDuplicatesByHash(ctx context.Context, system string, precedence ...HashKind) ([]*DuplicateGroup, error) {
	if len(precedence) == 0 {
		precedence = DefaultHashPrecedence
	}

	entries, err := s.List(ensureContext(ctx), system)
	if err != nil {
		return nil, err
	}

	grouped := make(map[string]bool, len(entries))
	var groups []*DuplicateGroup

	for i, kind := range precedence {
		stronger := precedence[:i]

		byHash := make(map[string][]*Entry)
		var order []string
		for _, entry := range entries {
			if grouped[entry.Path] {
				continue
			}
			value := entry.Hash(kind)
			if value == "" {
				continue
			}
			if _, seen := byHash[value]; !seen {
				order = append(order, value)
			}
			byHash[value] = append(byHash[value], entry)
		}

		for _, value := range order {
			candidates := byHash[value]
			if len(candidates) < 2 {
				continue
			}
			for _, sub := range splitByStrongerHash(candidates, stronger) {
				if len(sub) < 2 {
					continue
				}
				for _, entry := range sub {
					grouped[entry.Path] = true
				}
				groups = append(groups, &DuplicateGroup{
					Key:     value,
					Kind:    string(kind),
					Entries: sub,
				})
			}
		}
	}

	return groups, nil
}

// splitByStrongerHash partitions a weak-hash candidate group by the first
// stronger hash the entries carry. Entries lacking every stronger hash stay
// together in their own partition.
func splitByStrongerHash(candidates []*Entry, stronger []HashKind) [][]*Entry {
	if len(stronger) == 0 {
		return [][]*Entry{candidates}
	}

	byKey := make(map[string][]*Entry)
	var order []string
	for _, entry := range candidates {
		key := ""
		for _, kind := range stronger {
			if value := entry.Hash(kind); value != "" {
				key = string(kind) + ":" + value
				break
			}
		}
		if _, seen := byKey[key]; !seen {
			order = append(order, key)
		}
		byKey[key] = append(byKey[key], entry)
	}

	parts := make([][]*Entry, 0, len(order))
	for _, key := range order {
		parts = append(parts, byKey[key])
	}
	return parts
}

// FindDuplicatesByNormalizedName groups entries whose normalized titles are
// identical, optionally narrowed to one system. Entries that normalize to
// the empty string are skipped.
func (s *Store) FindDuplicatesByNormalizedName(ctx context.Context, system string) ([]*DuplicateGroup, error) {
	entries, err := s.List(ensureContext(ctx), system)
	if err != nil {
		return nil, err
	}

	byName := make(map[string][]*Entry)
	var order []string
	for _, entry := range entries {
		name := romname.Normalize(entry.Path)
		if name == "" {
			continue
		}
		if _, seen := byName[name]; !seen {
			order = append(order, name)
		}
		byName[name] = append(byName[name], entry)
	}

	var groups []*DuplicateGroup
	for _, name := range order {
		group := byName[name]
		if len(group) < 2 {
			continue
		}
		groups = append(groups, &DuplicateGroup{
			Key:     name,
			Kind:    "name",
			Entries: group,
		})
	}
	return groups, nil
}
