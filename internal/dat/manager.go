package dat

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// systemKeywords maps catalog system names to the naming convention used by
// the common reference-set projects.
var systemKeywords = map[string][]string{
	"nes":          {"Nintendo - Nintendo Entertainment System"},
	"snes":         {"Nintendo - Super Nintendo Entertainment System"},
	"n64":          {"Nintendo - Nintendo 64"},
	"gba":          {"Nintendo - Game Boy Advance"},
	"gb":           {"Nintendo - Game Boy"},
	"gbc":          {"Nintendo - Game Boy Color"},
	"nds":          {"Nintendo - Nintendo DS"},
	"gamecube":     {"Nintendo - GameCube"},
	"wii":          {"Nintendo - Wii"},
	"wiiu":         {"Nintendo - Wii U"},
	"switch":       {"Nintendo - Nintendo Switch"},
	"psx":          {"Sony - PlayStation"},
	"ps2":          {"Sony - PlayStation 2"},
	"ps3":          {"Sony - PlayStation 3"},
	"psp":          {"Sony - PlayStation Portable"},
	"psvita":       {"Sony - PlayStation Vita"},
	"dreamcast":    {"Sega - Dreamcast"},
	"saturn":       {"Sega - Saturn"},
	"megadrive":    {"Sega - Mega Drive - Genesis"},
	"mastersystem": {"Sega - Master System - Mark III"},
	"gamegear":     {"Sega - Game Gear"},
	"xbox":         {"Microsoft - Xbox"},
	"xbox360":      {"Microsoft - Xbox 360"},
	"neogeo":       {"SNK - Neo Geo"},
}

// FindForSystem locates the best reference file for a system under the
// configured DATs root, checking the root itself plus the conventional
// no-intro/ and redump/ subdirectories. Among candidates the lexically
// greatest file name wins, which prefers newer date-stamped releases.
// Returns "" when the system is unknown or no candidate exists.
func FindForSystem(datsRoot, system string) string {
	keywords, ok := systemKeywords[strings.ToLower(system)]
	if !ok {
		return ""
	}

	searchDirs := []string{
		datsRoot,
		filepath.Join(datsRoot, "no-intro"),
		filepath.Join(datsRoot, "redump"),
	}

	var candidates []string
	for _, dir := range searchDirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".dat") {
				continue
			}
			stem := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
			for _, kw := range keywords {
				if strings.Contains(stem, kw) {
					candidates = append(candidates, filepath.Join(dir, entry.Name()))
					break
				}
			}
		}
	}

	if len(candidates) == 0 {
		return ""
	}

	sort.Slice(candidates, func(i, j int) bool {
		return filepath.Base(candidates[i]) > filepath.Base(candidates[j])
	})
	return candidates[0]
}

// LoadAll parses every .dat and .xml file under the DATs root recursively
// and merges them into one master index. Unparseable files are skipped.
func LoadAll(datsRoot string) (*Index, int) {
	master := NewIndex()
	master.Name = "Master DB"

	loaded := 0
	_ = filepath.WalkDir(datsRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".dat" && ext != ".xml" {
			return nil
		}
		idx, parseErr := ParseFile(path)
		if parseErr != nil {
			return nil
		}
		master.Merge(idx)
		loaded++
		return nil
	})
	return master, loaded
}

// KnownSystems returns the system names with a reference-set mapping.
func KnownSystems() []string {
	systems := make([]string, 0, len(systemKeywords))
	for system := range systemKeywords {
		systems = append(systems, system)
	}
	sort.Strings(systems)
	return systems
}
