package dat

import "strings"

// RomInfo is one reference record from a DAT file.
type RomInfo struct {
	GameName string
	RomName  string
	Size     int64
	CRC      string
	MD5      string
	SHA1     string
	DATName  string
}

// Index is an in-memory lookup structure over reference records, keyed by
// each hash the records carry. Hash keys are lower-cased hex.
type Index struct {
	Name    string
	Version string

	byCRC  map[string][]*RomInfo
	byMD5  map[string][]*RomInfo
	bySHA1 map[string][]*RomInfo
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{
		byCRC:  make(map[string][]*RomInfo),
		byMD5:  make(map[string][]*RomInfo),
		bySHA1: make(map[string][]*RomInfo),
	}
}

// Add registers a record under every hash it carries.
func (idx *Index) Add(rom *RomInfo) {
	if rom == nil {
		return
	}
	if rom.CRC != "" {
		key := strings.ToLower(rom.CRC)
		idx.byCRC[key] = append(idx.byCRC[key], rom)
	}
	if rom.MD5 != "" {
		key := strings.ToLower(rom.MD5)
		idx.byMD5[key] = append(idx.byMD5[key], rom)
	}
	if rom.SHA1 != "" {
		key := strings.ToLower(rom.SHA1)
		idx.bySHA1[key] = append(idx.bySHA1[key], rom)
	}
}

// Merge folds every record of the source index into this one.
func (idx *Index) Merge(src *Index) {
	if src == nil {
		return
	}
	for key, roms := range src.byCRC {
		idx.byCRC[key] = append(idx.byCRC[key], roms...)
	}
	for key, roms := range src.byMD5 {
		idx.byMD5[key] = append(idx.byMD5[key], roms...)
	}
	for key, roms := range src.bySHA1 {
		idx.bySHA1[key] = append(idx.bySHA1[key], roms...)
	}
}

// Len returns the number of distinct CRC keys, a cheap size proxy.
func (idx *Index) Len() int {
	return len(idx.byCRC)
}

// Lookup consults only the strongest computed hash available, sha1 over md5
// over crc32, and returns every record filed under it.
func (idx *Index) Lookup(h Hashes) []*RomInfo {
	switch {
	case h.SHA1 != "":
		return idx.bySHA1[strings.ToLower(h.SHA1)]
	case h.MD5 != "":
		return idx.byMD5[strings.ToLower(h.MD5)]
	case h.CRC32 != "":
		return idx.byCRC[strings.ToLower(h.CRC32)]
	}
	return nil
}

// lookupCRC returns the records filed under the crc32 key regardless of
// stronger hashes. Used for mismatch detection.
func (idx *Index) lookupCRC(crc string) []*RomInfo {
	if crc == "" {
		return nil
	}
	return idx.byCRC[strings.ToLower(crc)]
}
