package dat

import (
	"strings"

	"romkeeper/internal/catalog"
)

// Verdict is the outcome of matching one file's hashes against an index.
type Verdict struct {
	Status    catalog.Status
	MatchName string
	DATName   string
}

// Classify matches computed hashes against the index. The strongest
// computed hash decides: a hit is VERIFIED; a miss where the crc32 points
// at records whose stronger hashes contradict the computed ones is
// MISMATCH; anything else is UNKNOWN.
func Classify(idx *Index, h Hashes) Verdict {
	if idx == nil {
		return Verdict{Status: catalog.StatusUnknown}
	}

	if matches := idx.Lookup(h); len(matches) > 0 {
		match := matches[0]
		return Verdict{
			Status:    catalog.StatusVerified,
			MatchName: match.GameName,
			DATName:   match.DATName,
		}
	}

	if name := checkMismatch(idx, h); name != "" {
		return Verdict{
			Status:    catalog.StatusMismatch,
			MatchName: name + " (Hash Mismatch)",
		}
	}

	return Verdict{Status: catalog.StatusUnknown}
}

// checkMismatch reports the candidate game name when the crc32 matches a
// record but no crc candidate is consistent with the computed md5/sha1.
func checkMismatch(idx *Index, h Hashes) string {
	if h.CRC32 == "" || (h.MD5 == "" && h.SHA1 == "") {
		return ""
	}

	candidates := idx.lookupCRC(h.CRC32)
	if len(candidates) == 0 {
		return ""
	}

	for _, cand := range candidates {
		md5OK := h.MD5 == "" || (cand.MD5 != "" && strings.EqualFold(cand.MD5, h.MD5))
		sha1OK := h.SHA1 == "" || (cand.SHA1 != "" && strings.EqualFold(cand.SHA1, h.SHA1))
		if md5OK && sha1OK {
			return ""
		}
	}
	return candidates[0].GameName
}
