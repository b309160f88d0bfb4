package catalog

import (
	"strings"
	"time"
)

// Status represents the verification state of a catalog entry.
type Status string

const (
	StatusUnknown     Status = "UNKNOWN"
	StatusVerified    Status = "VERIFIED"
	StatusMismatch    Status = "MISMATCH"
	StatusCorrupt     Status = "CORRUPT"
	StatusQuarantined Status = "QUARANTINED"
)

var allStatuses = []Status{
	StatusUnknown,
	StatusVerified,
	StatusMismatch,
	StatusCorrupt,
	StatusQuarantined,
}

// ValidStatus reports whether the value is a known entry status.
func ValidStatus(status Status) bool {
	for _, s := range allStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// HashKind names a hash column on a catalog entry, strongest first by
// convention: sha256 > sha1 > md5 > crc32.
type HashKind string

const (
	HashSHA256 HashKind = "sha256"
	HashSHA1   HashKind = "sha1"
	HashMD5    HashKind = "md5"
	HashCRC32  HashKind = "crc32"
)

// DefaultHashPrecedence is the strongest-first ordering used for duplicate
// detection and keep recommendations.
var DefaultHashPrecedence = []HashKind{HashSHA1, HashMD5, HashCRC32}

// Entry is one cataloged file. Path is the sole primary key; no two live
// entries ever share a path.
type Entry struct {
	Path      string
	System    string
	Size      int64
	ModTime   time.Time
	CRC32     string
	MD5       string
	SHA1      string
	SHA256    string
	Status    Status
	MatchName string
	DATName   string
	Extra     map[string]string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Hash returns the entry's value for the given hash kind, lower-cased.
func (e *Entry) Hash(kind HashKind) string {
	switch kind {
	case HashSHA256:
		return strings.ToLower(e.SHA256)
	case HashSHA1:
		return strings.ToLower(e.SHA1)
	case HashMD5:
		return strings.ToLower(e.MD5)
	case HashCRC32:
		return strings.ToLower(e.CRC32)
	default:
		return ""
	}
}

// StrongestHash returns the entry's strongest populated hash following the
// provided precedence, along with its kind. Both are empty when no hash is set.
func (e *Entry) StrongestHash(precedence []HashKind) (HashKind, string) {
	for _, kind := range precedence {
		if value := e.Hash(kind); value != "" {
			return kind, value
		}
	}
	return "", ""
}

// DuplicateGroup is a set of entries sharing a hash value or a normalized
// name. Groups are recomputed on demand and never persisted.
type DuplicateGroup struct {
	Key     string
	Kind    string
	Entries []*Entry
}

// Count returns the number of entries in the group.
func (g *DuplicateGroup) Count() int {
	return len(g.Entries)
}

// WastedBytes sums the sizes of all but the largest entry.
func (g *DuplicateGroup) WastedBytes() int64 {
	if len(g.Entries) <= 1 {
		return 0
	}
	var total, largest int64
	for _, e := range g.Entries {
		total += e.Size
		if e.Size > largest {
			largest = e.Size
		}
	}
	return total - largest
}

// Action is one append-only audit record.
type Action struct {
	ID        int64
	Path      string
	Kind      string
	Detail    string
	RunID     string
	Timestamp time.Time
}

// Audit action kinds written by the workflows and the integrity manager.
const (
	ActionScan       = "SCAN"
	ActionVerify     = "VERIFY"
	ActionOrganize   = "ORGANIZE"
	ActionQuarantine = "QUARANTINE"
	ActionRestore    = "RESTORE"
	ActionRemove     = "REMOVE"
)
