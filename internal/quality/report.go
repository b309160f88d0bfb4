package quality

import "fmt"

// Level grades a file's overall integrity.
type Level string

const (
	LevelPerfect      Level = "PERFECT"
	LevelGood         Level = "GOOD"
	LevelQuestionable Level = "QUESTIONABLE"
	LevelDamaged      Level = "DAMAGED"
	LevelCorrupt      Level = "CORRUPT"
	LevelUnknown      Level = "UNKNOWN"
)

// Issue severities.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
)

// IssueKind categorizes a detected problem.
type IssueKind string

const (
	IssueInvalidHeader     IssueKind = "INVALID_HEADER"
	IssueInvalidChecksum   IssueKind = "INVALID_CHECKSUM"
	IssueTruncatedFile     IssueKind = "TRUNCATED_FILE"
	IssueZeroBytes         IssueKind = "ZERO_BYTES"
	IssueHeaderCorruption  IssueKind = "HEADER_CORRUPTION"
	IssueMissingSections   IssueKind = "MISSING_SECTIONS"
	IssueSuspiciousSize    IssueKind = "SUSPICIOUS_SIZE"
	IssueMetadataMissing   IssueKind = "METADATA_MISSING"
	IssueNonStandardFormat IssueKind = "NON_STANDARD_FORMAT"
	IssueUnverified        IssueKind = "UNVERIFIED"
)

// Issue is one detected problem with where it was found and what to do.
type Issue struct {
	Kind           IssueKind
	Severity       string
	Description    string
	Location       string
	Recommendation string
}

// Report is the outcome of analyzing one file. Score stays within [0, 100];
// every adjustment clamps.
type Report struct {
	Path        string
	System      string
	Score       int
	Level       Level
	Issues      []Issue
	Checks      []string
	DATVerified bool
}

func newReport(path, system string, datVerified bool) *Report {
	return &Report{
		Path:        path,
		System:      system,
		Score:       100,
		Level:       LevelUnknown,
		DATVerified: datVerified,
	}
}

func (r *Report) addIssue(issue Issue) {
	r.Issues = append(r.Issues, issue)
}

func (r *Report) addCheck(name string) {
	r.Checks = append(r.Checks, name)
}

// adjust moves the score by delta and clamps to [0, 100].
func (r *Report) adjust(delta int) {
	r.Score += delta
	if r.Score < 0 {
		r.Score = 0
	}
	if r.Score > 100 {
		r.Score = 100
	}
}

func (r *Report) zeroScore() {
	r.Score = 0
}

// IsPlayable reports whether the file is expected to run at all.
func (r *Report) IsPlayable() bool {
	switch r.Level {
	case LevelPerfect, LevelGood, LevelQuestionable:
		return true
	}
	return false
}

// CriticalIssues returns only the critical-severity issues.
func (r *Report) CriticalIssues() []Issue {
	var critical []Issue
	for _, issue := range r.Issues {
		if issue.Severity == SeverityCritical {
			critical = append(critical, issue)
		}
	}
	return critical
}

// Summary is a one-line human description of the report.
func (r *Report) Summary() string {
	switch r.Level {
	case LevelPerfect:
		return "Perfect, reference verified"
	case LevelGood:
		return fmt.Sprintf("Functional (%d minor warnings)", len(r.Issues))
	case LevelQuestionable:
		return fmt.Sprintf("Questionable (%d issues)", len(r.Issues))
	case LevelDamaged:
		return fmt.Sprintf("Damaged (%d critical errors)", len(r.CriticalIssues()))
	case LevelCorrupt:
		return "Corrupt, not usable"
	default:
		return "Not verified yet"
	}
}

// finalize derives the level from the accumulated issues and score. Any
// critical issue forces CORRUPT regardless of score; PERFECT additionally
// requires reference verification.
func (r *Report) finalize() {
	if len(r.CriticalIssues()) > 0 {
		r.Level = LevelCorrupt
		return
	}
	switch {
	case r.Score < 30:
		r.Level = LevelDamaged
	case r.Score < 60:
		r.Level = LevelQuestionable
	case r.Score < 90:
		r.Level = LevelGood
	case r.DATVerified:
		r.Level = LevelPerfect
	default:
		r.Level = LevelGood
	}
}
