package quality

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Checker runs per-system structural validation against an open report.
type Checker interface {
	Check(path string, report *Report)
}

var checkerRegistry = map[string]Checker{
	"ps2":      ps2Checker{},
	"psx":      psxChecker{},
	"ps1":      psxChecker{},
	"gba":      gbaChecker{},
	"switch":   switchChecker{},
	"gamecube": gamecubeChecker{},
	"gc":       gamecubeChecker{},
}

// checkerForSystem returns the registered checker or nil for systems
// without structural validation.
func checkerForSystem(system string) Checker {
	return checkerRegistry[strings.ToLower(system)]
}

// readAt reads n bytes at the given offset, short reads allowed.
func readAt(path string, offset int64, n int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, n)
	read, err := f.ReadAt(buf, offset)
	if read > 0 {
		return buf[:read], nil
	}
	return nil, err
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

// ps2Checker validates PlayStation 2 disc images: ISO9660 descriptor at
// sector 16, PS2 boot markers near the start, plausible image size.
type ps2Checker struct{}

func (ps2Checker) Check(path string, report *Report) {
	report.addCheck("PS2 ISO structure")

	descriptor, err := readAt(path, 0x8000, 6)
	if err != nil || len(descriptor) < 6 {
		report.addIssue(Issue{
			Kind:        IssueHeaderCorruption,
			Severity:    SeverityHigh,
			Description: "Could not read ISO9660 descriptor",
		})
		report.adjust(-30)
		return
	}
	if !bytes.Equal(descriptor[1:6], []byte("CD001")) {
		report.addIssue(Issue{
			Kind:           IssueInvalidHeader,
			Severity:       SeverityCritical,
			Description:    "Invalid ISO9660 descriptor",
			Location:       "0x8000",
			Recommendation: "File may be corrupt or not a valid ISO image",
		})
		report.adjust(-50)
		return
	}

	if sample, sampleErr := readPrefix(path, 1<<20); sampleErr == nil {
		if !bytes.Contains(sample, []byte("SYSTEM.CNF")) && !bytes.Contains(sample, []byte("BOOT2")) {
			report.addIssue(Issue{
				Kind:           IssueSuspiciousSize,
				Severity:       SeverityMedium,
				Description:    "PS2 boot markers not found near the start of the image",
				Recommendation: "Check whether this really is a PS2 image",
			})
			report.adjust(-20)
		}
	}

	size := fileSize(path)
	switch {
	case size < 100*1024*1024:
		report.addIssue(Issue{
			Kind:        IssueSuspiciousSize,
			Severity:    SeverityHigh,
			Description: fmt.Sprintf("Image too small for PS2: %.1f MB", float64(size)/(1<<20)),
		})
		report.adjust(-30)
	case size > 9*1024*1024*1024:
		report.addIssue(Issue{
			Kind:        IssueSuspiciousSize,
			Severity:    SeverityMedium,
			Description: fmt.Sprintf("Image too large for PS2: %.1f GB", float64(size)/(1<<30)),
		})
		report.adjust(-10)
	}
}

// psxChecker validates PlayStation disc dumps by extension: cue sheets must
// reference existing bin tracks, raw bins must be sector aligned.
type psxChecker struct{}

func (psxChecker) Check(path string, report *Report) {
	report.addCheck("PSX disc structure")

	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		checkCueSheet(path, report)
	case ".bin":
		checkRawBin(path, report)
	case ".iso":
		checkPSXISO(path, report)
	}
}

func checkCueSheet(path string, report *Report) {
	data, err := os.ReadFile(path)
	if err != nil {
		report.addIssue(Issue{
			Kind:        IssueHeaderCorruption,
			Severity:    SeverityMedium,
			Description: "Could not read cue sheet",
		})
		report.adjust(-20)
		return
	}
	content := string(data)

	if !strings.Contains(content, "FILE") || !strings.Contains(strings.ToLower(content), ".bin") {
		report.addIssue(Issue{
			Kind:           IssueInvalidHeader,
			Severity:       SeverityHigh,
			Description:    "Cue sheet references no BIN track",
			Recommendation: "Cue sheet may be corrupt",
		})
		report.adjust(-30)
	}

	for _, line := range strings.Split(content, "\n") {
		if !strings.Contains(line, "FILE") || !strings.Contains(strings.ToLower(line), ".bin") {
			continue
		}
		parts := strings.Split(line, `"`)
		if len(parts) < 2 {
			continue
		}
		binName := parts[1]
		binPath := filepath.Join(filepath.Dir(path), binName)
		if _, statErr := os.Stat(binPath); statErr != nil {
			report.addIssue(Issue{
				Kind:           IssueMissingSections,
				Severity:       SeverityCritical,
				Description:    "Referenced BIN track missing: " + binName,
				Recommendation: "Incomplete dump",
			})
			report.adjust(-50)
		}
	}
}

const rawSectorSize = 2352

func checkRawBin(path string, report *Report) {
	size := fileSize(path)

	if size%rawSectorSize != 0 {
		report.addIssue(Issue{
			Kind:           IssueSuspiciousSize,
			Severity:       SeverityMedium,
			Description:    "BIN is not a multiple of 2352 bytes (raw sector)",
			Recommendation: "May be a cooked or corrupt dump",
		})
		report.adjust(-15)
	}

	if size < 50*1024*1024 {
		report.addIssue(Issue{
			Kind:        IssueSuspiciousSize,
			Severity:    SeverityHigh,
			Description: fmt.Sprintf("BIN too small: %.1f MB", float64(size)/(1<<20)),
		})
		report.adjust(-30)
	}
}

func checkPSXISO(path string, report *Report) {
	license, err := readAt(path, 0x9340, 100)
	if err != nil {
		return
	}
	if !bytes.Contains(license, []byte("Licensed by Sony")) {
		report.addIssue(Issue{
			Kind:           IssueMetadataMissing,
			Severity:       SeverityLow,
			Description:    "Sony license string not found",
			Recommendation: "May be an unofficial or cooked dump",
		})
		report.adjust(-10)
	}
}

// gamecubeChecker validates GameCube images: disc ID, embedded title, and
// plausible size.
type gamecubeChecker struct{}

func (gamecubeChecker) Check(path string, report *Report) {
	report.addCheck("GameCube ISO validation")

	header, err := readAt(path, 0, 0x2000)
	if err != nil {
		report.addIssue(Issue{
			Kind:        IssueHeaderCorruption,
			Severity:    SeverityHigh,
			Description: "Could not read disc header",
		})
		report.adjust(-30)
		return
	}
	if len(header) < 0x2000 {
		report.addIssue(Issue{
			Kind:        IssueTruncatedFile,
			Severity:    SeverityCritical,
			Description: "Truncated image",
		})
		report.zeroScore()
		return
	}

	if header[0] != 'G' {
		report.addIssue(Issue{
			Kind:           IssueInvalidHeader,
			Severity:       SeverityHigh,
			Description:    fmt.Sprintf("Invalid disc ID: %q", string(header[0:6])),
			Location:       "0x00",
			Recommendation: "May not be a GameCube image",
		})
		report.adjust(-30)
	}

	title := bytes.TrimRight(header[0x20:0x40], "\x00")
	if len(title) == 0 {
		report.addIssue(Issue{
			Kind:        IssueMetadataMissing,
			Severity:    SeverityLow,
			Description: "Embedded title missing",
		})
		report.adjust(-5)
	}

	if size := fileSize(path); size < 100*1024*1024 {
		report.addIssue(Issue{
			Kind:        IssueSuspiciousSize,
			Severity:    SeverityHigh,
			Description: fmt.Sprintf("Image too small: %.1f MB", float64(size)/(1<<20)),
		})
		report.adjust(-30)
	}
}
