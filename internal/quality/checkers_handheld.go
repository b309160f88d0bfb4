package quality

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"path/filepath"
	"strings"
)

// gbaChecker validates the 192-byte Game Boy Advance cartridge header:
// entry-point branch opcode, boot logo presence, embedded title, and the
// header checksum at 0xBD.
type gbaChecker struct{}

const gbaHeaderSize = 192

func (gbaChecker) Check(path string, report *Report) {
	report.addCheck("GBA header validation")

	header, err := readAt(path, 0, gbaHeaderSize)
	if err != nil {
		report.addIssue(Issue{
			Kind:        IssueHeaderCorruption,
			Severity:    SeverityHigh,
			Description: "Could not read cartridge header",
		})
		report.adjust(-30)
		return
	}
	if len(header) < gbaHeaderSize {
		report.addIssue(Issue{
			Kind:        IssueTruncatedFile,
			Severity:    SeverityCritical,
			Description: "Truncated ROM, incomplete header",
		})
		report.zeroScore()
		return
	}

	// Entry point must be an ARM branch (B/BL).
	if header[3] != 0xEA && header[3] != 0xEB {
		report.addIssue(Issue{
			Kind:           IssueInvalidHeader,
			Severity:       SeverityHigh,
			Description:    "Invalid entry point",
			Location:       "0x00-0x03",
			Recommendation: "Header may be corrupt",
		})
		report.adjust(-30)
	}

	logo := header[4:160]
	if bytes.Count(logo, []byte{0}) == len(logo) {
		report.addIssue(Issue{
			Kind:        IssueInvalidHeader,
			Severity:    SeverityCritical,
			Description: "Boot logo missing",
			Location:    "0x04-0x9F",
		})
		report.adjust(-40)
	}

	title := bytes.TrimRight(header[160:172], "\x00")
	if len(title) == 0 {
		report.addIssue(Issue{
			Kind:        IssueMetadataMissing,
			Severity:    SeverityLow,
			Description: "Embedded title missing",
		})
		report.adjust(-5)
	}

	if got, want := header[189], gbaHeaderChecksum(header[160:189]); got != want {
		report.addIssue(Issue{
			Kind:           IssueInvalidChecksum,
			Severity:       SeverityHigh,
			Description:    fmt.Sprintf("Header checksum invalid (expected %02X, found %02X)", want, got),
			Location:       "0xBD",
			Recommendation: "Header corrupt or ROM modified",
		})
		report.adjust(-25)
	}

	size := fileSize(path)
	switch {
	case size < 1<<20:
		report.addIssue(Issue{
			Kind:        IssueSuspiciousSize,
			Severity:    SeverityMedium,
			Description: fmt.Sprintf("ROM suspiciously small: %.2f MB", float64(size)/(1<<20)),
		})
		report.adjust(-15)
	case size > 64<<20:
		report.addIssue(Issue{
			Kind:        IssueSuspiciousSize,
			Severity:    SeverityLow,
			Description: fmt.Sprintf("ROM too large for GBA: %.1f MB", float64(size)/(1<<20)),
		})
		report.adjust(-10)
	}
}

// gbaHeaderChecksum computes the complement checksum over header bytes
// 0xA0..0xBC.
func gbaHeaderChecksum(data []byte) byte {
	var checksum byte
	for _, b := range data {
		checksum -= b
	}
	return checksum - 0x19
}

// switchChecker validates Switch packages by container magic: PFS0 for
// NSP/NSZ, HEAD for XCI/XCZ.
type switchChecker struct{}

func (switchChecker) Check(path string, report *Report) {
	report.addCheck("Switch format validation")

	switch strings.ToLower(filepath.Ext(path)) {
	case ".nsp", ".nsz":
		checkNSP(path, report)
	case ".xci", ".xcz":
		checkXCI(path, report)
	}
}

func checkNSP(path string, report *Report) {
	head, err := readAt(path, 0, 8)
	if err != nil || len(head) < 8 {
		report.addIssue(Issue{
			Kind:        IssueHeaderCorruption,
			Severity:    SeverityHigh,
			Description: "Could not read package header",
		})
		report.adjust(-30)
		return
	}

	if !bytes.Equal(head[0:4], []byte("PFS0")) {
		report.addIssue(Issue{
			Kind:        IssueInvalidHeader,
			Severity:    SeverityCritical,
			Description: "PFS0 magic number not found",
			Location:    "0x00",
		})
		report.adjust(-50)
		return
	}

	entryCount := binary.LittleEndian.Uint32(head[4:8])
	switch {
	case entryCount == 0:
		report.addIssue(Issue{
			Kind:        IssueSuspiciousSize,
			Severity:    SeverityCritical,
			Description: "Package contains no files",
		})
		report.adjust(-40)
	case entryCount > 1000:
		report.addIssue(Issue{
			Kind:        IssueHeaderCorruption,
			Severity:    SeverityHigh,
			Description: fmt.Sprintf("Suspicious file count: %d", entryCount),
		})
		report.adjust(-30)
	}
}

func checkXCI(path string, report *Report) {
	magic, err := readAt(path, 0, 4)
	if err != nil || len(magic) < 4 {
		report.addIssue(Issue{
			Kind:        IssueHeaderCorruption,
			Severity:    SeverityHigh,
			Description: "Could not read cartridge header",
		})
		report.adjust(-30)
		return
	}

	if !bytes.Equal(magic, []byte("HEAD")) {
		report.addIssue(Issue{
			Kind:        IssueInvalidHeader,
			Severity:    SeverityCritical,
			Description: "HEAD magic number not found",
			Location:    "0x00",
		})
		report.adjust(-50)
	}
}
