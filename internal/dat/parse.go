package dat

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"regexp"
	"strconv"
)

// Reference files come in two dialects: Logiqx XML and ClrMamePro text.
// Parsing is best effort; a malformed file yields an empty index rather
// than an error so one bad DAT never aborts a verification pass.

var (
	reName = regexp.MustCompile(`name\s+"([^"]+)"`)
	reVer  = regexp.MustCompile(`version\s+"([^"]+)"`)
	reSize = regexp.MustCompile(`size\s+(\d+)`)
	reCRC  = regexp.MustCompile(`crc\s+([0-9A-Fa-f]+)`)
	reMD5  = regexp.MustCompile(`md5\s+([0-9A-Fa-f]+)`)
	reSHA1 = regexp.MustCompile(`sha1\s+([0-9A-Fa-f]+)`)

	reHeaderBlock = regexp.MustCompile(`(?s)clrmamepro\s*\((.*?)\)`)
	reGameOpen    = regexp.MustCompile(`game\s*\(`)
	reRomOpen     = regexp.MustCompile(`rom\s*\(`)
)

// ParseFile loads a reference file in either dialect. The returned index is
// always usable; the error reports an unreadable file.
func ParseFile(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return NewIndex(), fmt.Errorf("read dat file: %w", err)
	}

	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	if bytes.Contains(head, []byte("<?xml")) || bytes.Contains(head, []byte("<datafile>")) {
		return parseXML(data), nil
	}
	return parseClrMamePro(data), nil
}

type xmlRom struct {
	Name string `xml:"name,attr"`
	Size string `xml:"size,attr"`
	CRC  string `xml:"crc,attr"`
	MD5  string `xml:"md5,attr"`
	SHA1 string `xml:"sha1,attr"`
}

type xmlGame struct {
	Name string   `xml:"name,attr"`
	Roms []xmlRom `xml:"rom"`
}

type xmlDatafile struct {
	XMLName xml.Name  `xml:"datafile"`
	Header  xmlHeader `xml:"header"`
	Games   []xmlGame `xml:"game"`
}

type xmlHeader struct {
	Name    string `xml:"name"`
	Version string `xml:"version"`
}

func parseXML(data []byte) *Index {
	idx := NewIndex()

	var file xmlDatafile
	if err := xml.Unmarshal(data, &file); err != nil {
		return idx
	}

	idx.Name = file.Header.Name
	idx.Version = file.Header.Version

	for _, game := range file.Games {
		gameName := game.Name
		if gameName == "" {
			gameName = "Unknown"
		}
		for _, rom := range game.Roms {
			size, _ := strconv.ParseInt(rom.Size, 10, 64)
			romName := rom.Name
			if romName == "" {
				romName = "Unknown"
			}
			idx.Add(&RomInfo{
				GameName: gameName,
				RomName:  romName,
				Size:     size,
				CRC:      rom.CRC,
				MD5:      rom.MD5,
				SHA1:     rom.SHA1,
				DATName:  idx.Name,
			})
		}
	}
	return idx
}

func parseClrMamePro(data []byte) *Index {
	idx := NewIndex()
	content := string(data)

	if m := reHeaderBlock.FindStringSubmatch(content); m != nil {
		header := m[1]
		if nm := reName.FindStringSubmatch(header); nm != nil {
			idx.Name = nm[1]
		}
		if vm := reVer.FindStringSubmatch(header); vm != nil {
			idx.Version = vm[1]
		}
	}

	for _, gameBlock := range extractBlocks(content, reGameOpen) {
		gameName := "Unknown"
		if nm := reName.FindStringSubmatch(gameBlock); nm != nil {
			gameName = nm[1]
		}
		for _, romBlock := range extractBlocks(gameBlock, reRomOpen) {
			idx.Add(parseRomBlock(idx.Name, gameName, romBlock))
		}
	}
	return idx
}

func parseRomBlock(datName, gameName, block string) *RomInfo {
	rom := &RomInfo{GameName: gameName, RomName: "Unknown", DATName: datName}
	if nm := reName.FindStringSubmatch(block); nm != nil {
		rom.RomName = nm[1]
	}
	if sm := reSize.FindStringSubmatch(block); sm != nil {
		rom.Size, _ = strconv.ParseInt(sm[1], 10, 64)
	}
	if cm := reCRC.FindStringSubmatch(block); cm != nil {
		rom.CRC = cm[1]
	}
	if mm := reMD5.FindStringSubmatch(block); mm != nil {
		rom.MD5 = mm[1]
	}
	if hm := reSHA1.FindStringSubmatch(block); hm != nil {
		rom.SHA1 = hm[1]
	}
	return rom
}

// extractBlocks yields the balanced parenthesized body after each opener
// match. Unterminated blocks are skipped.
func extractBlocks(content string, opener *regexp.Regexp) []string {
	var blocks []string
	for _, loc := range opener.FindAllStringIndex(content, -1) {
		start := loc[1]
		depth := 1
		end := start
		for depth > 0 && end < len(content) {
			switch content[end] {
			case '(':
				depth++
			case ')':
				depth--
			}
			end++
		}
		if depth == 0 {
			blocks = append(blocks, content[start:end-1])
		}
	}
	return blocks
}
