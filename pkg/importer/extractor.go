package importer

import (
	"regexp"
	"strings"
)

// Dumps look like XML but are not: tags are unquoted, unescaped, never
// nested, and the document has no root element. A real XML parser rejects
// the first ampersand in a profile name, so extraction works on flat
// pattern matching instead. Mismatched open/close tag pairs are dropped
// rather than failing the record.
var tagPattern = regexp.MustCompile(`(?s)<([a-zA-Z]+)>(.*?)</([a-zA-Z]+)>`)

const recordAnchor = "<" + FieldTitle + ">"

// Extract splits decoded dump text into account records. Every record opens
// with a <title> tag; text before the first anchor is preamble and ignored.
// A dump with no anchors at all yields ErrNoRecords.
func Extract(text string) ([]*RawRecord, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}

	blocks := strings.Split(text, recordAnchor)
	if len(blocks) < 2 {
		return nil, ErrNoRecords
	}

	records := make([]*RawRecord, 0, len(blocks)-1)

	for _, block := range blocks[1:] {
		record := parseBlock(recordAnchor + block)
		if len(record.fields) == 0 {
			continue
		}

		records = append(records, record)
	}

	if len(records) == 0 {
		return nil, ErrNoRecords
	}

	return records, nil
}

func parseBlock(block string) *RawRecord {
	record := newRawRecord()

	for _, match := range tagPattern.FindAllStringSubmatch(block, -1) {
		open, value, closing := match[1], match[2], match[3]
		if !strings.EqualFold(open, closing) {
			continue
		}

		record.add(open, value)
	}

	return record
}
