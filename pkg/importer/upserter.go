package importer

import (
	"strconv"
	"strings"
	"time"

	"github.com/asterhq/aster/pkg/models"
)

// MissingDatePolicy controls what date_of_create a record gets when its
// dump block carries no date tag at all. A present-but-blank tag always
// means "undated" regardless of policy.
type MissingDatePolicy string

const (
	// MissingDateNow stamps undated records with the import time, making
	// them immediately visible in the directory.
	MissingDateNow MissingDatePolicy = "now"
	// MissingDateNull leaves undated records invisible until a moderator
	// dates them.
	MissingDateNull MissingDatePolicy = "null"
)

// BuildAccount translates one extracted record into the account row to
// upsert. Field-level garbage degrades to NULL columns instead of failing
// the record; only a missing identificator makes a record unusable, and the
// orchestrator filters those before calling here.
func BuildAccount(rec *RawRecord, policy MissingDatePolicy, now time.Time) *models.Account {
	account := &models.Account{
		Name:          rec.Title(),
		Identificator: rec.Identificator(),
		DateOfCreate:  creationDate(rec, policy, now),
		DateOfBirth:   birthDate(rec, now),
		CheckVideo:    checkVideo(rec),
	}

	return account
}

func creationDate(rec *RawRecord, policy MissingDatePolicy, now time.Time) *time.Time {
	value, present := rec.First(FieldDate)
	if !present {
		if policy == MissingDateNull {
			return nil
		}
		return &now
	}

	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	return normalizeDate(value)
}

// normalizeDate accepts the two date spellings dumps actually use,
// YYYY.MM.DD and YYYY-MM-DD, with sanity bounds on each component.
// Anything else is treated as absent.
func normalizeDate(value string) *time.Time {
	normalized := strings.ReplaceAll(value, ".", "-")

	parts := strings.Split(normalized, "-")
	if len(parts) != 3 {
		return nil
	}

	year, errY := strconv.Atoi(parts[0])
	month, errM := strconv.Atoi(parts[1])
	day, errD := strconv.Atoi(parts[2])
	if errY != nil || errM != nil || errD != nil {
		return nil
	}

	if year < 1900 || year > 2100 || month < 1 || month > 12 || day < 1 || day > 31 {
		return nil
	}

	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return &date
}

// birthDate derives a birth date from the dr tag, which carries an age in
// years, not a date. The result is pinned to January 1st of the computed
// year since dumps carry no finer precision.
func birthDate(rec *RawRecord, now time.Time) *time.Time {
	value, _ := rec.First(FieldBirth)
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	age, err := strconv.Atoi(value)
	if err != nil || age < 0 || age > 150 {
		return nil
	}

	date := time.Date(now.Year()-age, time.January, 1, 0, 0, 0, 0, time.UTC)
	return &date
}

func checkVideo(rec *RawRecord) int {
	value, _ := rec.First(FieldVideo)
	if strings.TrimSpace(value) == "1" {
		return 1
	}
	return 0
}

// SplitTags breaks the comma-separated tags value into clean tag names,
// dropping blanks produced by trailing or doubled commas.
func SplitTags(value string) []string {
	parts := strings.Split(value, ",")
	names := make([]string, 0, len(parts))
	for _, part := range parts {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		names = append(names, name)
	}
	return names
}
