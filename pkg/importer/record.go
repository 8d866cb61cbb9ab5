package importer

import "strings"

// Field names recognised in dump records. Anything else between angle
// brackets is carried along untouched so a dump with extra tags still
// imports.
const (
	FieldTitle  = "title"
	FieldID     = "id"
	FieldBirth  = "dr"
	FieldCity   = "city"
	FieldSkype  = "skype"
	FieldICQ    = "icq"
	FieldFB     = "fb"
	FieldOD     = "od"
	FieldInsta  = "insta"
	FieldTW     = "tw"
	FieldVK     = "vk"
	FieldGirl   = "girl"
	FieldBoy    = "boy"
	FieldEmail  = "email"
	FieldTG     = "tg"
	FieldTikTok = "tik"
	FieldOF     = "of"
	FieldPhone  = "tel"
	FieldVideo  = "nvideo"
	FieldTags   = "tags"
	FieldDate   = "date"
)

// RawRecord is one account block extracted from a dump. Values are stored in
// document order; most fields appear at most once, but a sloppy dump can
// repeat a tag and we keep every occurrence.
type RawRecord struct {
	fields map[string][]string
}

func newRawRecord() *RawRecord {
	return &RawRecord{fields: make(map[string][]string)}
}

func (r *RawRecord) add(name, value string) {
	name = strings.ToLower(strings.TrimSpace(name))
	r.fields[name] = append(r.fields[name], strings.TrimSpace(value))
}

// First returns the first value of the named field. The second return is
// false when the tag never appeared; an empty string with true means the tag
// was present but blank, which some fields treat differently from absent.
func (r *RawRecord) First(name string) (string, bool) {
	values, ok := r.fields[name]
	if !ok || len(values) == 0 {
		return "", false
	}

	return values[0], true
}

// All returns every value of the named field in document order.
func (r *RawRecord) All(name string) []string {
	return r.fields[name]
}

// Has reports whether the named tag appeared in the record at all.
func (r *RawRecord) Has(name string) bool {
	_, ok := r.fields[name]
	return ok
}

// Identificator returns the stable external key of the record. Records
// without one cannot be reconciled against existing accounts and are
// skipped by the orchestrator.
func (r *RawRecord) Identificator() string {
	value, _ := r.First(FieldID)
	return value
}

// Title returns the display name, falling back to the identificator when the
// title tag is blank or missing.
func (r *RawRecord) Title() string {
	value, ok := r.First(FieldTitle)
	if !ok || value == "" {
		return r.Identificator()
	}

	return value
}
