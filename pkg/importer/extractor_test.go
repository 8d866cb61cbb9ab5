package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_SingleRecord(t *testing.T) {
	dump := `<title>Анна</title><id>anna-77</id><city>Москва</city><tags>блондинка, массаж</tags><nvideo>1</nvideo>`

	records, err := Extract(dump)
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "Анна", rec.Title())
	assert.Equal(t, "anna-77", rec.Identificator())

	city, ok := rec.First(FieldCity)
	assert.True(t, ok)
	assert.Equal(t, "Москва", city)

	tags, ok := rec.First(FieldTags)
	assert.True(t, ok)
	assert.Equal(t, "блондинка, массаж", tags)
}

func TestExtract_MultipleRecords(t *testing.T) {
	dump := `<title>Анна</title><id>anna-77</id>
<title>Мария</title><id>maria-12</id>
<title>Ольга</title><id>olga-3</id>`

	records, err := Extract(dump)
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "anna-77", records[0].Identificator())
	assert.Equal(t, "maria-12", records[1].Identificator())
	assert.Equal(t, "olga-3", records[2].Identificator())
}

func TestExtract_PreambleIgnored(t *testing.T) {
	dump := "export from 2023-01-15\ngarbage header\n<title>Анна</title><id>anna-77</id>"

	records, err := Extract(dump)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "anna-77", records[0].Identificator())
}

func TestExtract_RecordWithoutID(t *testing.T) {
	dump := `<title>Без айди</title><city>Киев</city>`

	records, err := Extract(dump)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "", records[0].Identificator())
}

func TestExtract_MismatchedTagsDropped(t *testing.T) {
	dump := `<title>Анна</title><id>anna-77</id><city>Моск</tags><skype>live:anna</skype>`

	records, err := Extract(dump)
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.False(t, rec.Has(FieldCity))

	skype, ok := rec.First(FieldSkype)
	assert.True(t, ok)
	assert.Equal(t, "live:anna", skype)
}

func TestExtract_ValueSpansLines(t *testing.T) {
	dump := "<title>Анна</title><id>anna-77</id><tags>блондинка,\nмассаж</tags>"

	records, err := Extract(dump)
	require.NoError(t, err)
	require.Len(t, records, 1)

	tags, _ := records[0].First(FieldTags)
	assert.Equal(t, "блондинка,\nмассаж", tags)
}

func TestExtract_RepeatedTagKeepsAll(t *testing.T) {
	dump := `<title>Анна</title><id>anna-77</id><tel>+70000000001</tel><tel>+70000000002</tel>`

	records, err := Extract(dump)
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, []string{"+70000000001", "+70000000002"}, records[0].All(FieldPhone))

	first, ok := records[0].First(FieldPhone)
	assert.True(t, ok)
	assert.Equal(t, "+70000000001", first)
}

func TestExtract_NoRecords(t *testing.T) {
	_, err := Extract("just some text without any record anchors")
	assert.ErrorIs(t, err, ErrNoRecords)
}

func TestExtract_Blank(t *testing.T) {
	_, err := Extract("   \n\t ")
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestRawRecord_TitleFallsBackToIdentificator(t *testing.T) {
	dump := `<title></title><id>anna-77</id>`

	records, err := Extract(dump)
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, "anna-77", records[0].Title())
}
