package importer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRecord(t *testing.T, dump string) *RawRecord {
	t.Helper()

	records, err := Extract(dump)
	require.NoError(t, err)
	require.Len(t, records, 1)
	return records[0]
}

func TestBuildAccount_Basics(t *testing.T) {
	now := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)
	rec := mustRecord(t, `<title>Анна</title><id>anna-77</id><nvideo>1</nvideo>`)

	account := BuildAccount(rec, MissingDateNow, now)

	assert.Equal(t, "Анна", account.Name)
	assert.Equal(t, "anna-77", account.Identificator)
	assert.Equal(t, 1, account.CheckVideo)
	require.NotNil(t, account.DateOfCreate)
	assert.Equal(t, now, *account.DateOfCreate)
}

func TestBuildAccount_MissingDatePolicy(t *testing.T) {
	now := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)
	dump := `<title>Анна</title><id>anna-77</id>`

	t.Run("now policy stamps import time", func(t *testing.T) {
		account := BuildAccount(mustRecord(t, dump), MissingDateNow, now)
		require.NotNil(t, account.DateOfCreate)
		assert.Equal(t, now, *account.DateOfCreate)
	})

	t.Run("null policy leaves account undated", func(t *testing.T) {
		account := BuildAccount(mustRecord(t, dump), MissingDateNull, now)
		assert.Nil(t, account.DateOfCreate)
	})
}

func TestBuildAccount_BlankDateIsAlwaysNull(t *testing.T) {
	now := time.Now().UTC()
	dump := `<title>Анна</title><id>anna-77</id><date></date>`

	account := BuildAccount(mustRecord(t, dump), MissingDateNow, now)
	assert.Nil(t, account.DateOfCreate)
}

func TestBuildAccount_DateSpellings(t *testing.T) {
	now := time.Now().UTC()
	want := time.Date(2020, time.May, 10, 0, 0, 0, 0, time.UTC)

	t.Run("dotted", func(t *testing.T) {
		rec := mustRecord(t, `<title>А</title><id>x</id><date>2020.05.10</date>`)
		account := BuildAccount(rec, MissingDateNow, now)
		require.NotNil(t, account.DateOfCreate)
		assert.Equal(t, want, *account.DateOfCreate)
	})

	t.Run("dashed", func(t *testing.T) {
		rec := mustRecord(t, `<title>А</title><id>x</id><date>2020-05-10</date>`)
		account := BuildAccount(rec, MissingDateNow, now)
		require.NotNil(t, account.DateOfCreate)
		assert.Equal(t, want, *account.DateOfCreate)
	})
}

func TestBuildAccount_MalformedDates(t *testing.T) {
	now := time.Now().UTC()

	cases := []struct {
		name string
		date string
	}{
		{"garbage", "yesterday"},
		{"too few parts", "2020-05"},
		{"year below range", "1899-05-10"},
		{"year above range", "2101-05-10"},
		{"month out of range", "2020-13-10"},
		{"day out of range", "2020-05-32"},
		{"non numeric part", "2020-ab-10"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := mustRecord(t, `<title>А</title><id>x</id><date>`+tc.date+`</date>`)
			account := BuildAccount(rec, MissingDateNow, now)
			assert.Nil(t, account.DateOfCreate)
		})
	}
}

func TestBuildAccount_BirthDateFromAge(t *testing.T) {
	now := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)

	t.Run("age becomes january first of birth year", func(t *testing.T) {
		rec := mustRecord(t, `<title>А</title><id>x</id><dr>25</dr>`)
		account := BuildAccount(rec, MissingDateNow, now)
		require.NotNil(t, account.DateOfBirth)
		assert.Equal(t, time.Date(1999, time.January, 1, 0, 0, 0, 0, time.UTC), *account.DateOfBirth)
	})

	t.Run("non numeric age is dropped", func(t *testing.T) {
		rec := mustRecord(t, `<title>А</title><id>x</id><dr>двадцать</dr>`)
		account := BuildAccount(rec, MissingDateNow, now)
		assert.Nil(t, account.DateOfBirth)
	})

	t.Run("absurd age is dropped", func(t *testing.T) {
		rec := mustRecord(t, `<title>А</title><id>x</id><dr>400</dr>`)
		account := BuildAccount(rec, MissingDateNow, now)
		assert.Nil(t, account.DateOfBirth)
	})
}

func TestBuildAccount_CheckVideo(t *testing.T) {
	now := time.Now().UTC()

	rec := mustRecord(t, `<title>А</title><id>x</id><nvideo>0</nvideo>`)
	assert.Equal(t, 0, BuildAccount(rec, MissingDateNow, now).CheckVideo)

	rec = mustRecord(t, `<title>А</title><id>x</id>`)
	assert.Equal(t, 0, BuildAccount(rec, MissingDateNow, now).CheckVideo)

	rec = mustRecord(t, `<title>А</title><id>x</id><nvideo>1</nvideo>`)
	assert.Equal(t, 1, BuildAccount(rec, MissingDateNow, now).CheckVideo)
}

func TestSplitTags(t *testing.T) {
	assert.Equal(t, []string{"блондинка", "массаж"}, SplitTags("блондинка, массаж"))
	assert.Equal(t, []string{"одна"}, SplitTags("одна"))
	assert.Equal(t, []string{"a", "b"}, SplitTags("a,,b,"))
	assert.Empty(t, SplitTags(""))
	assert.Empty(t, SplitTags(" , ,"))
}
