package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_UTF8(t *testing.T) {
	text, err := Decode([]byte("<title>Анна</title>"))
	require.NoError(t, err)
	assert.Equal(t, "<title>Анна</title>", text)
}

func TestDecode_Windows1251(t *testing.T) {
	// "Привет" encoded as Windows-1251; invalid as UTF-8.
	data := []byte{0xCF, 0xF0, 0xE8, 0xE2, 0xE5, 0xF2}

	text, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "Привет", text)
}

func TestDecode_ASCIIStaysIntact(t *testing.T) {
	text, err := Decode([]byte("plain ascii"))
	require.NoError(t, err)
	assert.Equal(t, "plain ascii", text)
}

func TestDecode_Empty(t *testing.T) {
	_, err := Decode(nil)
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = Decode([]byte{})
	assert.ErrorIs(t, err, ErrEmptyInput)
}
