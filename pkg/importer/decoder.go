package importer

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Decode converts an uploaded dump to text. Uploads are UTF-8 when they come
// from modern tooling and Windows-1251 when they come from legacy exports,
// and nothing in the file declares which. Strict UTF-8 is tried first; any
// invalid byte sequence falls the whole buffer back to Windows-1251, which
// is total (every byte value decodes) and therefore cannot fail.
func Decode(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyInput
	}

	if utf8.Valid(data) {
		return string(data), nil
	}

	decoded, err := charmap.Windows1251.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}

	return string(decoded), nil
}
