package importer

import "github.com/pkg/errors"

var (
	// ErrEmptyInput is returned when the uploaded dump contains no bytes.
	ErrEmptyInput = errors.New("import: empty input")

	// ErrNoRecords is returned when the dump decoded fine but no account
	// record could be extracted from it.
	ErrNoRecords = errors.New("import: no account records found")
)
