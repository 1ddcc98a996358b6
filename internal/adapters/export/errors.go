package export

import "errors"

// Sentinel error kinds for this package.
var (
	ErrMalformedCSV = errors.New("malformed metrics csv")
	ErrWriteCSV     = errors.New("write metrics csv failed")
)
