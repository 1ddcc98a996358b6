package cli

import "errors"

// Sentinel error kinds for this package.
var (
	ErrServer    = errors.New("server request failed")
	ErrReadInput = errors.New("read input file")
	ErrWriteCSV  = errors.New("write csv file")
	ErrBadSample = errors.New("unknown sample kind")
)
