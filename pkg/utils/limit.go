package utils

import (
	"errors"
	"io"
)

var ErrTooLarge = errors.New("file too large")

// ReadAllLimit reads r fully, failing once more than max bytes arrive.
func ReadAllLimit(r io.Reader, max int64) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > max {
		return nil, ErrTooLarge
	}
	return b, nil
}
