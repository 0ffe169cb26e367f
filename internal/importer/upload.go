// Package importer validates uploaded export files and reads their contents.
package importer

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
)

const jsonMediaType = "application/json"

// ValidationError carries the user-facing message for a rejected upload.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

var (
	ErrNoFile        = &ValidationError{Message: "Please select a file."}
	ErrMultipleFiles = &ValidationError{Message: "Please only select a single file"}
	ErrNotJSON       = &ValidationError{Message: "Please select a json file"}
	ErrTooLarge      = errors.New("export exceeds the upload limit")
)

// Select checks that exactly one JSON file was chosen and returns it.
func Select(files []*multipart.FileHeader) (*multipart.FileHeader, error) {
	switch len(files) {
	case 0:
		return nil, ErrNoFile
	case 1:
	default:
		return nil, ErrMultipleFiles
	}

	fh := files[0]
	mediaType, _, err := mime.ParseMediaType(fh.Header.Get("Content-Type"))
	if err != nil || mediaType != jsonMediaType {
		return nil, ErrNotJSON
	}
	return fh, nil
}

// Read returns the whole file. A limit of zero or less disables the size check.
func Read(fh *multipart.FileHeader, limit int64) ([]byte, error) {
	if limit > 0 && fh.Size > limit {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, fh.Size)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload %q: %w", fh.Filename, err)
	}
	defer f.Close()

	var r io.Reader = f
	if limit > 0 {
		r = io.LimitReader(f, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload %q: %w", fh.Filename, err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, limit)
	}
	return data, nil
}
