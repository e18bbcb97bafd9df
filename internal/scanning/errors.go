package scanning

import (
	"errors"
	"fmt"
)

var (
	// ErrNoTextLayer is returned when a PDF page has no extractable text
	ErrNoTextLayer = errors.New("no extractable text layer")
	// ErrOCRUnavailable is returned when the OCR engine cannot be started
	ErrOCRUnavailable = errors.New("ocr engine unavailable")
)

// AcquisitionError is fatal for the document it names
type AcquisitionError struct {
	Path string
	Op   string
	Err  error
}

func (e *AcquisitionError) Error() string {
	return fmt.Sprintf("acquiring text from %s: %s: %v", e.Path, e.Op, e.Err)
}

func (e *AcquisitionError) Unwrap() error {
	return e.Err
}
