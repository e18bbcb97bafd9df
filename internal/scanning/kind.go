package scanning

import (
	"path/filepath"
	"strings"
)

// Kind selects the acquisition path for a document
type Kind string

const (
	KindPDF   Kind = "pdf"
	KindImage Kind = "image"
)

// KindOf derives the document kind from the path's extension, ignoring case.
// Anything that is not a PDF goes through the image path.
func KindOf(path string) Kind {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return KindPDF
	}
	return KindImage
}
