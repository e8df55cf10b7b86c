package extract

import "errors"

var (
	// ErrInvalidPDF indicates the file could not be read as a PDF.
	ErrInvalidPDF = errors.New("invalid PDF")

	// ErrInvalidDOCX indicates the file could not be read as a DOCX document.
	ErrInvalidDOCX = errors.New("invalid DOCX")
)
