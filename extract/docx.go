package extract

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const docxBody = "word/document.xml"

func readDOCX(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidDOCX, err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != docxBody {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrInvalidDOCX, err)
		}
		defer rc.Close()
		return docxText(rc)
	}
	return "", fmt.Errorf("%w: missing %s", ErrInvalidDOCX, docxBody)
}

// docxText collects w:t runs, one line per w:p paragraph.
func docxText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var (
		out       strings.Builder
		paragraph strings.Builder
		inText    bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrInvalidDOCX, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				paragraph.WriteByte('\t')
			case "br":
				paragraph.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if line := strings.TrimSpace(paragraph.String()); line != "" {
					if out.Len() > 0 {
						out.WriteByte('\n')
					}
					out.WriteString(line)
				}
				paragraph.Reset()
			}
		case xml.CharData:
			if inText {
				paragraph.Write(t)
			}
		}
	}
	return out.String(), nil
}
