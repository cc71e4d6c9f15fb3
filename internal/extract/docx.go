// ABOUTME: Word .docx text extraction from the word/document.xml part
// ABOUTME: Paragraphs become lines; tabs and breaks are kept as whitespace
package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/harper/docqa/internal/models"
)

const (
	documentPart = "word/document.xml"
	wordML       = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
)

// Docx returns the body text of an Office Open XML document
func Docx(ctx context.Context, data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("not a docx archive: %w", err)
	}

	var part *zip.File
	for _, f := range zr.File {
		if f.Name == documentPart {
			part = f
			break
		}
	}
	if part == nil {
		return "", fmt.Errorf("docx archive has no %s", documentPart)
	}

	rc, err := part.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", documentPart, err)
	}
	defer func() { _ = rc.Close() }()

	return wordText(ctx, rc)
}

func wordText(ctx context.Context, r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var paragraphs []string
	var para strings.Builder
	inText := false

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to parse %s: %w", documentPart, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != wordML {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				para.WriteByte('\t')
			case "br", "cr":
				para.WriteByte('\n')
			}
		case xml.EndElement:
			if t.Name.Space != wordML {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				paragraphs = append(paragraphs, para.String())
				para.Reset()
				if err := ctx.Err(); err != nil {
					return "", models.WrapError(models.KindCanceled, "extract docx", err)
				}
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		}
	}
	if para.Len() > 0 {
		paragraphs = append(paragraphs, para.String())
	}
	return strings.Join(paragraphs, "\n"), nil
}
