// ABOUTME: Text extraction for uploaded files, chosen by file extension
// ABOUTME: Unknown extensions fail with UnsupportedFormat before any work is done
package extract

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	"github.com/harper/docqa/internal/models"
)

// Func turns raw file bytes into plain text
type Func func(ctx context.Context, data []byte) (string, error)

var extractors = map[string]Func{
	".txt":      Plaintext,
	".text":     Plaintext,
	".md":       Plaintext,
	".markdown": Plaintext,
	".csv":      Plaintext,
	".json":     Plaintext,
	".log":      Plaintext,
	".html":     HTML,
	".htm":      HTML,
	".docx":     Docx,
	".pdf":      PDF,
}

// Extract returns the text of the file called name.
// Errors are classified: UnsupportedFormat for unknown or unreadable formats.
func Extract(ctx context.Context, name string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(name))
	fn, ok := extractors[ext]
	if !ok {
		if ext == "" {
			return "", models.NewError(models.KindUnsupportedFormat, "extract", "%s has no file extension", name)
		}
		return "", models.NewError(models.KindUnsupportedFormat, "extract", "unsupported file type %s", ext)
	}
	if err := ctx.Err(); err != nil {
		return "", models.WrapError(models.KindCanceled, "extract", err)
	}

	text, err := fn(ctx, data)
	if err != nil {
		if models.KindOf(err) != models.KindInternal {
			return "", err
		}
		return "", models.WrapError(models.KindUnsupportedFormat, "extract "+name, err)
	}
	return text, nil
}

// Supported lists the accepted extensions, sorted
func Supported() []string {
	out := make([]string, 0, len(extractors))
	for ext := range extractors {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// IsSupported reports whether name has a known extension
func IsSupported(name string) bool {
	_, ok := extractors[strings.ToLower(filepath.Ext(name))]
	return ok
}
