// ABOUTME: PDF text extraction through the poppler pdftotext tool
// ABOUTME: Without pdftotext on PATH, PDFs are reported as unsupported
package extract

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/harper/docqa/internal/models"
)

// PDFTool is the external converter binary
var PDFTool = "pdftotext"

// PDF converts data with pdftotext, reading stdin and writing stdout
func PDF(ctx context.Context, data []byte) (string, error) {
	path, err := exec.LookPath(PDFTool)
	if err != nil {
		return "", models.NewError(models.KindUnsupportedFormat, "extract pdf", "%s is not installed", PDFTool)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, "-enc", "UTF-8", "-layout", "-", "-")
	cmd.Stdin = bytes.NewReader(data)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", models.WrapError(models.KindCanceled, "extract pdf", ctx.Err())
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("pdftotext failed: %s", msg)
	}
	return DecodeText(stdout.Bytes())
}
