// ABOUTME: Plaintext decoding with a Latin-1 fallback for non-UTF-8 uploads
// ABOUTME: Strips a UTF-8 byte order mark and normalizes line endings
package extract

import (
	"bytes"
	"context"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Plaintext decodes data as UTF-8, falling back to ISO-8859-1
func Plaintext(_ context.Context, data []byte) (string, error) {
	return DecodeText(data)
}

// DecodeText decodes data as UTF-8 when valid and as Latin-1 otherwise
func DecodeText(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	var text string
	if utf8.Valid(data) {
		text = string(data)
	} else {
		decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
		if err != nil {
			return "", err
		}
		text = string(decoded)
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n"), nil
}
