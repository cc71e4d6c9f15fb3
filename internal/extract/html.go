// ABOUTME: HTML text extraction using the x/net/html tokenizer
// ABOUTME: Drops script and style content and breaks lines at block elements
package extract

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/harper/docqa/internal/models"
)

var skipped = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
	atom.Head:     true,
}

var blocks = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Br: true, atom.Li: true, atom.Tr: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Section: true, atom.Article: true, atom.Header: true, atom.Footer: true,
	atom.Blockquote: true, atom.Pre: true, atom.Table: true, atom.Ul: true, atom.Ol: true,
}

// HTML returns the visible text of an HTML document
func HTML(ctx context.Context, data []byte) (string, error) {
	body, err := DecodeText(data)
	if err != nil {
		return "", err
	}

	z := html.NewTokenizer(strings.NewReader(body))
	var lines []string
	var line bytes.Buffer
	depth := 0

	flush := func() {
		if s := strings.Join(strings.Fields(line.String()), " "); s != "" {
			lines = append(lines, s)
		}
		line.Reset()
	}

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return "", err
			}
			flush()
			return strings.Join(lines, "\n"), nil

		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			if skipped[a] && tt == html.StartTagToken {
				depth++
			}
			if blocks[a] {
				flush()
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			if skipped[a] && depth > 0 {
				depth--
			}
			if blocks[a] {
				flush()
			}

		case html.TextToken:
			if depth > 0 {
				continue
			}
			line.Write(z.Text())
			line.WriteByte(' ')
		}

		if err := ctx.Err(); err != nil {
			return "", models.WrapError(models.KindCanceled, "extract html", err)
		}
	}
}
