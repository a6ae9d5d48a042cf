// Package markdown prepares text for Telegram's MarkdownV2 parse mode.
package markdown

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrInvalidLimit is returned for a non-positive chunk length.
var ErrInvalidLimit = errors.New("message length limit must be at least 1")

// EmptyMessage is the single chunk produced for blank input, already escaped
// for MarkdownV2.
const EmptyMessage = `Message is empty\.`

// '_' and '*' stay unescaped: the formatter uses them for emphasis.
var escaper = strings.NewReplacer(
	`[`, `\[`,
	`]`, `\]`,
	`(`, `\(`,
	`)`, `\)`,
	`~`, `\~`,
	"`", "\\`",
	`<`, `\<`,
	`>`, `\>`,
	`#`, `\#`,
	`+`, `\+`,
	`-`, `\-`,
	`=`, `\=`,
	`|`, `\|`,
	`{`, `\{`,
	`}`, `\}`,
	`.`, `\.`,
	`!`, `\!`,
)

// EscapeMarkdownV2 backslash-escapes markup characters in free text.
func EscapeMarkdownV2(text string) string {
	if text == "" {
		return ""
	}
	return escaper.Replace(text)
}

var urlEscaper = strings.NewReplacer(`\`, `\\`, `)`, `\)`)

// EscapeLinkURL escapes the two characters Telegram treats specially inside
// the (...) part of an inline link.
func EscapeLinkURL(u string) string {
	return urlEscaper.Replace(u)
}

// Link renders an inline link with an escaped label.
func Link(label, url string) string {
	return fmt.Sprintf("[%s](%s)", EscapeMarkdownV2(label), EscapeLinkURL(url))
}

type chunk struct {
	text string
	// midLine is set when this chunk continues the previous chunk's line.
	midLine bool
}

// SplitMessageByNewlines packs whole lines into chunks of at most limit
// characters. Only a line longer than limit is cut, into limit-sized pieces.
func SplitMessageByNewlines(message string, limit int) ([]string, error) {
	chunks, err := splitChunks(message, limit)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.text
	}
	return out, nil
}

func splitChunks(message string, limit int) ([]chunk, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidLimit, limit)
	}
	if strings.TrimSpace(message) == "" {
		return []chunk{{text: EmptyMessage}}, nil
	}

	var (
		chunks []chunk
		cur    strings.Builder
		curLen int
		open   bool
	)
	flush := func() {
		chunks = append(chunks, chunk{text: cur.String()})
		cur.Reset()
		curLen = 0
		open = false
	}

	for _, line := range strings.Split(message, "\n") {
		n := utf8.RuneCountInString(line)

		if n > limit {
			if open {
				flush()
			}
			runes := []rune(line)
			for i := 0; i < len(runes); i += limit {
				end := min(i+limit, len(runes))
				chunks = append(chunks, chunk{text: string(runes[i:end]), midLine: i > 0})
			}
			continue
		}

		switch {
		case !open:
			cur.WriteString(line)
			curLen, open = n, true
		case curLen+1+n <= limit:
			cur.WriteByte('\n')
			cur.WriteString(line)
			curLen += 1 + n
		default:
			flush()
			cur.WriteString(line)
			curLen, open = n, true
		}
	}
	if open {
		flush()
	}

	return chunks, nil
}
