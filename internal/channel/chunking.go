package channel

import (
	"strings"
	"unicode"
	"unicode/utf16"
)

// SplitText breaks text into chunks of at most maxUnits UTF-16 code units,
// the unit Telegram measures message length in. It prefers line breaks,
// then spaces, and only cuts inside a word when a single word is too long.
// Surrogate pairs are never split. maxUnits <= 0 disables splitting.
func SplitText(text string, maxUnits int) []string {
	if maxUnits <= 0 || utf16Len(text) <= maxUnits {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder
	currentUnits := 0

	flush := func() {
		if s := strings.TrimRightFunc(current.String(), unicode.IsSpace); s != "" {
			chunks = append(chunks, s)
		}
		current.Reset()
		currentUnits = 0
	}

	for _, piece := range splitKeepSeparators(text) {
		n := utf16Len(piece)
		if currentUnits+n > maxUnits {
			flush()
			if strings.TrimSpace(piece) == "" {
				continue
			}
		}
		if n > maxUnits {
			parts := forceSplit(piece, maxUnits)
			chunks = append(chunks, parts[:len(parts)-1]...)
			piece = parts[len(parts)-1]
			n = utf16Len(piece)
		}
		current.WriteString(piece)
		currentUnits += n
	}
	flush()

	return chunks
}

// splitKeepSeparators cuts text after every newline and space so that
// concatenating the pieces gives the original text back.
func splitKeepSeparators(text string) []string {
	var pieces []string
	start := 0
	for i, r := range text {
		if r == '\n' || r == ' ' {
			pieces = append(pieces, text[start:i+1])
			start = i + 1
		}
	}
	if start < len(text) {
		pieces = append(pieces, text[start:])
	}
	return pieces
}

// forceSplit breaks s into parts of at most maxUnits UTF-16 units on rune
// boundaries.
func forceSplit(s string, maxUnits int) []string {
	var parts []string
	var b strings.Builder
	units := 0
	for _, r := range s {
		w := utf16.RuneLen(r)
		if w < 0 {
			w = 1
		}
		if units+w > maxUnits && units > 0 {
			parts = append(parts, b.String())
			b.Reset()
			units = 0
		}
		b.WriteRune(r)
		units += w
	}
	if b.Len() > 0 {
		parts = append(parts, b.String())
	}
	return parts
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		if w := utf16.RuneLen(r); w > 0 {
			n += w
		} else {
			n++
		}
	}
	return n
}
