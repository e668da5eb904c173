package text

import (
	"strings"
)

// Split breaks text into chunks of at most maxRunes characters.
//
// Paragraphs (separated by blank lines) are packed greedily into a chunk while
// the result stays within maxRunes. A paragraph that alone exceeds maxRunes is
// cut on line boundaries first and then, if a single line is still too long,
// on rune boundaries. Empty or whitespace-only input yields nil.
func Split(text string, maxRunes int) []string {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
	if text == "" {
		return nil
	}
	if maxRunes <= 0 {
		return []string{text}
	}

	var (
		out     []string
		current strings.Builder
		size    int
	)

	flush := func() {
		if content := strings.TrimSpace(current.String()); content != "" {
			out = append(out, content)
		}
		current.Reset()
		size = 0
	}

	add := func(piece, sep string) {
		n := CountRunes(piece)
		if size > 0 && size+CountRunes(sep)+n > maxRunes {
			flush()
		}
		if size > 0 {
			current.WriteString(sep)
			size += CountRunes(sep)
		}
		current.WriteString(piece)
		size += n
	}

	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if CountRunes(para) <= maxRunes {
			add(para, "\n\n")
			continue
		}

		flush()
		for _, line := range strings.Split(para, "\n") {
			for _, piece := range hardWrap(line, maxRunes) {
				add(piece, "\n")
			}
		}
		flush()
	}
	flush()

	return out
}

// hardWrap cuts s into pieces of at most n runes.
func hardWrap(s string, n int) []string {
	runes := []rune(s)
	if len(runes) <= n {
		return []string{s}
	}
	pieces := make([]string, 0, len(runes)/n+1)
	for len(runes) > n {
		pieces = append(pieces, string(runes[:n]))
		runes = runes[n:]
	}
	if len(runes) > 0 {
		pieces = append(pieces, string(runes))
	}
	return pieces
}
