package summarize

import (
	"strings"

	"ai-notebook/internal/utils/text"
)

// chunkSeparator joins chunks packed into one unit and partial results fed to a merge.
const chunkSeparator = "\n\n"

// PreMerge packs consecutive chunks into units of work.
//
// A chunk is appended to the current unit while the unit's length plus the
// chunk's length stays strictly below maxSize; the separator being added is
// not counted. Otherwise the unit is flushed and the chunk starts a new one,
// so a chunk longer than maxSize forms a unit on its own. Lengths are in runes.
// Blank chunks are skipped.
func PreMerge(chunks []string, maxSize int) []string {
	var (
		units   []string
		buf     strings.Builder
		bufLen  int
		hasData bool
	)

	for _, chunk := range chunks {
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		n := text.CountRunes(chunk)

		if hasData && bufLen+n < maxSize {
			buf.WriteString(chunkSeparator)
			buf.WriteString(chunk)
			bufLen += len(chunkSeparator) + n
			continue
		}

		if hasData {
			units = append(units, buf.String())
			buf.Reset()
		}
		buf.WriteString(chunk)
		bufLen = n
		hasData = true
	}

	if hasData {
		units = append(units, buf.String())
	}
	return units
}
