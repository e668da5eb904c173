package completion

import (
	"crypto/md5" // #nosec G501 -- content addressing only, not a security boundary
	"encoding/hex"
	"strconv"
	"strings"

	"ai-notebook/internal/domain/entity"
)

// Fingerprint derives the cache key of a request.
//
// The digest covers prompt, max_tokens, temperature and provider as
//
//	<prompt>|{"max_tokens": <n|null>, "temperature": <f|null>}|<provider>
//
// Keys are sorted and the separators are fixed, so the same request always
// maps to the same lowercase hex key across processes. Unset parameters are
// encoded as null, so an explicit default and an unset value are distinct keys.
func Fingerprint(req entity.CompletionRequest) string {
	var b strings.Builder
	b.WriteString(req.Prompt)
	b.WriteString(`|{"max_tokens": `)
	if req.MaxTokens != nil {
		b.WriteString(strconv.Itoa(*req.MaxTokens))
	} else {
		b.WriteString("null")
	}
	b.WriteString(`, "temperature": `)
	if req.Temperature != nil {
		b.WriteString(formatFloat(*req.Temperature))
	} else {
		b.WriteString("null")
	}
	b.WriteString("}|")
	b.WriteString(string(req.Provider))

	sum := md5.Sum([]byte(b.String())) // #nosec G401
	return hex.EncodeToString(sum[:])
}

// formatFloat renders v with the shortest exact digits; integral values keep
// a trailing ".0".
func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eIN") {
		s += ".0"
	}
	return s
}
