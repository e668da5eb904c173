// Package text provides rune-aware helpers shared by the completion clients
// and the summarization pipeline.
package text

// CountRunes counts the number of Unicode characters (runes) in the given text.
// Chunk sizes are measured with this function, so multi-byte scripts and emoji
// count as one character each.
//
// Examples:
//
//	CountRunes("hello")      // returns 5
//	CountRunes("こんにちは")      // returns 5
//	CountRunes("hello世界")    // returns 7
//	CountRunes("Hello👋")     // returns 6
//	CountRunes("")           // returns 0
func CountRunes(text string) int {
	return len([]rune(text))
}
