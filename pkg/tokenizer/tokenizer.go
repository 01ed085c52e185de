// Package tokenizer estimates prompt sizes without calling a tokenizer model.
package tokenizer

import (
	"strings"
)

const (
	charsPerToken = 4
	tokensPerWord = 1.3
)

// EstimateTokens returns a rough token count for text, averaging a
// word-based and a character-based guess. CSV-like text with few spaces is
// dominated by the character estimate.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	byWords := int(float64(len(strings.Fields(text))) * tokensPerWord)
	byChars := len(text) / charsPerToken
	return (byWords + byChars) / 2
}

// TruncateToTokenBudget cuts text so that it fits roughly within budget
// tokens. The cut prefers the last line break, then the last space, in the
// second half of the allowance, and appends an ellipsis.
func TruncateToTokenBudget(text string, budget int) string {
	if budget <= 0 {
		return ""
	}
	if EstimateTokens(text) <= budget {
		return text
	}
	limit := budget * charsPerToken
	if limit >= len(text) {
		return text
	}

	cut := text[:limit]
	if i := strings.LastIndexByte(cut, '\n'); i > limit/2 {
		cut = cut[:i]
	} else if i := strings.LastIndexByte(cut, ' '); i > limit/2 {
		cut = cut[:i]
	}
	return cut + "..."
}

// FitSections joins sections with blank lines, stopping at the first one
// that would exceed budget. It returns the joined text and how many sections
// were included.
func FitSections(sections []string, budget int) (string, int) {
	if budget <= 0 || len(sections) == 0 {
		return "", 0
	}

	var b strings.Builder
	used, n := 0, 0
	for _, s := range sections {
		cost := EstimateTokens(s) + 1
		if used+cost > budget {
			break
		}
		if n > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(s)
		used += cost
		n++
	}
	return b.String(), n
}
