// Package usage estimates token counts for chat completions.
//
// The numbers are estimates for informational accounting, not the output of
// a real tokenizer. For a single text the estimate is
//
//	max(words, ceil(runes / 4))
//
// where words are whitespace-separated fields and runes are Unicode code
// points. Empty or whitespace-only text counts as zero. The estimate is a
// pure function of its input, so identical strings always yield identical
// counts.
package usage

import (
	"strings"
	"unicode/utf8"

	"github.com/rhuss/ollagate/pkg/api"
)

// runesPerToken is the average number of characters per token assumed by
// the estimate.
const runesPerToken = 4

// Estimate returns the estimated token count of text.
func Estimate(text string) int {
	if strings.TrimSpace(text) == "" {
		return 0
	}

	words := len(strings.Fields(text))
	chars := (utf8.RuneCountInString(text) + runesPerToken - 1) / runesPerToken

	return max(words, chars)
}

// Prompt returns the estimated prompt size of a conversation: the sum of
// the estimates of every message content.
func Prompt(messages []api.Message) int {
	total := 0
	for _, m := range messages {
		total += Estimate(m.Content)
	}
	return total
}

// For builds the Usage block of a completion from the request messages and
// the generated text.
func For(messages []api.Message, completion string) api.Usage {
	return api.NewUsage(Prompt(messages), Estimate(completion))
}
