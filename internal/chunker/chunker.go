// Package chunker splits raw text into token-budgeted pieces suitable for
// embedding. Chunking is deterministic: the same input always produces the
// same chunks in the same order, which is what makes content-addressed
// diffing of chunk hashes possible.
package chunker

import (
	"strings"
	"unicode/utf8"
)

// DefaultMaxTokens is the chunk budget used when none is configured.
// Comfortably under the context limits of common embedding models.
const DefaultMaxTokens = 6000

// Chunker splits text into chunks under a token budget.
type Chunker struct {
	maxTokens int
}

// New creates a Chunker with the given token budget. A non-positive budget
// falls back to DefaultMaxTokens.
func New(maxTokens int) *Chunker {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &Chunker{maxTokens: maxTokens}
}

// Chunk splits text into pieces that each fit the token budget. Sentences
// are accumulated greedily; a single sentence over the budget is split
// again at word granularity. Chunks are trimmed of surrounding whitespace,
// and joining them back with single spaces reconstructs a
// whitespace-normalized form of the input. Blank input yields nil.
func (c *Chunker) Chunk(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var chunks []string
	var buf strings.Builder
	bufTokens := 0

	flush := func() {
		chunk := strings.TrimSpace(buf.String())
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		buf.Reset()
		bufTokens = 0
	}

	for _, sentence := range splitSentences(text) {
		tokens := estimateTokens(sentence)
		if tokens > c.maxTokens {
			flush()
			chunks = append(chunks, c.packWords(sentence)...)
			continue
		}
		if bufTokens+tokens > c.maxTokens {
			flush()
		}
		if buf.Len() > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(sentence)
		bufTokens += tokens
	}
	flush()

	return chunks
}

// packWords greedily accumulates whitespace-separated words of an oversized
// sentence into budget-sized chunks.
func (c *Chunker) packWords(sentence string) []string {
	var chunks []string
	var buf strings.Builder
	bufTokens := 0

	for _, word := range strings.Fields(sentence) {
		tokens := estimateTokens(word)
		if buf.Len() > 0 && bufTokens+tokens > c.maxTokens {
			chunks = append(chunks, buf.String())
			buf.Reset()
			bufTokens = 0
		}
		if buf.Len() > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(word)
		bufTokens += tokens
	}
	if buf.Len() > 0 {
		chunks = append(chunks, buf.String())
	}

	return chunks
}

// splitSentences breaks text at sentence-ending punctuation (. ? !)
// followed by whitespace. Runs of punctuation stay attached to their
// sentence. Text with no sentence boundary comes back as one sentence.
func splitSentences(text string) []string {
	var sentences []string
	start := 0

	for i := 0; i < len(text); i++ {
		ch := text[i]
		if ch != '.' && ch != '?' && ch != '!' {
			continue
		}
		// Swallow the full punctuation run ("?!", "...").
		end := i + 1
		for end < len(text) {
			c := text[end]
			if c != '.' && c != '?' && c != '!' {
				break
			}
			end++
		}
		if end < len(text) && !isSpaceByte(text[end]) {
			// Mid-token punctuation like "1.2" is not a boundary.
			i = end - 1
			continue
		}
		if s := strings.TrimSpace(text[start:end]); s != "" {
			sentences = append(sentences, s)
		}
		start = end
		i = end - 1
	}

	if s := strings.TrimSpace(text[start:]); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}

// estimateTokens approximates a token count as ceil(runes/3). A cheap
// proxy for a real tokenizer; the budget only needs to be roughly right.
func estimateTokens(s string) int {
	return (utf8.RuneCountInString(s) + 2) / 3
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
