package utils

import "strings"

// SplitText splits a long string into chunks of approximately 'chunkSize'
// characters with 'overlap' characters repeated across boundaries. Cuts
// prefer paragraph, line and sentence breaks near the chunk end so a
// boundary rarely lands mid-sentence.
func SplitText(text string, chunkSize int, overlap int) []string {
	if text == "" {
		return nil
	}
	runes := []rune(text)
	totalLen := len(runes)
	if totalLen <= chunkSize {
		return []string{text}
	}

	step := chunkSize - overlap
	if step <= 0 {
		step = chunkSize // fallback if overlap >= chunkSize
	}

	var chunks []string
	for start := 0; start < totalLen; {
		end := start + chunkSize
		if end >= totalLen {
			chunks = append(chunks, string(runes[start:totalLen]))
			break
		}

		cut := breakPoint(runes, start, end)
		chunks = append(chunks, string(runes[start:cut]))

		next := cut - overlap
		if next <= start {
			next = start + step
		}
		start = next
	}

	return chunks
}

// breakPoint scans backwards from end for a natural boundary, checking
// separators in decreasing strength. The search window is the final
// quarter of the chunk; below that a mid-word cut loses less context
// than an undersized chunk.
func breakPoint(runes []rune, start, end int) int {
	window := (end - start) / 4
	floor := end - window

	for _, sep := range []string{"\n\n", "\n", ". ", " "} {
		sepRunes := []rune(sep)
		for i := end - len(sepRunes); i >= floor; i-- {
			if string(runes[i:i+len(sepRunes)]) == sep {
				return i + len(sepRunes)
			}
		}
	}
	return end
}

// NormalizeWhitespace collapses runs of blank lines and trims trailing
// spaces, keeping chunk content compact before embedding.
func NormalizeWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	blank := 0
	for _, line := range lines {
		trimmed := strings.TrimRight(line, " \t")
		if trimmed == "" {
			blank++
			if blank > 1 {
				continue
			}
		} else {
			blank = 0
		}
		out = append(out, trimmed)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
