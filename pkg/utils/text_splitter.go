package utils

import "strings"

// SplitText breaks text into chunks of at most chunkSize runes, with
// 'overlap' runes repeated between consecutive chunks so retrieval does
// not lose context at chunk boundaries. Whitespace-only chunks are dropped.
func SplitText(text string, chunkSize int, overlap int) []string {
	runes := []rune(text)
	if len(runes) <= chunkSize {
		if strings.TrimSpace(text) == "" {
			return nil
		}
		return []string{text}
	}

	step := chunkSize - overlap
	if step <= 0 {
		// Degenerate overlap would loop forever; fall back to disjoint chunks.
		step = chunkSize
	}

	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunk := string(runes[start:end])
		if strings.TrimSpace(chunk) != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(runes) {
			break
		}
	}

	return chunks
}
