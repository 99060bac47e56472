package script

import "strings"

// DefaultChunkSize is the target chunk size in characters.
const DefaultChunkSize = 8000

// SplitText cuts raw narrative text into ordered chunks of roughly
// maxChars characters each, breaking only on paragraph boundaries so no
// sentence is split across chunks. A single paragraph longer than maxChars
// becomes its own chunk.
func SplitText(text string, maxChars int) []Chunk {
	if maxChars <= 0 {
		maxChars = DefaultChunkSize
	}

	var paragraphs []string
	for _, p := range strings.Split(text, "\n\n") {
		p = strings.TrimSpace(p)
		if p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	if len(paragraphs) == 0 {
		return nil
	}

	var (
		chunks  []Chunk
		current strings.Builder
	)
	flush := func() {
		if current.Len() == 0 {
			return
		}
		chunks = append(chunks, Chunk{Index: len(chunks), Text: current.String()})
		current.Reset()
	}

	for _, p := range paragraphs {
		if current.Len() > 0 && current.Len()+len(p)+2 > maxChars {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(p)
	}
	flush()
	return chunks
}
