package ingest

import "strings"

// Splitter breaks long text into overlapping chunks for embedding. It splits
// on the coarsest separator that produces pieces under the chunk size,
// recursing to finer separators only when a piece is still too large.
type Splitter struct {
	ChunkSize int
	Overlap   int

	separators []string
}

// NewSplitter creates a Splitter. Non-positive chunkSize or overlap fall back
// to 1000 and 200 characters. Overlap is clamped below chunkSize.
func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if overlap < 0 {
		overlap = 200
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 5
	}
	return &Splitter{
		ChunkSize:  chunkSize,
		Overlap:    overlap,
		separators: []string{"\n\n", "\n", ". ", " ", ""},
	}
}

// Split breaks text into chunks of at most ChunkSize characters, keeping
// Overlap characters of context between consecutive chunks. Whitespace-only
// chunks are dropped.
func (s *Splitter) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= s.ChunkSize {
		return []string{text}
	}

	pieces := s.split(text, 0)
	return s.merge(pieces)
}

// split recursively divides text using separator depth sep until every piece
// fits within ChunkSize.
func (s *Splitter) split(text string, sep int) []string {
	if len(text) <= s.ChunkSize {
		return []string{text}
	}
	if sep >= len(s.separators) {
		return hardSplit(text, s.ChunkSize)
	}

	separator := s.separators[sep]
	if separator == "" {
		return hardSplit(text, s.ChunkSize)
	}

	var out []string
	for _, part := range strings.SplitAfter(text, separator) {
		if len(part) > s.ChunkSize {
			out = append(out, s.split(part, sep+1)...)
		} else if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// merge greedily packs small pieces into chunks up to ChunkSize, carrying
// the last Overlap characters into the next chunk.
func (s *Splitter) merge(pieces []string) []string {
	var chunks []string
	var current strings.Builder

	flush := func() {
		chunk := strings.TrimSpace(current.String())
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		tail := overlapTail(current.String(), s.Overlap)
		current.Reset()
		current.WriteString(tail)
	}

	for _, piece := range pieces {
		if current.Len()+len(piece) > s.ChunkSize && current.Len() > 0 {
			flush()
		}
		current.WriteString(piece)
	}

	final := strings.TrimSpace(current.String())
	if final != "" && (len(chunks) == 0 || !strings.HasSuffix(chunks[len(chunks)-1], final)) {
		chunks = append(chunks, final)
	}
	return chunks
}

// overlapTail returns the last n characters of text, extended left to the
// nearest word boundary so overlaps do not start mid-word.
func overlapTail(text string, n int) string {
	if n <= 0 || text == "" {
		return ""
	}
	if len(text) <= n {
		return text
	}
	tail := text[len(text)-n:]
	if idx := strings.IndexByte(tail, ' '); idx >= 0 && idx < len(tail)-1 {
		tail = tail[idx+1:]
	}
	return tail
}

// hardSplit cuts text into size-length pieces with no separator awareness.
// Last resort for pathological input with no whitespace at all.
func hardSplit(text string, size int) []string {
	var out []string
	for len(text) > size {
		out = append(out, text[:size])
		text = text[size:]
	}
	if text != "" {
		out = append(out, text)
	}
	return out
}
