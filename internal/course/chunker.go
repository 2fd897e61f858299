package course

import (
	"strings"
	"unicode"
)

// ChunkerConfig controls the splitting policy.
type ChunkerConfig struct {
	// Size is the target maximum chunk size in runes.
	Size int

	// Overlap is the number of runes repeated from the tail of the previous
	// chunk at the start of each subsequent chunk, preserving context across
	// chunk boundaries.
	Overlap int

	// MinChunk is the threshold below which a trailing fragment is merged
	// into the previous chunk instead of emitted on its own.
	MinChunk int
}

// Chunker splits lesson text into overlapping chunks, preferring to break at
// sentence and paragraph boundaries. Chunker is stateless and safe for
// concurrent use.
type Chunker struct {
	size     int
	overlap  int
	minChunk int
}

// NewChunker creates a Chunker. Zero or negative config fields fall back to
// defaults (size 800, overlap 100, min chunk 120); overlap is clamped below
// size so every chunk always contains new text.
func NewChunker(cfg ChunkerConfig) *Chunker {
	size := cfg.Size
	if size <= 0 {
		size = 800
	}
	overlap := cfg.Overlap
	if overlap < 0 {
		overlap = 100
	}
	if overlap >= size {
		overlap = size / 4
	}
	minChunk := cfg.MinChunk
	if minChunk <= 0 {
		minChunk = 120
	}
	return &Chunker{size: size, overlap: overlap, minChunk: minChunk}
}

// Split splits text into chunks of at most the configured size. Each chunk
// after the first begins with the last Overlap runes of its predecessor
// whenever that prefix leaves room for new text. A final fragment
// contributing fewer than MinChunk new runes is merged into the previous
// chunk instead of emitted alone, so only the last chunk may exceed the size
// bound, and only by that short tail. Text at or below the configured size
// yields exactly one chunk; empty text yields none.
func (c *Chunker) Split(text string) []string {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []string
	var cur []rune
	newRunes := 0 // runes in cur beyond the overlap prefix

	flush := func() {
		chunks = append(chunks, string(cur))
		tail := cur
		if len(tail) > c.overlap {
			tail = tail[len(tail)-c.overlap:]
		}
		cur = append([]rune(nil), tail...)
		newRunes = 0
	}

	for _, sent := range sentences {
		for _, piece := range splitLong(sent, c.size) {
			runes := []rune(piece)
			// Flush only when the current chunk carries new text; a bare
			// overlap prefix must never be emitted as its own chunk.
			if newRunes > 0 && len(cur)+1+len(runes) > c.size {
				flush()
			}
			// An overlap prefix that leaves no room for the piece gives way,
			// keeping every flushed chunk within the size bound.
			if newRunes == 0 && len(cur)+1+len(runes) > c.size {
				cur = cur[:0]
			}
			if len(cur) > 0 {
				cur = append(cur, ' ')
			}
			cur = append(cur, runes...)
			newRunes += len(runes)
		}
	}

	// Trailing fragment: merge into the previous chunk when it is too short
	// to stand alone.
	if newRunes > 0 || len(chunks) == 0 {
		if len(chunks) > 0 && newRunes < c.minChunk {
			overlapLen := len(cur) - newRunes
			chunks[len(chunks)-1] += " " + string(cur[overlapLen:])
		} else {
			chunks = append(chunks, string(cur))
		}
	}

	return chunks
}

// ChunkCourse splits every lesson of the course and tags each chunk with its
// (CourseTitle, Lesson, Index) identity. The sequence is finite and
// restartable: calling it again reproduces the same chunks. Lessons without
// content yield no chunks.
func (c *Chunker) ChunkCourse(course *Course) []Chunk {
	var chunks []Chunk
	for _, lesson := range course.Lessons {
		for i, part := range c.Split(lesson.Content) {
			chunks = append(chunks, Chunk{
				CourseTitle: course.Title,
				Lesson:      lesson.Number,
				Index:       i,
				Content:     part,
			})
		}
	}
	return chunks
}

// splitSentences breaks text into sentences with normalized whitespace.
// Sentence terminators (., !, ?) followed by whitespace and blank-line
// paragraph breaks both end a sentence.
func splitSentences(text string) []string {
	var sentences []string
	var cur strings.Builder

	emit := func() {
		s := strings.Join(strings.Fields(cur.String()), " ")
		if s != "" {
			sentences = append(sentences, s)
		}
		cur.Reset()
	}

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]

		// Paragraph break ends the current sentence.
		if r == '\n' && i+1 < len(runes) && runes[i+1] == '\n' {
			emit()
			continue
		}

		cur.WriteRune(r)

		if (r == '.' || r == '!' || r == '?') &&
			(i+1 == len(runes) || unicode.IsSpace(runes[i+1])) {
			emit()
		}
	}
	emit()

	return sentences
}

// splitLong splits a sentence longer than max into word-boundary pieces of at
// most max runes. Words longer than max are hard-cut.
func splitLong(sent string, max int) []string {
	if len([]rune(sent)) <= max {
		return []string{sent}
	}

	var pieces []string
	var cur []rune
	for _, word := range strings.Fields(sent) {
		w := []rune(word)
		for len(w) > max {
			if len(cur) > 0 {
				pieces = append(pieces, string(cur))
				cur = nil
			}
			pieces = append(pieces, string(w[:max]))
			w = w[max:]
		}
		if len(cur) > 0 && len(cur)+1+len(w) > max {
			pieces = append(pieces, string(cur))
			cur = nil
		}
		if len(cur) > 0 {
			cur = append(cur, ' ')
		}
		cur = append(cur, w...)
	}
	if len(cur) > 0 {
		pieces = append(pieces, string(cur))
	}
	return pieces
}
