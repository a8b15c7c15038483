package stream

import (
	"iter"
	"strings"
)

// maxLineSize matches the largest line a bufio.Scanner would accept here.
const maxLineSize = 1 << 20

// Framer splits decoded text into newline-terminated lines, carrying an
// unterminated tail over to the next fragment.
type Framer struct {
	residual string
	dropped  int
}

func NewFramer() *Framer {
	return &Framer{}
}

// Lines appends text to the residual and returns the complete lines it now
// contains, in order and without their terminators. A trailing "\r" is
// removed from each line. Lines are taken from the buffer as they are
// yielded, so a partially consumed sequence leaves the rest buffered.
// Unterminated text beyond maxLineSize is discarded and counted by Dropped.
func (f *Framer) Lines(text string) iter.Seq[string] {
	f.residual += text
	if strings.IndexByte(f.residual, '\n') < 0 && len(f.residual) > maxLineSize {
		f.residual = ""
		f.dropped++
	}

	return func(yield func(string) bool) {
		for {
			line, rest, ok := strings.Cut(f.residual, "\n")
			if !ok {
				return
			}
			f.residual = rest
			if !yield(strings.TrimSuffix(line, "\r")) {
				return
			}
		}
	}
}

// Residual returns the buffered text that has not been terminated yet.
func (f *Framer) Residual() string {
	return f.residual
}

// Dropped reports how many oversized partial lines were discarded.
func (f *Framer) Dropped() int {
	return f.dropped
}

// Reset discards the residual. An unterminated final line is never emitted.
func (f *Framer) Reset() {
	f.residual = ""
}
