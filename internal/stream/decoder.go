package stream

import (
	"errors"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Decoder turns body fragments into text. Malformed UTF-8 is replaced with
// U+FFFD instead of failing, and a multi-byte character split across two
// fragments is held back until the rest of it arrives.
type Decoder struct {
	t       transform.Transformer
	pending []byte
}

func NewDecoder() *Decoder {
	return &Decoder{t: unicode.UTF8.NewDecoder()}
}

// Decode returns the text for p, minus any incomplete trailing character.
func (d *Decoder) Decode(p []byte) string {
	return d.decode(p, false)
}

// Flush decodes whatever is still pending, lossily.
func (d *Decoder) Flush() string {
	return d.decode(nil, true)
}

func (d *Decoder) decode(p []byte, atEOF bool) string {
	src := append(d.pending, p...)
	d.pending = nil
	if len(src) == 0 {
		return ""
	}

	// Each invalid byte expands to a three byte replacement character.
	dst := make([]byte, 3*len(src)+4)
	out := make([]byte, 0, len(src))
	for {
		nDst, nSrc, err := d.t.Transform(dst, src, atEOF)
		out = append(out, dst[:nDst]...)
		src = src[nSrc:]

		switch {
		case err == nil:
			return string(out)
		case errors.Is(err, transform.ErrShortDst):
			if nDst == 0 && nSrc == 0 {
				dst = make([]byte, 2*len(dst))
			}
		case errors.Is(err, transform.ErrShortSrc):
			d.pending = append([]byte(nil), src...)
			return string(out)
		default:
			// The UTF-8 decoder never reports other errors, but keep the
			// bytes visible rather than losing them.
			return string(append(out, src...))
		}
	}
}
