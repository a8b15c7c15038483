package stream

import (
	"context"
	"io"
	"iter"

	"github.com/rs/zerolog"
)

// DefaultChunkSize is the read size used when pumping a response body.
const DefaultChunkSize = 4096

// Parser turns the chunks of one response body into actions. It keeps the
// decoder and line state for that body, so use a new Parser per response.
type Parser struct {
	decoder *Decoder
	framer  *Framer
	logger  zerolog.Logger
	failed  bool
}

func NewParser(logger zerolog.Logger) *Parser {
	return &Parser{
		decoder: NewDecoder(),
		framer:  NewFramer(),
		logger:  logger.With().Str("component", "stream.parser").Logger(),
	}
}

// Feed runs one chunk through the pipeline and yields the append and fail
// actions it completes, in arrival order. Once a fail action has been
// yielded the parser is done and yields nothing more.
func (p *Parser) Feed(chunk []byte) iter.Seq[Action] {
	if p.failed {
		return func(func(Action) bool) {}
	}

	dropped := p.framer.Dropped()
	lines := p.framer.Lines(p.decoder.Decode(chunk))
	if p.framer.Dropped() != dropped {
		p.logger.Warn().Int("limit", maxLineSize).Msg("discarded oversized partial line")
	}

	return func(yield func(Action) bool) {
		if p.failed {
			return
		}
		for line := range lines {
			payload, ok := Payload(line)
			if !ok {
				continue
			}
			msg, err := DecodeMessage(payload)
			if err != nil {
				p.logger.Debug().Err(err).Str("line", line).Msg("skipping malformed event")
				continue
			}

			action := Interpret(msg)
			switch action.Kind {
			case ActionIgnore:
				if msg.Type != TypeSummaryChunk {
					p.logger.Debug().Str("type", msg.Type).Msg("ignoring event")
				}
				continue
			case ActionFail:
				p.failed = true
				p.framer.Reset()
				yield(action)
				return
			}
			if !yield(action) {
				return
			}
		}
	}
}

// Close ends the stream. An unterminated trailing line is discarded.
func (p *Parser) Close() {
	tail := p.framer.Residual() + p.decoder.Flush()
	if tail != "" && !p.failed {
		p.logger.Debug().Str("residual", tail).Msg("discarding unterminated line")
	}
	p.framer.Reset()
}

// Pump reads body in chunks of up to size bytes and delivers them in order.
// The final chunk carries the read error, io.EOF included. The channel is
// closed after that, or as soon as ctx is done.
func Pump(ctx context.Context, body io.Reader, size int) <-chan Chunk {
	if size <= 0 {
		size = DefaultChunkSize
	}
	chunks := make(chan Chunk)

	go func() {
		defer close(chunks)
		done := ctx.Done()

		for {
			buf := make([]byte, size)
			n, err := body.Read(buf)
			if n > 0 {
				select {
				case <-done:
					return
				case chunks <- Chunk{Data: buf[:n]}:
				}
			}
			if err != nil {
				select {
				case <-done:
				case chunks <- Chunk{Err: err}:
				}
				return
			}
		}
	}()

	return chunks
}
