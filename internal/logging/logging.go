package logging

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New returns a console logger writing to w at the named level. Unknown or
// empty levels fall back to warn so diagnostics stay out of the summary.
func New(w io.Writer, level string, color bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.WarnLevel
	}

	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen, NoColor: !color}
	return zerolog.New(out).Level(lvl).With().Timestamp().Str("service", "smart-summary").Logger()
}
