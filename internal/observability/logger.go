package observability

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger creates a console logger writing to w at the named level
// (trace, debug, info, warn, error). An empty level means info.
func NewLogger(w io.Writer, level string, component string) (zerolog.Logger, error) {
	lvl := zerolog.InfoLevel
	if level != "" {
		parsed, err := zerolog.ParseLevel(level)
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("parse log level %q: %w", level, err)
		}
		lvl = parsed
	}

	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: true}
	return zerolog.New(out).Level(lvl).With().Timestamp().Str("component", component).Logger(), nil
}
