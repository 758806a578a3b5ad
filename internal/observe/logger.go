// Package observe настраивает логирование и метрики приложения.
package observe

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SetupLogger настраивает глобальный zerolog логгер.
// Неизвестный уровень заменяется на info.
func SetupLogger(level string, console bool) {
	SetupLoggerTo(os.Stderr, level, console)
}

// SetupLoggerTo - то же, что SetupLogger, но с произвольным выводом.
func SetupLoggerTo(w io.Writer, level string, console bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs

	lvl := zerolog.InfoLevel
	if level != "" {
		if l, err := zerolog.ParseLevel(level); err == nil {
			lvl = l
		}
	}

	out := w
	if console {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	}
	log.Logger = zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}
