package logger

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestGet_ReturnsSameLogger(t *testing.T) {
	a := Get()
	b := Configure(zerolog.DebugLevel)

	if a != b {
		t.Error("Expected the shared logger to be returned")
	}
	if zerolog.TimeFieldFormat != timeFormat {
		t.Errorf("Expected time format %s, got %s", timeFormat, zerolog.TimeFieldFormat)
	}
}

func TestNop(t *testing.T) {
	l := Nop()
	if l.GetLevel() != zerolog.Disabled {
		t.Errorf("Expected disabled logger, got level %s", l.GetLevel())
	}
	l.Info().Msg("discarded")
}
