package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"DEBUG", zerolog.DebugLevel},
		{" info ", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"off", zerolog.Disabled},
		{"", zerolog.WarnLevel},
		{"loud", zerolog.WarnLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in, zerolog.WarnLevel); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewHonoursLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Level: "warn", Out: &buf})

	log.Info().Msg("hidden")
	log.Warn().Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message should be filtered, got: %s", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("warn message missing, got: %s", out)
	}
}

func TestNewFromEnvironment(t *testing.T) {
	t.Setenv(EnvLevel, "debug")

	var buf bytes.Buffer
	log := New(Options{Out: &buf})
	log.Debug().Msg("debug line")

	if !strings.Contains(buf.String(), "debug line") {
		t.Errorf("LOG_LEVEL=debug should enable debug output, got: %s", buf.String())
	}
}

func TestQuietWinsOverVerbose(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Verbose: true, Quiet: true, Out: &buf})

	log.Warn().Msg("warn line")
	log.Error().Msg("error line")

	if strings.Contains(buf.String(), "warn line") {
		t.Errorf("quiet mode should drop warnings, got: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "error line") {
		t.Errorf("quiet mode should keep errors, got: %s", buf.String())
	}
}
