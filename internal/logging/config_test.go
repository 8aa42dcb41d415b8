package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		raw  string
		want zerolog.Level
		ok   bool
	}{
		{"", zerolog.InfoLevel, false},
		{"debug", zerolog.DebugLevel, true},
		{" WARNING ", zerolog.WarnLevel, true},
		{"diagnostics", zerolog.TraceLevel, true},
		{"off", zerolog.Disabled, true},
		{"loud", zerolog.InfoLevel, false},
	}
	for _, tc := range cases {
		got, ok := parseLevel(tc.raw)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("parseLevel(%q) got=%v,%v want=%v,%v", tc.raw, got, ok, tc.want, tc.ok)
		}
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogTimestamp, "false")
	t.Setenv(EnvLogNoColor, "1")
	t.Setenv(EnvLogBypass, "not-a-bool")

	cfg := defaultConfig(ProfileRuntime)
	applyEnvOverrides(&cfg)
	if cfg.Level != zerolog.ErrorLevel {
		t.Fatalf("level got=%v", cfg.Level)
	}
	if cfg.Timestamp {
		t.Fatalf("timestamp override ignored")
	}
	if !cfg.NoColor {
		t.Fatalf("nocolor override ignored")
	}
	if cfg.Bypass {
		t.Fatalf("invalid bypass value should be ignored")
	}
}

func TestBuildHonoursLevelAndBypass(t *testing.T) {
	var buf bytes.Buffer
	logger := build(Config{Level: zerolog.WarnLevel, NoColor: true, Out: &buf})
	logger.Info().Msg("hidden")
	logger.Warn().Str("session", "s1").Msg("visible")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "visible") || !strings.Contains(out, "session=s1") {
		t.Fatalf("unexpected output: %q", out)
	}

	buf.Reset()
	nop := build(Config{Level: zerolog.DebugLevel, Bypass: true, Out: &buf})
	nop.Error().Msg("dropped")
	if buf.Len() != 0 {
		t.Fatalf("bypass still wrote: %q", buf.String())
	}
}
