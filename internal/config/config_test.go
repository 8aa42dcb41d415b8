package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/framectl/internal/decode"
	"github.com/danmuck/framectl/internal/frame"
	"github.com/danmuck/framectl/internal/sink"
	"github.com/danmuck/framectl/internal/stream"
	"github.com/danmuck/framectl/internal/transport"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "framectl.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestTemplateLoads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "framectl.toml")
	if err := WriteTemplate(path, false); err != nil {
		t.Fatalf("write template: %v", err)
	}
	if err := WriteTemplate(path, false); err == nil {
		t.Fatalf("expected refusal to overwrite")
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load template: %v", err)
	}
	if cfg.AdminAddr != "127.0.0.1:7070" || cfg.MaxBuffered != 1048576 {
		t.Fatalf("unexpected top level: %+v", cfg)
	}
	if len(cfg.Sessions) != 2 {
		t.Fatalf("unexpected sessions: %d", len(cfg.Sessions))
	}

	imu, err := cfg.Sessions[0].Resolve(cfg.MaxBuffered)
	if err != nil {
		t.Fatalf("resolve imu: %v", err)
	}
	if imu.Stream.Mode != frame.StartAndEndDelimiter || string(imu.Stream.Delimiters.Start) != "/*" || string(imu.Stream.Delimiters.End) != "*/" {
		t.Fatalf("unexpected imu framing: %+v", imu.Stream)
	}
	if imu.Transport.Bus != transport.BusSerial || imu.Transport.Serial.BaudRate != 115200 || imu.Transport.Serial.Port != "/dev/ttyUSB0" {
		t.Fatalf("unexpected imu transport: %+v", imu.Transport)
	}
	if imu.Operation != sink.OperationQuickPlot || !imu.Reconnect || imu.Output != OutputStdout {
		t.Fatalf("unexpected imu runtime: %+v", imu)
	}

	tel, err := cfg.Sessions[1].Resolve(cfg.MaxBuffered)
	if err != nil {
		t.Fatalf("resolve telemetry: %v", err)
	}
	if string(tel.Stream.Delimiters.End) != "\r\n" || tel.Stream.Method != decode.Base64 {
		t.Fatalf("unexpected telemetry stream: %+v", tel.Stream)
	}
	if tel.Transport.Network.Protocol != "udp" || tel.Transport.Network.ListenAddress != "0.0.0.0:7777" {
		t.Fatalf("unexpected telemetry transport: %+v", tel.Transport.Network)
	}
	if tel.Operation != sink.OperationJSON {
		t.Fatalf("unexpected telemetry operation: %v", tel.Operation)
	}
}

func TestLoadDefaultsAndOverrides(t *testing.T) {
	path := writeConfig(t, `
[[session]]
name = "plain"
bus = "tcp"
address = "127.0.0.1:9000"
dial_timeout = "750ms"
max_buffered = 0
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AdminAddr != "" || cfg.MaxBuffered != stream.DefaultMaxBuffered {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	r, err := cfg.Sessions[0].Resolve(cfg.MaxBuffered)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if r.Stream.Mode != frame.EndDelimiterOnly || string(r.Stream.Delimiters.End) != "\n" || r.Stream.Method != decode.PlainText {
		t.Fatalf("unexpected default framing: %+v", r.Stream)
	}
	if r.Stream.MaxBuffered != 0 {
		t.Fatalf("per-session max_buffered ignored: %d", r.Stream.MaxBuffered)
	}
	if r.Transport.Network.Protocol != "tcp" || r.Transport.Network.DialTimeout != 750*time.Millisecond {
		t.Fatalf("unexpected network: %+v", r.Transport.Network)
	}
}

func TestLoadRejectsInvalidConfiguration(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"no sessions", `admin_addr = ":7070"`, "at least one"},
		{"unknown key", "[[session]]\nname = \"a\"\nbus = \"tcp\"\naddress = \"x:1\"\nbaud = 9600\n", "unknown keys"},
		{"duplicate", "[[session]]\nname = \"a\"\nbus = \"tcp\"\naddress = \"x:1\"\n[[session]]\nname = \"a\"\nbus = \"tcp\"\naddress = \"x:2\"\n", "duplicate"},
		{"bad mode", "[[session]]\nname = \"a\"\nbus = \"tcp\"\naddress = \"x:1\"\nframe_detection = \"sliding\"\n", "unknown detection mode"},
		{"bad hex", "[[session]]\nname = \"a\"\nbus = \"tcp\"\naddress = \"x:1\"\nend_delimiter_hex = \"zz\"\n", "end_delimiter_hex"},
		{"serial without port", "[[session]]\nname = \"a\"\nbus = \"serial\"\n", "serial port"},
	}
	for _, tc := range cases {
		_, err := Load(writeConfig(t, tc.body))
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: expected error containing %q, got %v", tc.name, tc.want, err)
		}
	}
}

func TestResolveStartEndWithoutStartIsInvalidConfiguration(t *testing.T) {
	s := Session{Name: "a", Bus: "tcp", Address: "x:1", FrameDetection: "start_end_delimiter", EndDelimiter: ptr(";")}
	if _, err := s.Resolve(0); !errors.Is(err, frame.ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
	}
}

func ptr(s string) *string {
	return &s
}

func TestExplicitEmptyEndDelimiterIsInvalidConfiguration(t *testing.T) {
	cases := []string{
		"end_delimiter = \"\"\n",
		"end_delimiter_hex = \"\"\n",
	}
	for _, keys := range cases {
		body := "[[session]]\nname = \"a\"\nbus = \"tcp\"\naddress = \"x:1\"\nframe_detection = \"end_delimiter\"\n" + keys
		_, err := Load(writeConfig(t, body))
		if !errors.Is(err, frame.ErrInvalidConfiguration) {
			t.Fatalf("%q: expected ErrInvalidConfiguration, got %v", keys, err)
		}
	}

	// Absent keys still default to a newline.
	s := Session{Name: "a", Bus: "tcp", Address: "x:1", FrameDetection: "end_delimiter"}
	r, err := s.Resolve(0)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if string(r.Stream.Delimiters.End) != "\n" {
		t.Fatalf("default end delimiter: %q", r.Stream.Delimiters.End)
	}

	s.EndDelimiter = ptr("")
	if _, err := s.Resolve(0); !errors.Is(err, frame.ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
	}
}
