package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/framectl/internal/stream"
)

const DefaultAdminAddr = ""

// File is the framectl config file.
type File struct {
	AdminAddr   string    `toml:"admin_addr"`
	MaxBuffered int       `toml:"max_buffered"`
	Sessions    []Session `toml:"session"`
}

// Session is one [[session]] table.
type Session struct {
	Name           string `toml:"name"`
	Bus            string `toml:"bus"`
	FrameDetection string `toml:"frame_detection"`
	Decoder        string `toml:"decoder"`
	Operation      string `toml:"operation"`
	Output         string `toml:"output"`
	MaxBuffered    *int   `toml:"max_buffered"`

	// Delimiters are pointers so an explicitly empty value is told apart
	// from an absent key.
	StartDelimiter    *string `toml:"start_delimiter"`
	EndDelimiter      *string `toml:"end_delimiter"`
	StartDelimiterHex *string `toml:"start_delimiter_hex"`
	EndDelimiterHex   *string `toml:"end_delimiter_hex"`

	Port     string `toml:"port"`
	BaudRate int    `toml:"baud_rate"`
	DataBits int    `toml:"data_bits"`
	Parity   string `toml:"parity"`
	StopBits string `toml:"stop_bits"`

	Protocol      string `toml:"protocol"`
	Address       string `toml:"address"`
	ListenAddress string `toml:"listen_address"`
	DialTimeout   string `toml:"dial_timeout"`

	Reconnect            bool `toml:"reconnect"`
	ReconnectMaxAttempts int  `toml:"reconnect_max_attempts"`
}

func Default() File {
	return File{
		AdminAddr:   DefaultAdminAddr,
		MaxBuffered: stream.DefaultMaxBuffered,
	}
}

// Load reads path over Default(). Unknown keys are rejected so typos do not
// silently fall back to defaults.
func Load(path string) (File, error) {
	cfg := Default()
	var raw File
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return File{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return File{}, fmt.Errorf("config parse failed (%s): unknown keys %s", path, strings.Join(keys, ", "))
	}

	if meta.IsDefined("admin_addr") {
		cfg.AdminAddr = strings.TrimSpace(raw.AdminAddr)
	}
	if meta.IsDefined("max_buffered") {
		cfg.MaxBuffered = raw.MaxBuffered
	}
	cfg.Sessions = raw.Sessions

	if err := Validate(cfg); err != nil {
		return File{}, fmt.Errorf("config invalid (%s): %w", path, err)
	}
	return cfg, nil
}

func Validate(cfg File) error {
	if cfg.MaxBuffered < 0 {
		return fmt.Errorf("max_buffered must not be negative")
	}
	if len(cfg.Sessions) == 0 {
		return fmt.Errorf("at least one [[session]] is required")
	}
	seen := make(map[string]struct{}, len(cfg.Sessions))
	for i, s := range cfg.Sessions {
		name := strings.TrimSpace(s.Name)
		if name == "" {
			return fmt.Errorf("session[%d] invalid: name is required", i)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("session[%d] invalid: duplicate name %q", i, name)
		}
		seen[name] = struct{}{}
		if _, err := s.Resolve(cfg.MaxBuffered); err != nil {
			return fmt.Errorf("session[%d] %q invalid: %w", i, name, err)
		}
	}
	return nil
}
