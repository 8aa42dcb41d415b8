package stream

import (
	"errors"
	"fmt"

	"github.com/danmuck/framectl/internal/decode"
	"github.com/danmuck/framectl/internal/frame"
)

var (
	ErrBufferOverrun = errors.New("stream: buffer overrun")
	ErrSessionClosed = errors.New("stream: session closed")
	// ErrInvalidConfiguration is frame.ErrInvalidConfiguration so callers
	// can test either name.
	ErrInvalidConfiguration = frame.ErrInvalidConfiguration
)

const (
	DefaultMaxBuffered    = 1 << 20
	DefaultReadBufferSize = 4096
)

// Malformed describes a frame dropped because its payload did not decode.
type Malformed struct {
	Session string
	Seq     uint64
	Raw     []byte
	Err     error
}

// Config fixes the framing and decoding of one session.
type Config struct {
	Name       string
	Bus        string
	Mode       frame.Mode
	Delimiters frame.Delimiters
	Method     decode.Method
	// MaxBuffered caps bytes held for an incomplete frame. Zero disables
	// the cap.
	MaxBuffered    int
	ReadBufferSize int
	// OnMalformed is called synchronously for every dropped frame.
	OnMalformed func(Malformed)
}

// DefaultConfig returns newline-terminated plain text framing.
func DefaultConfig() Config {
	return Config{
		Mode:           frame.EndDelimiterOnly,
		Delimiters:     frame.Delimiters{End: []byte("\n")},
		Method:         decode.PlainText,
		MaxBuffered:    DefaultMaxBuffered,
		ReadBufferSize: DefaultReadBufferSize,
	}
}

// WithDefaults fills zero-valued sizes.
func (c Config) WithDefaults() Config {
	if c.ReadBufferSize <= 0 {
		c.ReadBufferSize = DefaultReadBufferSize
	}
	return c
}

func (c Config) Validate() error {
	if err := c.Delimiters.Validate(c.Mode); err != nil {
		return err
	}
	switch c.Method {
	case decode.PlainText, decode.Hexadecimal, decode.Base64:
	default:
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, decode.ErrUnknownMethod)
	}
	if c.MaxBuffered < 0 {
		return fmt.Errorf("%w: negative max buffered %d", ErrInvalidConfiguration, c.MaxBuffered)
	}
	return nil
}
