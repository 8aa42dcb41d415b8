package frame

import (
	"bytes"
	"fmt"
	"strings"
)

// Mode selects how frame boundaries are found in a stream.
type Mode int

const (
	EndDelimiterOnly Mode = iota
	StartAndEndDelimiter
	NoDelimiters
)

func (m Mode) String() string {
	switch m {
	case EndDelimiterOnly:
		return "end_delimiter"
	case StartAndEndDelimiter:
		return "start_end_delimiter"
	case NoDelimiters:
		return "no_delimiters"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode accepts the config spelling of a Mode. Empty input selects
// EndDelimiterOnly.
func ParseMode(raw string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "end_delimiter", "end":
		return EndDelimiterOnly, nil
	case "start_end_delimiter", "start_end":
		return StartAndEndDelimiter, nil
	case "no_delimiters", "none":
		return NoDelimiters, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMode, raw)
	}
}

// Delimiters is the boundary byte pair for one session.
type Delimiters struct {
	Start []byte
	End   []byte
}

// Validate reports whether d is usable under mode m.
func (d Delimiters) Validate(m Mode) error {
	switch m {
	case EndDelimiterOnly:
		if len(d.End) == 0 {
			return fmt.Errorf("%w: %s requires an end delimiter", ErrInvalidConfiguration, m)
		}
	case StartAndEndDelimiter:
		if len(d.Start) == 0 {
			return fmt.Errorf("%w: %s requires a start delimiter", ErrInvalidConfiguration, m)
		}
		if len(d.End) == 0 {
			return fmt.Errorf("%w: %s requires an end delimiter", ErrInvalidConfiguration, m)
		}
	case NoDelimiters:
	default:
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, ErrUnknownMode)
	}
	return nil
}

func (d Delimiters) clone() Delimiters {
	return Delimiters{Start: bytes.Clone(d.Start), End: bytes.Clone(d.End)}
}
