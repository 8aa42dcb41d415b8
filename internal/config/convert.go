package config

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/danmuck/framectl/internal/decode"
	"github.com/danmuck/framectl/internal/frame"
	"github.com/danmuck/framectl/internal/sink"
	"github.com/danmuck/framectl/internal/stream"
	"github.com/danmuck/framectl/internal/transport"
)

// Output names where a session's results are written.
type Output string

const (
	OutputStdout  Output = "stdout"
	OutputDiscard Output = "discard"
)

// Resolved is a Session converted into runtime configuration.
type Resolved struct {
	Stream               stream.Config
	Transport            transport.Config
	Operation            sink.Operation
	Output               Output
	Reconnect            bool
	ReconnectMaxAttempts int
}

// Resolve converts s using fileMaxBuffered unless s sets its own limit.
func (s Session) Resolve(fileMaxBuffered int) (Resolved, error) {
	bus, err := transport.ParseBus(s.Bus)
	if err != nil {
		return Resolved{}, err
	}
	mode, err := frame.ParseMode(s.FrameDetection)
	if err != nil {
		return Resolved{}, err
	}
	method, err := decode.ParseMethod(s.Decoder)
	if err != nil {
		return Resolved{}, err
	}
	op, err := sink.ParseOperation(s.Operation)
	if err != nil {
		return Resolved{}, err
	}
	out, err := parseOutput(s.Output)
	if err != nil {
		return Resolved{}, err
	}
	delims, err := s.delimiters(mode)
	if err != nil {
		return Resolved{}, err
	}

	sc := stream.DefaultConfig()
	sc.Name = strings.TrimSpace(s.Name)
	sc.Bus = bus.String()
	sc.Mode = mode
	sc.Method = method
	sc.Delimiters = delims
	sc.MaxBuffered = fileMaxBuffered
	if s.MaxBuffered != nil {
		sc.MaxBuffered = *s.MaxBuffered
	}
	if err := sc.Validate(); err != nil {
		return Resolved{}, err
	}

	tc := transport.DefaultConfig()
	tc.Bus = bus
	switch bus {
	case transport.BusSerial:
		tc.Serial.Port = strings.TrimSpace(s.Port)
		if s.BaudRate != 0 {
			tc.Serial.BaudRate = s.BaudRate
		}
		if s.DataBits != 0 {
			tc.Serial.DataBits = s.DataBits
		}
		if s.Parity != "" {
			tc.Serial.Parity = s.Parity
		}
		if s.StopBits != "" {
			tc.Serial.StopBits = s.StopBits
		}
	case transport.BusNetwork:
		if p := strings.TrimSpace(s.Protocol); p != "" {
			tc.Network.Protocol = strings.ToLower(p)
		} else if b := strings.ToLower(strings.TrimSpace(s.Bus)); b == "tcp" || b == "udp" {
			tc.Network.Protocol = b
		}
		tc.Network.Address = strings.TrimSpace(s.Address)
		tc.Network.ListenAddress = strings.TrimSpace(s.ListenAddress)
		if s.DialTimeout != "" {
			d, err := time.ParseDuration(strings.TrimSpace(s.DialTimeout))
			if err != nil {
				return Resolved{}, fmt.Errorf("parse dial_timeout: %w", err)
			}
			tc.Network.DialTimeout = d
		}
	}
	if err := tc.Validate(); err != nil {
		return Resolved{}, err
	}

	return Resolved{
		Stream:               sc,
		Transport:            tc,
		Operation:            op,
		Output:               out,
		Reconnect:            s.Reconnect,
		ReconnectMaxAttempts: s.ReconnectMaxAttempts,
	}, nil
}

// delimiters prefers the *_hex keys so binary delimiters can be written.
// Unused delimiters are ignored for the given mode. The end delimiter
// defaults to "\n" only when neither end key is present; an explicitly
// empty one fails validation.
func (s Session) delimiters(mode frame.Mode) (frame.Delimiters, error) {
	start, _, err := pickDelimiter("start_delimiter", s.StartDelimiter, s.StartDelimiterHex)
	if err != nil {
		return frame.Delimiters{}, err
	}
	end, endSet, err := pickDelimiter("end_delimiter", s.EndDelimiter, s.EndDelimiterHex)
	if err != nil {
		return frame.Delimiters{}, err
	}
	switch mode {
	case frame.EndDelimiterOnly:
		if !endSet {
			end = []byte("\n")
		}
		return frame.Delimiters{End: end}, nil
	case frame.StartAndEndDelimiter:
		return frame.Delimiters{Start: start, End: end}, nil
	default:
		return frame.Delimiters{}, nil
	}
}

// pickDelimiter reports whether either key was present at all.
func pickDelimiter(key string, text, hexText *string) ([]byte, bool, error) {
	if hexText != nil {
		h := strings.ReplaceAll(strings.TrimSpace(*hexText), " ", "")
		b, err := hex.DecodeString(h)
		if err != nil {
			return nil, true, fmt.Errorf("%w: %s_hex: %v", frame.ErrInvalidConfiguration, key, err)
		}
		return b, true, nil
	}
	if text == nil {
		return nil, false, nil
	}
	return []byte(*text), true, nil
}

func parseOutput(raw string) (Output, error) {
	switch Output(strings.ToLower(strings.TrimSpace(raw))) {
	case "", OutputStdout:
		return OutputStdout, nil
	case OutputDiscard:
		return OutputDiscard, nil
	default:
		return "", fmt.Errorf("unknown output %q", raw)
	}
}
