// Package decode turns raw frame bytes into payload bytes.
package decode

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMalformedEncoding = errors.New("decode: malformed encoding")
	ErrUnknownMethod     = errors.New("decode: unknown method")
)

// Method is the payload encoding used by every frame of a session.
type Method int

const (
	PlainText Method = iota
	Hexadecimal
	Base64
)

func (m Method) String() string {
	switch m {
	case PlainText:
		return "plain_text"
	case Hexadecimal:
		return "hexadecimal"
	case Base64:
		return "base64"
	default:
		return fmt.Sprintf("method(%d)", int(m))
	}
}

// ParseMethod accepts the config spelling of a Method. Empty input selects
// PlainText.
func ParseMethod(raw string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "plain_text", "plain", "text":
		return PlainText, nil
	case "hexadecimal", "hex":
		return Hexadecimal, nil
	case "base64":
		return Base64, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMethod, raw)
	}
}

// Decode returns the payload carried by raw. The result never aliases raw.
func Decode(raw []byte, m Method) ([]byte, error) {
	switch m {
	case PlainText:
		return bytes.Clone(nonNil(raw)), nil
	case Hexadecimal:
		out := make([]byte, hex.DecodedLen(len(raw)))
		if _, err := hex.Decode(out, raw); err != nil {
			return nil, fmt.Errorf("%w: hexadecimal: %v", ErrMalformedEncoding, err)
		}
		return out, nil
	case Base64:
		// The stdlib decoder skips CR and LF even in strict mode.
		if i := bytes.IndexAny(raw, "\r\n"); i >= 0 {
			return nil, fmt.Errorf("%w: base64: line break at offset %d", ErrMalformedEncoding, i)
		}
		enc := base64.StdEncoding
		if len(raw)%4 != 0 {
			enc = base64.RawStdEncoding
		}
		out := make([]byte, enc.DecodedLen(len(raw)))
		n, err := enc.Strict().Decode(out, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: base64: %v", ErrMalformedEncoding, err)
		}
		return out[:n], nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownMethod, int(m))
	}
}

// Encode is the inverse of Decode. Hexadecimal output is lower case and
// Base64 output is padded.
func Encode(payload []byte, m Method) ([]byte, error) {
	switch m {
	case PlainText:
		return bytes.Clone(nonNil(payload)), nil
	case Hexadecimal:
		out := make([]byte, hex.EncodedLen(len(payload)))
		hex.Encode(out, payload)
		return out, nil
	case Base64:
		out := make([]byte, base64.StdEncoding.EncodedLen(len(payload)))
		base64.StdEncoding.Encode(out, payload)
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownMethod, int(m))
	}
}

func nonNil(p []byte) []byte {
	if p == nil {
		return []byte{}
	}
	return p
}
