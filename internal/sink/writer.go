package sink

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/danmuck/framectl/internal/stream"
)

// Writer prints one tab separated line per value:
// session, sequence number, then the payload, sample or document.
// Binary payloads are printed as hex.
type Writer struct {
	mu     sync.Mutex
	w      io.Writer
	closed bool
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (s *Writer) Pour(ctx context.Context, v interface{}) error {
	var line string
	switch val := v.(type) {
	case stream.Payload:
		line = fmt.Sprintf("%s\t%d\t%s\n", val.Session, val.Seq, printable(val.Data))
	case Sample:
		fields := make([]string, len(val.Values))
		for i, f := range val.Values {
			fields[i] = strconv.FormatFloat(f, 'g', -1, 64)
		}
		line = fmt.Sprintf("%s\t%d\t%s\n", val.Session, val.Seq, strings.Join(fields, ","))
	case Document:
		line = fmt.Sprintf("%s\t%d\t%s\n", val.Session, val.Seq, val.Body)
	default:
		return fmt.Errorf("%w: %T", ErrUnexpectedValue, v)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	_, err := io.WriteString(s.w, line)
	return err
}

func (s *Writer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func printable(data []byte) string {
	if !utf8.Valid(data) {
		return "0x" + hex.EncodeToString(data)
	}
	for _, r := range string(data) {
		if r != '\t' && !unicode.IsPrint(r) {
			return "0x" + hex.EncodeToString(data)
		}
	}
	return string(data)
}
