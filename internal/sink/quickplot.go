package sink

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/danmuck/framectl/internal/stream"
	"github.com/ssbc/go-luigi"
)

// Sample is one quick plot row: the comma separated numbers of a payload.
type Sample struct {
	Session    string
	Seq        uint64
	Values     []float64
	ReceivedAt time.Time
}

// QuickPlot parses each payload as comma separated numbers and pours a
// Sample into next. A payload with a non-numeric field is reported through
// onError and dropped.
type QuickPlot struct {
	next    luigi.Sink
	onError func(error)
}

func NewQuickPlot(next luigi.Sink, onError func(error)) *QuickPlot {
	return &QuickPlot{next: next, onError: onError}
}

func (q *QuickPlot) Pour(ctx context.Context, v interface{}) error {
	p, ok := v.(stream.Payload)
	if !ok {
		return fmt.Errorf("%w: %T", ErrUnexpectedValue, v)
	}
	values, err := ParseSample(p.Data)
	if err != nil {
		if q.onError != nil {
			q.onError(fmt.Errorf("session=%s seq=%d: %w", p.Session, p.Seq, err))
		}
		return nil
	}
	return q.next.Pour(ctx, Sample{Session: p.Session, Seq: p.Seq, Values: values, ReceivedAt: p.ReceivedAt})
}

func (q *QuickPlot) Close() error {
	return q.next.Close()
}

// ParseSample splits data on commas and parses every field as a float.
// Surrounding whitespace, including a trailing carriage return, is ignored.
func ParseSample(data []byte) ([]float64, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrMalformedSample)
	}
	fields := bytes.Split(data, []byte(","))
	out := make([]float64, 0, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(string(bytes.TrimSpace(f)), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: field %d: %v", ErrMalformedSample, i, err)
		}
		out = append(out, v)
	}
	return out, nil
}
