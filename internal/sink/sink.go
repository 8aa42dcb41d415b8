// Package sink holds the luigi sinks decoded payloads are poured into.
//
// Every sink accepts stream.Payload. Operation sinks (QuickPlot, JSON)
// reshape payloads and pour the result into the next sink.
package sink

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/ssbc/go-luigi"
)

var (
	ErrClosed            = errors.New("sink: closed")
	ErrUnexpectedValue   = errors.New("sink: unexpected value type")
	ErrMalformedSample   = errors.New("sink: malformed quick plot sample")
	ErrMalformedDocument = errors.New("sink: malformed json document")
	ErrUnknownOperation  = errors.New("sink: unknown operation")
)

// Operation selects how payloads are interpreted before output.
type Operation int

const (
	OperationRaw Operation = iota
	OperationQuickPlot
	OperationJSON
)

func (o Operation) String() string {
	switch o {
	case OperationRaw:
		return "raw"
	case OperationQuickPlot:
		return "quick_plot"
	case OperationJSON:
		return "json"
	default:
		return fmt.Sprintf("operation(%d)", int(o))
	}
}

func ParseOperation(raw string) (Operation, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "raw":
		return OperationRaw, nil
	case "quick_plot", "quickplot", "csv":
		return OperationQuickPlot, nil
	case "json":
		return OperationJSON, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownOperation, raw)
	}
}

// ForOperation wraps out with the sink op needs. Payloads the operation
// rejects are logged and dropped.
func ForOperation(op Operation, out luigi.Sink, log zerolog.Logger) (luigi.Sink, error) {
	onError := func(err error) {
		log.Warn().Err(err).Stringer("operation", op).Msg("sink dropped payload")
	}
	switch op {
	case OperationRaw:
		return out, nil
	case OperationQuickPlot:
		return NewQuickPlot(out, onError), nil
	case OperationJSON:
		return NewJSON(out, onError), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownOperation, int(op))
	}
}

// Discard accepts and forgets every value.
type Discard struct{}

func (Discard) Pour(context.Context, interface{}) error { return nil }
func (Discard) Close() error                            { return nil }
