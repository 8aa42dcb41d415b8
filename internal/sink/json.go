package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/danmuck/framectl/internal/stream"
	"github.com/ssbc/go-luigi"
)

// Document is a payload that holds one JSON value.
type Document struct {
	Session    string          `json:"session"`
	Seq        uint64          `json:"seq"`
	Body       json.RawMessage `json:"body"`
	ReceivedAt time.Time       `json:"received_at"`
}

// JSON forwards payloads that are valid JSON documents as Document values.
type JSON struct {
	next    luigi.Sink
	onError func(error)
}

func NewJSON(next luigi.Sink, onError func(error)) *JSON {
	return &JSON{next: next, onError: onError}
}

func (j *JSON) Pour(ctx context.Context, v interface{}) error {
	p, ok := v.(stream.Payload)
	if !ok {
		return fmt.Errorf("%w: %T", ErrUnexpectedValue, v)
	}
	body := bytes.TrimSpace(p.Data)
	if !json.Valid(body) {
		if j.onError != nil {
			j.onError(fmt.Errorf("%w: session=%s seq=%d", ErrMalformedDocument, p.Session, p.Seq))
		}
		return nil
	}
	return j.next.Pour(ctx, Document{
		Session:    p.Session,
		Seq:        p.Seq,
		Body:       json.RawMessage(body),
		ReceivedAt: p.ReceivedAt,
	})
}

func (j *JSON) Close() error {
	return j.next.Close()
}
