package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/danmuck/framectl/internal/decode"
	"github.com/danmuck/framectl/internal/frame"
	"github.com/danmuck/framectl/internal/logging"
	"github.com/danmuck/framectl/internal/observability"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/ssbc/go-luigi"
)

// Payload is one decoded frame as delivered to the sink.
type Payload struct {
	Session    string
	Seq        uint64
	Data       []byte
	ReceivedAt time.Time
}

// Stats is a point-in-time view of a session.
type Stats struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Bus           string    `json:"bus"`
	Mode          string    `json:"frame_detection"`
	Method        string    `json:"decoder"`
	OpenedAt      time.Time `json:"opened_at"`
	BytesReceived uint64    `json:"bytes_received"`
	Frames        uint64    `json:"frames"`
	Delivered     uint64    `json:"delivered"`
	Malformed     uint64    `json:"malformed"`
	Buffered      int       `json:"buffered"`
	Closed        bool      `json:"closed"`
}

// Session is one stream's ingestion pipeline: accumulator, detector and
// decoder bound to a fixed configuration, delivering to one sink.
type Session struct {
	id   string
	cfg  Config
	sink luigi.Sink
	log  zerolog.Logger
	rec  observability.StreamRecorder
	now  func() time.Time

	mu       sync.Mutex
	det      *frame.Detector
	seq      uint64
	closed   bool
	openedAt time.Time

	bytesReceived uint64
	delivered     uint64
	malformed     uint64
}

// NewSession rejects invalid configuration before any byte is accepted.
func NewSession(cfg Config, sink luigi.Sink) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sink == nil {
		return nil, fmt.Errorf("%w: nil sink", ErrInvalidConfiguration)
	}
	cfg = cfg.WithDefaults()
	det, err := frame.NewDetector(cfg.Mode, cfg.Delimiters, frame.NewAccumulator())
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	if cfg.Name == "" {
		cfg.Name = id[:8]
	}
	s := &Session{
		id:   id,
		cfg:  cfg,
		sink: sink,
		log: logging.New("stream").With().
			Str("session", cfg.Name).
			Str("bus", cfg.Bus).
			Logger(),
		rec:      observability.NewStreamRecorder(cfg.Name, cfg.Bus, cfg.Method.String()),
		now:      time.Now,
		det:      det,
		openedAt: time.Now(),
	}
	s.rec.Opened()
	s.log.Info().
		Str("id", id).
		Stringer("frame_detection", cfg.Mode).
		Stringer("decoder", cfg.Method).
		Msg("stream.Session opened")
	return s, nil
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Name() string {
	return s.cfg.Name
}

func (s *Session) Config() Config {
	return s.cfg
}

// Feed appends chunk, then decodes and delivers every frame it completes in
// completion order. Malformed payloads are dropped and reported without
// stopping detection. A sink error or a buffer overrun is returned and
// should end the session.
func (s *Session) Feed(ctx context.Context, chunk []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}

	acc := s.det.Accumulator()
	acc.Append(chunk)
	s.bytesReceived += uint64(len(chunk))
	s.rec.Received(len(chunk))

	for raw := range s.det.Frames() {
		s.seq++
		s.rec.Frame()
		data, err := decode.Decode(raw, s.cfg.Method)
		if err != nil {
			s.reportMalformed(raw, err)
			continue
		}
		p := Payload{Session: s.cfg.Name, Seq: s.seq, Data: data, ReceivedAt: s.now()}
		if err := s.sink.Pour(ctx, p); err != nil {
			return fmt.Errorf("stream: sink pour seq=%d: %w", s.seq, err)
		}
		s.delivered++
		s.log.Debug().Uint64("seq", s.seq).Int("len", len(data)).Msg("stream.Session frame")
	}

	pending := acc.Len()
	s.rec.Buffered(pending)
	if s.cfg.MaxBuffered > 0 && pending > s.cfg.MaxBuffered {
		return fmt.Errorf("%w: %d unconsumed bytes exceed limit %d", ErrBufferOverrun, pending, s.cfg.MaxBuffered)
	}
	return nil
}

func (s *Session) reportMalformed(raw []byte, err error) {
	s.malformed++
	s.rec.DecodeFailure()
	s.log.Warn().
		Uint64("seq", s.seq).
		Int("len", len(raw)).
		Err(err).
		Msg("stream.Session dropped malformed frame")
	if s.cfg.OnMalformed != nil {
		s.cfg.OnMalformed(Malformed{Session: s.cfg.Name, Seq: s.seq, Raw: raw, Err: err})
	}
}

// Run reads src until EOF, a fatal error or ctx cancellation, feeding every
// chunk. Cancelling ctx closes src when it is an io.Closer so a blocked Read
// returns. The session is closed when Run returns.
func (s *Session) Run(ctx context.Context, src io.Reader) error {
	defer s.Close()

	if c, ok := src.(io.Closer); ok {
		stop := context.AfterFunc(ctx, func() {
			_ = c.Close()
		})
		defer stop()
	}

	buf := make([]byte, s.cfg.ReadBufferSize)
	for {
		n, err := src.Read(buf)
		if n > 0 {
			if ferr := s.Feed(ctx, buf[:n]); ferr != nil {
				s.log.Error().Err(ferr).Msg("stream.Session.Run stopped")
				return ferr
			}
		}
		if err == nil {
			continue
		}
		if ctx.Err() != nil {
			return nil
		}
		if errors.Is(err, io.EOF) {
			s.log.Info().Msg("stream.Session.Run source closed")
			return nil
		}
		return fmt.Errorf("stream: read: %w", err)
	}
}

// Send encodes payload with the session's method, wraps it in the
// session's delimiters and writes it to w.
func (s *Session) Send(w io.Writer, payload []byte) error {
	body, err := decode.Encode(payload, s.cfg.Method)
	if err != nil {
		return err
	}
	wire := frame.Wrap(s.cfg.Mode, s.cfg.Delimiters, body)
	if _, err := w.Write(wire); err != nil {
		return fmt.Errorf("stream: send: %w", err)
	}
	return nil
}

// Close discards buffered bytes and any partial frame. It does not close
// the sink. Close is idempotent.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	dropped := s.det.Accumulator().Len()
	s.det.Reset()
	s.rec.Closed()
	s.log.Info().
		Uint64("frames", s.seq).
		Uint64("delivered", s.delivered).
		Uint64("malformed", s.malformed).
		Int("dropped_bytes", dropped).
		Msg("stream.Session closed")
	return nil
}

func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		ID:            s.id,
		Name:          s.cfg.Name,
		Bus:           s.cfg.Bus,
		Mode:          s.cfg.Mode.String(),
		Method:        s.cfg.Method.String(),
		OpenedAt:      s.openedAt,
		BytesReceived: s.bytesReceived,
		Frames:        s.seq,
		Delivered:     s.delivered,
		Malformed:     s.malformed,
		Buffered:      s.det.Accumulator().Len(),
		Closed:        s.closed,
	}
}
