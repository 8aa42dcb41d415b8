package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/danmuck/framectl/internal/config"
	"github.com/danmuck/framectl/internal/logging"
	"github.com/danmuck/framectl/internal/server"
	"github.com/danmuck/framectl/internal/sink"
	"github.com/danmuck/framectl/internal/stream"
	"github.com/danmuck/framectl/internal/transport"
	"github.com/rs/zerolog"
	"github.com/ssbc/go-luigi"
	"golang.org/x/sync/errgroup"
)

var (
	ErrUnknownSession = server.ErrSessionNotFound
	ErrNotConnected   = errors.New("service: session not connected")
)

// Config configures one framectl process.
type Config struct {
	File    config.File
	Stdout  io.Writer
	Backoff transport.BackoffConfig
	// Retain bounds the recent values kept per session for inspection.
	Retain            int
	HeartbeatInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		File:              config.Default(),
		Stdout:            os.Stdout,
		Backoff:           transport.DefaultBackoff(),
		Retain:            256,
		HeartbeatInterval: 30 * time.Second,
	}
}

func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.Stdout == nil {
		c.Stdout = d.Stdout
	}
	if c.Backoff.InitialDelay <= 0 {
		c.Backoff = d.Backoff
	}
	if c.Retain <= 0 {
		c.Retain = d.Retain
	}
	return c
}

// runner owns one configured session across reconnects.
type runner struct {
	name     string
	resolved config.Resolved
	recent   *sink.Collector
	pipeline luigi.Sink

	mu      sync.RWMutex
	session *stream.Session
	source  transport.Source
	last    stream.Stats
}

func (r *runner) attach(sess *stream.Session, src transport.Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.session = sess
	r.source = src
}

func (r *runner) detach() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session != nil {
		r.last = r.session.Stats()
	}
	r.session = nil
	r.source = nil
}

func (r *runner) stats() stream.Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.session != nil {
		return r.session.Stats()
	}
	if r.last.ID != "" {
		return r.last
	}
	return stream.Stats{
		Name:   r.name,
		Bus:    r.resolved.Stream.Bus,
		Mode:   r.resolved.Stream.Mode.String(),
		Method: r.resolved.Stream.Method.String(),
		Closed: true,
	}
}

// Service runs every configured session until its context ends.
type Service struct {
	cfg     Config
	log     zerolog.Logger
	runners []*runner
	byName  map[string]*runner
}

// New resolves every session up front so a bad entry fails before any
// source is opened.
func New(cfg Config) (*Service, error) {
	cfg = cfg.WithDefaults()
	if err := config.Validate(cfg.File); err != nil {
		return nil, err
	}

	log := logging.New("service")
	stdout := sink.NewWriter(cfg.Stdout)
	s := &Service{
		cfg:    cfg,
		log:    log,
		byName: make(map[string]*runner, len(cfg.File.Sessions)),
	}
	for _, sc := range cfg.File.Sessions {
		resolved, err := sc.Resolve(cfg.File.MaxBuffered)
		if err != nil {
			return nil, fmt.Errorf("service: session %q: %w", sc.Name, err)
		}
		name := resolved.Stream.Name

		var out luigi.Sink = sink.Discard{}
		if resolved.Output == config.OutputStdout {
			out = stdout
		}
		recent := sink.NewCollector(cfg.Retain)
		pipeline, err := sink.ForOperation(resolved.Operation, sink.Fanout{recent, out}, log.With().Str("session", name).Logger())
		if err != nil {
			return nil, fmt.Errorf("service: session %q: %w", name, err)
		}

		r := &runner{name: name, resolved: resolved, recent: recent, pipeline: pipeline}
		s.runners = append(s.runners, r)
		s.byName[name] = r
	}
	return s, nil
}

// Run blocks until every session has ended or ctx is cancelled. The first
// fatal session error cancels the others and is returned.
func (s *Service) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	bg, bgCtx := errgroup.WithContext(runCtx)
	if addr := strings.TrimSpace(s.cfg.File.AdminAddr); addr != "" {
		srv := server.New(addr, s, logging.New("server"))
		bg.Go(func() error {
			return srv.Serve(bgCtx)
		})
	}
	if s.cfg.HeartbeatInterval > 0 {
		bg.Go(func() error {
			s.heartbeat(bgCtx)
			return nil
		})
	}

	s.log.Info().Int("sessions", len(s.runners)).Msg("service.Run started")
	sg, sctx := errgroup.WithContext(bgCtx)
	for _, r := range s.runners {
		sg.Go(func() error {
			return s.runSession(sctx, r)
		})
	}
	err := sg.Wait()
	cancel()
	if berr := bg.Wait(); err == nil {
		err = berr
	}

	if err != nil {
		s.log.Error().Err(err).Msg("service.Run stopped")
	} else {
		s.log.Info().Msg("service.Run stopped")
	}
	return err
}

func (s *Service) runSession(ctx context.Context, r *runner) error {
	log := s.log.With().Str("session", r.name).Logger()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for drops := 0; ; drops++ {
		src, err := s.open(ctx, r, log)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("service: open session %q: %w", r.name, err)
		}

		// A fresh session per connection so no partial frame survives.
		sess, err := stream.NewSession(r.resolved.Stream, r.pipeline)
		if err != nil {
			_ = src.Close()
			return err
		}
		r.attach(sess, src)
		log.Info().Str("source", src.Name()).Str("id", sess.ID()).Msg("service.runSession attached")

		runErr := sess.Run(ctx, src)
		_ = src.Close()
		r.detach()

		if ctx.Err() != nil {
			return nil
		}
		if !r.resolved.Reconnect || errors.Is(runErr, sink.ErrClosed) {
			if runErr != nil {
				return fmt.Errorf("service: session %q: %w", r.name, runErr)
			}
			log.Info().Msg("service.runSession source ended")
			return nil
		}

		delay := transport.NextBackoffDelay(s.cfg.Backoff, drops+1, rng)
		log.Warn().
			Err(runErr).
			Int("drops", drops+1).
			Dur("retry_in", delay).
			Msg("service.runSession source lost, reconnecting")
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil
		case <-t.C:
		}
	}
}

func (s *Service) open(ctx context.Context, r *runner, log zerolog.Logger) (transport.Source, error) {
	if r.resolved.Reconnect {
		return transport.OpenWithRetry(ctx, r.resolved.Transport, s.cfg.Backoff, r.resolved.ReconnectMaxAttempts, log)
	}
	return transport.Open(ctx, r.resolved.Transport)
}

func (s *Service) heartbeat(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, st := range s.SessionStats() {
				s.log.Info().
					Str("session", st.Name).
					Bool("connected", !st.Closed).
					Uint64("frames", st.Frames).
					Uint64("delivered", st.Delivered).
					Uint64("malformed", st.Malformed).
					Int("buffered", st.Buffered).
					Msg("service.heartbeat")
			}
		}
	}
}

// SessionStats reports every configured session in configuration order.
// Sessions that are not connected report their last known stats.
func (s *Service) SessionStats() []stream.Stats {
	out := make([]stream.Stats, 0, len(s.runners))
	for _, r := range s.runners {
		out = append(out, r.stats())
	}
	return out
}

// Send encodes payload for the named session and writes it to its source.
func (s *Service) Send(name string, payload []byte) error {
	r, ok := s.byName[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSession, name)
	}
	r.mu.RLock()
	sess, src := r.session, r.source
	r.mu.RUnlock()
	if sess == nil || src == nil {
		return fmt.Errorf("%w: %q", ErrNotConnected, name)
	}
	return sess.Send(src, payload)
}

// Recent returns the most recent values delivered by the named session,
// oldest first.
func (s *Service) Recent(name string) ([]interface{}, bool) {
	r, ok := s.byName[name]
	if !ok {
		return nil, false
	}
	return r.recent.Values(), true
}
