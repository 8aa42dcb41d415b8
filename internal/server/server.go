// Package server exposes the framectl admin HTTP surface: health, live
// session statistics and prometheus metrics.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danmuck/framectl/internal/observability"
	"github.com/danmuck/framectl/internal/stream"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	NodeName = "framectl"
	Version  = "0.1.0"
)

var ErrSessionNotFound = errors.New("server: session not found")

// StatsProvider lists the sessions currently known to the process.
type StatsProvider interface {
	SessionStats() []stream.Stats
}

// Sender is implemented by providers that can transmit to a live session.
// Send returns an error wrapping ErrSessionNotFound for unknown names.
type Sender interface {
	Send(name string, payload []byte) error
}

// maxSendBody caps POST /sessions/:name/send bodies.
const maxSendBody = 64 << 10

type Server struct {
	addr     string
	started  time.Time
	stats    StatsProvider
	log      zerolog.Logger
	router   *gin.Engine
	shutdown time.Duration
}

func New(addr string, stats StatsProvider, log zerolog.Logger) *Server {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log))
	r.Use(observability.RequestMetricsMiddleware(NodeName))
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST"},
		AllowHeaders:    []string{"Origin", "Content-Type"},
		MaxAge:          12 * time.Hour,
	}))

	s := &Server{
		addr:     addr,
		started:  time.Now(),
		stats:    stats,
		log:      log,
		router:   r,
		shutdown: 5 * time.Second,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve listens until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.addr).Msg("server.Serve listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.Background(), s.shutdown)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			return err
		}
		s.log.Info().Msg("server.Serve shutdown")
		return nil
	}
}
