package server

import (
	"errors"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"uptime":    time.Since(s.started).String(),
			"component": NodeName,
			"version":   Version,
		})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.GET("/sessions", func(c *gin.Context) {
		stats := s.stats.SessionStats()
		sort.Slice(stats, func(i, j int) bool {
			return stats[i].Name < stats[j].Name
		})
		c.JSON(http.StatusOK, gin.H{
			"sessions": stats,
		})
	})

	s.router.GET("/sessions/:name", func(c *gin.Context) {
		name := c.Param("name")
		for _, st := range s.stats.SessionStats() {
			if st.Name == name {
				c.JSON(http.StatusOK, st)
				return
			}
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
	})

	sender, ok := s.stats.(Sender)
	if !ok {
		return
	}
	// The request body is sent as one payload, encoded and framed by the
	// session.
	s.router.POST("/sessions/:name/send", func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxSendBody+1))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if len(body) > maxSendBody {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "payload too large"})
			return
		}
		name := c.Param("name")
		if err := sender.Send(name, body); err != nil {
			status := http.StatusConflict
			if errors.Is(err, ErrSessionNotFound) {
				status = http.StatusNotFound
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"session": name, "bytes": len(body)})
	})
}
