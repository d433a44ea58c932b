// Package server exposes a read-only view of the queue over HTTP for operators
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"queuebot/internal/queue"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type QueueReader interface {
	Entries(ctx context.Context) ([]queue.Entry, error)
	Position(ctx context.Context, participant queue.ParticipantId) (queue.Position, bool, error)
	Accepting() (bool, error)
}

type Healer interface {
	SelfHeal(ctx context.Context)
}

type handlers struct {
	reader QueueReader
	healer Healer
}

func NewRouter(reader QueueReader, healer Healer) *gin.Engine {
	h := handlers{reader: reader, healer: healer}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	r.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
	}))

	r.GET("/healthz", h.health)
	queueGroup := r.Group("/queue")
	{
		queueGroup.GET("", h.list)
		queueGroup.GET("/:participant", h.position)
		queueGroup.POST("/refresh", h.refresh)
	}
	return r
}

func (h handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, MessageResponse{Message: "ok"})
}

func (h handlers) list(c *gin.Context) {
	entries, err := h.reader.Entries(c.Request.Context())
	if err != nil {
		storeError(c, err)
		return
	}
	accepting, err := h.reader.Accepting()
	if err != nil {
		storeError(c, err)
		return
	}

	response := QueueResponse{Accepting: accepting, Total: len(entries), Entries: make([]EntryResponse, 0, len(entries))}
	for i, entry := range entries {
		response.Entries = append(response.Entries, EntryResponse{
			Rank:          i + 1,
			ParticipantId: string(entry.ParticipantId),
			DisplayName:   entry.DisplayName,
			Priority:      entry.Priority.String(),
			JoinedAt:      entry.JoinedAt.UTC(),
		})
	}
	c.JSON(http.StatusOK, response)
}

func (h handlers) position(c *gin.Context) {
	participant := c.Param("participant")
	position, ok, err := h.reader.Position(c.Request.Context(), queue.ParticipantId(participant))
	if err != nil {
		storeError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Code:    "NOT_QUEUED",
			Message: fmt.Sprintf("Participant %s is not in the queue", participant),
		})
		return
	}
	c.JSON(http.StatusOK, PositionResponse{ParticipantId: participant, Rank: position.Rank, Total: position.Total})
}

// Runs the same self-heal as the periodic task
func (h handlers) refresh(c *gin.Context) {
	h.healer.SelfHeal(c.Request.Context())
	c.JSON(http.StatusAccepted, MessageResponse{Message: "boards refreshed"})
}

func storeError(c *gin.Context, err error) {
	log.Error().Err(err).Str("path", c.FullPath()).Msg("Could not read the queue")
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Code:    "STORE_ERROR",
		Message: "Could not read the queue",
	})
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("HTTP request")
	}
}

type Server struct {
	http *http.Server
}

func New(addr string, handler http.Handler) *Server {
	return &Server{http: &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}}
}

// Serve in the background until Shutdown
func (server *Server) Start() {
	go func() {
		log.Info().Msg(fmt.Sprintf("Ops API listening on %s", server.http.Addr))
		if err := server.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Ops API stopped")
		}
	}()
}

func (server *Server) Shutdown(ctx context.Context) error {
	return server.http.Shutdown(ctx)
}
