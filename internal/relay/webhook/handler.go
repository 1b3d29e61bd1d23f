// Package webhook exposes the inbound SMS endpoint.
package webhook

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	errx "github.com/chative-sms/relay/internal/core/error"
	"github.com/chative-sms/relay/internal/relay/model"
	"github.com/chative-sms/relay/internal/relay/sessions"
	logx "github.com/chative-sms/relay/pkg/logger"
)

// MessageHandler processes one inbound message.
type MessageHandler interface {
	Handle(ctx context.Context, senderID, text string) (string, error)
}

// StatsSource reports live session statistics.
type StatsSource interface {
	Stats() sessions.Stats
}

// TranscriptSource reads the exchange archive.
type TranscriptSource interface {
	Recent(ctx context.Context, sender string, limit int) ([]model.Exchange, error)
	Count(ctx context.Context, sender string) (int, error)
}

const (
	defaultTranscriptLimit = 20
	maxTranscriptLimit     = 100
)

// Handler serves the Twilio messaging webhook.
type Handler struct {
	messages    MessageHandler
	stats       StatsSource
	transcripts TranscriptSource
	timeout     time.Duration
}

func NewHandler(messages MessageHandler, stats StatsSource, timeout time.Duration) *Handler {
	return &Handler{messages: messages, stats: stats, timeout: timeout}
}

// WithTranscripts enables the transcript read endpoint. A nil source leaves it
// answering 404.
func (h *Handler) WithTranscripts(src TranscriptSource) *Handler {
	h.transcripts = src
	return h
}

// Register mounts the routes on r.
func (h *Handler) Register(r gin.IRouter) {
	r.POST("/sms", h.ReceiveSMS)
	r.GET("/healthz", h.Health)
	r.GET("/sessions/status", h.SessionStatus)
	r.GET("/transcripts/:sender", h.Transcript)
}

// NewRouter returns a gin engine with recovery, request logging and the relay routes.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	h.Register(r)
	return r
}

// ReceiveSMS reads the Twilio form fields From and Body. The request is
// processed to completion even if Twilio hangs up, bounded by the timeout.
func (h *Handler) ReceiveSMS(c *gin.Context) {
	from := c.PostForm("From")
	body := c.PostForm("Body")
	if from == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing From"})
		return
	}

	ctx := context.WithoutCancel(c.Request.Context())
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	if _, err := h.messages.Handle(ctx, from, body); err != nil {
		if errors.Is(err, errx.ErrBudgetExhausted) {
			// the sender already got the apology
			c.Status(http.StatusNoContent)
			return
		}
		status := errx.StatusOf(err)
		logx.Error().Err(err).Str("sender", logx.MaskSender(from)).Int("status", status).Msg("inbound sms failed")
		c.AbortWithStatusJSON(status, gin.H{"error": http.StatusText(status)})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) SessionStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.stats.Stats())
}

// Transcript returns the archived exchange count and the most recent
// exchanges for a sender, oldest first. ?limit= caps the list.
func (h *Handler) Transcript(c *gin.Context) {
	if h.transcripts == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "transcript archive disabled"})
		return
	}
	sender := c.Param("sender")

	limit := defaultTranscriptLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxTranscriptLimit)
	}

	ctx := c.Request.Context()
	count, err := h.transcripts.Count(ctx, sender)
	if err != nil {
		h.transcriptError(c, sender, err)
		return
	}
	exchanges, err := h.transcripts.Recent(ctx, sender, limit)
	if err != nil {
		h.transcriptError(c, sender, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"sender":    sender,
		"count":     count,
		"exchanges": exchanges,
	})
}

func (h *Handler) transcriptError(c *gin.Context, sender string, err error) {
	status := errx.StatusOf(err)
	logx.Error().Err(err).Str("sender", logx.MaskSender(sender)).Int("status", status).Msg("transcript read failed")
	c.AbortWithStatusJSON(status, gin.H{"error": http.StatusText(status)})
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logx.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("http request")
	}
}
