package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/xtding233/gacha-simulator/internal/session"
)

const sessionKey = "session_id"

func requestLogger(l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("query", c.Request.URL.RawQuery),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
		}
		if id := c.GetString(sessionKey); id != "" {
			fields = append(fields, zap.String("session_id", id))
		}

		switch {
		case len(c.Errors) > 0:
			l.Error(c.Errors.String(), fields...)
		case status >= http.StatusBadRequest:
			l.Warn("http request", fields...)
		default:
			l.Info("http request", fields...)
		}
	}
}

func recovery(l *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, err any) {
		l.Error("panic recovered", zap.Any("error", err), zap.String("path", c.Request.URL.Path))
		fail(c, http.StatusInternalServerError, "internal error")
	})
}

// withSession resolves the caller's session id from the cookie (minting one
// when absent), holds the session lock for the rest of the chain, restores a
// persisted snapshot the first time the id is seen and saves it afterwards.
func (s *Server) withSession(c *gin.Context) {
	id, err := c.Cookie(s.opts.CookieName)
	if err != nil || id == "" {
		id = session.NewID()
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(s.opts.CookieName, id, s.opts.CookieMaxAge, "/", "", s.opts.CookieSecure, true)
	}
	c.Set(sessionKey, id)

	unlock := s.locker.Lock(id)
	defer unlock()

	ctx := c.Request.Context()
	if err := s.svc.RestoreFrom(ctx, s.opts.Snapshots, id); err != nil {
		s.logger.Warn("session restore failed", zap.String("session_id", id), zap.Error(err))
	}

	c.Next()

	if err := s.svc.SaveTo(context.WithoutCancel(ctx), s.opts.Snapshots, id); err != nil {
		s.logger.Warn("session save failed", zap.String("session_id", id), zap.Error(err))
	}
}

func sessionID(c *gin.Context) string { return c.GetString(sessionKey) }

func reply(c *gin.Context, body gin.H) {
	body["success"] = true
	c.JSON(http.StatusOK, body)
}

func fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": msg})
}
