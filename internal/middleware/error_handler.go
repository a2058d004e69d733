package middleware

import (
	"errors"
	"net/http"
	"runtime/debug"
	"time"

	"stockcocina/internal/apierror"
	"stockcocina/internal/infra"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const mensajeInterno = "Error interno del servidor"

// ErrorHandler turns errors attached with c.Error into a JSON body. Handlers
// answer validation errors themselves; whatever reaches here is a backend
// failure and the client only gets a generic message.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		log.Error().
			Str("request_id", c.GetString(RequestIDKey)).
			Str("route", c.FullPath()).
			Str("method", c.Request.Method).
			Err(err).
			Msg("request failed")

		if c.Writer.Written() {
			return
		}
		if errors.Is(err, infra.ErrCircuitOpen) {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, apierror.New("El almacenamiento no responde, reintente en unos segundos"))
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, apierror.New(mensajeInterno))
	}
}

// Recovery converts a panic into a 500 and logs the stack server-side.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Str("request_id", c.GetString(RequestIDKey)).
					Interface("panic", r).
					Bytes("stack", debug.Stack()).
					Msg("panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, apierror.New(mensajeInterno))
			}
		}()
		c.Next()
	}
}

// Logger writes one line per request. Level follows the status class and
// health probes are only logged at debug.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		var ev *zerolog.Event
		switch {
		case status >= http.StatusInternalServerError:
			ev = log.Error()
		case status >= http.StatusBadRequest:
			ev = log.Warn()
		case c.Request.URL.Path == "/health":
			ev = log.Debug()
		default:
			ev = log.Info()
		}
		ev.Str("request_id", c.GetString(RequestIDKey)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}
