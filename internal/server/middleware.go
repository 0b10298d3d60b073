package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/brogergvhs/pagetidy/internal/ui"
)

// requestIDMiddleware keeps an incoming X-Request-ID or mints one, and
// forwards it upstream.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderReqID)
		if id == "" {
			id = uuid.NewString()
			c.Request.Header.Set(HeaderReqID, id)
		}

		c.Set(ctxRequestID, id)
		c.Header(HeaderReqID, id)
		c.Next()
	}
}

func loggerMiddleware(log *ui.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		id := c.GetString(ctxRequestID)
		if len(c.Errors) > 0 {
			log.Errorf("%s %s %d %s id=%s errors=%s", c.Request.Method, path, status, time.Since(start), id, c.Errors.String())
			return
		}

		log.Debugf("%s %s %d %s id=%s", c.Request.Method, path, status, time.Since(start), id)
	}
}
