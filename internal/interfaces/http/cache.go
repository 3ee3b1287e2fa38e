package http

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// cacheMiddleware serves successful GET responses from the response cache. Mutations
// invalidate it from the services once their write is committed, so trades arriving
// over RabbitMQ clear it too. It is a no-op without a cache.
func (h *Handler) cacheMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.cache == nil || c.Request.Method != http.MethodGet {
			c.Next()
			return
		}
		ctx := c.Request.Context()

		key := h.cacheKey(c)
		cached, ok, err := h.cache.Get(ctx, key)
		if err != nil {
			h.logger.WithError(err).WithField("key", key).Warn("cache read failed")
		}
		if ok {
			c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(cached))
			c.Abort()
			return
		}

		generation := h.cache.Generation()
		recorder := &responseRecorder{
			ResponseWriter: c.Writer,
			status:         http.StatusOK,
			body:           &bytes.Buffer{},
		}
		c.Writer = recorder

		c.Next()

		if recorder.status >= 200 && recorder.status < 300 && recorder.body.Len() > 0 {
			stored, err := h.cache.Set(ctx, key, recorder.body.String(), generation)
			if err != nil {
				h.logger.WithError(err).WithField("key", key).Warn("cache write failed")
			} else if !stored {
				h.logger.WithField("key", key).Debug("ledger changed during request, response not cached")
			}
		}
	}
}

type responseRecorder struct {
	gin.ResponseWriter
	body   *bytes.Buffer
	status int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(data []byte) (int, error) {
	if len(data) > 0 {
		r.body.Write(data)
	}
	return r.ResponseWriter.Write(data)
}

func (h *Handler) cacheKey(c *gin.Context) string {
	return fmt.Sprintf("cache:%s:%s?%s", c.Request.Method, c.FullPath(), c.Request.URL.RawQuery)
}
