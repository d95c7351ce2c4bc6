package mw

import (
	"bytes"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

type cachedResponse struct {
	status  int
	headers http.Header
	body    []byte
}

type bodyCacheWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w bodyCacheWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w bodyCacheWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// generation counts flushes. A GET only stores its response if no write
// finished while it was running, since it may have read the old data.
type generation struct {
	mu sync.Mutex
	n  uint64
}

func (g *generation) current() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.n
}

func (g *generation) flush(store *cache.Cache) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	store.Flush()
}

// setIfCurrent stores the entry only when no flush happened since started.
func (g *generation) setIfCurrent(store *cache.Cache, started uint64, key string, resp cachedResponse, d time.Duration) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.n != started {
		return false
	}
	store.Set(key, resp, d)
	return true
}

// Cache serves repeated GET requests from memory. Entries are keyed by the
// authenticated user as well as the URI because responses are filtered per
// role. Any successful write request flushes the whole cache.
func Cache(store *cache.Cache, duration time.Duration) gin.HandlerFunc {
	gen := &generation{}
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			if c.Writer.Status() < http.StatusBadRequest {
				gen.flush(store)
			}
			return
		}

		actor, _ := ActorFrom(c)
		key := actor.UserID + "|" + c.Request.RequestURI
		if resp, found := store.Get(key); found {
			cached := resp.(cachedResponse)
			for k, v := range cached.headers {
				c.Writer.Header()[k] = v
			}
			c.Writer.Header().Set("X-Cache", "HIT")
			c.Writer.WriteHeader(cached.status)
			c.Writer.Write(cached.body)
			c.Abort()
			return
		}

		started := gen.current()
		blw := &bodyCacheWriter{body: bytes.NewBuffer(nil), ResponseWriter: c.Writer}
		c.Writer = blw

		c.Next()

		// Only cache successful responses
		if blw.Status() >= 200 && blw.Status() < 300 {
			response := cachedResponse{
				status:  blw.Status(),
				headers: blw.Header().Clone(),
				body:    blw.body.Bytes(),
			}
			gen.setIfCurrent(store, started, key, response, duration)
		}
	}
}
