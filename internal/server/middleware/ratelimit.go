package middleware

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/care-assist/pkg/api"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultIdleTTL is how long a caller's bucket survives without requests.
const DefaultIdleTTL = 10 * time.Minute

// GenerationLimiter throttles the routes that spend provider credit. Buckets are
// keyed by the API key Auth matched, or by client IP when auth is open.
type GenerationLimiter struct {
	mu        sync.Mutex
	callers   map[string]*bucket
	rps       rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
	logger    *zap.Logger
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewGenerationLimiter returns a limiter allowing rps generations per second per
// caller with the given burst. A non-positive rps disables limiting.
func NewGenerationLimiter(rps float64, burst int, logger *zap.Logger) *GenerationLimiter {
	if burst < 1 {
		burst = 1
	}
	return &GenerationLimiter{
		callers: make(map[string]*bucket),
		rps:     rate.Limit(rps),
		burst:   burst,
		idleTTL: DefaultIdleTTL,
		now:     time.Now,
		logger:  logger,
	}
}

func (gl *GenerationLimiter) bucketFor(key string, now time.Time) *rate.Limiter {
	gl.mu.Lock()
	defer gl.mu.Unlock()

	if now.Sub(gl.lastSweep) >= gl.idleTTL {
		for k, b := range gl.callers {
			if now.Sub(b.lastSeen) >= gl.idleTTL {
				delete(gl.callers, k)
			}
		}
		gl.lastSweep = now
	}

	b, ok := gl.callers[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(gl.rps, gl.burst)}
		gl.callers[key] = b
	}
	b.lastSeen = now
	return b.limiter
}

// retryAfter is the whole number of seconds until the bucket holds a token again.
func (gl *GenerationLimiter) retryAfter(l *rate.Limiter, now time.Time) int {
	deficit := 1 - l.TokensAt(now)
	secs := int(math.Ceil(deficit / float64(gl.rps)))
	if secs < 1 {
		return 1
	}
	return secs
}

func (gl *GenerationLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if gl.rps <= 0 {
			c.Next()
			return
		}

		key := c.GetString(CallerKey)
		if key == "" {
			key = "ip:" + c.ClientIP()
		}

		now := gl.now()
		limiter := gl.bucketFor(key, now)
		if !limiter.AllowN(now, 1) {
			wait := gl.retryAfter(limiter, now)
			gl.logger.Warn("Generation rate limit exceeded",
				zap.String("caller", key),
				zap.String("path", c.FullPath()),
				zap.Int("retry_after", wait),
			)
			c.Header("Retry-After", strconv.Itoa(wait))
			abort(c, api.RateLimitError("Too many generation requests, please wait before trying again."))
			return
		}

		c.Next()
	}
}
