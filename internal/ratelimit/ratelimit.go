package ratelimit

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// Bucket defines rate limit parameters.
type Bucket struct {
	MaxRequests int
	Window      time.Duration
}

// Bucket names.
const (
	Assess  = "assess"
	Message = "message"
)

// DefaultBuckets are the per-client limits for each endpoint group.
var DefaultBuckets = map[string]Bucket{
	Assess:  {MaxRequests: 30, Window: time.Minute},
	Message: {MaxRequests: 60, Window: time.Minute},
}

// Limiter is an in-memory sliding-window rate limiter per key.
type Limiter struct {
	mu      sync.Mutex
	hits    map[string][]time.Time
	buckets map[string]Bucket
	now     func() time.Time
}

// New creates a rate limiter using DefaultBuckets.
func New() *Limiter {
	return NewWithBuckets(DefaultBuckets)
}

// NewWithBuckets creates a rate limiter with custom buckets.
func NewWithBuckets(buckets map[string]Bucket) *Limiter {
	return &Limiter{hits: make(map[string][]time.Time), buckets: buckets, now: time.Now}
}

// Allow checks if a request identified by key is within the rate limit for the
// given bucket. Returns true if allowed.
func (l *Limiter) Allow(key string, bucket Bucket) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-bucket.Window)

	times := l.hits[key]
	pruned := times[:0]
	for _, t := range times {
		if t.After(cutoff) {
			pruned = append(pruned, t)
		}
	}

	if len(pruned) >= bucket.MaxRequests {
		l.hits[key] = pruned
		return false
	}

	l.hits[key] = append(pruned, now)
	return true
}

// clientHost strips the port from addr. Proxy headers are already folded
// into RemoteAddr by the RealIP middleware.
func clientHost(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}

// Check writes a 429 response if the client is rate limited for the named
// bucket. Returns true if the request was rejected.
func (l *Limiter) Check(w http.ResponseWriter, r *http.Request, bucketName string) bool {
	bucket, ok := l.buckets[bucketName]
	if !ok {
		bucket = Bucket{MaxRequests: 60, Window: time.Minute}
	}

	if l.Allow(bucketName+":"+clientHost(r.RemoteAddr), bucket) {
		return false
	}

	retry := strconv.Itoa(int(bucket.Window.Seconds()))
	w.Header().Set("Retry-After", retry)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	w.Write([]byte(`{"error":"Rate limited","retry_after_seconds":` + retry + `}`))
	return true
}
