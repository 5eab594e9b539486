package httpx

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aussiebroadwan/accounts/pkg/slogx"
	"golang.org/x/time/rate"
)

// MsgTooManyRequests is the error message sent with every 429.
const MsgTooManyRequests = "Too many requests. Please try again later."

// Limit is a token bucket expressed as "Requests per Window" with room for
// Burst requests at once.
type Limit struct {
	Requests int
	Window   time.Duration
	Burst    int
}

func (l Limit) every() rate.Limit {
	return rate.Limit(float64(l.Requests) / l.Window.Seconds())
}

// Profiles used by the accounts routes. Each one can be overridden with
// RATELIMIT_<NAME>_REQUESTS, RATELIMIT_<NAME>_WINDOW_SEC and
// RATELIMIT_<NAME>_BURST. Routes capture the value when they are built.
var (
	// StrictLimit guards credential endpoints: signup, login and resets.
	StrictLimit = Limit{Requests: 5, Window: time.Minute, Burst: 5}

	// ModerateLimit guards authenticated writes.
	ModerateLimit = Limit{Requests: 20, Window: time.Minute, Burst: 20}

	// LenientLimit guards reads and health probes.
	LenientLimit = Limit{Requests: 100, Window: time.Minute, Burst: 100}
)

func init() {
	StrictLimit = LimitFromEnv("STRICT", StrictLimit)
	ModerateLimit = LimitFromEnv("MODERATE", ModerateLimit)
	LenientLimit = LimitFromEnv("LENIENT", LenientLimit)
}

// LimitFromEnv returns def with any positive RATELIMIT_<name>_* overrides
// applied. Unparseable or non-positive values are ignored field by field.
func LimitFromEnv(name string, def Limit) Limit {
	l := def
	if n, ok := positiveEnv("RATELIMIT_" + name + "_REQUESTS"); ok {
		l.Requests = n
	}
	if n, ok := positiveEnv("RATELIMIT_" + name + "_WINDOW_SEC"); ok {
		l.Window = time.Duration(n) * time.Second
	}
	if n, ok := positiveEnv("RATELIMIT_" + name + "_BURST"); ok {
		l.Burst = n
	}
	return l
}

func positiveEnv(key string) (int, bool) {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// KeyFunc picks the bucket a request is charged against. An empty key
// means the request is not limited.
type KeyFunc func(*http.Request) string

var trustedProxies atomic.Pointer[[]netip.Prefix]

// SetTrustedProxies sets the reverse proxies whose forwarding headers
// ClientIP believes. Entries are CIDRs or bare addresses. An empty list
// makes ClientIP use the connection address only.
func SetTrustedProxies(entries []string) error {
	prefixes := make([]netip.Prefix, 0, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if !strings.Contains(e, "/") {
			addr, err := netip.ParseAddr(e)
			if err != nil {
				return fmt.Errorf("httpx: trusted proxy %q: %w", e, err)
			}
			addr = addr.Unmap()
			prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
			continue
		}
		p, err := netip.ParsePrefix(e)
		if err != nil {
			return fmt.Errorf("httpx: trusted proxy %q: %w", e, err)
		}
		prefixes = append(prefixes, p.Masked())
	}
	trustedProxies.Store(&prefixes)
	return nil
}

func isTrustedProxy(ip string) bool {
	ps := trustedProxies.Load()
	if ps == nil || len(*ps) == 0 {
		return false
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range *ps {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// ClientIP returns the caller's address. Forwarding headers are only read
// when the connection comes from a trusted proxy. X-Forwarded-For is then
// walked from the right and the first hop that is not itself a trusted
// proxy wins. X-Real-IP is the fallback.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if !isTrustedProxy(host) {
		return host
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if hop != "" && !isTrustedProxy(hop) {
				return hop
			}
		}
		if first := strings.TrimSpace(hops[0]); first != "" {
			return first
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	return host
}

// UserKey keys on the authenticated user, or "" before Authenticate ran.
func UserKey(r *http.Request) string {
	if id, ok := UserIDFromContext(r.Context()); ok {
		return "user:" + strconv.FormatInt(id, 10)
	}
	return ""
}

// JSONFieldKey keys on a string field of the JSON body, trimmed and
// lower-cased. The body is put back for the handler.
func JSONFieldKey(field string) KeyFunc {
	return func(r *http.Request) string {
		if r.Body == nil {
			return ""
		}
		body, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes))
		_ = r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(body))
		if err != nil {
			return ""
		}

		var fields map[string]json.RawMessage
		if json.Unmarshal(body, &fields) != nil {
			return ""
		}
		var v string
		if json.Unmarshal(fields[field], &v) != nil {
			return ""
		}
		return strings.ToLower(strings.TrimSpace(v))
	}
}

// JoinKeys concatenates the non-empty keys of fns with ":".
func JoinKeys(fns ...KeyFunc) KeyFunc {
	return func(r *http.Request) string {
		parts := make([]string, 0, len(fns))
		for _, fn := range fns {
			if k := fn(r); k != "" {
				parts = append(parts, k)
			}
		}
		return strings.Join(parts, ":")
	}
}

// bucketIdleSweep is how often idle buckets are dropped.
const bucketIdleSweep = 5 * time.Minute

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// buckets holds one limiter per key. A bucket unused for a full window is
// back at Burst tokens, so dropping it loses nothing.
type buckets struct {
	limit Limit

	mu        sync.Mutex
	byKey     map[string]*bucket
	lastSweep time.Time
}

func newBuckets(l Limit) *buckets {
	return &buckets{limit: l, byKey: make(map[string]*bucket), lastSweep: time.Now()}
}

func (b *buckets) get(key string, now time.Time) *rate.Limiter {
	b.mu.Lock()
	defer b.mu.Unlock()

	if now.Sub(b.lastSweep) >= bucketIdleSweep {
		for k, bk := range b.byKey {
			if now.Sub(bk.lastSeen) >= b.limit.Window {
				delete(b.byKey, k)
			}
		}
		b.lastSweep = now
	}

	bk, ok := b.byKey[key]
	if !ok {
		bk = &bucket{lim: rate.NewLimiter(b.limit.every(), b.limit.Burst)}
		b.byKey[key] = bk
	}
	bk.lastSeen = now
	return bk.lim
}

// RateLimit rejects requests with 429 once the bucket chosen by key is
// empty. Rejections carry Retry-After, X-RateLimit-Limit and
// X-RateLimit-Window.
func RateLimit(l Limit, key KeyFunc) Middleware {
	set := newBuckets(l)
	limitHeader := strconv.Itoa(l.Requests)
	windowHeader := l.Window.String()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if k == "" {
				slogx.FromContext(r.Context()).Warn("rate limit: no key for request, letting it through",
					"path", r.URL.Path)
				next.ServeHTTP(w, r)
				return
			}

			now := time.Now()
			res := set.get(k, now).ReserveN(now, 1)
			delay := res.DelayFrom(now)
			if !res.OK() {
				delay = l.Window
			}
			if delay > 0 {
				res.CancelAt(now)
				retry := max(int(math.Ceil(delay.Seconds())), 1)

				h := w.Header()
				h.Set("Retry-After", strconv.Itoa(retry))
				h.Set("X-RateLimit-Limit", limitHeader)
				h.Set("X-RateLimit-Window", windowHeader)

				slogx.FromContext(r.Context()).Warn("rate limit exceeded",
					"key", k,
					"path", r.URL.Path,
					"retry_after", retry,
				)
				WriteError(w, r, TooManyRequests(MsgTooManyRequests))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitByIP limits per client address.
func RateLimitByIP(l Limit) Middleware {
	return RateLimit(l, ClientIP)
}

// RateLimitByUser limits per authenticated user and address. It must run
// after Authenticate; before that it degrades to per-address limiting.
func RateLimitByUser(l Limit) Middleware {
	return RateLimit(l, JoinKeys(UserKey, ClientIP))
}

// RateLimitByIPAndJSONField limits per address and body field, so repeated
// logins against one account are throttled without locking out a shared
// address.
func RateLimitByIPAndJSONField(l Limit, field string) Middleware {
	return RateLimit(l, JoinKeys(ClientIP, JSONFieldKey(field)))
}
