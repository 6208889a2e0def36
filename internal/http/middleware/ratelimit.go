package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/gestaozabele/zeladoria/internal/access"
)

const sweepEvery = time.Minute

// Limiter mantém um balde por chave. Baldes sem uso há mais de idle
// são descartados na varredura seguinte.
type Limiter struct {
	limit rate.Limit
	burst int
	idle  time.Duration
	now   func() time.Time

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// NewLimiter cria o limitador no formato rps/burst da configuração.
func NewLimiter(rps float64, burst int) *Limiter {
	return &Limiter{
		limit:   rate.Limit(rps),
		burst:   burst,
		idle:    10 * time.Minute,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

// Allow consome uma ficha da chave; quando recusa, informa a espera.
func (l *Limiter) Allow(key string) (bool, time.Duration) {
	now := l.now()

	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.seen = now
	if now.Sub(l.lastSweep) > sweepEvery {
		for k, other := range l.buckets {
			if now.Sub(other.seen) > l.idle {
				delete(l.buckets, k)
			}
		}
		l.lastSweep = now
	}
	l.mu.Unlock()

	res := b.lim.ReserveN(now, 1)
	if !res.OK() {
		return false, time.Second
	}
	if wait := res.DelayFrom(now); wait > 0 {
		res.CancelAt(now)
		return false, wait
	}
	return true, 0
}

// KeyFunc escolhe o balde da requisição; vazio dispensa o limite.
type KeyFunc func(*http.Request) string

// ByIP agrupa pelo endereço do cliente (RemoteAddr já tratado por RealIP).
func ByIP(r *http.Request) string {
	return "ip:" + clientIP(r)
}

// ByViewer agrupa pelo usuário autenticado dentro do seu escopo, de modo
// que o mesmo subject com outra regional ou empresa use outro balde.
// Sem usuário no contexto cai para o IP.
func ByViewer(r *http.Request) string {
	viewer, ok := GetViewer(r.Context())
	if !ok {
		return ByIP(r)
	}
	scope := ""
	switch viewer.Role {
	case access.RoleRegional:
		scope = viewer.RegionalID
	case access.RoleEmpresa:
		scope = viewer.CompanyID
	}
	subject := GetSubject(r.Context())
	if subject == "" {
		subject = clientIP(r)
	}
	return string(viewer.Role) + ":" + scope + ":" + subject
}

// Throttle recusa com 429 e Retry-After quando o balde da chave esgota.
func Throttle(l *Limiter, key KeyFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if k == "" {
				next.ServeHTTP(w, r)
				return
			}
			if ok, wait := l.Allow(k); !ok {
				secs := int(math.Ceil(wait.Seconds()))
				if secs < 1 {
					secs = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				writeError(w, http.StatusTooManyRequests, "RATE_LIMIT", "limite de requisições excedido")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
