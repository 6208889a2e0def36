package middleware

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// CORSPolicy descreve o que o painel pode chamar a partir do navegador.
// Origens aceitam entrada exata ou curinga de subdomínio ("*.prefeitura.gov.br").
type CORSPolicy struct {
	Origins []string
	Methods []string
	Headers []string
	Expose  []string
	MaxAge  time.Duration
}

type originSet struct {
	exact    map[string]struct{}
	suffixes []string
}

func newOriginSet(entries []string) originSet {
	set := originSet{exact: make(map[string]struct{})}
	for _, e := range entries {
		e = strings.ToLower(strings.TrimSpace(e))
		switch {
		case e == "":
		case strings.HasPrefix(e, "*."):
			set.suffixes = append(set.suffixes, e[1:])
		default:
			set.exact[strings.TrimSuffix(e, "/")] = struct{}{}
		}
	}
	return set
}

// allows exige subdomínio no curinga: a raiz do sufixo não casa.
func (s originSet) allows(origin string) bool {
	origin = strings.ToLower(origin)
	if _, ok := s.exact[origin]; ok {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	host := u.Hostname()
	for _, suf := range s.suffixes {
		if strings.HasSuffix(host, suf) && len(host) > len(suf) {
			return true
		}
	}
	return false
}

// CORS responde ao preflight e marca respostas de origens permitidas.
// Preflight de origem ou método fora da política segue sem cabeçalhos.
func CORS(p CORSPolicy) func(http.Handler) http.Handler {
	origins := newOriginSet(p.Origins)
	methods := make(map[string]struct{}, len(p.Methods))
	for _, m := range p.Methods {
		methods[strings.ToUpper(m)] = struct{}{}
	}
	allowMethods := strings.Join(p.Methods, ", ")
	allowHeaders := strings.Join(p.Headers, ", ")
	expose := strings.Join(p.Expose, ", ")
	maxAge := strconv.Itoa(int(p.MaxAge.Seconds()))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			w.Header().Add("Vary", "Origin")
			allowed := origin != "" && origins.allows(origin)

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				_, okMethod := methods[strings.ToUpper(r.Header.Get("Access-Control-Request-Method"))]
				if allowed && okMethod {
					h := w.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Set("Access-Control-Allow-Credentials", "true")
					h.Set("Access-Control-Allow-Methods", allowMethods)
					h.Set("Access-Control-Allow-Headers", allowHeaders)
					if p.MaxAge > 0 {
						h.Set("Access-Control-Max-Age", maxAge)
					}
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			if allowed {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				if expose != "" {
					w.Header().Set("Access-Control-Expose-Headers", expose)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
