package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gestaozabele/zeladoria/internal/access"
	"github.com/gestaozabele/zeladoria/internal/auth"
)

type contextKey string

const (
	ContextKeySubject contextKey = "subject"
	ContextKeyViewer  contextKey = "viewer"
)

// TokenParser valida o token e devolve as claims.
type TokenParser interface {
	ParseAndValidate(token string) (*auth.Claims, error)
}

// Auth valida JWT de acesso e injeta o usuário no contexto.
func Auth(parser TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				writeError(w, http.StatusUnauthorized, "AUTH", "token ausente")
				return
			}

			claims, err := parser.ParseAndValidate(strings.TrimSpace(parts[1]))
			if err != nil {
				writeError(w, http.StatusUnauthorized, "AUTH", "token inválido")
				return
			}

			ctx := SetViewer(r.Context(), claims.Subject, claims.Viewer())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SetViewer injeta subject e usuário no contexto.
func SetViewer(ctx context.Context, subject string, viewer access.Viewer) context.Context {
	ctx = context.WithValue(ctx, ContextKeySubject, subject)
	return context.WithValue(ctx, ContextKeyViewer, viewer)
}

// GetSubject recupera subject do contexto.
func GetSubject(ctx context.Context) string {
	val, _ := ctx.Value(ContextKeySubject).(string)
	return val
}

// GetViewer recupera o usuário autenticado do contexto.
func GetViewer(ctx context.Context) (access.Viewer, bool) {
	val, ok := ctx.Value(ContextKeyViewer).(access.Viewer)
	return val, ok
}

// RequireAction barra usuários sem a ação geral informada.
func RequireAction(action access.ActionID) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			viewer, ok := GetViewer(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "AUTH", "usuário não identificado")
				return
			}
			actions, err := viewer.Actions()
			if err != nil || !actions.Has(action) {
				writeError(w, http.StatusForbidden, "FORBIDDEN", "permissão negada")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data": nil,
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}
