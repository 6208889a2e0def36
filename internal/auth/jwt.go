package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/gestaozabele/zeladoria/internal/access"
)

// Audience identifica os tokens emitidos para a API de zeladoria.
const Audience = "zeladoria"

// Claims representa as informações presentes em um JWT de acesso.
type Claims struct {
	Role       string `json:"role"`
	Subrole    string `json:"subrole,omitempty"`
	RegionalID string `json:"regional_id,omitempty"`
	CompanyID  string `json:"company_id,omitempty"`
	jwt.RegisteredClaims
}

// Viewer converte as claims no usuário usado pelas regras de acesso.
func (c *Claims) Viewer() access.Viewer {
	return access.Viewer{
		Role:       access.ParseRole(c.Role),
		Subrole:    access.ParseSubrole(c.Subrole),
		RegionalID: c.RegionalID,
		CompanyID:  c.CompanyID,
	}
}

// JWTManager encapsula geração e validação de tokens.
type JWTManager struct {
	secret    []byte
	accessTTL time.Duration
	now       func() time.Time
}

// NewJWTManager cria o gerenciador com segredo e TTL configurados.
func NewJWTManager(secret string, accessTTL time.Duration) *JWTManager {
	return &JWTManager{secret: []byte(secret), accessTTL: accessTTL, now: time.Now}
}

// GenerateAccessToken cria um JWT HS256 com o perfil do usuário.
func (m *JWTManager) GenerateAccessToken(subject string, viewer access.Viewer) (string, string, error) {
	now := m.now().UTC()
	jti := uuid.NewString()

	claims := Claims{
		Role:       string(viewer.Role),
		Subrole:    string(viewer.Subrole),
		RegionalID: viewer.RegionalID,
		CompanyID:  viewer.CompanyID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Audience:  jwt.ClaimStrings{Audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        jti,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", "", err
	}

	return signed, jti, nil
}

// ParseAndValidate verifica assinatura, audiência e expiração.
func (m *JWTManager) ParseAndValidate(tokenString string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(Audience),
		jwt.WithTimeFunc(m.now),
	)

	token, err := parser.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("token inválido")
	}
	if claims.Role == "" {
		return nil, errors.New("token sem papel")
	}

	return claims, nil
}
