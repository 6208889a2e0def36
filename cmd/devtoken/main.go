package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/gestaozabele/zeladoria/internal/access"
	"github.com/gestaozabele/zeladoria/internal/auth"
)

func main() {
	_ = godotenv.Load()

	var (
		subject  = flag.String("sub", "dev", "identificador do usuário")
		role     = flag.String("role", "", "papel: cegor, regional, empresa ou adm")
		subrole  = flag.String("subrole", "", "subpapel: gestor, operador, fiscal, supervisor ou gerente")
		regional = flag.String("regional", "", "regional do usuário (papel regional)")
		company  = flag.String("company", "", "empresa do usuário (papel empresa)")
		ttl      = flag.Duration("ttl", 12*time.Hour, "validade do token")
	)
	flag.Parse()

	secret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if len(secret) < 32 {
		fmt.Fprintln(os.Stderr, "defina JWT_SECRET com pelo menos 32 caracteres")
		os.Exit(1)
	}

	viewer := access.Viewer{
		Role:       access.ParseRole(*role),
		Subrole:    access.ParseSubrole(*subrole),
		RegionalID: strings.TrimSpace(*regional),
		CompanyID:  strings.TrimSpace(*company),
	}
	actions, err := viewer.Actions()
	if err != nil {
		fmt.Fprintf(os.Stderr, "perfil inválido: %v\n", err)
		os.Exit(1)
	}

	token, _, err := auth.NewJWTManager(secret, *ttl).GenerateAccessToken(*subject, viewer)
	if err != nil {
		fmt.Fprintf(os.Stderr, "token error: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "ações: %v\n", actions.List())
	fmt.Println(token)
}
