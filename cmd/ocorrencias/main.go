package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gestaozabele/zeladoria/internal/access"
	"github.com/gestaozabele/zeladoria/internal/db"
	"github.com/gestaozabele/zeladoria/internal/query"
	"github.com/gestaozabele/zeladoria/internal/reference"
	"github.com/gestaozabele/zeladoria/internal/service"
	"github.com/gestaozabele/zeladoria/internal/store"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	_ = godotenv.Load()

	ctx := context.Background()
	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "list":
		err = runList(ctx, args)
	case "teams":
		err = runTeams(ctx, args)
	case "export":
		err = runExport(ctx, args)
	case "import":
		err = runImport(ctx, args)
	default:
		usage()
		os.Exit(1)
	}
	if err != nil {
		log.Fatal().Err(err).Str("cmd", cmd).Msg("falha no comando")
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "ocorrencias CLI")
	fmt.Fprintln(os.Stderr, "uso:")
	fmt.Fprintln(os.Stderr, "  ocorrencias list [--seed dados.json] [--role regional --subrole gestor --regional-id 1] [--status forwarded] [--search texto]")
	fmt.Fprintln(os.Stderr, "  ocorrencias teams [--seed dados.json] [--role empresa --subrole supervisor --company-id c1]")
	fmt.Fprintln(os.Stderr, "  ocorrencias export [--seed dados.json] [--out ocorrencias.csv]")
	fmt.Fprintln(os.Stderr, "  ocorrencias import --seed dados.json   (grava no Postgres de DB_DSN)")
}

// common reúne as flags compartilhadas pelos comandos.
type common struct {
	seed     string
	role     string
	subrole  string
	regional string
	company  string
}

func (c *common) register(fs *flag.FlagSet) {
	fs.StringVar(&c.seed, "seed", "", "arquivo JSON de carga; sem ele usa o Postgres de DB_DSN")
	fs.StringVar(&c.role, "role", string(access.RoleAdm), "papel do usuário")
	fs.StringVar(&c.subrole, "subrole", "", "subpapel do usuário")
	fs.StringVar(&c.regional, "regional-id", "", "regional do usuário")
	fs.StringVar(&c.company, "company-id", "", "empresa do usuário")
}

func (c *common) viewer() access.Viewer {
	return access.Viewer{
		Role:       access.ParseRole(c.role),
		Subrole:    access.ParseSubrole(c.subrole),
		RegionalID: strings.TrimSpace(c.regional),
		CompanyID:  strings.TrimSpace(c.company),
	}
}

// open monta o serviço sobre o arquivo de carga ou sobre o Postgres.
func (c *common) open(ctx context.Context) (*service.OccurrenceService, func(), error) {
	if c.seed != "" {
		seed, err := store.LoadSeed(c.seed)
		if err != nil {
			return nil, nil, err
		}
		svc := service.NewOccurrenceService(
			store.NewMemoryStore(seed.Occurrences),
			store.NewMemorySequence(seed.Occurrences),
			service.WithDirectory(reference.NewDirectory(seed.Reference)),
		)
		return svc, func() {}, nil
	}

	dsn := strings.TrimSpace(os.Getenv("DB_DSN"))
	if dsn == "" {
		return nil, nil, errors.New("defina --seed ou DB_DSN")
	}
	pool, err := db.NewPool(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("não foi possível conectar ao banco: %w", err)
	}
	repo := store.NewPostgresStore(pool)
	existing, err := repo.List(ctx)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	return service.NewOccurrenceService(repo, store.NewMemorySequence(existing)), pool.Close, nil
}

func filterFlags(fs *flag.FlagSet) *query.Filter {
	f := &query.Filter{}
	fs.StringVar(&f.SearchTerm, "search", "", "busca em protocolo, descrição, endereço e bairro")
	fs.StringVar(&f.Status, "status", "", "status")
	fs.StringVar(&f.Priority, "priority", "", "prioridade")
	fs.StringVar(&f.RegionalName, "regional", "", "nome da regional")
	fs.StringVar(&f.Neighborhood, "neighborhood", "", "bairro")
	fs.StringVar(&f.ServiceType, "service-type", "", "tipo de serviço")
	fs.StringVar(&f.DateFrom, "from", "", "data inicial AAAA-MM-DD")
	fs.StringVar(&f.DateTo, "to", "", "data final AAAA-MM-DD")
	fs.BoolVar(&f.SortByUpdatedDesc, "recent", false, "ordena pela atualização mais recente")
	return f
}

func runList(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var c common
	c.register(fs)
	filter := filterFlags(fs)
	limit := fs.Int("limit", query.DefaultLimit, "quantidade máxima")
	if err := fs.Parse(args); err != nil {
		return err
	}

	svc, closeFn, err := c.open(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	result, err := svc.List(ctx, c.viewer(), *filter, *limit, 0)
	if err != nil {
		return err
	}
	for _, d := range result.Dropped {
		log.Warn().Str("filter", d).Msg("filtro ignorado")
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PROTOCOLO\tSTATUS\tPRIORIDADE\tSERVIÇO\tBAIRRO\tATUALIZADA")
	for _, v := range result.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", v.Protocol, v.StatusLabel, v.PriorityLabel, v.ServiceType, v.Neighborhood, v.UpdatedAt.Format("02/01/2006 15:04"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Printf("%d de %d ocorrência(s)\n", len(result.Items), result.Total)
	return nil
}

func runTeams(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("teams", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var c common
	c.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	svc, closeFn, err := c.open(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	snaps, err := svc.TeamSnapshots(ctx, c.viewer())
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "EQUIPE\tSITUAÇÃO\tPROTOCOLO\tSTATUS")
	for _, s := range snaps {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.TeamID, s.State, s.Occurrence.Protocol, s.Occurrence.Status)
	}
	return tw.Flush()
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var c common
	c.register(fs)
	filter := filterFlags(fs)
	out := fs.String("out", "", "arquivo de saída; vazio escreve no stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}

	svc, closeFn, err := c.open(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	var w io.Writer = os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	n, err := svc.ExportCSV(ctx, c.viewer(), *filter, w)
	if err != nil {
		return err
	}
	log.Info().Int("rows", n).Str("out", *out).Msg("exportação concluída")
	return nil
}

func runImport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	seedPath := fs.String("seed", "", "arquivo JSON de carga")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *seedPath == "" {
		return errors.New("--seed é obrigatório")
	}

	dsn := strings.TrimSpace(os.Getenv("DB_DSN"))
	if dsn == "" {
		return errors.New("defina DB_DSN")
	}

	seed, err := store.LoadSeed(*seedPath)
	if err != nil {
		return err
	}

	pool, err := db.NewPool(ctx, dsn)
	if err != nil {
		return fmt.Errorf("não foi possível conectar ao banco: %w", err)
	}
	defer pool.Close()

	repo := store.NewPostgresStore(pool)
	var created, skipped int
	for _, o := range seed.Occurrences {
		if err := repo.Create(ctx, o); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				skipped++
				continue
			}
			return fmt.Errorf("%s: %w", o.Protocol, err)
		}
		created++
	}

	log.Info().Int("created", created).Int("skipped", skipped).Msg("carga importada")
	return nil
}
