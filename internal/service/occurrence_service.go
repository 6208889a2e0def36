package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gestaozabele/zeladoria/internal/access"
	"github.com/gestaozabele/zeladoria/internal/occurrence"
	"github.com/gestaozabele/zeladoria/internal/query"
	"github.com/gestaozabele/zeladoria/internal/reference"
	"github.com/gestaozabele/zeladoria/internal/store"
	"github.com/gestaozabele/zeladoria/internal/util"
)

var (
	// ErrForbidden indica ausência de permissão para a ação.
	ErrForbidden = errors.New("acesso negado")
	// ErrValidation indica dados de entrada inválidos.
	ErrValidation = errors.New("dados inválidos")
	// ErrNotFound indica ocorrência inexistente ou fora do escopo do usuário.
	ErrNotFound = store.ErrNotFound
)

// Recorder recebe eventos do ciclo de vida para métricas.
type Recorder interface {
	OccurrenceCreated(regionalID string)
	TransitionApplied(t occurrence.Transition, from, to occurrence.Status)
	TransitionRejected(t occurrence.Transition, reason string)
}

type nopRecorder struct{}

func (nopRecorder) OccurrenceCreated(string) {}

func (nopRecorder) TransitionApplied(occurrence.Transition, occurrence.Status, occurrence.Status) {}

func (nopRecorder) TransitionRejected(occurrence.Transition, string) {}

// OccurrenceService reúne as regras de negócio das ocorrências.
type OccurrenceService struct {
	repo      store.Repository
	seq       store.Sequence
	directory *reference.Directory
	recorder  Recorder
	logger    zerolog.Logger
	now       func() time.Time
	location  *time.Location
}

// Option ajusta dependências opcionais do serviço.
type Option func(*OccurrenceService)

// WithDirectory habilita validação e filtros pelo cadastro de referência.
func WithDirectory(d *reference.Directory) Option {
	return func(s *OccurrenceService) { s.directory = d }
}

// WithRecorder registra métricas do ciclo de vida.
func WithRecorder(r Recorder) Option {
	return func(s *OccurrenceService) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithLogger define o logger do componente.
func WithLogger(l zerolog.Logger) Option {
	return func(s *OccurrenceService) { s.logger = l }
}

// WithClock substitui o relógio, usado em testes.
func WithClock(now func() time.Time) Option {
	return func(s *OccurrenceService) { s.now = now }
}

// WithLocation define o fuso dos filtros de data e da contagem diária.
func WithLocation(loc *time.Location) Option {
	return func(s *OccurrenceService) {
		if loc != nil {
			s.location = loc
		}
	}
}

// NewOccurrenceService cria nova instância.
func NewOccurrenceService(repo store.Repository, seq store.Sequence, opts ...Option) *OccurrenceService {
	s := &OccurrenceService{
		repo:     repo,
		seq:      seq,
		recorder: nopRecorder{},
		logger:   zerolog.Nop(),
		now:      time.Now,
		location: time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// View é a ocorrência pronta para exibição, com rótulos e ações.
type View struct {
	occurrence.Occurrence
	StatusLabel   string           `json:"status_label"`
	StatusClass   string           `json:"status_class"`
	PriorityLabel string           `json:"priority_label"`
	PriorityClass string           `json:"priority_class"`
	Actions       access.ActionSet `json:"actions"`
	Transitions   []string         `json:"transitions"`
}

// CreateInput encapsula campos para abertura de ocorrência.
type CreateInput struct {
	ServiceType       string
	Priority          string
	OccurrenceType    string
	Description       string
	Observations      string
	Address           string
	Neighborhood      string
	TerritoryID       string
	Latitude          *float64
	Longitude         *float64
	PublicEquipmentID string
	RegionalID        string
	FiscalID          string
	EstimatedHours    *float64
}

// Create abre nova ocorrência no status created.
func (s *OccurrenceService) Create(ctx context.Context, viewer access.Viewer, input CreateInput) (*View, error) {
	actions, err := viewer.Actions()
	if err != nil {
		return nil, err
	}
	if !actions.Has(access.ActionCreateOccurrence) {
		return nil, fmt.Errorf("%w: %s", ErrForbidden, access.ActionCreateOccurrence)
	}

	regionalID := strings.TrimSpace(input.RegionalID)
	if viewer.Role == access.RoleRegional {
		if regionalID == "" {
			regionalID = viewer.RegionalID
		}
		if regionalID != viewer.RegionalID {
			return nil, fmt.Errorf("%w: regional diferente da do usuário", ErrForbidden)
		}
	}

	if err := util.RequireString(input.Description, "descrição"); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := util.RequireString(regionalID, "regional"); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := util.ValidateCoordinates(input.Latitude, input.Longitude); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	priority := occurrence.PriorityMedium
	if strings.TrimSpace(input.Priority) != "" {
		priority, err = occurrence.ParsePriority(input.Priority)
		if err != nil || !priority.Creatable() {
			return nil, fmt.Errorf("%w: prioridade %q", ErrValidation, input.Priority)
		}
	}

	var typ occurrence.Type
	if strings.TrimSpace(input.OccurrenceType) != "" {
		typ, err = occurrence.ParseType(input.OccurrenceType)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}

	if s.directory != nil {
		if _, err := s.directory.Regional(regionalID); err != nil {
			return nil, fmt.Errorf("%w: regional %q não cadastrada", ErrValidation, regionalID)
		}
	}

	now := s.now().UTC()
	protocol, err := store.NextProtocol(ctx, s.seq, now)
	if err != nil {
		return nil, err
	}

	o := occurrence.Occurrence{
		ID:                util.NewID(),
		Protocol:          protocol,
		ServiceType:       strings.TrimSpace(input.ServiceType),
		Priority:          priority,
		OccurrenceType:    typ,
		Description:       strings.TrimSpace(input.Description),
		Observations:      strings.TrimSpace(input.Observations),
		Address:           strings.TrimSpace(input.Address),
		Neighborhood:      strings.TrimSpace(input.Neighborhood),
		TerritoryID:       strings.TrimSpace(input.TerritoryID),
		Latitude:          input.Latitude,
		Longitude:         input.Longitude,
		PublicEquipmentID: strings.TrimSpace(input.PublicEquipmentID),
		Status:            occurrence.StatusCreated,
		RegionalID:        regionalID,
		FiscalID:          strings.TrimSpace(input.FiscalID),
		EstimatedHours:    input.EstimatedHours,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.repo.Create(ctx, o); err != nil {
		if errors.Is(err, occurrence.ErrInvalidOccurrence) {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		return nil, err
	}

	s.recorder.OccurrenceCreated(o.RegionalID)
	s.logger.Info().Str("protocol", o.Protocol).Str("regional_id", o.RegionalID).
		Str("role", string(viewer.Role)).Msg("ocorrência criada")

	return s.view(viewer, o)
}

// ListResult traz a página solicitada e o total filtrado.
type ListResult struct {
	Items   []View   `json:"items"`
	Total   int      `json:"total"`
	Dropped []string `json:"ignored_filters,omitempty"`
}

// List devolve as ocorrências visíveis ao usuário, filtradas e paginadas.
func (s *OccurrenceService) List(ctx context.Context, viewer access.Viewer, filter query.Filter, limit, offset int) (*ListResult, error) {
	res, err := s.visible(ctx, viewer, filter)
	if err != nil {
		return nil, err
	}

	out := &ListResult{Items: []View{}, Total: len(res.Items)}
	for _, d := range res.Dropped {
		out.Dropped = append(out.Dropped, d.Error())
	}
	for _, o := range query.Page(res.Items, limit, offset) {
		v, err := s.view(viewer, o)
		if err != nil {
			return nil, err
		}
		out.Items = append(out.Items, *v)
	}
	return out, nil
}

// Get recupera uma ocorrência visível ao usuário.
func (s *OccurrenceService) Get(ctx context.Context, viewer access.Viewer, id string) (*View, error) {
	scope, err := viewer.Scope()
	if err != nil {
		return nil, err
	}
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !scope(o) {
		return nil, ErrNotFound
	}
	return s.view(viewer, o)
}

// Transition aplica um passo do ciclo de vida após checar escopo e permissão.
func (s *OccurrenceService) Transition(ctx context.Context, viewer access.Viewer, id string, t occurrence.Transition, input occurrence.TransitionInput) (*View, error) {
	scope, err := viewer.Scope()
	if err != nil {
		return nil, err
	}
	required, ok := access.RequiredAction(t)
	if !ok {
		return nil, fmt.Errorf("%w: %q", occurrence.ErrUnknownTransition, t)
	}
	if err := util.ValidateClock(input.ScheduledTime); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if input.CompanyID != "" && s.directory != nil {
		if _, err := s.directory.Company(input.CompanyID); err != nil {
			return nil, fmt.Errorf("%w: empresa %q não cadastrada", ErrValidation, input.CompanyID)
		}
	}
	var team *reference.Team
	if input.TeamID != "" && s.directory != nil {
		t, err := s.directory.Team(input.TeamID)
		if err != nil {
			return nil, fmt.Errorf("%w: equipe %q não cadastrada", ErrValidation, input.TeamID)
		}
		team = &t
	}

	var from occurrence.Status
	updated, err := s.repo.Update(ctx, id, func(current occurrence.Occurrence) (occurrence.Occurrence, error) {
		if !scope(current) {
			return current, ErrNotFound
		}
		actions, err := viewer.ActionsFor(current)
		if err != nil {
			return current, err
		}
		if !actions.Has(required) {
			return current, fmt.Errorf("%w: %s", ErrForbidden, required)
		}
		if team != nil {
			// a empresa efetiva é a informada ou a já vinculada à ocorrência
			company := strings.TrimSpace(input.CompanyID)
			if company == "" {
				company = current.CompanyID
			}
			if team.CompanyID != company {
				return current, fmt.Errorf("%w: equipe não pertence à empresa", ErrValidation)
			}
		}
		from = current.Status
		return occurrence.Apply(current, t, input, s.now().UTC())
	})
	if err != nil {
		s.recorder.TransitionRejected(t, rejectReason(err))
		s.logger.Warn().Err(err).Str("id", id).Str("transition", string(t)).
			Str("role", string(viewer.Role)).Str("subrole", string(viewer.Subrole)).Msg("transição recusada")
		return nil, err
	}

	s.recorder.TransitionApplied(t, from, updated.Status)
	s.logger.Info().Str("protocol", updated.Protocol).Str("transition", string(t)).
		Str("from", string(from)).Str("to", string(updated.Status)).Msg("transição aplicada")

	return s.view(viewer, updated)
}

// TeamSnapshots calcula a ocupação das equipes visíveis ao usuário.
func (s *OccurrenceService) TeamSnapshots(ctx context.Context, viewer access.Viewer) ([]query.TeamSnapshot, error) {
	res, err := s.visible(ctx, viewer, query.Filter{SortByUpdatedDesc: true})
	if err != nil {
		return nil, err
	}
	snaps := query.TeamOccupancy(res.Items)
	if snaps == nil {
		snaps = []query.TeamSnapshot{}
	}
	return snaps, nil
}

// Stats resume o painel do usuário.
type Stats struct {
	Total      int                         `json:"total"`
	ByStatus   map[occurrence.Status]int   `json:"by_status"`
	ByPriority map[occurrence.Priority]int `json:"by_priority"`
	ByDay      map[string]int              `json:"by_day"`
}

// Stats agrega as ocorrências visíveis para os cards e gráficos.
func (s *OccurrenceService) Stats(ctx context.Context, viewer access.Viewer, filter query.Filter) (*Stats, error) {
	res, err := s.visible(ctx, viewer, filter)
	if err != nil {
		return nil, err
	}
	byPriority := make(map[occurrence.Priority]int)
	for _, o := range res.Items {
		byPriority[o.Priority]++
	}
	return &Stats{
		Total:      len(res.Items),
		ByStatus:   query.CountByStatus(res.Items),
		ByPriority: byPriority,
		ByDay:      query.CountByDay(res.Items, s.location),
	}, nil
}

var csvHeader = []string{"protocolo", "status", "prioridade", "tipo_servico", "descricao", "endereco", "bairro", "regional", "empresa", "equipe", "criada_em", "atualizada_em"}

// ExportCSV grava as ocorrências visíveis e filtradas em CSV.
func (s *OccurrenceService) ExportCSV(ctx context.Context, viewer access.Viewer, filter query.Filter, w io.Writer) (int, error) {
	actions, err := viewer.Actions()
	if err != nil {
		return 0, err
	}
	if !actions.Has(access.ActionExportCSV) {
		return 0, fmt.Errorf("%w: %s", ErrForbidden, access.ActionExportCSV)
	}

	res, err := s.visible(ctx, viewer, filter)
	if err != nil {
		return 0, err
	}

	var names map[string]string
	if s.directory != nil {
		names = s.directory.RegionalNames()
	}

	cw := csv.NewWriter(w)
	cw.Comma = ';'
	if err := cw.Write(csvHeader); err != nil {
		return 0, err
	}
	for _, o := range res.Items {
		label, err := occurrence.LabelOf(o.Status)
		if err != nil {
			return 0, err
		}
		priority, err := occurrence.PriorityLabel(o.Priority)
		if err != nil {
			return 0, err
		}
		regional := o.RegionalID
		if name, ok := names[o.RegionalID]; ok {
			regional = name
		}
		record := []string{
			o.Protocol, label, priority, o.ServiceType, o.Description, o.Address, o.Neighborhood,
			regional, o.CompanyID, o.TeamID,
			o.CreatedAt.Format(time.RFC3339), o.UpdatedAt.Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return 0, err
		}
	}
	cw.Flush()
	return len(res.Items), cw.Error()
}

// ViewerActions devolve as ações gerais do usuário.
func (s *OccurrenceService) ViewerActions(viewer access.Viewer) (access.ActionSet, error) {
	return viewer.Actions()
}

func (s *OccurrenceService) visible(ctx context.Context, viewer access.Viewer, filter query.Filter) (query.Result, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return query.Result{}, err
	}

	opts := []query.Option{query.WithLocation(s.location)}
	if s.directory != nil {
		opts = append(opts, query.WithRegionalNames(s.directory.RegionalNames()))
	}

	res, err := query.VisibleOccurrences(items, filter, viewer, opts...)
	if err != nil {
		return query.Result{}, err
	}
	for _, d := range res.Dropped {
		s.logger.Debug().Err(d).Msg("filtro ignorado")
	}
	return res, nil
}

func (s *OccurrenceService) view(viewer access.Viewer, o occurrence.Occurrence) (*View, error) {
	label, err := occurrence.LabelOf(o.Status)
	if err != nil {
		return nil, err
	}
	class, err := occurrence.ColorClassOf(o.Status)
	if err != nil {
		return nil, err
	}
	pLabel, err := occurrence.PriorityLabel(o.Priority)
	if err != nil {
		return nil, err
	}
	pClass, err := occurrence.PriorityColorClass(o.Priority)
	if err != nil {
		return nil, err
	}
	actions, err := viewer.ActionsFor(o)
	if err != nil {
		return nil, err
	}

	transitions := []string{}
	for _, t := range occurrence.Available(o.Status) {
		if required, ok := access.RequiredAction(t); ok && actions.Has(required) {
			transitions = append(transitions, string(t))
		}
	}

	return &View{
		Occurrence:    o,
		StatusLabel:   label,
		StatusClass:   class,
		PriorityLabel: pLabel,
		PriorityClass: pClass,
		Actions:       actions,
		Transitions:   transitions,
	}, nil
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrForbidden), errors.Is(err, access.ErrUnauthorizedRole):
		return "forbidden"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, occurrence.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, occurrence.ErrMissingInput), errors.Is(err, occurrence.ErrInvalidOccurrence):
		return "invalid_input"
	case errors.Is(err, store.ErrImmutableField):
		return "immutable_field"
	default:
		return "error"
	}
}
