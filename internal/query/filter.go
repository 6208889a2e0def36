package query

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gestaozabele/zeladoria/internal/access"
	"github.com/gestaozabele/zeladoria/internal/occurrence"
)

var (
	// ErrInvalidFilterValue marca filtros descartados por valor malformado.
	ErrInvalidFilterValue = errors.New("valor de filtro inválido")
)

const dateLayout = "2006-01-02"

// Filter reúne os critérios opcionais das telas de listagem. Campos vazios
// não restringem o resultado.
type Filter struct {
	SearchTerm        string
	Status            string
	Priority          string
	RegionalName      string
	Neighborhood      string
	ServiceType       string
	OccurrenceType    string
	CompanyID         string
	TeamID            string
	DateFrom          string
	DateTo            string
	SortByUpdatedDesc bool
}

// Result traz o subconjunto visível e os filtros ignorados.
type Result struct {
	Items   []occurrence.Occurrence
	Dropped []error
}

// Option ajusta a avaliação dos filtros.
type Option func(*options)

type options struct {
	regionalNames map[string]string
	location      *time.Location
}

// WithRegionalNames resolve o filtro RegionalName pelo cadastro de regionais
// (id -> nome). Sem ele, o filtro compara diretamente com regional_id.
func WithRegionalNames(names map[string]string) Option {
	return func(o *options) { o.regionalNames = names }
}

// WithLocation define o fuso usado para interpretar DateFrom/DateTo.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.location = loc
		}
	}
}

type predicate func(occurrence.Occurrence) bool

// VisibleOccurrences aplica escopo do usuário, filtros (E lógico) e
// ordenação opcional. A coleção de entrada não é alterada.
func VisibleOccurrences(items []occurrence.Occurrence, filter Filter, viewer access.Viewer, opts ...Option) (Result, error) {
	scope, err := viewer.Scope()
	if err != nil {
		return Result{}, err
	}

	cfg := options{location: time.UTC}
	for _, opt := range opts {
		opt(&cfg)
	}

	preds, dropped := compile(filter, cfg)

	out := make([]occurrence.Occurrence, 0, len(items))
	for _, o := range items {
		if !scope(o) {
			continue
		}
		if matchAll(o, preds) {
			out = append(out, o)
		}
	}

	if filter.SortByUpdatedDesc {
		SortByUpdatedDesc(out)
	}

	return Result{Items: out, Dropped: dropped}, nil
}

// SortByUpdatedDesc ordena do mais recente para o mais antigo, mantendo a
// ordem relativa em empates.
func SortByUpdatedDesc(items []occurrence.Occurrence) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].UpdatedAt.After(items[j].UpdatedAt)
	})
}

func matchAll(o occurrence.Occurrence, preds []predicate) bool {
	for _, p := range preds {
		if !p(o) {
			return false
		}
	}
	return true
}

func compile(f Filter, cfg options) ([]predicate, []error) {
	var (
		preds   []predicate
		dropped []error
	)

	if term := strings.ToLower(strings.TrimSpace(f.SearchTerm)); term != "" {
		preds = append(preds, func(o occurrence.Occurrence) bool {
			return strings.Contains(strings.ToLower(o.Protocol), term) ||
				strings.Contains(strings.ToLower(o.Description), term)
		})
	}

	if raw := strings.TrimSpace(f.Status); raw != "" && !isAll(raw) {
		status, err := occurrence.ParseStatus(raw)
		if err != nil {
			// status desconhecido não casa com nenhuma ocorrência
			preds = append(preds, func(occurrence.Occurrence) bool { return false })
		} else {
			preds = append(preds, func(o occurrence.Occurrence) bool { return o.Status == status })
		}
	}

	if raw := strings.TrimSpace(f.Priority); raw != "" && !isAll(raw) {
		priority, err := occurrence.ParsePriority(raw)
		if err != nil {
			preds = append(preds, func(occurrence.Occurrence) bool { return false })
		} else {
			preds = append(preds, func(o occurrence.Occurrence) bool { return o.Priority == priority })
		}
	}

	if name := strings.TrimSpace(f.RegionalName); name != "" && !isAll(name) {
		names := cfg.regionalNames
		preds = append(preds, func(o occurrence.Occurrence) bool {
			if names == nil {
				return o.RegionalID == name
			}
			return strings.EqualFold(names[o.RegionalID], name)
		})
	}

	if v := strings.TrimSpace(f.Neighborhood); v != "" && !isAll(v) {
		preds = append(preds, func(o occurrence.Occurrence) bool { return strings.EqualFold(o.Neighborhood, v) })
	}

	if v := strings.TrimSpace(f.ServiceType); v != "" && !isAll(v) {
		preds = append(preds, func(o occurrence.Occurrence) bool { return strings.EqualFold(o.ServiceType, v) })
	}

	if raw := strings.TrimSpace(f.OccurrenceType); raw != "" && !isAll(raw) {
		typ, err := occurrence.ParseType(raw)
		if err != nil {
			preds = append(preds, func(occurrence.Occurrence) bool { return false })
		} else {
			preds = append(preds, func(o occurrence.Occurrence) bool { return o.OccurrenceType == typ })
		}
	}

	if v := strings.TrimSpace(f.CompanyID); v != "" {
		preds = append(preds, func(o occurrence.Occurrence) bool { return o.CompanyID == v })
	}

	if v := strings.TrimSpace(f.TeamID); v != "" {
		preds = append(preds, func(o occurrence.Occurrence) bool { return o.TeamID == v })
	}

	if raw := strings.TrimSpace(f.DateFrom); raw != "" {
		day, err := time.ParseInLocation(dateLayout, raw, cfg.location)
		if err != nil {
			dropped = append(dropped, fmt.Errorf("%w: dateFrom %q", ErrInvalidFilterValue, raw))
		} else {
			preds = append(preds, func(o occurrence.Occurrence) bool { return !o.CreatedAt.Before(day) })
		}
	}

	if raw := strings.TrimSpace(f.DateTo); raw != "" {
		day, err := time.ParseInLocation(dateLayout, raw, cfg.location)
		if err != nil {
			dropped = append(dropped, fmt.Errorf("%w: dateTo %q", ErrInvalidFilterValue, raw))
		} else {
			// limite inclusivo até 23:59:59.999999999 do dia
			end := day.AddDate(0, 0, 1)
			preds = append(preds, func(o occurrence.Occurrence) bool { return o.CreatedAt.Before(end) })
		}
	}

	return preds, dropped
}

func isAll(v string) bool {
	v = strings.ToLower(v)
	return v == "all" || v == "todos" || v == "todas"
}
