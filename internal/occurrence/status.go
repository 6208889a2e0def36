package occurrence

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownEnumValue indica status, prioridade ou tipo fora do vocabulário.
	ErrUnknownEnumValue = errors.New("valor fora do domínio")
)

// Status representa a etapa do ciclo de vida de uma ocorrência.
type Status string

const (
	StatusCreated     Status = "created"
	StatusForwarded   Status = "forwarded"
	StatusAuthorized  Status = "authorized"
	StatusCanceled    Status = "canceled"
	StatusReturned    Status = "returned"
	StatusUnderReview Status = "under_review"
	StatusScheduled   Status = "scheduled"
	StatusInExecution Status = "in_execution"
	StatusExecuted    Status = "executed"
	StatusCompleted   Status = "completed"
	StatusPaused      Status = "paused"
)

// Priority representa a urgência atribuída pela regional.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	// PriorityUrgent só aparece em dados legados; não é aceita na criação.
	PriorityUrgent Priority = "urgent"
)

// Type classifica o serviço de zeladoria.
type Type string

const (
	TypeSweeping Type = "sweeping"
	TypeWeeding  Type = "weeding"
	TypeSpecial  Type = "special"
)

type badge struct {
	label string
	class string
}

var statusBadges = map[Status]badge{
	StatusCreated:     {"Criada", "bg-slate-100 text-slate-800"},
	StatusForwarded:   {"Encaminhada", "bg-indigo-100 text-indigo-800"},
	StatusAuthorized:  {"Autorizada", "bg-emerald-100 text-emerald-800"},
	StatusCanceled:    {"Cancelada", "bg-red-100 text-red-800"},
	StatusReturned:    {"Devolvida", "bg-orange-100 text-orange-800"},
	StatusUnderReview: {"Em análise", "bg-purple-100 text-purple-800"},
	StatusScheduled:   {"Agendada", "bg-blue-100 text-blue-800"},
	StatusInExecution: {"Em execução", "bg-amber-100 text-amber-800"},
	StatusExecuted:    {"Executada", "bg-teal-100 text-teal-800"},
	StatusCompleted:   {"Concluída", "bg-green-100 text-green-800"},
	StatusPaused:      {"Pausada", "bg-yellow-100 text-yellow-800"},
}

var priorityBadges = map[Priority]badge{
	PriorityLow:    {"Baixa", "bg-green-100 text-green-800"},
	PriorityMedium: {"Média", "bg-yellow-100 text-yellow-800"},
	PriorityHigh:   {"Alta", "bg-red-100 text-red-800"},
	PriorityUrgent: {"Urgente", "bg-red-600 text-white"},
}

var typeLabels = map[Type]string{
	TypeSweeping: "Varrição",
	TypeWeeding:  "Capina",
	TypeSpecial:  "Serviço especial",
}

// Statuses devolve o vocabulário completo na ordem do ciclo de vida.
func Statuses() []Status {
	return []Status{
		StatusCreated,
		StatusForwarded,
		StatusUnderReview,
		StatusReturned,
		StatusAuthorized,
		StatusScheduled,
		StatusInExecution,
		StatusPaused,
		StatusExecuted,
		StatusCompleted,
		StatusCanceled,
	}
}

// Valid indica se o status pertence ao vocabulário.
func (s Status) Valid() bool {
	_, ok := statusBadges[s]
	return ok
}

// Terminal indica status sem transição de saída.
func (s Status) Terminal() bool {
	return s == StatusCanceled || s == StatusCompleted
}

// Valid indica se a prioridade pertence ao vocabulário.
func (p Priority) Valid() bool {
	_, ok := priorityBadges[p]
	return ok
}

// Creatable indica se a prioridade pode ser usada em novas ocorrências.
func (p Priority) Creatable() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// Valid indica se o tipo pertence ao vocabulário.
func (t Type) Valid() bool {
	_, ok := typeLabels[t]
	return ok
}

// LabelOf devolve o rótulo exibido para o status.
func LabelOf(s Status) (string, error) {
	b, ok := statusBadges[s]
	if !ok {
		return "", unknown("status", string(s))
	}
	return b.label, nil
}

// ColorClassOf devolve as classes visuais do badge de status.
func ColorClassOf(s Status) (string, error) {
	b, ok := statusBadges[s]
	if !ok {
		return "", unknown("status", string(s))
	}
	return b.class, nil
}

// PriorityLabel devolve o rótulo exibido para a prioridade.
func PriorityLabel(p Priority) (string, error) {
	b, ok := priorityBadges[p]
	if !ok {
		return "", unknown("prioridade", string(p))
	}
	return b.label, nil
}

// PriorityColorClass devolve as classes visuais do badge de prioridade.
func PriorityColorClass(p Priority) (string, error) {
	b, ok := priorityBadges[p]
	if !ok {
		return "", unknown("prioridade", string(p))
	}
	return b.class, nil
}

// TypeLabel devolve o rótulo do tipo de ocorrência.
func TypeLabel(t Type) (string, error) {
	label, ok := typeLabels[t]
	if !ok {
		return "", unknown("tipo", string(t))
	}
	return label, nil
}

// legacyStatus mapeia grafias antigas (camelCase e rótulos em português).
var legacyStatus = map[string]Status{
	"underreview":  StatusUnderReview,
	"inexecution":  StatusInExecution,
	"criada":       StatusCreated,
	"encaminhada":  StatusForwarded,
	"autorizada":   StatusAuthorized,
	"cancelada":    StatusCanceled,
	"devolvida":    StatusReturned,
	"em análise":   StatusUnderReview,
	"em analise":   StatusUnderReview,
	"agendada":     StatusScheduled,
	"em execução":  StatusInExecution,
	"em execucao":  StatusInExecution,
	"executada":    StatusExecuted,
	"concluída":    StatusCompleted,
	"concluida":    StatusCompleted,
	"pausada":      StatusPaused,
	"em andamento": StatusInExecution,
}

var legacyPriority = map[string]Priority{
	"baixa":   PriorityLow,
	"media":   PriorityMedium,
	"média":   PriorityMedium,
	"alta":    PriorityHigh,
	"urgente": PriorityUrgent,
}

var legacyType = map[string]Type{
	"varricao": TypeSweeping,
	"varrição": TypeSweeping,
	"capina":   TypeWeeding,
	"especial": TypeSpecial,
}

// ParseStatus normaliza e valida um status vindo de fora.
func ParseStatus(raw string) (Status, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if s := Status(v); s.Valid() {
		return s, nil
	}
	if s, ok := legacyStatus[v]; ok {
		return s, nil
	}
	return "", unknown("status", raw)
}

// ParsePriority normaliza e valida uma prioridade vinda de fora.
func ParsePriority(raw string) (Priority, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if p := Priority(v); p.Valid() {
		return p, nil
	}
	if p, ok := legacyPriority[v]; ok {
		return p, nil
	}
	return "", unknown("prioridade", raw)
}

// ParseType normaliza e valida o tipo de ocorrência.
func ParseType(raw string) (Type, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if t := Type(v); t.Valid() {
		return t, nil
	}
	if t, ok := legacyType[v]; ok {
		return t, nil
	}
	return "", unknown("tipo", raw)
}

func unknown(kind, value string) error {
	return fmt.Errorf("%s %q: %w", kind, value, ErrUnknownEnumValue)
}
