package occurrence

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrInvalidTransition indica transição não permitida a partir do status atual.
	ErrInvalidTransition = errors.New("transição inválida para o status atual")
	// ErrUnknownTransition indica nome de transição fora do vocabulário.
	ErrUnknownTransition = errors.New("transição desconhecida")
	// ErrMissingInput indica que a transição exige dados não informados.
	ErrMissingInput = errors.New("dados obrigatórios ausentes")
)

// Transition nomeia um passo do ciclo de vida.
type Transition string

const (
	TransitionForward        Transition = "forward"
	TransitionAuthorize      Transition = "authorize"
	TransitionReturn         Transition = "return"
	TransitionCancel         Transition = "cancel"
	TransitionSchedule       Transition = "schedule"
	TransitionStart          Transition = "start"
	TransitionPause          Transition = "pause"
	TransitionResume         Transition = "resume"
	TransitionExecute        Transition = "execute"
	TransitionComplete       Transition = "complete"
	TransitionPreInspection  Transition = "pre_inspection"
	TransitionPostInspection Transition = "post_inspection"
)

// TransitionInput carrega os dados que acompanham cada passo.
type TransitionInput struct {
	Reason           string
	CompanyID        string
	TeamID           string
	ScheduledDate    *time.Time
	ScheduledTime    string
	EstimatedHours   *float64
	ActualHours      *float64
	Notes            string
	CompanyConfirmed bool
	InspectionDate   *time.Time
}

type rule struct {
	from  []Status
	to    Status // vazio mantém o status atual
	apply func(o *Occurrence, in TransitionInput, now time.Time) error
}

var rules = map[Transition]rule{
	TransitionForward: {
		from: []Status{StatusCreated},
		to:   StatusForwarded,
		apply: func(o *Occurrence, _ TransitionInput, now time.Time) error {
			stamp(&o.ForwardedAt, now)
			return nil
		},
	},
	TransitionAuthorize: {
		from: []Status{StatusCreated, StatusForwarded, StatusUnderReview},
		to:   StatusAuthorized,
		apply: func(o *Occurrence, _ TransitionInput, now time.Time) error {
			stamp(&o.ApprovedAtRegional, now)
			return nil
		},
	},
	TransitionReturn: {
		from: []Status{StatusForwarded, StatusUnderReview},
		to:   StatusReturned,
		apply: func(o *Occurrence, in TransitionInput, _ time.Time) error {
			if reason := strings.TrimSpace(in.Reason); reason != "" {
				o.Observations = appendNote(o.Observations, "Devolvida: "+reason)
			}
			return nil
		},
	},
	TransitionCancel: {
		from: []Status{StatusCreated, StatusForwarded, StatusUnderReview, StatusReturned, StatusAuthorized, StatusScheduled},
		to:   StatusCanceled,
		apply: func(o *Occurrence, in TransitionInput, _ time.Time) error {
			reason := strings.TrimSpace(in.Reason)
			if reason == "" {
				return fmt.Errorf("%w: motivo do cancelamento", ErrMissingInput)
			}
			o.CancelReason = reason
			return nil
		},
	},
	TransitionSchedule: {
		from: []Status{StatusAuthorized},
		to:   StatusScheduled,
		apply: func(o *Occurrence, in TransitionInput, _ time.Time) error {
			company := strings.TrimSpace(in.CompanyID)
			if company == "" {
				company = o.CompanyID
			}
			if company == "" {
				return fmt.Errorf("%w: empresa", ErrMissingInput)
			}
			if in.ScheduledDate == nil {
				return fmt.Errorf("%w: data do agendamento", ErrMissingInput)
			}
			o.CompanyID = company
			if team := strings.TrimSpace(in.TeamID); team != "" {
				o.TeamID = team
			}
			stamp(&o.ScheduledDate, *in.ScheduledDate)
			if o.ScheduledTime == "" {
				o.ScheduledTime = strings.TrimSpace(in.ScheduledTime)
			}
			if in.EstimatedHours != nil {
				o.EstimatedHours = cloneFloat(in.EstimatedHours)
			}
			return nil
		},
	},
	TransitionStart: {
		from: []Status{StatusScheduled},
		to:   StatusInExecution,
		apply: func(o *Occurrence, _ TransitionInput, now time.Time) error {
			stamp(&o.StartedAt, now)
			return nil
		},
	},
	TransitionPause: {
		from: []Status{StatusInExecution},
		to:   StatusPaused,
		apply: func(o *Occurrence, in TransitionInput, _ time.Time) error {
			if reason := strings.TrimSpace(in.Reason); reason != "" {
				o.ExecutionNotes = appendNote(o.ExecutionNotes, "Pausada: "+reason)
			}
			return nil
		},
	},
	TransitionResume: {
		from: []Status{StatusPaused},
		to:   StatusInExecution,
	},
	TransitionExecute: {
		from: []Status{StatusInExecution},
		to:   StatusExecuted,
		apply: func(o *Occurrence, in TransitionInput, _ time.Time) error {
			if in.ActualHours != nil {
				o.ActualHours = cloneFloat(in.ActualHours)
			}
			if notes := strings.TrimSpace(in.Notes); notes != "" {
				o.ExecutionNotes = appendNote(o.ExecutionNotes, notes)
			}
			return nil
		},
	},
	TransitionComplete: {
		from: []Status{StatusExecuted},
		to:   StatusCompleted,
		apply: func(o *Occurrence, in TransitionInput, now time.Time) error {
			stamp(&o.CompletedAt, now)
			if in.CompanyConfirmed {
				o.CompanyConfirmed = true
			}
			return nil
		},
	},
	TransitionPreInspection: {
		from: []Status{StatusCreated, StatusForwarded, StatusAuthorized, StatusScheduled},
		apply: func(o *Occurrence, in TransitionInput, now time.Time) error {
			stamp(&o.PreInspectionDate, inspectionDate(in, now))
			return nil
		},
	},
	TransitionPostInspection: {
		from: []Status{StatusExecuted},
		apply: func(o *Occurrence, in TransitionInput, now time.Time) error {
			stamp(&o.PostInspectionDate, inspectionDate(in, now))
			return nil
		},
	},
}

// Transitions devolve o vocabulário de transições em ordem estável.
func Transitions() []Transition {
	return []Transition{
		TransitionForward,
		TransitionAuthorize,
		TransitionReturn,
		TransitionCancel,
		TransitionSchedule,
		TransitionStart,
		TransitionPause,
		TransitionResume,
		TransitionExecute,
		TransitionComplete,
		TransitionPreInspection,
		TransitionPostInspection,
	}
}

// ParseTransition valida o nome de uma transição.
func ParseTransition(raw string) (Transition, error) {
	t := Transition(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := rules[t]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTransition, raw)
	}
	return t, nil
}

// CanApply indica se a transição parte do status informado.
func CanApply(t Transition, from Status) bool {
	r, ok := rules[t]
	if !ok {
		return false
	}
	for _, s := range r.from {
		if s == from {
			return true
		}
	}
	return false
}

// Available lista as transições que partem do status atual.
func Available(from Status) []Transition {
	var out []Transition
	for _, t := range Transitions() {
		if CanApply(t, from) {
			out = append(out, t)
		}
	}
	return out
}

// Apply executa a transição sobre uma cópia da ocorrência. O valor
// original nunca é alterado; marcos já preenchidos são preservados.
func Apply(o Occurrence, t Transition, in TransitionInput, now time.Time) (Occurrence, error) {
	r, ok := rules[t]
	if !ok {
		return o, fmt.Errorf("%w: %q", ErrUnknownTransition, t)
	}
	if !CanApply(t, o.Status) {
		return o, fmt.Errorf("%w: %s a partir de %s", ErrInvalidTransition, t, o.Status)
	}

	next := o.Clone()
	if r.apply != nil {
		if err := r.apply(&next, in, now); err != nil {
			return o, err
		}
	}
	if r.to != "" {
		next.Status = r.to
	}
	next.UpdatedAt = now
	return next, nil
}

// stamp preenche o marco apenas se ainda estiver vazio.
func stamp(field **time.Time, at time.Time) {
	if *field != nil {
		return
	}
	v := at
	*field = &v
}

func inspectionDate(in TransitionInput, now time.Time) time.Time {
	if in.InspectionDate != nil {
		return *in.InspectionDate
	}
	return now
}

func appendNote(existing, note string) string {
	if existing == "" {
		return note
	}
	return existing + "\n" + note
}
