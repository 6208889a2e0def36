package occurrence

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrInvalidOccurrence agrupa violações de invariantes do registro.
	ErrInvalidOccurrence = errors.New("ocorrência inválida")
)

// Occurrence representa um problema de zeladoria reportado e acompanhado
// até a conclusão.
type Occurrence struct {
	ID             string   `json:"id"`
	Protocol       string   `json:"protocol"`
	ServiceType    string   `json:"service_type"`
	Priority       Priority `json:"priority"`
	OccurrenceType Type     `json:"occurrence_type,omitempty"`
	Description    string   `json:"description"`
	Observations   string   `json:"observations,omitempty"`

	Address           string   `json:"address"`
	Neighborhood      string   `json:"neighborhood,omitempty"`
	TerritoryID       string   `json:"territory_id,omitempty"`
	Latitude          *float64 `json:"latitude,omitempty"`
	Longitude         *float64 `json:"longitude,omitempty"`
	PublicEquipmentID string   `json:"public_equipment_id,omitempty"`

	Status Status `json:"status"`

	RegionalID string `json:"regional_id"`
	FiscalID   string `json:"fiscal_id,omitempty"`
	CompanyID  string `json:"company_id,omitempty"`
	TeamID     string `json:"team_id,omitempty"`

	CreatedAt          time.Time  `json:"created_at"`
	ForwardedAt        *time.Time `json:"forwarded_at,omitempty"`
	ApprovedAtRegional *time.Time `json:"approved_at_regional,omitempty"`
	ScheduledDate      *time.Time `json:"scheduled_date,omitempty"`
	ScheduledTime      string     `json:"scheduled_time,omitempty"`
	PreInspectionDate  *time.Time `json:"pre_inspection_date,omitempty"`
	StartedAt          *time.Time `json:"started_at,omitempty"`
	PostInspectionDate *time.Time `json:"post_inspection_date,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	UpdatedAt          time.Time  `json:"updated_at"`

	EstimatedHours   *float64 `json:"estimated_hours,omitempty"`
	ActualHours      *float64 `json:"actual_hours,omitempty"`
	ExecutionNotes   string   `json:"execution_notes,omitempty"`
	CancelReason     string   `json:"cancel_reason,omitempty"`
	CompanyConfirmed bool     `json:"company_confirmed"`
}

// Validate verifica as invariantes estruturais do registro.
func (o Occurrence) Validate() error {
	var problems []string

	if strings.TrimSpace(o.ID) == "" {
		problems = append(problems, "id obrigatório")
	}
	if _, _, err := ParseProtocol(o.Protocol); err != nil {
		problems = append(problems, err.Error())
	}
	if strings.TrimSpace(o.Description) == "" {
		problems = append(problems, "descrição obrigatória")
	}
	if strings.TrimSpace(o.RegionalID) == "" {
		problems = append(problems, "regional obrigatória")
	}
	if !o.Status.Valid() {
		problems = append(problems, fmt.Sprintf("status %q desconhecido", o.Status))
	}
	if !o.Priority.Valid() {
		problems = append(problems, fmt.Sprintf("prioridade %q desconhecida", o.Priority))
	}
	if o.OccurrenceType != "" && !o.OccurrenceType.Valid() {
		problems = append(problems, fmt.Sprintf("tipo %q desconhecido", o.OccurrenceType))
	}
	if o.Status == StatusCanceled && strings.TrimSpace(o.CancelReason) == "" {
		problems = append(problems, "motivo do cancelamento obrigatório")
	}
	if o.CreatedAt.IsZero() {
		problems = append(problems, "created_at obrigatório")
	}
	if o.UpdatedAt.IsZero() {
		problems = append(problems, "updated_at obrigatório")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidOccurrence, strings.Join(problems, "; "))
	}
	return nil
}

// Milestones devolve os marcos preenchidos indexados pelo nome do campo.
func (o Occurrence) Milestones() map[string]time.Time {
	out := map[string]time.Time{"created_at": o.CreatedAt}
	add := func(name string, t *time.Time) {
		if t != nil {
			out[name] = *t
		}
	}
	add("forwarded_at", o.ForwardedAt)
	add("approved_at_regional", o.ApprovedAtRegional)
	add("scheduled_date", o.ScheduledDate)
	add("pre_inspection_date", o.PreInspectionDate)
	add("started_at", o.StartedAt)
	add("post_inspection_date", o.PostInspectionDate)
	add("completed_at", o.CompletedAt)
	return out
}

// Clone devolve uma cópia sem ponteiros compartilhados.
func (o Occurrence) Clone() Occurrence {
	c := o
	c.Latitude = cloneFloat(o.Latitude)
	c.Longitude = cloneFloat(o.Longitude)
	c.EstimatedHours = cloneFloat(o.EstimatedHours)
	c.ActualHours = cloneFloat(o.ActualHours)
	c.ForwardedAt = cloneTime(o.ForwardedAt)
	c.ApprovedAtRegional = cloneTime(o.ApprovedAtRegional)
	c.ScheduledDate = cloneTime(o.ScheduledDate)
	c.PreInspectionDate = cloneTime(o.PreInspectionDate)
	c.StartedAt = cloneTime(o.StartedAt)
	c.PostInspectionDate = cloneTime(o.PostInspectionDate)
	c.CompletedAt = cloneTime(o.CompletedAt)
	return c
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
