package store

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gestaozabele/zeladoria/internal/occurrence"
	"github.com/gestaozabele/zeladoria/internal/reference"
)

// Seed é o conteúdo do arquivo de carga inicial.
type Seed struct {
	Reference   reference.Data
	Occurrences []occurrence.Occurrence
}

type seedFile struct {
	Reference   reference.Data   `json:"reference"`
	Occurrences []map[string]any `json:"occurrences"`
}

// aliases lista as grafias aceitas para cada campo, a canônica primeiro.
var aliases = map[string][]string{
	"id":                   {"id"},
	"protocol":             {"protocol", "protocolo"},
	"service_type":         {"service_type", "serviceType", "tipo_servico", "tipo_de_ocorrencia"},
	"priority":             {"priority", "prioridade"},
	"occurrence_type":      {"occurrence_type", "occurrenceType", "tipo"},
	"description":          {"description", "descricao", "descrição"},
	"observations":         {"observations", "observacoes", "observações"},
	"address":              {"address", "endereco", "endereço"},
	"neighborhood":         {"neighborhood", "bairro"},
	"territory_id":         {"territory_id", "territoryId", "territorio_id"},
	"latitude":             {"latitude", "lat"},
	"longitude":            {"longitude", "lng", "lon"},
	"public_equipment_id":  {"public_equipment_id", "publicEquipmentId", "equipamento_publico_id"},
	"status":               {"status"},
	"regional_id":          {"regional_id", "regionalId", "regional"},
	"fiscal_id":            {"fiscal_id", "fiscalId", "fiscal"},
	"company_id":           {"company_id", "companyId", "empresa_id", "empresa"},
	"team_id":              {"team_id", "teamId", "equipe_id", "equipe"},
	"created_at":           {"created_at", "createdAt", "data_criacao"},
	"forwarded_at":         {"forwarded_at", "forwardedAt"},
	"approved_at_regional": {"approved_at_regional", "approvedAtRegional"},
	"scheduled_date":       {"scheduled_date", "scheduledDate", "data_agendamento"},
	"scheduled_time":       {"scheduled_time", "scheduledTime", "hora_agendamento"},
	"pre_inspection_date":  {"pre_inspection_date", "preInspectionDate"},
	"started_at":           {"started_at", "startedAt"},
	"post_inspection_date": {"post_inspection_date", "postInspectionDate"},
	"completed_at":         {"completed_at", "completedAt"},
	"updated_at":           {"updated_at", "updatedAt"},
	"estimated_hours":      {"estimated_hours", "estimatedHours", "horas_estimadas"},
	"actual_hours":         {"actual_hours", "actualHours", "horas_reais"},
	"execution_notes":      {"execution_notes", "executionNotes"},
	"cancel_reason":        {"cancel_reason", "cancelReason", "motivo_cancelamento"},
	"company_confirmed":    {"company_confirmed", "companyConfirmed"},
}

// LoadSeed lê o arquivo JSON de carga inicial.
func LoadSeed(path string) (Seed, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, err
	}
	return ParseSeed(raw)
}

// ParseSeed decodifica a carga inicial normalizando nomes legados de
// campos e valores. Cada ocorrência resultante é validada.
func ParseSeed(raw []byte) (Seed, error) {
	var file seedFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return Seed{}, fmt.Errorf("seed: %w", err)
	}

	seed := Seed{Reference: file.Reference}
	for i, item := range file.Occurrences {
		o, err := normalize(item)
		if err != nil {
			return Seed{}, fmt.Errorf("seed: ocorrência %d: %w", i, err)
		}
		if err := o.Validate(); err != nil {
			return Seed{}, fmt.Errorf("seed: ocorrência %d: %w", i, err)
		}
		seed.Occurrences = append(seed.Occurrences, o)
	}
	return seed, nil
}

type fields map[string]any

func (f fields) lookup(name string) (any, bool) {
	for _, key := range aliases[name] {
		if v, ok := f[key]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func (f fields) str(name string) string {
	v, ok := f.lookup(name)
	if !ok {
		return ""
	}
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}

func (f fields) float(name string) (*float64, error) {
	v, ok := f.lookup(name)
	if !ok {
		return nil, nil
	}
	switch val := v.(type) {
	case float64:
		return &val, nil
	case string:
		if strings.TrimSpace(val) == "" {
			return nil, nil
		}
		n, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(val), ",", "."), 64)
		if err != nil {
			return nil, fmt.Errorf("%s inválido: %q", name, val)
		}
		return &n, nil
	default:
		return nil, fmt.Errorf("%s inválido", name)
	}
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"}

func (f fields) time(name string) (*time.Time, error) {
	raw := f.str(name)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%s inválido: %q", name, raw)
}

func normalize(m map[string]any) (occurrence.Occurrence, error) {
	f := fields(m)
	o := occurrence.Occurrence{
		ID:                f.str("id"),
		Protocol:          f.str("protocol"),
		ServiceType:       f.str("service_type"),
		Description:       f.str("description"),
		Observations:      f.str("observations"),
		Address:           f.str("address"),
		Neighborhood:      f.str("neighborhood"),
		TerritoryID:       f.str("territory_id"),
		PublicEquipmentID: f.str("public_equipment_id"),
		RegionalID:        f.str("regional_id"),
		FiscalID:          f.str("fiscal_id"),
		CompanyID:         f.str("company_id"),
		TeamID:            f.str("team_id"),
		ScheduledTime:     f.str("scheduled_time"),
		ExecutionNotes:    f.str("execution_notes"),
		CancelReason:      f.str("cancel_reason"),
		CompanyConfirmed:  f.str("company_confirmed") == "true",
	}

	var err error
	if o.Status, err = occurrence.ParseStatus(f.str("status")); err != nil {
		return o, err
	}
	if o.Priority, err = occurrence.ParsePriority(f.str("priority")); err != nil {
		return o, err
	}
	if raw := f.str("occurrence_type"); raw != "" {
		if o.OccurrenceType, err = occurrence.ParseType(raw); err != nil {
			return o, err
		}
	}

	floats := []struct {
		name string
		dst  **float64
	}{
		{"latitude", &o.Latitude},
		{"longitude", &o.Longitude},
		{"estimated_hours", &o.EstimatedHours},
		{"actual_hours", &o.ActualHours},
	}
	for _, fl := range floats {
		if *fl.dst, err = f.float(fl.name); err != nil {
			return o, err
		}
	}

	times := []struct {
		name string
		dst  **time.Time
	}{
		{"forwarded_at", &o.ForwardedAt},
		{"approved_at_regional", &o.ApprovedAtRegional},
		{"scheduled_date", &o.ScheduledDate},
		{"pre_inspection_date", &o.PreInspectionDate},
		{"started_at", &o.StartedAt},
		{"post_inspection_date", &o.PostInspectionDate},
		{"completed_at", &o.CompletedAt},
	}
	for _, tm := range times {
		if *tm.dst, err = f.time(tm.name); err != nil {
			return o, err
		}
	}

	created, err := f.time("created_at")
	if err != nil {
		return o, err
	}
	if created != nil {
		o.CreatedAt = *created
	}
	updated, err := f.time("updated_at")
	if err != nil {
		return o, err
	}
	if updated != nil {
		o.UpdatedAt = *updated
	} else {
		o.UpdatedAt = o.CreatedAt
	}

	return o, nil
}
