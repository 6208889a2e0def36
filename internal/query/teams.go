package query

import (
	"time"

	"github.com/gestaozabele/zeladoria/internal/occurrence"
)

// TeamState é o estado inferido da equipe.
type TeamState string

const (
	TeamAllocated TeamState = "allocated"
	TeamAvailable TeamState = "available"
)

// TeamSnapshot resume a ocorrência mais recente de cada equipe.
type TeamSnapshot struct {
	TeamID     string                `json:"team_id"`
	State      TeamState             `json:"state"`
	Occurrence occurrence.Occurrence `json:"occurrence"`
}

// TeamOccupancy agrupa por equipe e mantém a ocorrência com maior
// updated_at. Empates preservam a primeira vista. Ocorrências sem equipe
// são ignoradas; as equipes saem na ordem em que aparecem.
func TeamOccupancy(items []occurrence.Occurrence) []TeamSnapshot {
	index := make(map[string]int)
	var out []TeamSnapshot

	for _, o := range items {
		if o.TeamID == "" {
			continue
		}
		pos, ok := index[o.TeamID]
		if !ok {
			index[o.TeamID] = len(out)
			out = append(out, TeamSnapshot{TeamID: o.TeamID, Occurrence: o})
			continue
		}
		if o.UpdatedAt.After(out[pos].Occurrence.UpdatedAt) {
			out[pos].Occurrence = o
		}
	}

	for i := range out {
		out[i].State = TeamAvailable
		if out[i].Occurrence.Status == occurrence.StatusInExecution {
			out[i].State = TeamAllocated
		}
	}
	return out
}

// CountByStatus conta ocorrências por status para os cards do painel.
// Todos os status do vocabulário aparecem, mesmo com zero.
func CountByStatus(items []occurrence.Occurrence) map[occurrence.Status]int {
	counts := make(map[occurrence.Status]int, len(occurrence.Statuses()))
	for _, s := range occurrence.Statuses() {
		counts[s] = 0
	}
	for _, o := range items {
		counts[o.Status]++
	}
	return counts
}

// CountByDay conta ocorrências criadas por dia (AAAA-MM-DD) no fuso informado.
func CountByDay(items []occurrence.Occurrence, loc *time.Location) map[string]int {
	if loc == nil {
		loc = time.UTC
	}
	counts := make(map[string]int)
	for _, o := range items {
		counts[o.CreatedAt.In(loc).Format(dateLayout)]++
	}
	return counts
}
