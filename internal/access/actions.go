package access

import (
	"encoding/json"
	"sort"
)

// ActionID identifica um controle que a interface pode exibir.
type ActionID string

const (
	ActionView                    ActionID = "view"
	ActionTrackInspectionProgress ActionID = "trackInspectionProgress"
	ActionDailyTracking           ActionID = "dailyTracking"
	ActionPerformFinalInspection  ActionID = "performFinalInspection"
	ActionScheduleOccurrence      ActionID = "scheduleOccurrence"
	ActionDetailExecution         ActionID = "detailExecution"
	ActionPerformInspection       ActionID = "performInspection"
	ActionCloseOccurrence         ActionID = "closeOccurrence"
	ActionCreateOccurrence        ActionID = "createOccurrence"
	ActionExportCSV               ActionID = "exportCsv"
	ActionRedirectOccurrence      ActionID = "redirectOccurrence"
	ActionPauseExecution          ActionID = "pauseExecution"
	ActionResumeOccurrence        ActionID = "resumeOccurrence"
)

var actionOrder = []ActionID{
	ActionView,
	ActionTrackInspectionProgress,
	ActionDailyTracking,
	ActionPerformFinalInspection,
	ActionScheduleOccurrence,
	ActionDetailExecution,
	ActionPerformInspection,
	ActionCloseOccurrence,
	ActionCreateOccurrence,
	ActionExportCSV,
	ActionRedirectOccurrence,
	ActionPauseExecution,
	ActionResumeOccurrence,
}

var actionRank = func() map[ActionID]int {
	m := make(map[ActionID]int, len(actionOrder))
	for i, a := range actionOrder {
		m[a] = i
	}
	return m
}()

// Actions devolve o vocabulário completo na ordem canônica.
func Actions() []ActionID {
	out := make([]ActionID, len(actionOrder))
	copy(out, actionOrder)
	return out
}

// ActionSet é um conjunto ordenado pela ordem canônica do vocabulário.
type ActionSet struct {
	items []ActionID
}

// NewActionSet monta o conjunto descartando duplicados e valores desconhecidos.
func NewActionSet(actions ...ActionID) ActionSet {
	seen := make(map[ActionID]struct{}, len(actions))
	items := make([]ActionID, 0, len(actions))
	for _, a := range actions {
		if _, ok := actionRank[a]; !ok {
			continue
		}
		if _, dup := seen[a]; dup {
			continue
		}
		seen[a] = struct{}{}
		items = append(items, a)
	}
	sort.Slice(items, func(i, j int) bool { return actionRank[items[i]] < actionRank[items[j]] })
	return ActionSet{items: items}
}

// Has indica se a ação pertence ao conjunto.
func (s ActionSet) Has(a ActionID) bool {
	for _, item := range s.items {
		if item == a {
			return true
		}
	}
	return false
}

// Union devolve a união dos dois conjuntos.
func (s ActionSet) Union(other ActionSet) ActionSet {
	all := make([]ActionID, 0, len(s.items)+len(other.items))
	all = append(all, s.items...)
	all = append(all, other.items...)
	return NewActionSet(all...)
}

// List devolve uma cópia dos itens em ordem canônica.
func (s ActionSet) List() []ActionID {
	out := make([]ActionID, len(s.items))
	copy(out, s.items)
	return out
}

func (s ActionSet) Len() int { return len(s.items) }

func (s ActionSet) Empty() bool { return len(s.items) == 0 }

// MarshalJSON serializa como lista, nunca null.
func (s ActionSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.List())
}
