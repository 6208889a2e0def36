package access

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gestaozabele/zeladoria/internal/occurrence"
)

var (
	// ErrUnauthorizedRole indica par (papel, subpapel) ausente da tabela.
	ErrUnauthorizedRole = errors.New("papel sem permissão definida")
)

// Role é o perfil principal do usuário.
type Role string

const (
	RoleCegor    Role = "cegor"
	RoleRegional Role = "regional"
	RoleEmpresa  Role = "empresa"
	RoleAdm      Role = "adm"
)

// Subrole refina o perfil dentro do papel.
type Subrole string

const (
	SubroleNone       Subrole = ""
	SubroleGestor     Subrole = "gestor"
	SubroleOperador   Subrole = "operador"
	SubroleFiscal     Subrole = "fiscal"
	SubroleSupervisor Subrole = "supervisor"
	SubroleGerente    Subrole = "gerente"
)

// ParseRole normaliza o papel vindo do token.
func ParseRole(raw string) Role {
	return Role(strings.ToLower(strings.TrimSpace(raw)))
}

// ParseSubrole normaliza o subpapel vindo do token.
func ParseSubrole(raw string) Subrole {
	return Subrole(strings.ToLower(strings.TrimSpace(raw)))
}

type roleKey struct {
	role    Role
	subrole Subrole
}

var roleTable = map[roleKey]ActionSet{
	{RoleCegor, SubroleGestor}: NewActionSet(
		ActionView, ActionTrackInspectionProgress, ActionDailyTracking,
		ActionScheduleOccurrence, ActionDetailExecution, ActionCloseOccurrence,
		ActionExportCSV, ActionRedirectOccurrence,
	),
	{RoleCegor, SubroleOperador}: NewActionSet(
		ActionView, ActionDailyTracking, ActionScheduleOccurrence,
		ActionDetailExecution, ActionExportCSV,
	),
	{RoleCegor, SubroleFiscal}: NewActionSet(
		ActionView, ActionTrackInspectionProgress, ActionPerformInspection,
		ActionPerformFinalInspection,
	),
	{RoleCegor, SubroleGerente}: NewActionSet(
		ActionView, ActionTrackInspectionProgress, ActionDailyTracking,
		ActionCloseOccurrence, ActionExportCSV, ActionRedirectOccurrence,
		ActionPauseExecution, ActionResumeOccurrence,
	),
	{RoleRegional, SubroleGestor}: NewActionSet(
		ActionView, ActionTrackInspectionProgress, ActionDailyTracking,
		ActionCloseOccurrence, ActionCreateOccurrence, ActionExportCSV,
	),
	{RoleRegional, SubroleOperador}: NewActionSet(
		ActionView, ActionDailyTracking, ActionCreateOccurrence,
	),
	{RoleRegional, SubroleFiscal}: NewActionSet(
		ActionView, ActionTrackInspectionProgress, ActionPerformInspection,
		ActionPerformFinalInspection,
	),
	{RoleRegional, SubroleGerente}: NewActionSet(
		ActionView, ActionTrackInspectionProgress, ActionDailyTracking,
		ActionExportCSV, ActionRedirectOccurrence, ActionResumeOccurrence,
	),
	{RoleEmpresa, SubroleSupervisor}: NewActionSet(
		ActionView, ActionDailyTracking, ActionDetailExecution, ActionPauseExecution,
	),
	{RoleAdm, SubroleNone}: NewActionSet(actionOrder...),
}

// PermittedActions devolve as ações gerais do par (papel, subpapel).
// Pares fora da tabela falham com ErrUnauthorizedRole.
func PermittedActions(role Role, subrole Subrole) (ActionSet, error) {
	set, ok := roleTable[roleKey{role: role, subrole: subrole}]
	if !ok {
		return ActionSet{}, fmt.Errorf("%w: %s/%s", ErrUnauthorizedRole, role, subrole)
	}
	return set, nil
}

type statusKey struct {
	status  occurrence.Status
	subrole Subrole
}

var statusTable = map[statusKey]ActionSet{
	{occurrence.StatusCreated, SubroleFiscal}:         NewActionSet(ActionPerformInspection),
	{occurrence.StatusForwarded, SubroleGestor}:       NewActionSet(ActionRedirectOccurrence),
	{occurrence.StatusUnderReview, SubroleGestor}:     NewActionSet(ActionRedirectOccurrence),
	{occurrence.StatusAuthorized, SubroleOperador}:    NewActionSet(ActionScheduleOccurrence),
	{occurrence.StatusAuthorized, SubroleGestor}:      NewActionSet(ActionScheduleOccurrence),
	{occurrence.StatusScheduled, SubroleSupervisor}:   NewActionSet(ActionDetailExecution),
	{occurrence.StatusInExecution, SubroleSupervisor}: NewActionSet(ActionDailyTracking, ActionPauseExecution),
	{occurrence.StatusInExecution, SubroleGerente}:    NewActionSet(ActionPauseExecution),
	{occurrence.StatusPaused, SubroleGerente}:         NewActionSet(ActionRedirectOccurrence, ActionResumeOccurrence),
	{occurrence.StatusExecuted, SubroleFiscal}:        NewActionSet(ActionPerformFinalInspection),
	{occurrence.StatusExecuted, SubroleGestor}:        NewActionSet(ActionCloseOccurrence),
}

// StatusActions devolve ações extras liberadas pelo status atual.
// Combinações sem entrada resultam em conjunto vazio.
func StatusActions(status occurrence.Status, subrole Subrole) ActionSet {
	return statusTable[statusKey{status: status, subrole: subrole}]
}

// transitionActions liga cada transição à ação exigida do usuário.
var transitionActions = map[occurrence.Transition]ActionID{
	occurrence.TransitionForward:        ActionCreateOccurrence,
	occurrence.TransitionAuthorize:      ActionRedirectOccurrence,
	occurrence.TransitionReturn:         ActionRedirectOccurrence,
	occurrence.TransitionCancel:         ActionRedirectOccurrence,
	occurrence.TransitionSchedule:       ActionScheduleOccurrence,
	occurrence.TransitionStart:          ActionDetailExecution,
	occurrence.TransitionPause:          ActionPauseExecution,
	occurrence.TransitionResume:         ActionResumeOccurrence,
	occurrence.TransitionExecute:        ActionDetailExecution,
	occurrence.TransitionComplete:       ActionCloseOccurrence,
	occurrence.TransitionPreInspection:  ActionPerformInspection,
	occurrence.TransitionPostInspection: ActionPerformFinalInspection,
}

// RequiredAction devolve a ação exigida para executar a transição.
func RequiredAction(t occurrence.Transition) (ActionID, bool) {
	a, ok := transitionActions[t]
	return a, ok
}
