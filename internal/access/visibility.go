package access

import (
	"fmt"

	"github.com/gestaozabele/zeladoria/internal/occurrence"
)

// Viewer identifica quem está consultando as ocorrências.
type Viewer struct {
	Role       Role    `json:"role"`
	Subrole    Subrole `json:"subrole,omitempty"`
	RegionalID string  `json:"regional_id,omitempty"`
	CompanyID  string  `json:"company_id,omitempty"`
}

// Actions devolve as ações gerais do usuário.
func (v Viewer) Actions() (ActionSet, error) {
	return PermittedActions(v.Role, v.Subrole)
}

// ActionsFor devolve a união das ações gerais com as liberadas pelo status.
func (v Viewer) ActionsFor(o occurrence.Occurrence) (ActionSet, error) {
	base, err := v.Actions()
	if err != nil {
		return ActionSet{}, err
	}
	return base.Union(StatusActions(o.Status, v.Subrole)), nil
}

var companyStatuses = map[occurrence.Status]struct{}{
	occurrence.StatusAuthorized:  {},
	occurrence.StatusScheduled:   {},
	occurrence.StatusInExecution: {},
	occurrence.StatusExecuted:    {},
}

// Scope devolve o predicado de visibilidade do usuário. O escopo é
// aplicado antes de qualquer filtro e não pode ser ampliado por ele.
// Pares (papel, subpapel) fora da tabela não enxergam nada.
func (v Viewer) Scope() (func(occurrence.Occurrence) bool, error) {
	if _, err := v.Actions(); err != nil {
		return nil, err
	}
	switch v.Role {
	case RoleCegor, RoleAdm:
		return func(occurrence.Occurrence) bool { return true }, nil
	case RoleRegional:
		regional := v.RegionalID
		return func(o occurrence.Occurrence) bool {
			return regional != "" && o.RegionalID == regional
		}, nil
	case RoleEmpresa:
		company := v.CompanyID
		return func(o occurrence.Occurrence) bool {
			if company == "" || o.CompanyID != company {
				return false
			}
			_, ok := companyStatuses[o.Status]
			return ok
		}, nil
	default:
		return nil, fmt.Errorf("%w: papel %q", ErrUnauthorizedRole, v.Role)
	}
}

// CanSee indica se a ocorrência está no escopo do usuário.
func (v Viewer) CanSee(o occurrence.Occurrence) (bool, error) {
	scope, err := v.Scope()
	if err != nil {
		return false, err
	}
	return scope(o), nil
}
