package reference

import (
	"errors"
	"sync"
)

var (
	ErrNotFound = errors.New("cadastro não encontrado")
)

// Regional representa uma divisão administrativa da zeladoria.
type Regional struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Neighborhood representa um bairro atendido por uma regional.
type Neighborhood struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	RegionalID string `json:"regional_id"`
}

// Inspector representa um fiscal vinculado a uma regional.
type Inspector struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	RegionalID string `json:"regional_id"`
}

// PublicEquipment representa equipamento público (praça, escola, posto).
type PublicEquipment struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Kind         string `json:"kind"`
	Neighborhood string `json:"neighborhood,omitempty"`
}

// Company representa empresa contratada.
type Company struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	CNPJ string `json:"cnpj,omitempty"`
}

// Team representa equipe de campo de uma empresa.
type Team struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CompanyID string `json:"company_id"`
}

// Data agrega todos os cadastros auxiliares.
type Data struct {
	Regionals     []Regional        `json:"regionals"`
	Neighborhoods []Neighborhood    `json:"neighborhoods"`
	Inspectors    []Inspector       `json:"inspectors"`
	Equipment     []PublicEquipment `json:"public_equipment"`
	Companies     []Company         `json:"companies"`
	Teams         []Team            `json:"teams"`
}

// Directory oferece consultas somente leitura aos cadastros.
type Directory struct {
	mu        sync.RWMutex
	regionals map[string]Regional
	companies map[string]Company
	teams     map[string]Team
}

// NewDirectory indexa os cadastros informados.
func NewDirectory(data Data) *Directory {
	d := &Directory{}
	d.Replace(data)
	return d
}

// Replace troca todo o conteúdo do diretório.
func (d *Directory) Replace(data Data) {
	regionals := make(map[string]Regional, len(data.Regionals))
	for _, r := range data.Regionals {
		regionals[r.ID] = r
	}
	companies := make(map[string]Company, len(data.Companies))
	for _, c := range data.Companies {
		companies[c.ID] = c
	}
	teams := make(map[string]Team, len(data.Teams))
	for _, t := range data.Teams {
		teams[t.ID] = t
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.regionals = regionals
	d.companies = companies
	d.teams = teams
}

// RegionalNames devolve o mapa id -> nome usado nos filtros.
func (d *Directory) RegionalNames() map[string]string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[string]string, len(d.regionals))
	for id, r := range d.regionals {
		out[id] = r.Name
	}
	return out
}

// Regional busca uma regional pelo id.
func (d *Directory) Regional(id string) (Regional, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	r, ok := d.regionals[id]
	if !ok {
		return Regional{}, ErrNotFound
	}
	return r, nil
}

// Company busca uma empresa pelo id.
func (d *Directory) Company(id string) (Company, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	c, ok := d.companies[id]
	if !ok {
		return Company{}, ErrNotFound
	}
	return c, nil
}

// Team busca uma equipe pelo id.
func (d *Directory) Team(id string) (Team, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	t, ok := d.teams[id]
	if !ok {
		return Team{}, ErrNotFound
	}
	return t, nil
}
