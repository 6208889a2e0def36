package store

import (
	"context"
	"sync"

	"github.com/gestaozabele/zeladoria/internal/occurrence"
)

// MemoryStore mantém a coleção em memória. Toda escrita troca a fatia
// inteira; leitores recebem cópias e nunca enxergam alterações parciais.
type MemoryStore struct {
	mu    sync.RWMutex
	items []occurrence.Occurrence
}

// NewMemoryStore cria o store com a carga inicial informada.
func NewMemoryStore(seed []occurrence.Occurrence) *MemoryStore {
	items := make([]occurrence.Occurrence, len(seed))
	for i, o := range seed {
		items[i] = o.Clone()
	}
	return &MemoryStore{items: items}
}

// List devolve cópia da coleção na ordem de inserção.
func (s *MemoryStore) List(ctx context.Context) ([]occurrence.Occurrence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]occurrence.Occurrence, len(s.items))
	for i, o := range s.items {
		out[i] = o.Clone()
	}
	return out, nil
}

// Get busca uma ocorrência pelo id.
func (s *MemoryStore) Get(ctx context.Context, id string) (occurrence.Occurrence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, o := range s.items {
		if o.ID == id {
			return o.Clone(), nil
		}
	}
	return occurrence.Occurrence{}, ErrNotFound
}

// Create acrescenta uma ocorrência validada.
func (s *MemoryStore) Create(ctx context.Context, o occurrence.Occurrence) error {
	if err := o.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.items {
		if existing.ID == o.ID || existing.Protocol == o.Protocol {
			return ErrAlreadyExists
		}
	}

	next := make([]occurrence.Occurrence, len(s.items), len(s.items)+1)
	copy(next, s.items)
	s.items = append(next, o.Clone())
	return nil
}

// Update aplica fn sob lock exclusivo e substitui o registro.
func (s *MemoryStore) Update(ctx context.Context, id string, fn UpdateFunc) (occurrence.Occurrence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, o := range s.items {
		if o.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return occurrence.Occurrence{}, ErrNotFound
	}

	current := s.items[idx].Clone()
	updated, err := fn(current.Clone())
	if err != nil {
		return occurrence.Occurrence{}, err
	}
	if err := CheckReplacement(current, updated); err != nil {
		return occurrence.Occurrence{}, err
	}
	if err := updated.Validate(); err != nil {
		return occurrence.Occurrence{}, err
	}

	next := make([]occurrence.Occurrence, len(s.items))
	copy(next, s.items)
	next[idx] = updated.Clone()
	s.items = next
	return updated, nil
}

// MemorySequence numera protocolos em memória, por ano.
type MemorySequence struct {
	mu   sync.Mutex
	last map[int]int64
}

// NewMemorySequence parte dos protocolos já existentes na coleção.
func NewMemorySequence(existing []occurrence.Occurrence) *MemorySequence {
	last := make(map[int]int64)
	for _, o := range existing {
		year, n, err := occurrence.ParseProtocol(o.Protocol)
		if err != nil {
			continue
		}
		if n > last[year] {
			last[year] = n
		}
	}
	return &MemorySequence{last: last}
}

// Next devolve o próximo número do ano.
func (s *MemorySequence) Next(ctx context.Context, year int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last[year]++
	return s.last[year], nil
}
