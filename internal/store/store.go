package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gestaozabele/zeladoria/internal/occurrence"
)

var (
	// ErrNotFound é retornado quando a ocorrência não existe.
	ErrNotFound = errors.New("ocorrência não encontrada")
	// ErrAlreadyExists indica id ou protocolo duplicado.
	ErrAlreadyExists = errors.New("ocorrência já cadastrada")
	// ErrImmutableField indica tentativa de alterar campo imutável.
	ErrImmutableField = errors.New("campo imutável")
)

// UpdateFunc recebe o valor atual e devolve o substituto.
type UpdateFunc func(current occurrence.Occurrence) (occurrence.Occurrence, error)

// Repository é o provedor de dados das telas de ocorrência.
type Repository interface {
	List(ctx context.Context) ([]occurrence.Occurrence, error)
	Get(ctx context.Context, id string) (occurrence.Occurrence, error)
	Create(ctx context.Context, o occurrence.Occurrence) error
	Update(ctx context.Context, id string, fn UpdateFunc) (occurrence.Occurrence, error)
}

// CheckReplacement garante que a substituição respeita os campos imutáveis
// e o histórico de marcos.
func CheckReplacement(current, next occurrence.Occurrence) error {
	if next.ID != current.ID {
		return fmt.Errorf("%w: id", ErrImmutableField)
	}
	if next.Protocol != current.Protocol {
		return fmt.Errorf("%w: protocolo", ErrImmutableField)
	}
	if next.RegionalID != current.RegionalID {
		return fmt.Errorf("%w: regional_id", ErrImmutableField)
	}
	if next.FiscalID != current.FiscalID {
		return fmt.Errorf("%w: fiscal_id", ErrImmutableField)
	}
	if !next.CreatedAt.Equal(current.CreatedAt) {
		return fmt.Errorf("%w: created_at", ErrImmutableField)
	}
	after := next.Milestones()
	for name, at := range current.Milestones() {
		got, ok := after[name]
		if !ok || !got.Equal(at) {
			return fmt.Errorf("%w: %s", ErrImmutableField, name)
		}
	}
	if current.Status.Terminal() && next.Status != current.Status {
		return fmt.Errorf("%w: status %s é final", ErrImmutableField, current.Status)
	}
	return nil
}

// Sequence fornece a numeração dos protocolos por ano.
type Sequence interface {
	Next(ctx context.Context, year int) (int64, error)
}

// NextProtocol gera o próximo protocolo do ano de referência.
func NextProtocol(ctx context.Context, seq Sequence, now time.Time) (string, error) {
	year := now.Year()
	n, err := seq.Next(ctx, year)
	if err != nil {
		return "", fmt.Errorf("sequência de protocolo: %w", err)
	}
	return occurrence.FormatProtocol(year, n), nil
}
