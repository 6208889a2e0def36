package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gestaozabele/zeladoria/internal/db"
	"github.com/gestaozabele/zeladoria/internal/occurrence"
)

const occurrenceColumns = `id, protocol, service_type, priority, occurrence_type, description, observations,
        address, neighborhood, territory_id, latitude, longitude, public_equipment_id,
        status, regional_id, fiscal_id, company_id, team_id,
        created_at, forwarded_at, approved_at_regional, scheduled_date, scheduled_time,
        pre_inspection_date, started_at, post_inspection_date, completed_at, updated_at,
        estimated_hours, actual_hours, execution_notes, cancel_reason, company_confirmed`

// PostgresStore persiste ocorrências na tabela ocorrencias.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore cria instância do repositório.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// List devolve todas as ocorrências em ordem de criação.
func (s *PostgresStore) List(ctx context.Context) ([]occurrence.Occurrence, error) {
	query := `SELECT ` + occurrenceColumns + ` FROM ocorrencias ORDER BY created_at ASC, protocol ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []occurrence.Occurrence
	for rows.Next() {
		o, err := scanOccurrence(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, o)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return items, nil
}

// Get busca uma ocorrência específica.
func (s *PostgresStore) Get(ctx context.Context, id string) (occurrence.Occurrence, error) {
	query := `SELECT ` + occurrenceColumns + ` FROM ocorrencias WHERE id = $1`
	return scanOccurrence(s.pool.QueryRow(ctx, query, id))
}

// Create insere uma ocorrência validada.
func (s *PostgresStore) Create(ctx context.Context, o occurrence.Occurrence) error {
	if err := o.Validate(); err != nil {
		return err
	}

	const query = `
        INSERT INTO ocorrencias (id, protocol, service_type, priority, occurrence_type, description, observations,
            address, neighborhood, territory_id, latitude, longitude, public_equipment_id,
            status, regional_id, fiscal_id, company_id, team_id,
            created_at, forwarded_at, approved_at_regional, scheduled_date, scheduled_time,
            pre_inspection_date, started_at, post_inspection_date, completed_at, updated_at,
            estimated_hours, actual_hours, execution_notes, cancel_reason, company_confirmed)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18,
            $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32, $33)
    `

	_, err := s.pool.Exec(ctx, query,
		o.ID, o.Protocol, o.ServiceType, string(o.Priority), string(o.OccurrenceType), o.Description, o.Observations,
		o.Address, o.Neighborhood, o.TerritoryID, o.Latitude, o.Longitude, o.PublicEquipmentID,
		string(o.Status), o.RegionalID, o.FiscalID, o.CompanyID, o.TeamID,
		o.CreatedAt, o.ForwardedAt, o.ApprovedAtRegional, o.ScheduledDate, o.ScheduledTime,
		o.PreInspectionDate, o.StartedAt, o.PostInspectionDate, o.CompletedAt, o.UpdatedAt,
		o.EstimatedHours, o.ActualHours, o.ExecutionNotes, o.CancelReason, o.CompanyConfirmed,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Update trava a linha, aplica fn e grava o resultado na mesma transação.
func (s *PostgresStore) Update(ctx context.Context, id string, fn UpdateFunc) (occurrence.Occurrence, error) {
	var result occurrence.Occurrence

	err := db.WithTx(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		query := `SELECT ` + occurrenceColumns + ` FROM ocorrencias WHERE id = $1 FOR UPDATE`
		current, err := scanOccurrence(tx.QueryRow(ctx, query, id))
		if err != nil {
			return err
		}

		updated, err := fn(current.Clone())
		if err != nil {
			return err
		}
		if err := CheckReplacement(current, updated); err != nil {
			return err
		}
		if err := updated.Validate(); err != nil {
			return err
		}

		const update = `
            UPDATE ocorrencias
            SET service_type = $2, priority = $3, occurrence_type = $4, description = $5, observations = $6,
                address = $7, neighborhood = $8, territory_id = $9, latitude = $10, longitude = $11,
                public_equipment_id = $12, status = $13, company_id = $14, team_id = $15,
                forwarded_at = $16, approved_at_regional = $17, scheduled_date = $18, scheduled_time = $19,
                pre_inspection_date = $20, started_at = $21, post_inspection_date = $22, completed_at = $23,
                updated_at = $24, estimated_hours = $25, actual_hours = $26, execution_notes = $27,
                cancel_reason = $28, company_confirmed = $29
            WHERE id = $1
        `
		u := updated
		if _, err := tx.Exec(ctx, update,
			u.ID, u.ServiceType, string(u.Priority), string(u.OccurrenceType), u.Description, u.Observations,
			u.Address, u.Neighborhood, u.TerritoryID, u.Latitude, u.Longitude,
			u.PublicEquipmentID, string(u.Status), u.CompanyID, u.TeamID,
			u.ForwardedAt, u.ApprovedAtRegional, u.ScheduledDate, u.ScheduledTime,
			u.PreInspectionDate, u.StartedAt, u.PostInspectionDate, u.CompletedAt,
			u.UpdatedAt, u.EstimatedHours, u.ActualHours, u.ExecutionNotes,
			u.CancelReason, u.CompanyConfirmed,
		); err != nil {
			return err
		}

		result = updated
		return nil
	})
	if err != nil {
		return occurrence.Occurrence{}, err
	}
	return result, nil
}

func scanOccurrence(row pgx.Row) (occurrence.Occurrence, error) {
	var (
		o                     occurrence.Occurrence
		priority, typ, status string
	)
	err := row.Scan(
		&o.ID, &o.Protocol, &o.ServiceType, &priority, &typ, &o.Description, &o.Observations,
		&o.Address, &o.Neighborhood, &o.TerritoryID, &o.Latitude, &o.Longitude, &o.PublicEquipmentID,
		&status, &o.RegionalID, &o.FiscalID, &o.CompanyID, &o.TeamID,
		&o.CreatedAt, &o.ForwardedAt, &o.ApprovedAtRegional, &o.ScheduledDate, &o.ScheduledTime,
		&o.PreInspectionDate, &o.StartedAt, &o.PostInspectionDate, &o.CompletedAt, &o.UpdatedAt,
		&o.EstimatedHours, &o.ActualHours, &o.ExecutionNotes, &o.CancelReason, &o.CompanyConfirmed,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return occurrence.Occurrence{}, ErrNotFound
		}
		return occurrence.Occurrence{}, err
	}
	o.Priority = occurrence.Priority(priority)
	o.OccurrenceType = occurrence.Type(typ)
	o.Status = occurrence.Status(status)
	return o, nil
}
