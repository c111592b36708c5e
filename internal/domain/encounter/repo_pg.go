package encounter

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicore/clinicore/internal/platform/db"
	"github.com/clinicore/clinicore/internal/platform/domainerr"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const encCols = `id, tenant_id, patient_id, practitioner_id, status, reason,
	started_at, ended_at, created_at, updated_at, last_modified_by`

func (r *repoPG) Create(ctx context.Context, rec *Record) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO encounter (
			id, tenant_id, patient_id, practitioner_id, status, reason,
			started_at, ended_at, created_at, updated_at, last_modified_by
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		rec.ID, rec.TenantID, rec.PatientID, rec.PractitionerID, rec.Status, rec.Reason,
		rec.StartedAt, rec.EndedAt, rec.CreatedAt, rec.UpdatedAt, rec.LastModifiedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domainerr.New(domainerr.CodeConflict)
		}
		return domainerr.Persistence(err)
	}
	return nil
}

func (r *repoPG) Save(ctx context.Context, rec *Record) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE encounter SET
			status=$3, reason=$4, started_at=$5, ended_at=$6,
			updated_at=$7, last_modified_by=$8
		WHERE tenant_id = $1 AND id = $2`,
		rec.TenantID, rec.ID,
		rec.Status, rec.Reason, rec.StartedAt, rec.EndedAt, rec.UpdatedAt, rec.LastModifiedBy,
	)
	if err != nil {
		return domainerr.Persistence(err)
	}
	if tag.RowsAffected() == 0 {
		return domainerr.New(domainerr.CodeNotFound)
	}
	return nil
}

func (r *repoPG) FindByID(ctx context.Context, tenantID string, id uuid.UUID) (*Record, error) {
	return scanRecord(r.conn(ctx).QueryRow(ctx,
		`SELECT `+encCols+` FROM encounter WHERE tenant_id = $1 AND id = $2`,
		tenantID, id))
}

func (r *repoPG) List(ctx context.Context, tenantID string, limit, offset int) ([]*Record, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM encounter WHERE tenant_id = $1`, tenantID).Scan(&total); err != nil {
		return nil, 0, domainerr.Persistence(err)
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+encCols+` FROM encounter WHERE tenant_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		tenantID, limit, offset)
	if err != nil {
		return nil, 0, domainerr.Persistence(err)
	}
	defer rows.Close()
	return collectRecords(rows, total)
}

func (r *repoPG) ListByPatient(ctx context.Context, tenantID string, patientID uuid.UUID, limit, offset int) ([]*Record, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM encounter WHERE tenant_id = $1 AND patient_id = $2`,
		tenantID, patientID).Scan(&total); err != nil {
		return nil, 0, domainerr.Persistence(err)
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+encCols+` FROM encounter WHERE tenant_id = $1 AND patient_id = $2
		 ORDER BY created_at DESC LIMIT $3 OFFSET $4`,
		tenantID, patientID, limit, offset)
	if err != nil {
		return nil, 0, domainerr.Persistence(err)
	}
	defer rows.Close()
	return collectRecords(rows, total)
}

func (r *repoPG) Delete(ctx context.Context, tenantID string, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM encounter WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return domainerr.Persistence(err)
	}
	if tag.RowsAffected() == 0 {
		return domainerr.New(domainerr.CodeNotFound)
	}
	return nil
}

func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	err := row.Scan(
		&rec.ID, &rec.TenantID, &rec.PatientID, &rec.PractitionerID, &rec.Status, &rec.Reason,
		&rec.StartedAt, &rec.EndedAt, &rec.CreatedAt, &rec.UpdatedAt, &rec.LastModifiedBy,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domainerr.New(domainerr.CodeNotFound)
	}
	if err != nil {
		return nil, domainerr.Persistence(err)
	}
	return &rec, nil
}

func collectRecords(rows pgx.Rows, total int) ([]*Record, int, error) {
	var recs []*Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(
			&rec.ID, &rec.TenantID, &rec.PatientID, &rec.PractitionerID, &rec.Status, &rec.Reason,
			&rec.StartedAt, &rec.EndedAt, &rec.CreatedAt, &rec.UpdatedAt, &rec.LastModifiedBy,
		); err != nil {
			return nil, 0, domainerr.Persistence(err)
		}
		recs = append(recs, &rec)
	}
	return recs, total, nil
}
