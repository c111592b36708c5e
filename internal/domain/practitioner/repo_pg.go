package practitioner

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

const pracCols = `id, tenant_id, given_name, family_name, role, active,
	created_at, updated_at, last_modified_by`

func (r *repoPG) Create(ctx context.Context, rec *Record) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO practitioner (
			id, tenant_id, given_name, family_name, role, active,
			created_at, updated_at, last_modified_by
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		rec.ID, rec.TenantID, rec.GivenName, rec.FamilyName, rec.Role, rec.Active,
		rec.CreatedAt, rec.UpdatedAt, rec.LastModifiedBy,
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
		UPDATE practitioner SET
			given_name=$3, family_name=$4, role=$5, active=$6,
			updated_at=$7, last_modified_by=$8
		WHERE tenant_id = $1 AND id = $2`,
		rec.TenantID, rec.ID,
		rec.GivenName, rec.FamilyName, rec.Role, rec.Active,
		rec.UpdatedAt, rec.LastModifiedBy,
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
		`SELECT `+pracCols+` FROM practitioner WHERE tenant_id = $1 AND id = $2`,
		tenantID, id))
}

func (r *repoPG) List(ctx context.Context, tenantID string, limit, offset int) ([]*Record, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM practitioner WHERE tenant_id = $1`, tenantID).Scan(&total); err != nil {
		return nil, 0, domainerr.Persistence(err)
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+pracCols+` FROM practitioner WHERE tenant_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		tenantID, limit, offset)
	if err != nil {
		return nil, 0, domainerr.Persistence(err)
	}
	defer rows.Close()

	var recs []*Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(
			&rec.ID, &rec.TenantID, &rec.GivenName, &rec.FamilyName, &rec.Role, &rec.Active,
			&rec.CreatedAt, &rec.UpdatedAt, &rec.LastModifiedBy,
		); err != nil {
			return nil, 0, domainerr.Persistence(err)
		}
		recs = append(recs, &rec)
	}
	return recs, total, nil
}

func (r *repoPG) Delete(ctx context.Context, tenantID string, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM practitioner WHERE tenant_id = $1 AND id = $2`, tenantID, id)
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
		&rec.ID, &rec.TenantID, &rec.GivenName, &rec.FamilyName, &rec.Role, &rec.Active,
		&rec.CreatedAt, &rec.UpdatedAt, &rec.LastModifiedBy,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domainerr.New(domainerr.CodeNotFound)
	}
	if err != nil {
		return nil, domainerr.Persistence(err)
	}
	return &rec, nil
}
