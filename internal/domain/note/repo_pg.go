package note

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

const noteCols = `id, tenant_id, encounter_id, patient_id, author_id, status, current_version,
	finalized_at, finalized_by, created_at, updated_at, last_modified_by`

const versionCols = `id, note_id, tenant_id, seq, content, authored_by, created_at`

func (r *repoPG) Create(ctx context.Context, rec *Record, first *Version) error {
	q := r.conn(ctx)
	_, err := q.Exec(ctx, `
		INSERT INTO clinical_note (
			id, tenant_id, encounter_id, patient_id, author_id, status, current_version,
			finalized_at, finalized_by, created_at, updated_at, last_modified_by
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		rec.ID, rec.TenantID, rec.EncounterID, rec.PatientID, rec.AuthorID, rec.Status, rec.CurrentVersion,
		rec.FinalizedAt, rec.FinalizedBy, rec.CreatedAt, rec.UpdatedAt, rec.LastModifiedBy,
	)
	if err != nil {
		return mapPGError(err)
	}
	_, err = q.Exec(ctx, `
		INSERT INTO clinical_note_version (
			id, note_id, tenant_id, seq, content, authored_by, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		first.ID, first.NoteID, first.TenantID, first.Seq, first.Content, first.AuthoredBy, first.CreatedAt,
	)
	if err != nil {
		return mapPGError(err)
	}
	return nil
}

func (r *repoPG) Save(ctx context.Context, rec *Record) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE clinical_note SET
			status=$3, current_version=$4, finalized_at=$5, finalized_by=$6,
			updated_at=$7, last_modified_by=$8
		WHERE tenant_id = $1 AND id = $2`,
		rec.TenantID, rec.ID,
		rec.Status, rec.CurrentVersion, rec.FinalizedAt, rec.FinalizedBy,
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

func (r *repoPG) AppendVersion(ctx context.Context, v *Version) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO clinical_note_version (
			id, note_id, tenant_id, seq, content, authored_by, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		v.ID, v.NoteID, v.TenantID, v.Seq, v.Content, v.AuthoredBy, v.CreatedAt,
	)
	if err != nil {
		return mapPGError(err)
	}
	return nil
}

func (r *repoPG) FindByID(ctx context.Context, tenantID string, id uuid.UUID) (*Record, error) {
	return scanNote(r.conn(ctx).QueryRow(ctx,
		`SELECT `+noteCols+` FROM clinical_note WHERE tenant_id = $1 AND id = $2`,
		tenantID, id))
}

func (r *repoPG) FindVersion(ctx context.Context, tenantID string, noteID uuid.UUID, seq int) (*Version, error) {
	return scanVersion(r.conn(ctx).QueryRow(ctx,
		`SELECT `+versionCols+` FROM clinical_note_version
		 WHERE tenant_id = $1 AND note_id = $2 AND seq = $3`,
		tenantID, noteID, seq))
}

func (r *repoPG) ListVersions(ctx context.Context, tenantID string, noteID uuid.UUID) ([]*Version, error) {
	if _, err := r.FindByID(ctx, tenantID, noteID); err != nil {
		return nil, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+versionCols+` FROM clinical_note_version
		 WHERE tenant_id = $1 AND note_id = $2 ORDER BY seq`,
		tenantID, noteID)
	if err != nil {
		return nil, domainerr.Persistence(err)
	}
	defer rows.Close()

	var versions []*Version
	for rows.Next() {
		var v Version
		if err := rows.Scan(&v.ID, &v.NoteID, &v.TenantID, &v.Seq, &v.Content, &v.AuthoredBy, &v.CreatedAt); err != nil {
			return nil, domainerr.Persistence(err)
		}
		versions = append(versions, &v)
	}
	return versions, nil
}

func (r *repoPG) ListByEncounter(ctx context.Context, tenantID string, encounterID uuid.UUID, limit, offset int) ([]*Record, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM clinical_note WHERE tenant_id = $1 AND encounter_id = $2`,
		tenantID, encounterID).Scan(&total); err != nil {
		return nil, 0, domainerr.Persistence(err)
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+noteCols+` FROM clinical_note
		 WHERE tenant_id = $1 AND encounter_id = $2
		 ORDER BY created_at DESC LIMIT $3 OFFSET $4`,
		tenantID, encounterID, limit, offset)
	if err != nil {
		return nil, 0, domainerr.Persistence(err)
	}
	defer rows.Close()

	var recs []*Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(
			&rec.ID, &rec.TenantID, &rec.EncounterID, &rec.PatientID, &rec.AuthorID, &rec.Status, &rec.CurrentVersion,
			&rec.FinalizedAt, &rec.FinalizedBy, &rec.CreatedAt, &rec.UpdatedAt, &rec.LastModifiedBy,
		); err != nil {
			return nil, 0, domainerr.Persistence(err)
		}
		recs = append(recs, &rec)
	}
	return recs, total, nil
}

func (r *repoPG) Delete(ctx context.Context, tenantID string, id uuid.UUID) error {
	q := r.conn(ctx)
	if _, err := q.Exec(ctx,
		`DELETE FROM clinical_note_version WHERE tenant_id = $1 AND note_id = $2`,
		tenantID, id); err != nil {
		return domainerr.Persistence(err)
	}
	tag, err := q.Exec(ctx,
		`DELETE FROM clinical_note WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return domainerr.Persistence(err)
	}
	if tag.RowsAffected() == 0 {
		return domainerr.New(domainerr.CodeNotFound)
	}
	return nil
}

func (r *repoPG) DeleteVersion(ctx context.Context, tenantID string, noteID uuid.UUID, seq int) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM clinical_note_version WHERE tenant_id = $1 AND note_id = $2 AND seq = $3`,
		tenantID, noteID, seq)
	if err != nil {
		return domainerr.Persistence(err)
	}
	if tag.RowsAffected() == 0 {
		return domainerr.New(domainerr.CodeNotFound)
	}
	return nil
}

func mapPGError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return domainerr.New(domainerr.CodeConflict)
	}
	return domainerr.Persistence(err)
}

func scanNote(row pgx.Row) (*Record, error) {
	var rec Record
	err := row.Scan(
		&rec.ID, &rec.TenantID, &rec.EncounterID, &rec.PatientID, &rec.AuthorID, &rec.Status, &rec.CurrentVersion,
		&rec.FinalizedAt, &rec.FinalizedBy, &rec.CreatedAt, &rec.UpdatedAt, &rec.LastModifiedBy,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domainerr.New(domainerr.CodeNotFound)
	}
	if err != nil {
		return nil, domainerr.Persistence(err)
	}
	return &rec, nil
}

func scanVersion(row pgx.Row) (*Version, error) {
	var v Version
	err := row.Scan(&v.ID, &v.NoteID, &v.TenantID, &v.Seq, &v.Content, &v.AuthoredBy, &v.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domainerr.New(domainerr.CodeNotFound)
	}
	if err != nil {
		return nil, domainerr.Persistence(err)
	}
	return &v, nil
}
